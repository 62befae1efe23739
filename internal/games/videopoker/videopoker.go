// Package videopoker implements Jacks-or-Better draw poker: deal 5, the
// player selects which cards to hold via a bitmask, the rest are replaced
// once, and the final hand is scored against the standard 9/6 Jacks or
// Better pay table (for-1, credited including the original bet).
//
// State blob: [stage:u8] [cards[5]:u8] [heldMask:u8]
package videopoker

import (
	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const videoPokerDecks = 1

type Stage uint8

const (
	StageDealt Stage = iota
	StageComplete
)

type Move uint8

const (
	MoveDeal Move = iota
	MoveDraw // [1, heldMask:u8]
)

type State struct {
	Stage Stage
	Cards [5]uint8
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) != 6 {
		return nil, false
	}
	r := serialization.NewReader(blob)
	sb, _ := r.ReadU8()
	if sb > uint8(StageComplete) {
		return nil, false
	}
	cs, ok := r.ReadBytes(5)
	if !ok {
		return nil, false
	}
	for _, c := range cs {
		if c != 0xFF && !cards.IsValid(c) {
			return nil, false
		}
	}
	var arr [5]uint8
	copy(arr[:], cs)
	return &State{Stage: Stage(sb), Cards: arr}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(6)
	w.PushU8(uint8(st.Stage))
	w.PushBytes(st.Cards[:])
	return w.Bytes()
}

type VideoPoker struct{}

func (VideoPoker) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{Stage: StageDealt, Cards: [5]uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (VideoPoker) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
	if session.IsComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}
	if len(pl) == 0 {
		return games.Result{}, games.ErrInvalidPayload
	}
	st, ok := parseState(session.StateBlob)
	if !ok {
		return games.Result{}, games.ErrInvalidPayload
	}
	if st.Stage == StageComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}

	switch Move(pl[0]) {
	case MoveDeal:
		if len(pl) != 1 || st.Cards[0] != 0xFF {
			return games.Result{}, games.ErrInvalidMove
		}
		deck := rng.CreateDeck(videoPokerDecks)
		for i := 0; i < 5; i++ {
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.Cards[i] = c
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveDraw:
		if len(pl) != 2 || st.Cards[0] == 0xFF {
			return games.Result{}, games.ErrInvalidPayload
		}
		heldMask := pl[1]
		deck := rng.CreateDeckExcluding(st.Cards[:], videoPokerDecks)
		for i := 0; i < 5; i++ {
			if heldMask&(1<<uint(i)) != 0 {
				continue
			}
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.Cards[i] = c
		}
		st.Stage = StageComplete
		session.IsComplete = true
		session.StateBlob = serializeState(st)

		mult := evaluatePaytable(st.Cards)
		if mult == 0 {
			return games.LossPreDeducted(session.Bet, nil), nil
		}
		return games.Win(payload.SatMulU64(session.Bet, mult), nil), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

// evaluatePaytable scores a 9/6 Jacks or Better hand, returning a for-1
// multiplier (the credited amount already includes the original bet).
func evaluatePaytable(cs [5]uint8) uint64 {
	ranks := make([]int, 5)
	suits := make([]int, 5)
	for i, c := range cs {
		ranks[i] = int(cards.Rank(c))
		suits[i] = int(cards.Suit(c))
	}
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	isFlush := true
	for i := 1; i < 5; i++ {
		if suits[i] != suits[0] {
			isFlush = false
			break
		}
	}
	sorted := append([]int(nil), ranks...)
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			if sorted[j] < sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	isStraight := true
	for i := 1; i < 5; i++ {
		if sorted[i] != sorted[i-1]+1 {
			isStraight = false
			break
		}
	}
	isWheel := sorted[0] == 2 && sorted[1] == 3 && sorted[2] == 4 && sorted[3] == 5 && sorted[4] == 14
	if isWheel {
		isStraight = true
	}
	isRoyal := isStraight && isFlush && sorted[0] == 10 && !isWheel

	var four, three, pairs, jacksOrBetterPair int
	for rank, c := range counts {
		switch c {
		case 4:
			four++
		case 3:
			three++
		case 2:
			pairs++
			if rank >= 11 {
				jacksOrBetterPair++
			}
		}
	}

	switch {
	case isRoyal:
		return 800
	case isStraight && isFlush:
		return 50
	case four > 0:
		return 25
	case three > 0 && pairs > 0:
		return 9
	case isFlush:
		return 6
	case isStraight:
		return 4
	case three > 0:
		return 3
	case pairs == 2:
		return 2
	case jacksOrBetterPair > 0:
		return 1
	default:
		return 0
	}
}
