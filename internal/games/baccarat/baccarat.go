// Package baccarat implements Punto Banco baccarat: Player, Banker, and Tie
// bets resolved under the standard drawing rules (natural 8/9 stands;
// player draws a third card on 0-5, stands on 6-7; banker's third-card
// draw depends on the player's third card per the WoO table). Banker wins
// pay 1:1 less a 5% commission; Tie pays 8:1.
//
// State blob: [stage:u8] [playerCount:u8] [bankerCount:u8]
//
//	[playerCards[playerCount]:u8] [bankerCards[bankerCount]:u8] [betType:u8] [tieBet:u64-be]
//
// Each count is 0..3; only the cards actually dealt are stored.
package baccarat

import (
	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const (
	baccaratDecks   = 8
	bankerCommission = 5 // percent
)

type Stage uint8

const (
	StageBetting Stage = iota
	StageComplete
)

type BetType uint8

const (
	BetPlayer BetType = iota
	BetBanker
	BetTie
)

type Move uint8

const (
	MoveSetBet Move = iota // [0, betType:u8, tieBet:u64]
	MoveDeal                // [1]
)

type State struct {
	Stage       Stage
	PlayerCards []uint8
	BankerCards []uint8
	BetType     BetType
	TieBet      uint64
}

func cardValue(c uint8) int {
	r := int(cards.Rank(c)) // 2..14, Ace=14
	switch {
	case r == 14:
		return 1
	case r >= 10:
		return 0
	default:
		return r
	}
}

func handTotal(cs []uint8) int {
	sum := 0
	for _, c := range cs {
		sum += cardValue(c)
	}
	return sum % 10
}

func parseState(blob []byte) (*State, bool) {
	r := serialization.NewReader(blob)
	stageByte, ok := r.ReadU8()
	if !ok || stageByte > uint8(StageComplete) {
		return nil, false
	}
	pCount, ok := r.ReadU8()
	if !ok || pCount > 3 {
		return nil, false
	}
	bCount, ok := r.ReadU8()
	if !ok || bCount > 3 {
		return nil, false
	}
	pCards, ok := r.ReadBytes(int(pCount))
	if !ok {
		return nil, false
	}
	bCards, ok := r.ReadBytes(int(bCount))
	if !ok {
		return nil, false
	}
	for _, c := range pCards {
		if !cards.IsValid(c) {
			return nil, false
		}
	}
	for _, c := range bCards {
		if !cards.IsValid(c) {
			return nil, false
		}
	}
	betType, ok := r.ReadU8()
	if !ok || betType > uint8(BetTie) {
		return nil, false
	}
	tieBet, ok := r.ReadU64BE()
	if !ok || r.Remaining() != 0 {
		return nil, false
	}
	return &State{
		Stage:       Stage(stageByte),
		PlayerCards: append([]uint8(nil), pCards...),
		BankerCards: append([]uint8(nil), bCards...),
		BetType:     BetType(betType),
		TieBet:      tieBet,
	}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(16)
	w.PushU8(uint8(st.Stage))
	w.PushU8(uint8(len(st.PlayerCards)))
	w.PushU8(uint8(len(st.BankerCards)))
	w.PushBytes(st.PlayerCards)
	w.PushBytes(st.BankerCards)
	w.PushU8(uint8(st.BetType))
	w.PushU64BE(st.TieBet)
	return w.Bytes()
}

type Baccarat struct{}

func (Baccarat) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{Stage: StageBetting, BetType: BetPlayer}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (Baccarat) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
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
	case MoveSetBet:
		if len(pl) != 10 || pl[1] > uint8(BetTie) {
			return games.Result{}, games.ErrInvalidPayload
		}
		tieBet, err := payload.ParseU64BE(pl, 2)
		if err != nil {
			return games.Result{}, err
		}
		st.BetType = BetType(pl[1])
		st.TieBet = tieBet
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveDeal:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		deck := rng.CreateDeck(baccaratDecks)
		var p, b []uint8
		for i := 0; i < 2; i++ {
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			p = append(p, c)
			c2, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			b = append(b, c2)
		}
		pTotal, bTotal := handTotal(p), handTotal(b)

		if pTotal < 8 && bTotal < 8 {
			var playerThird uint8
			hasThird := false
			if pTotal <= 5 {
				c, ok := rng.DrawCard(&deck)
				if ok {
					p = append(p, c)
					playerThird = c
					hasThird = true
				}
			}
			drawBanker := false
			if !hasThird {
				drawBanker = bTotal <= 5
			} else {
				pv := cardValue(playerThird)
				switch {
				case bTotal <= 2:
					drawBanker = true
				case bTotal == 3:
					drawBanker = pv != 8
				case bTotal == 4:
					drawBanker = pv >= 2 && pv <= 7
				case bTotal == 5:
					drawBanker = pv >= 4 && pv <= 7
				case bTotal == 6:
					drawBanker = pv == 6 || pv == 7
				}
			}
			if drawBanker {
				c, ok := rng.DrawCard(&deck)
				if ok {
					b = append(b, c)
				}
			}
		}

		pTotal, bTotal = handTotal(p), handTotal(b)
		st.PlayerCards, st.BankerCards = p, b
		st.Stage = StageComplete
		session.IsComplete = true
		session.StateBlob = serializeState(st)

		var total uint64
		switch {
		case pTotal == bTotal:
			if st.BetType == BetTie {
				total = payload.SatMulU64(session.Bet, 9)
			}
		case pTotal > bTotal:
			if st.BetType == BetPlayer {
				total = payload.SatMulU64(session.Bet, 2)
			}
		default:
			if st.BetType == BetBanker {
				winnings := session.Bet
				commission := winnings * bankerCommission / 100
				total = payload.SatAddU64(session.Bet, winnings-commission)
			}
		}
		if st.TieBet > 0 && pTotal == bTotal {
			total = payload.SatAddU64(total, payload.SatMulU64(st.TieBet, 9))
		}

		if total == 0 {
			wagered := payload.SatAddU64(session.Bet, st.TieBet)
			return games.LossPreDeducted(wagered, nil), nil
		}
		return games.Win(total, nil), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}
