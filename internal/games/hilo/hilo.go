// Package hilo implements Hi-Lo: the player predicts whether the next card
// drawn from a continuously reshuffled single deck ranks higher, lower, or
// the same as the current card. An equal rank loses a Higher or Lower
// guess; only a Tie guess wins on it.
//
// State blob: [currentCard:u8] [stage:u8] [streak:u8]
// Stages: 0=Betting 1=AwaitingReveal 2=Complete.
// Moves: 0=GuessHigher 1=GuessLower 2=GuessTie 3=CashOut 4=Deal
package hilo

import (
	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const (
	hiloDecks = 1
	tieMult   = 10 // 10:1 on an exact-rank tie guess
)

type Stage uint8

const (
	StageBetting Stage = iota
	StageAwaitingReveal
	StageComplete
)

type Move uint8

const (
	MoveGuessHigher Move = iota
	MoveGuessLower
	MoveGuessTie
	MoveCashOut
	MoveDeal
)

type State struct {
	CurrentCard uint8
	Stage       Stage
	Streak      uint8
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) != 3 {
		return nil, false
	}
	r := serialization.NewReader(blob)
	c, _ := r.ReadU8()
	if c != 0xFF && !cards.IsValid(c) {
		return nil, false
	}
	s, _ := r.ReadU8()
	if s > uint8(StageComplete) {
		return nil, false
	}
	streak, _ := r.ReadU8()
	return &State{CurrentCard: c, Stage: Stage(s), Streak: streak}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(3)
	w.PushU8(st.CurrentCard)
	w.PushU8(uint8(st.Stage))
	w.PushU8(st.Streak)
	return w.Bytes()
}

type HiLo struct{}

func (HiLo) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{CurrentCard: 0xFF, Stage: StageBetting}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (HiLo) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
	if session.IsComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}
	if len(pl) != 1 {
		return games.Result{}, games.ErrInvalidPayload
	}
	if pl[0] > uint8(MoveDeal) {
		return games.Result{}, games.ErrInvalidPayload
	}
	mv := Move(pl[0])
	st, ok := parseState(session.StateBlob)
	if !ok {
		return games.Result{}, games.ErrInvalidPayload
	}
	if st.Stage == StageComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}

	switch mv {
	case MoveDeal:
		if st.CurrentCard != 0xFF {
			return games.Result{}, games.ErrInvalidMove
		}
		deck := rng.CreateDeck(hiloDecks)
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		st.CurrentCard = c
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveCashOut:
		if st.CurrentCard == 0xFF {
			return games.Result{}, games.ErrInvalidMove
		}
		st.Stage = StageComplete
		session.IsComplete = true
		total := payload.SatMulU64(session.Bet, uint64(st.Streak)+1)
		session.StateBlob = serializeState(st)
		if total == 0 {
			return games.LossPreDeducted(session.Bet, nil), nil
		}
		return games.Win(total, nil), nil

	default:
		if st.CurrentCard == 0xFF {
			return games.Result{}, games.ErrInvalidMove
		}
		deck := rng.CreateDeckExcluding([]uint8{st.CurrentCard}, hiloDecks)
		next, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		session.MoveCount++
		curRank, nextRank := cards.Rank(st.CurrentCard), cards.Rank(next)
		correct := false
		switch mv {
		case MoveGuessHigher:
			correct = nextRank > curRank
		case MoveGuessLower:
			correct = nextRank < curRank
		case MoveGuessTie:
			correct = nextRank == curRank
		}
		st.CurrentCard = next
		if !correct {
			st.Stage = StageComplete
			session.IsComplete = true
			session.StateBlob = serializeState(st)
			return games.LossPreDeducted(session.Bet, nil), nil
		}
		if mv == MoveGuessTie {
			st.Streak = uint8(payload.SatAddU64(uint64(st.Streak), tieMult))
		} else {
			st.Streak++
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil
	}
}
