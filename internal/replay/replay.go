// Package replay reconstructs round state and player history purely by
// folding a recorded event stream (internal/codec.Output's Event variants),
// per spec §4.H: no access to the live ledger is required, only the
// ordered log a block's execution already produced. This is what makes
// the reconstruction replayable from a cold event stream with identical
// results.
//
// Grounded on internal/exec's event vocabulary (the same Event values
// internal/exec/casino.go emits for every settled result and, for Craps,
// every round-lifecycle transition) folded the way the teacher's own
// internal/app read-path functions project query responses from state —
// here from a log instead of from live state.
package replay

import (
	"fmt"

	"nullspace.io/casino-chain/internal/codec"
)

// Canonical event names the fold recognizes. Any other event name present
// in the stream is ignored by Fold (forward-compatible with new event
// types that don't participate in round projection).
const (
	EventRoundOpened    = "RoundOpened"
	EventBetAccepted    = "BetAccepted"
	EventLocked         = "Locked"
	EventOutcome        = "Outcome"
	EventFinalized      = "Finalized"
	EventPlayerSettled  = "PlayerSettled"
)

// Phase mirrors spec §4.B.4's table phase clock as observed purely
// through the event stream (Betting is implicit: the absence of a Locked
// event yet).
type Phase uint8

const (
	PhaseBetting Phase = iota
	PhaseLocked
	PhaseRolling
	PhasePayout
	PhaseFinalized
)

// RoundStatus is the phase/dice/point part of spec §4.H's round
// projection; timing and commit-reveal fields are not tracked.
type RoundStatus struct {
	SessionID  uint64
	GameType   string
	Phase      Phase
	Die1, Die2 uint8
	Point      uint8
	Opened     bool
}

// BetEntry is one `{bet_type, target, amount}` tuple folded from a
// BetAccepted event.
type BetEntry struct {
	BetType string
	Target  string
	Amount  uint64
}

// RoundTotals is the list of bets placed this round plus their sum.
type RoundTotals struct {
	Bets []BetEntry
	Sum  uint64
}

// PlayerRecord is one player's per-round history; Payout is populated
// only once a PlayerSettled event for that player has been observed.
type PlayerRecord struct {
	Player       string
	Payout       int64
	HasSettled   bool
}

// PlayerHistory indexes PlayerRecord by player.
type PlayerHistory struct {
	Players map[string]*PlayerRecord
}

// RoundState is the accumulated fold result for one session's event
// stream.
type RoundState struct {
	Status  RoundStatus
	Totals  RoundTotals
	History PlayerHistory
}

func newRoundState(sessionID uint64) *RoundState {
	return &RoundState{
		Status:  RoundStatus{SessionID: sessionID},
		History: PlayerHistory{Players: map[string]*PlayerRecord{}},
	}
}

func attr(e *codec.Event, key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Fold reconstructs per-session RoundState by folding events in arrival
// order. Events for multiple sessions may be interleaved in the same
// stream; Fold demultiplexes by each event's "sessionId" attribute.
//
// Records MUST survive replay from a cold event stream with identical
// values (spec §4.H); Fold takes only the event slice, never touching the
// live ledger, so re-running it against the same log is guaranteed to
// reproduce the same RoundState map.
func Fold(events []*codec.Event) map[uint64]*RoundState {
	rounds := map[uint64]*RoundState{}

	sessionOf := func(e *codec.Event) (uint64, bool) {
		v, ok := attr(e, "sessionId")
		if !ok {
			return 0, false
		}
		var id uint64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			return 0, false
		}
		return id, true
	}

	for _, e := range events {
		sessionID, ok := sessionOf(e)
		if !ok {
			continue
		}
		round, exists := rounds[sessionID]
		if !exists {
			round = newRoundState(sessionID)
			rounds[sessionID] = round
		}

		switch e.Name {
		case EventRoundOpened:
			round.Status.Opened = true
			round.Status.Phase = PhaseBetting
			if gt, ok := attr(e, "gameType"); ok {
				round.Status.GameType = gt
			}
		case EventBetAccepted:
			entry := BetEntry{}
			if bt, ok := attr(e, "betType"); ok {
				entry.BetType = bt
			}
			if tgt, ok := attr(e, "target"); ok {
				entry.Target = tgt
			}
			if amt, ok := attr(e, "amount"); ok {
				var a uint64
				fmt.Sscanf(amt, "%d", &a)
				entry.Amount = a
			}
			round.Totals.Bets = append(round.Totals.Bets, entry)
			round.Totals.Sum += entry.Amount
		case EventLocked:
			round.Status.Phase = PhaseLocked
		case EventOutcome:
			round.Status.Phase = PhasePayout
			if v, ok := attr(e, "die1"); ok {
				var d uint8
				fmt.Sscanf(v, "%d", &d)
				round.Status.Die1 = d
			}
			if v, ok := attr(e, "die2"); ok {
				var d uint8
				fmt.Sscanf(v, "%d", &d)
				round.Status.Die2 = d
			}
			if v, ok := attr(e, "point"); ok {
				var p uint8
				fmt.Sscanf(v, "%d", &p)
				round.Status.Point = p
			}
		case EventFinalized:
			round.Status.Phase = PhaseFinalized
		case EventPlayerSettled:
			player, _ := attr(e, "player")
			rec, ok := round.History.Players[player]
			if !ok {
				rec = &PlayerRecord{Player: player}
				round.History.Players[player] = rec
			}
			if amt, ok := attr(e, "amount"); ok {
				var signed int64
				fmt.Sscanf(amt, "%d", &signed)
				rec.Payout = signed
			}
			rec.HasSettled = true
		}
	}
	return rounds
}
