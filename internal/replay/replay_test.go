package replay

import (
	"fmt"
	"testing"

	"nullspace.io/casino-chain/internal/codec"
)

func ev(name string, kv ...string) *codec.Event {
	e := &codec.Event{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Attrs = append(e.Attrs, codec.EventAttr{Key: kv[i], Value: kv[i+1]})
	}
	return e
}

func TestFoldReconstructsRoundFromStream(t *testing.T) {
	events := []*codec.Event{
		ev(EventRoundOpened, "sessionId", "1", "gameType", "craps"),
		ev(EventBetAccepted, "sessionId", "1", "betType", "pass", "amount", "100"),
		ev(EventBetAccepted, "sessionId", "1", "betType", "field", "amount", "50"),
		ev(EventLocked, "sessionId", "1"),
		ev(EventOutcome, "sessionId", "1", "die1", "4", "die2", "3", "point", "7"),
		ev(EventPlayerSettled, "sessionId", "1", "player", "alice", "amount", "100"),
		ev(EventFinalized, "sessionId", "1"),
	}

	rounds := Fold(events)
	round, ok := rounds[1]
	if !ok {
		t.Fatalf("expected round for session 1")
	}
	if !round.Status.Opened || round.Status.GameType != "craps" {
		t.Fatalf("unexpected status: %+v", round.Status)
	}
	if round.Status.Phase != PhaseFinalized {
		t.Fatalf("expected finalized phase, got %v", round.Status.Phase)
	}
	if round.Status.Die1 != 4 || round.Status.Die2 != 3 || round.Status.Point != 7 {
		t.Fatalf("unexpected dice/point: %+v", round.Status)
	}
	if round.Totals.Sum != 150 || len(round.Totals.Bets) != 2 {
		t.Fatalf("unexpected totals: %+v", round.Totals)
	}
	rec, ok := round.History.Players["alice"]
	if !ok || !rec.HasSettled || rec.Payout != 100 {
		t.Fatalf("unexpected player history: %+v", rec)
	}
}

func TestFoldIsPureOverTheEventSlice(t *testing.T) {
	events := []*codec.Event{
		ev(EventRoundOpened, "sessionId", "9", "gameType", "blackjack"),
		ev(EventPlayerSettled, "sessionId", "9", "player", "bob", "amount", "-25"),
	}
	first := Fold(events)
	second := Fold(events)
	for _, id := range []uint64{9} {
		a, b := first[id], second[id]
		if a.Status != b.Status {
			t.Fatalf("replay produced different status across runs: %+v vs %+v", a.Status, b.Status)
		}
		ra, rb := a.History.Players["bob"], b.History.Players["bob"]
		if *ra != *rb {
			t.Fatalf("replay produced different player record across runs")
		}
	}
}

func TestFoldIgnoresEventsWithoutSessionID(t *testing.T) {
	events := []*codec.Event{
		ev("CasinoError", "signer", "deadbeef"),
	}
	rounds := Fold(events)
	if len(rounds) != 0 {
		t.Fatalf("expected no rounds from a session-less event, got %v", rounds)
	}
	_ = fmt.Sprintf("%v", rounds)
}
