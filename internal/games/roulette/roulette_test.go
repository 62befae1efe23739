package roulette

import (
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func newSession(bet uint64) *games.Session {
	return &games.Session{ID: 1, GameType: games.GameTypeRoulette, Bet: bet}
}

func TestInitStartsInBettingStage(t *testing.T) {
	r := Roulette{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	r.Init(session, rng)

	st, ok := parseState(session.StateBlob)
	if !ok || st.Stage != StageBetting || st.Result != 0xFF {
		t.Fatalf("unexpected init state: %+v ok=%v", st, ok)
	}
}

func TestSetBetStraightUpRecordsNumber(t *testing.T) {
	r := Roulette{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	r.Init(session, rng)

	pl := []byte{byte(MoveSetBet), byte(BetStraightUp), 1, 17, 0, 0, 0, 0, 0}
	if _, err := r.ProcessMove(session, pl, rng); err != nil {
		t.Fatalf("set bet: %v", err)
	}
	st, _ := parseState(session.StateBlob)
	if st.BetType != BetStraightUp || st.NumberCount != 1 || st.Numbers[0] != 17 {
		t.Fatalf("bet not recorded: %+v", st)
	}
}

func TestSetBetRejectsOutOfRangeNumber(t *testing.T) {
	r := Roulette{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	r.Init(session, rng)

	pl := []byte{byte(MoveSetBet), byte(BetStraightUp), 1, 37, 0, 0, 0, 0, 0}
	if _, err := r.ProcessMove(session, pl, rng); err != games.ErrInvalidPayload {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestResolveBetStraightUp(t *testing.T) {
	st := &State{BetType: BetStraightUp, NumberCount: 1, Numbers: [maxNumbers]uint8{17}, Result: 17}
	mult, win := resolveBet(st)
	if !win || mult != 36 {
		t.Fatalf("expected straight-up payout 36x, got mult=%d win=%v", mult, win)
	}
	st.Result = 18
	if _, win := resolveBet(st); win {
		t.Fatalf("expected no win on mismatched number")
	}
}

func TestResolveBetRedBlackZeroLoses(t *testing.T) {
	st := &State{BetType: BetRed, Result: 0}
	if _, win := resolveBet(st); win {
		t.Fatalf("zero should not satisfy a red bet")
	}
	st = &State{BetType: BetBlack, Result: 0}
	if _, win := resolveBet(st); win {
		t.Fatalf("zero should not satisfy a black bet")
	}
}

func TestResolveBetRedAndBlackAreDisjoint(t *testing.T) {
	for n := uint8(1); n <= 36; n++ {
		redSt := &State{BetType: BetRed, Result: n}
		blackSt := &State{BetType: BetBlack, Result: n}
		_, redWin := resolveBet(redSt)
		_, blackWin := resolveBet(blackSt)
		if redWin == blackWin {
			t.Fatalf("number %d should be exactly one of red/black", n)
		}
	}
}

func TestResolveBetDozenAndColumn(t *testing.T) {
	st := &State{BetType: BetDozen, NumberCount: 1, Numbers: [maxNumbers]uint8{0}, Result: 5}
	if mult, win := resolveBet(st); !win || mult != 3 {
		t.Fatalf("expected first-dozen win of 3x for number 5, got mult=%d win=%v", mult, win)
	}
	st = &State{BetType: BetColumn, NumberCount: 1, Numbers: [maxNumbers]uint8{2}, Result: 36}
	if mult, win := resolveBet(st); !win || mult != 3 {
		t.Fatalf("expected third-column win of 3x for number 36, got mult=%d win=%v", mult, win)
	}
}

func TestResolveBetLowHigh(t *testing.T) {
	if mult, win := resolveBet(&State{BetType: BetLow, Result: 10}); !win || mult != 2 {
		t.Fatalf("expected low win of 2x for number 10, got mult=%d win=%v", mult, win)
	}
	if _, win := resolveBet(&State{BetType: BetHigh, Result: 10}); win {
		t.Fatalf("number 10 should not satisfy a high bet")
	}
}

func TestSpinCompletesSession(t *testing.T) {
	r := Roulette{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	r.Init(session, rng)
	pl := []byte{byte(MoveSetBet), byte(BetRed), 0, 0, 0, 0, 0, 0, 0}
	if _, err := r.ProcessMove(session, pl, rng); err != nil {
		t.Fatalf("set bet: %v", err)
	}
	res, err := r.ProcessMove(session, []byte{byte(MoveSpin)}, rng)
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if !session.IsComplete {
		t.Fatalf("expected session complete after spin")
	}
	st, _ := parseState(session.StateBlob)
	if st.Result >= pocketCount {
		t.Fatalf("result out of pocket range: %d", st.Result)
	}
	if res.Kind != games.ResultWin && res.Kind != games.ResultLossPreDeducted {
		t.Fatalf("unexpected result kind: %+v", res)
	}
}

func TestSpinPocketDistributionCoversFullRange(t *testing.T) {
	session := newSession(0)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	seen := make(map[uint8]bool)
	for i := 0; i < 5000 && len(seen) < int(pocketCount); i++ {
		seen[spinPocket(rng)] = true
	}
	if len(seen) != int(pocketCount) {
		t.Fatalf("expected to observe all %d pockets, saw %d", pocketCount, len(seen))
	}
}

func TestParseStateRejectsTrailingBytes(t *testing.T) {
	st := &State{Stage: StageBetting, Result: 0xFF}
	blob := serializeState(st)
	blob = append(blob, 0xFF)
	if _, ok := parseState(blob); ok {
		t.Fatalf("expected rejection of trailing bytes")
	}
}

func TestStateBlobFuzzDoesNotPanic(t *testing.T) {
	for n := 0; n < 1000; n++ {
		blob := make([]byte, n%20)
		for i := range blob {
			blob[i] = byte((n*31 + i*17) % 256)
		}
		_, _ = parseState(blob)
	}
}
