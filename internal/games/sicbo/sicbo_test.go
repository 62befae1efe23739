package sicbo

import (
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func newSession(bet uint64) *games.Session {
	return &games.Session{ID: 1, GameType: games.GameTypeSicBo, Bet: bet}
}

func TestInitStartsInBettingStage(t *testing.T) {
	s := SicBo{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	s.Init(session, rng)

	st, ok := parseState(session.StateBlob)
	if !ok || st.Stage != StageBetting {
		t.Fatalf("unexpected init state: %+v ok=%v", st, ok)
	}
}

func TestSetBetUpdatesState(t *testing.T) {
	s := SicBo{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	s.Init(session, rng)

	if _, err := s.ProcessMove(session, []byte{byte(MoveSetBet), byte(BetBig), 0}, rng); err != nil {
		t.Fatalf("set bet: %v", err)
	}
	st, _ := parseState(session.StateBlob)
	if st.BetType != BetBig {
		t.Fatalf("bet type not recorded: %+v", st)
	}
}

func TestResolveBetBigAndSmallExcludeTriples(t *testing.T) {
	st := &State{BetType: BetBig}
	if mult, win := resolveBet(&State{BetType: BetBig, D1: 6, D2: 6, D3: 6}); win {
		t.Fatalf("triple should not win Big, got mult=%d", mult)
	}
	_ = st
	if mult, win := resolveBet(&State{BetType: BetBig, D1: 6, D2: 6, D3: 5}); !win || mult != 2 {
		t.Fatalf("expected Big win of 2x for sum 17, got mult=%d win=%v", mult, win)
	}
	if mult, win := resolveBet(&State{BetType: BetSmall, D1: 1, D2: 1, D3: 2}); !win || mult != 2 {
		t.Fatalf("expected Small win of 2x for sum 4, got mult=%d win=%v", mult, win)
	}
}

func TestResolveBetTotalExactSum(t *testing.T) {
	mult, win := resolveBet(&State{BetType: BetTotal, Target: 10, D1: 3, D2: 3, D3: 4})
	if !win || mult != 7 {
		t.Fatalf("expected total-10 win of 7x, got mult=%d win=%v", mult, win)
	}
	mult, win = resolveBet(&State{BetType: BetTotal, Target: 4, D1: 1, D2: 1, D3: 2})
	if !win || mult != 61 {
		t.Fatalf("expected total-4 win of 61x, got mult=%d win=%v", mult, win)
	}
}

func TestResolveBetSingleScalesByMatchCount(t *testing.T) {
	mult, win := resolveBet(&State{BetType: BetSingle, Target: 5, D1: 5, D2: 2, D3: 3})
	if !win || mult != 2 {
		t.Fatalf("expected single-match payout 2x, got mult=%d win=%v", mult, win)
	}
	mult, win = resolveBet(&State{BetType: BetSingle, Target: 5, D1: 5, D2: 5, D3: 3})
	if !win || mult != 3 {
		t.Fatalf("expected double-match payout 3x, got mult=%d win=%v", mult, win)
	}
	mult, win = resolveBet(&State{BetType: BetSingle, Target: 5, D1: 5, D2: 5, D3: 5})
	if !win || mult != 4 {
		t.Fatalf("expected triple-match payout 4x, got mult=%d win=%v", mult, win)
	}
	if _, win := resolveBet(&State{BetType: BetSingle, Target: 5, D1: 1, D2: 2, D3: 3}); win {
		t.Fatalf("expected no match to lose")
	}
}

func TestResolveBetSpecificTriple(t *testing.T) {
	mult, win := resolveBet(&State{BetType: BetTriple, Target: 4, D1: 4, D2: 4, D3: 4})
	if !win || mult != 181 {
		t.Fatalf("expected specific triple payout 181x, got mult=%d win=%v", mult, win)
	}
	if _, win := resolveBet(&State{BetType: BetTriple, Target: 4, D1: 4, D2: 4, D3: 3}); win {
		t.Fatalf("expected non-triple to lose")
	}
}

func TestResolveBetAnyTriple(t *testing.T) {
	mult, win := resolveBet(&State{BetType: BetTriple, Target: 0, D1: 2, D2: 2, D3: 2})
	if !win || mult != 31 {
		t.Fatalf("expected any-triple payout 31x, got mult=%d win=%v", mult, win)
	}
}

func TestResolveBetCombination(t *testing.T) {
	target := uint8(3<<4 | 5) // faces 3 and 5
	mult, win := resolveBet(&State{BetType: BetCombination, Target: target, D1: 3, D2: 5, D3: 1})
	if !win || mult != 6 {
		t.Fatalf("expected combination payout 6x, got mult=%d win=%v", mult, win)
	}
	if _, win := resolveBet(&State{BetType: BetCombination, Target: target, D1: 3, D2: 3, D3: 1}); win {
		t.Fatalf("expected missing second face to lose")
	}
}

func TestRollCompletesSessionAndPays(t *testing.T) {
	s := SicBo{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	s.Init(session, rng)
	if _, err := s.ProcessMove(session, []byte{byte(MoveSetBet), byte(BetBig), 0}, rng); err != nil {
		t.Fatalf("set bet: %v", err)
	}
	res, err := s.ProcessMove(session, []byte{byte(MoveRoll)}, rng)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !session.IsComplete {
		t.Fatalf("expected session complete after roll")
	}
	if res.Kind != games.ResultWin && res.Kind != games.ResultLossPreDeducted {
		t.Fatalf("unexpected result kind: %+v", res)
	}
}

func TestParseStateRejectsInvalidDieFace(t *testing.T) {
	blob := []byte{0, 0, 0, 7, 0, 0}
	if _, ok := parseState(blob); ok {
		t.Fatalf("expected rejection of invalid die face")
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
