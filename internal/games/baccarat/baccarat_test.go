package baccarat

import (
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func newSession(bet uint64) *games.Session {
	return &games.Session{ID: 1, GameType: games.GameTypeBaccarat, Bet: bet}
}

func TestInitStartsInBettingStage(t *testing.T) {
	b := Baccarat{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	b.Init(session, rng)

	st, ok := parseState(session.StateBlob)
	if !ok {
		t.Fatalf("parse failed")
	}
	if st.Stage != StageBetting || st.BetType != BetPlayer || st.TieBet != 0 {
		t.Fatalf("unexpected init state: %+v", st)
	}
}

func TestSetBetUpdatesState(t *testing.T) {
	b := Baccarat{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	b.Init(session, rng)

	pl := append([]byte{byte(MoveSetBet), byte(BetBanker)}, 0, 0, 0, 0, 0, 0, 0, 10)
	res, err := b.ProcessMove(session, pl, rng)
	if err != nil {
		t.Fatalf("set bet: %v", err)
	}
	if res.Kind != games.ResultContinue {
		t.Fatalf("unexpected result: %+v", res)
	}
	st, _ := parseState(session.StateBlob)
	if st.BetType != BetBanker || st.TieBet != 10 {
		t.Fatalf("bet not recorded: %+v", st)
	}
}

func TestSetBetRejectsBadLength(t *testing.T) {
	b := Baccarat{}
	session := newSession(100)
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)
	b.Init(session, rng)

	_, err := b.ProcessMove(session, []byte{byte(MoveSetBet), byte(BetBanker)}, rng)
	if err != games.ErrInvalidPayload {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestDealProducesPlayerBankerOrTieOutcome(t *testing.T) {
	var sawPlayer, sawBanker, sawTie bool
	for seed := uint64(0); seed < 300 && !(sawPlayer && sawBanker && sawTie); seed++ {
		b := Baccarat{}
		session := newSession(100)
		session.ID = seed
		rng := games.NewGameRng([]byte("seed"), session.ID, 0)
		b.Init(session, rng)

		pl := append([]byte{byte(MoveSetBet), byte(BetPlayer)}, 0, 0, 0, 0, 0, 0, 0, 0)
		if _, err := b.ProcessMove(session, pl, rng); err != nil {
			t.Fatalf("set bet: %v", err)
		}
		res, err := b.ProcessMove(session, []byte{byte(MoveDeal)}, rng)
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		st, ok := parseState(session.StateBlob)
		if !ok {
			t.Fatalf("parse failed")
		}
		pTotal, bTotal := handTotal(st.PlayerCards), handTotal(st.BankerCards)
		switch {
		case pTotal == bTotal:
			sawTie = true
			if res.Kind != games.ResultLossPreDeducted {
				t.Fatalf("tie with player-only bet should lose: %+v", res)
			}
		case pTotal > bTotal:
			sawPlayer = true
			if res.Kind != games.ResultWin || res.Amount != 200 {
				t.Fatalf("expected player win of 200, got %+v", res)
			}
		default:
			sawBanker = true
			if res.Kind != games.ResultLossPreDeducted {
				t.Fatalf("banker win with player-only bet should lose: %+v", res)
			}
		}
		if !session.IsComplete {
			t.Fatalf("session should be complete after deal")
		}
	}
	if !(sawPlayer && sawBanker && sawTie) {
		t.Fatalf("did not observe all three outcomes: player=%v banker=%v tie=%v", sawPlayer, sawBanker, sawTie)
	}
}

func TestBankerWinAppliesCommission(t *testing.T) {
	found := false
	for seed := uint64(0); seed < 300; seed++ {
		b := Baccarat{}
		session := newSession(100)
		session.ID = seed
		rng := games.NewGameRng([]byte("seed"), session.ID, 0)
		b.Init(session, rng)

		pl := append([]byte{byte(MoveSetBet), byte(BetBanker)}, 0, 0, 0, 0, 0, 0, 0, 0)
		if _, err := b.ProcessMove(session, pl, rng); err != nil {
			t.Fatalf("set bet: %v", err)
		}
		res, err := b.ProcessMove(session, []byte{byte(MoveDeal)}, rng)
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		st, _ := parseState(session.StateBlob)
		pTotal, bTotal := handTotal(st.PlayerCards), handTotal(st.BankerCards)
		if bTotal > pTotal {
			found = true
			winnings := session.Bet - session.Bet*bankerCommission/100
			want := session.Bet + winnings
			if res.Kind != games.ResultWin || res.Amount != want {
				t.Fatalf("expected commission-adjusted win of %d, got %+v", want, res)
			}
			break
		}
	}
	if !found {
		t.Fatalf("never observed a banker win in 300 seeds")
	}
}

func TestTieBetPaysEightToOne(t *testing.T) {
	found := false
	for seed := uint64(0); seed < 500; seed++ {
		b := Baccarat{}
		session := newSession(100)
		session.ID = seed
		rng := games.NewGameRng([]byte("seed"), session.ID, 0)
		b.Init(session, rng)

		pl := append([]byte{byte(MoveSetBet), byte(BetPlayer)}, 0, 0, 0, 0, 0, 0, 0, 20)
		if _, err := b.ProcessMove(session, pl, rng); err != nil {
			t.Fatalf("set bet: %v", err)
		}
		res, err := b.ProcessMove(session, []byte{byte(MoveDeal)}, rng)
		if err != nil {
			t.Fatalf("deal: %v", err)
		}
		st, _ := parseState(session.StateBlob)
		pTotal, bTotal := handTotal(st.PlayerCards), handTotal(st.BankerCards)
		if pTotal == bTotal {
			found = true
			if res.Kind != games.ResultWin {
				t.Fatalf("expected a win on tie with tie side bet placed, got %+v", res)
			}
			if res.Amount < 180 {
				t.Fatalf("expected tie payout of at least 180 (20*9), got %d", res.Amount)
			}
			break
		}
	}
	if !found {
		t.Fatalf("never observed a tie in 500 seeds")
	}
}

func TestCardValueTable(t *testing.T) {
	cases := map[uint8]int{
		12: 1,  // ace of spades -> 1
		7:  9,  // 9 of spades
		8:  0,  // 10 of spades -> 0
		9:  0,  // jack of spades -> 0
		11: 0,  // king of spades -> 0
	}
	for card, want := range cases {
		if got := cardValue(card); got != want {
			t.Fatalf("cardValue(%d) = %d, want %d", card, got, want)
		}
	}
}

func TestParseStateRejectsTrailingBytes(t *testing.T) {
	st := &State{Stage: StageBetting, BetType: BetPlayer}
	blob := serializeState(st)
	blob = append(blob, 0xFF)
	if _, ok := parseState(blob); ok {
		t.Fatalf("expected rejection of trailing bytes")
	}
}

func TestParseStateRejectsInvalidCardCounts(t *testing.T) {
	blob := []byte{0, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, ok := parseState(blob); ok {
		t.Fatalf("expected rejection of out-of-range card count")
	}
}

func TestStateBlobFuzzDoesNotPanic(t *testing.T) {
	for n := 0; n < 1000; n++ {
		blob := make([]byte, n%40)
		for i := range blob {
			blob[i] = byte((n*31 + i*17) % 256)
		}
		_, _ = parseState(blob)
	}
}
