package blackjack

import (
	"math/rand"
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func newSession(bet uint64) *games.Session {
	return &games.Session{ID: 1, GameType: games.GameTypeBlackjack, Bet: bet}
}

func dealSession(t *testing.T, bj Blackjack, session *games.Session, seed []byte) {
	t.Helper()
	rng := games.NewGameRng(seed, session.ID, session.MoveCount)
	res := bj.Init(session, rng)
	if res.Kind != games.ResultContinue {
		t.Fatalf("init: unexpected result %+v", res)
	}
	rng = games.NewGameRng(seed, session.ID, session.MoveCount)
	if _, err := bj.ProcessMove(session, []byte{byte(MoveDeal)}, rng); err != nil {
		t.Fatalf("deal: %v", err)
	}
}

// test_hit_all_busted_returns_loss_prededucted analogue: brute-force a
// session/seed combination whose deal+forced-hit sequence busts the lone
// hand, and confirm LossPreDeducted(bet) with no side bet.
func TestHitAllBustedReturnsLossPreDeducted(t *testing.T) {
	bj := Blackjack{}
	seed := []byte("blackjack-fixture-seed")

	for sessionID := uint64(0); sessionID < 64; sessionID++ {
		session := newSession(100)
		session.ID = sessionID
		dealSession(t, bj, session, seed)

		st, ok := parseState(session.StateBlob)
		if !ok || st.Stage != StagePlayerTurn {
			continue
		}
		val, _ := HandValue(st.Hands[0].Cards)
		if val >= 12 {
			// hit until bust or stage change, to search for a bust path
			for st.Stage == StagePlayerTurn {
				rng := games.NewGameRng(seed, session.ID, session.MoveCount)
				res, err := bj.ProcessMove(session, []byte{byte(MoveHit)}, rng)
				if err != nil {
					break
				}
				st, ok = parseState(session.StateBlob)
				if !ok {
					t.Fatalf("state corrupted after hit")
				}
				if st.Stage == StageComplete {
					if len(st.Hands) == 1 && st.Hands[0].Status == HandBusted {
						if res.Kind != games.ResultLossPreDeducted || res.TotalWagered != 100 {
							t.Fatalf("unexpected result on bust: %+v", res)
						}
						return
					}
					break
				}
			}
		}
	}
	t.Skip("no busting sequence found across 64 session ids with this fixture seed")
}

func TestDoubleBustLossPreDeducted(t *testing.T) {
	bj := Blackjack{}
	st := &State{
		Stage:              StagePlayerTurn,
		InitialPlayerCards: [2]uint8{5, 6}, // ranks 7,8
		Hands: []Hand{{
			Cards:   []uint8{5, 6}, // ranks 7,8 => value 15
			BetMult: 1,
			Status:  HandPlaying,
		}},
		DealerCards: []uint8{20},
	}
	session := newSession(50)
	session.StateBlob = serializeState(st)

	rng := games.NewGameRng([]byte("double-seed"), session.ID, session.MoveCount)
	res, err := bj.ProcessMove(session, []byte{byte(MoveDouble)}, rng)
	if err != nil {
		t.Fatalf("double: %v", err)
	}
	if session.IsComplete {
		// Busting the only hand finalizes at once: bet 50 doubled is 100 wagered.
		if res.Kind != games.ResultLossPreDeducted || res.TotalWagered != 100 {
			t.Fatalf("expected LossPreDeducted(100) after double bust, got %+v", res)
		}
	} else {
		st2, _ := parseState(session.StateBlob)
		if st2.Hands[0].Status != HandBusted && st2.Stage != StageAwaitingReveal {
			t.Fatalf("expected bust or awaiting reveal after double, got %+v", st2)
		}
	}
}

func TestResolve21Plus3Straight(t *testing.T) {
	// 9,10,J of the same suit (suit 0): straight + flush = 30:1.
	cs := [3]uint8{7, 8, 9} // ranks 9,10,J suit 0
	mult := eval21Plus3Multiplier(cs)
	if mult != 30 {
		t.Fatalf("expected straight flush 30:1, got %d", mult)
	}
}

func TestResolve21Plus3Trips(t *testing.T) {
	cs := [3]uint8{0, 13, 26} // all rank 2, different suits
	mult := eval21Plus3Multiplier(cs)
	if mult != 20 {
		t.Fatalf("expected trips 20:1, got %d", mult)
	}
}

func TestParseStateRejectsTrailingBytes(t *testing.T) {
	st := &State{Stage: StageBetting, InitialPlayerCards: [2]uint8{cardUnknown, cardUnknown}}
	blob := append(serializeState(st), 0xFF)
	if _, ok := parseState(blob); ok {
		t.Fatalf("expected trailing-byte rejection")
	}
}

func TestParseStateRoundTrip(t *testing.T) {
	st := &State{
		Stage:              StagePlayerTurn,
		SideBet21Plus3:     10,
		InitialPlayerCards: [2]uint8{1, 2},
		ActiveHandIdx:      0,
		Hands: []Hand{
			{Cards: []uint8{1, 2}, BetMult: 1, Status: HandPlaying},
		},
		DealerCards: []uint8{3},
	}
	blob := serializeState(st)
	got, ok := parseState(blob)
	if !ok {
		t.Fatalf("round trip decode failed")
	}
	if got.SideBet21Plus3 != 10 || len(got.Hands) != 1 || got.Hands[0].Cards[0] != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

// Fuzz-style bound check mirroring test_blackjack_wager_and_payout_bounds:
// across many sessions with a pseudo-random strategy, wagered must never
// exceed bet*8 and a Win's total_return must never exceed bet*16.
func TestWagerAndPayoutBoundsFuzz(t *testing.T) {
	bj := Blackjack{}
	const bet = uint64(100)
	rnd := rand.New(rand.NewSource(42))

	for s := 0; s < 200; s++ {
		session := newSession(bet)
		session.ID = uint64(s)
		seed := []byte("fuzz-seed")
		dealSession(t, bj, session, seed)

		for move := 0; move < 64; move++ {
			st, ok := parseState(session.StateBlob)
			if !ok {
				t.Fatalf("state decode failed mid-fuzz")
			}
			if st.Stage == StageComplete {
				break
			}
			if st.Stage == StageAwaitingReveal {
				rng := games.NewGameRng(seed, session.ID, session.MoveCount)
				res, err := bj.ProcessMove(session, []byte{byte(MoveReveal)}, rng)
				if err != nil {
					t.Fatalf("reveal: %v", err)
				}
				checkBounds(t, bet, session, res)
				break
			}
			if st.Stage != StagePlayerTurn {
				t.Fatalf("unexpected stage mid-fuzz: %v", st.Stage)
			}
			hand := st.Hands[st.ActiveHandIdx]
			val, _ := HandValue(hand.Cards)

			var mv Move
			switch {
			case len(hand.Cards) == 2 && len(st.Hands) < maxHands &&
				hand.Cards[0]%13 == hand.Cards[1]%13 && rnd.Float64() < 0.35:
				mv = MoveSplit
			case len(hand.Cards) == 2 && val <= 11 && rnd.Float64() < 0.35:
				mv = MoveDouble
			case val >= 19 || len(hand.Cards) >= maxHandSize:
				mv = MoveStand
			case rnd.Float64() < 0.6:
				mv = MoveHit
			default:
				mv = MoveStand
			}

			rng := games.NewGameRng(seed, session.ID, session.MoveCount)
			res, err := bj.ProcessMove(session, []byte{byte(mv)}, rng)
			if err != nil {
				continue
			}
			if res.Kind == games.ResultWin || res.Kind == games.ResultLossPreDeducted {
				checkBounds(t, bet, session, res)
				break
			}
		}
	}
}

func checkBounds(t *testing.T, bet uint64, session *games.Session, res games.Result) {
	t.Helper()
	st, ok := parseState(session.StateBlob)
	if !ok {
		t.Fatalf("state decode failed at finalize")
	}
	wagered := totalWagered(session, st)
	if wagered > bet*8 {
		t.Fatalf("wagered %d exceeds bet*8 (%d)", wagered, bet*8)
	}
	if res.Kind == games.ResultWin && res.Amount > bet*16 {
		t.Fatalf("total_return %d exceeds bet*16 (%d)", res.Amount, bet*16)
	}
}
