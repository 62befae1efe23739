package threecard

import (
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func newSession(bet uint64) *games.Session {
	return &games.Session{ID: 1, GameType: games.GameTypeThreeCard, Bet: bet}
}

func TestDealerQualificationThreshold(t *testing.T) {
	rules := defaultRules() // QHigh
	// Queen(12)-high, no pair, no flush, no straight: Q(suit0), 6(suit1), 2(suit2).
	hand := [3]uint8{10, 17, 26}
	if !dealerQualifies(hand, rules) {
		t.Fatalf("expected queen-high hand to qualify under QHigh rule")
	}
	// Jack(11)-high, no pair: J(suit0), 6(suit1), 2(suit2).
	jackHigh := [3]uint8{9, 17, 26}
	if dealerQualifies(jackHigh, rules) {
		t.Fatalf("expected jack-high hand to NOT qualify under QHigh rule")
	}
}

func TestPairplusMultiplierTable(t *testing.T) {
	straightFlush := [3]uint8{7, 8, 9} // ranks 9,10,J suit 0
	if pairplusMultiplier(straightFlush) != pairplusStraightFlush {
		t.Fatalf("expected straight flush 40:1, got %d", pairplusMultiplier(straightFlush))
	}
	trips := [3]uint8{0, 13, 26}
	if pairplusMultiplier(trips) != pairplusThreeOfAKind {
		t.Fatalf("expected trips 30:1, got %d", pairplusMultiplier(trips))
	}
}

func TestAnteBonusMultiplierTable(t *testing.T) {
	straightFlush := [3]uint8{7, 8, 9}
	if anteBonusMultiplier(straightFlush) != anteStraightFlush {
		t.Fatalf("expected ante bonus 5:1 for straight flush, got %d", anteBonusMultiplier(straightFlush))
	}
	trips := [3]uint8{0, 13, 26}
	if anteBonusMultiplier(trips) != anteThreeOfAKind {
		t.Fatalf("expected ante bonus 4:1 for trips, got %d", anteBonusMultiplier(trips))
	}
}

func TestThreeCardTiebreakers(t *testing.T) {
	higher := [3]uint8{11, 18, 27} // ranks K(suit0), 7(suit1), 3(suit2) -> king-high
	lower := [3]uint8{10, 17, 26}  // ranks Q(suit0), 6(suit1), 2(suit2) -> queen-high
	if !handBeats(higher, lower) {
		t.Fatalf("expected king-high to beat queen-high")
	}
	if handBeats(lower, higher) {
		t.Fatalf("expected queen-high to lose to king-high")
	}
}

func TestProgressivePaytableExamples(t *testing.T) {
	miniRoyalSpades := [3]uint8{10, 11, 12} // Q,K,A of spades (suit 0)
	if got := resolveProgressiveReturn(1, miniRoyalSpades); got != progressiveJackpot {
		t.Fatalf("expected mini-royal spades to pay the base jackpot, got %d", got)
	}
	miniRoyalHearts := [3]uint8{23, 24, 25} // Q,K,A of hearts (suit 1)
	if got := resolveProgressiveReturn(1, miniRoyalHearts); got != progressiveMiniRoyalOther {
		t.Fatalf("expected mini-royal other-suit to pay 500:1, got %d", got)
	}
	straightFlush := [3]uint8{7, 8, 9}
	if got := resolveProgressiveReturn(1, straightFlush); got != progressiveStraightFlush {
		t.Fatalf("expected straight flush to pay 70:1, got %d", got)
	}
	trips := [3]uint8{0, 13, 26}
	if got := resolveProgressiveReturn(1, trips); got != progressiveThreeOfAKind {
		t.Fatalf("expected trips to pay 60:1, got %d", got)
	}
	straight := [3]uint8{0, 1 + 13, 2 + 26} // 2,3,4 different suits -> straight, not flush
	if got := resolveProgressiveReturn(1, straight); got != progressiveStraight {
		t.Fatalf("expected straight to pay 6:1, got %d", got)
	}
}

func TestStateBlobFuzzDoesNotPanic(t *testing.T) {
	for n := 0; n < 1000; n++ {
		blob := make([]byte, n%129)
		for i := range blob {
			blob[i] = byte((n*31 + i*17) % 256)
		}
		_, _ = parseState(blob)
	}
}

func TestBasicFlowDealPlayReveal(t *testing.T) {
	tc := ThreeCard{}
	session := newSession(100)
	seed := []byte("three-card-seed")

	rng := games.NewGameRng(seed, session.ID, session.MoveCount)
	tc.Init(session, rng)

	rng = games.NewGameRng(seed, session.ID, session.MoveCount)
	if _, err := tc.ProcessMove(session, []byte{byte(MoveDeal)}, rng); err != nil {
		t.Fatalf("deal: %v", err)
	}
	st, ok := parseState(session.StateBlob)
	if !ok || st.Stage != StageDecision {
		t.Fatalf("expected Decision stage after deal, got %+v", st)
	}

	rng = games.NewGameRng(seed, session.ID, session.MoveCount)
	res, err := tc.ProcessMove(session, []byte{byte(MovePlay)}, rng)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Kind != games.ResultContinueWithUpdate || res.Payout != -100 {
		t.Fatalf("expected play bet deduction, got %+v", res)
	}

	st, _ = parseState(session.StateBlob)
	if st.Stage != StageAwaitingReveal {
		t.Fatalf("expected AwaitingReveal after play, got %v", st.Stage)
	}

	rng = games.NewGameRng(seed, session.ID, session.MoveCount)
	res, err = tc.ProcessMove(session, []byte{byte(MoveReveal)}, rng)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !session.IsComplete {
		t.Fatalf("expected session complete after reveal")
	}
	if res.Kind != games.ResultWin && res.Kind != games.ResultLossPreDeducted {
		t.Fatalf("unexpected terminal result kind: %+v", res)
	}
}

func TestSixCardBonusMultiplierExamples(t *testing.T) {
	royal := [6]uint8{8, 9, 10, 11, 12, 0} // 10,J,Q,K,A suit 0 plus an unrelated card
	if got := sixCardBonusMultiplier(evaluateBest5Of6BonusRank(royal)); got != sixCardRoyalFlush {
		t.Fatalf("expected royal flush bonus 1000:1, got %d", got)
	}
}
