package registry

import (
	"testing"

	"nullspace.io/casino-chain/internal/games"
)

func TestLookupCoversEveryGameType(t *testing.T) {
	types := []games.GameType{
		games.GameTypeBlackjack,
		games.GameTypeCasinoWar,
		games.GameTypeThreeCard,
		games.GameTypeCraps,
		games.GameTypeHiLo,
		games.GameTypeBaccarat,
		games.GameTypeVideoPoker,
		games.GameTypeSicBo,
		games.GameTypeRoulette,
		games.GameTypeUltimateHoldem,
	}
	for _, gt := range types {
		if _, ok := Lookup(gt); !ok {
			t.Fatalf("expected GameType %d to resolve", gt)
		}
	}
}

func TestLookupRejectsOutOfRangeType(t *testing.T) {
	if _, ok := Lookup(games.GameType(255)); ok {
		t.Fatalf("expected out-of-range GameType to fail lookup")
	}
}

func TestInitAndProcessMoveDispatchToBlackjack(t *testing.T) {
	session := &games.Session{ID: 1, GameType: games.GameTypeBlackjack, Bet: 100}
	rng := games.NewGameRng([]byte("seed"), session.ID, 0)

	if _, err := Init(games.GameTypeBlackjack, session, rng); err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(session.StateBlob) == 0 {
		t.Fatalf("expected Init to populate a state blob")
	}

	if _, err := Init(games.GameType(255), session, rng); err != games.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState for unknown GameType, got %v", err)
	}
	if _, err := ProcessMove(games.GameType(255), session, []byte{0}, rng); err != games.ErrInvalidState {
		t.Fatalf("expected ErrInvalidState for unknown GameType, got %v", err)
	}
}
