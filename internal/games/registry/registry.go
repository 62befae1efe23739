// Package registry is the fixed, build-time dispatch table from GameType to
// its games.Game implementation. Spec's Non-goals forbid a runtime-pluggable
// game registry, so this is a closed array indexed by GameType rather than a
// map of interface values — an unknown GameType byte fails the bounds check
// before it ever reaches a dispatch, preserving the same "no panic on
// malformed input" discipline every per-game state blob parser follows.
package registry

import (
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/baccarat"
	"nullspace.io/casino-chain/internal/games/blackjack"
	"nullspace.io/casino-chain/internal/games/casinowar"
	"nullspace.io/casino-chain/internal/games/craps"
	"nullspace.io/casino-chain/internal/games/hilo"
	"nullspace.io/casino-chain/internal/games/roulette"
	"nullspace.io/casino-chain/internal/games/sicbo"
	"nullspace.io/casino-chain/internal/games/threecard"
	"nullspace.io/casino-chain/internal/games/ultimateholdem"
	"nullspace.io/casino-chain/internal/games/videopoker"
)

var table = [...]games.Game{
	games.GameTypeBlackjack:      blackjack.Blackjack{},
	games.GameTypeCasinoWar:      casinowar.CasinoWar{},
	games.GameTypeThreeCard:      threecard.ThreeCard{},
	games.GameTypeCraps:          craps.Craps{},
	games.GameTypeHiLo:           hilo.HiLo{},
	games.GameTypeBaccarat:       baccarat.Baccarat{},
	games.GameTypeVideoPoker:     videopoker.VideoPoker{},
	games.GameTypeSicBo:          sicbo.SicBo{},
	games.GameTypeRoulette:       roulette.Roulette{},
	games.GameTypeUltimateHoldem: ultimateholdem.UltimateHoldem{},
}

// Lookup returns the Game implementation for t, or false if t is out of the
// fixed build-time range.
func Lookup(t games.GameType) (games.Game, bool) {
	if int(t) < 0 || int(t) >= len(table) {
		return nil, false
	}
	return table[t], true
}

// Init dispatches to t's Init.
func Init(t games.GameType, session *games.Session, rng *games.GameRng) (games.Result, error) {
	g, ok := Lookup(t)
	if !ok {
		return games.Result{}, games.ErrInvalidState
	}
	return g.Init(session, rng), nil
}

// ProcessMove dispatches to t's ProcessMove.
func ProcessMove(t games.GameType, session *games.Session, payload []byte, rng *games.GameRng) (games.Result, error) {
	g, ok := Lookup(t)
	if !ok {
		return games.Result{}, games.ErrInvalidState
	}
	return g.ProcessMove(session, payload, rng)
}
