// Package games defines the shared per-game state machine contract: the
// GameSession record, the GameRng facade over internal/rng, and the
// GameResult/GameError tagged variants every game module returns.
//
// Reconstructed from every call site across original_source's
// execution/src/casino/{blackjack,casino_war,three_card}.rs (the defining
// `CasinoGame`/`GameResult`/`GameError`/`GameRng` module itself was filtered
// out of the retrieval set) and from spec.md §4.B's table, which is
// authoritative where the two disagree.
package games

import (
	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/rng"
)

// GameType enumerates the fixed, build-time set of casino games. Spec's
// Non-goals forbid runtime-pluggable games, so this is a closed tagged sum
// dispatched via a function-pointer table (internal/games/registry), never
// a dynamic interface-typed registry.
type GameType uint8

const (
	GameTypeBlackjack GameType = iota
	GameTypeCasinoWar
	GameTypeThreeCard
	GameTypeCraps
	GameTypeHiLo
	GameTypeBaccarat
	GameTypeVideoPoker
	GameTypeSicBo
	GameTypeRoulette
	GameTypeUltimateHoldem
)

// SuperModeState is an optional per-session promotional multiplier applied
// to already-resolved terminal payouts. Ported from original_source's
// `session.super_mode` (present in every casino game file but omitted from
// spec.md's distilled data model). Default zero value is inert.
type SuperModeState struct {
	IsActive    bool
	Multipliers []uint8
}

// Session is the per-session record spec.md's data model names as
// CasinoSession, with the supplemental SuperMode field restored from
// original_source.
type Session struct {
	ID            uint64
	Player        [32]byte
	GameType      GameType
	Bet           uint64
	StateBlob     []byte
	MoveCount     uint32
	CreatedAt     uint64
	IsComplete    bool
	SuperMode     SuperModeState
	IsTournament  bool
	TournamentID  *uint64
}

// GameRng is the facade each game's process_move receives: a seeded stream
// plus the shoe-construction helpers from internal/rng and internal/cards.
type GameRng struct {
	r *rng.RNG
}

// NewGameRng derives a GameRng for one move, keyed by (seed, sessionID,
// moveCount) per spec §4.A's determinism contract.
func NewGameRng(seed []byte, sessionID uint64, moveCount uint32) *GameRng {
	return &GameRng{r: rng.New(seed, sessionID, moveCount)}
}

// RollDie samples uniformly over 1..6.
func (g *GameRng) RollDie() uint8 { return g.r.RollDie() }

// CreateDeck returns a freshly shuffled shoe of the given deck count.
func (g *GameRng) CreateDeck(decks int) []uint8 { return g.r.CreateShoe(decks) }

// CreateDeckExcluding returns a freshly shuffled shoe with known cards'
// first occurrences removed, preserving correct conditional distribution.
func (g *GameRng) CreateDeckExcluding(known []uint8, decks int) []uint8 {
	return g.r.CreateShoeExcluding(known, decks)
}

// DrawCard pops one card from the shoe, or ok=false if exhausted.
func (g *GameRng) DrawCard(shoe *[]uint8) (uint8, bool) {
	return rng.DrawCard(shoe)
}

// GameError is the closed set of payload-level errors a game state machine
// can return. These are never fatal at the execution-layer boundary: they
// become a CasinoError event and execution continues (spec §7).
type GameError string

const (
	ErrInvalidPayload     GameError = "invalid_payload"
	ErrInvalidMove        GameError = "invalid_move"
	ErrInvalidState       GameError = "invalid_state"
	ErrDeckExhausted      GameError = "deck_exhausted"
	ErrGameAlreadyComplete GameError = "game_already_complete"
)

func (e GameError) Error() string { return string(e) }

// ResultKind tags the shape of a GameResult.
type ResultKind uint8

const (
	ResultContinue ResultKind = iota
	ResultContinueWithUpdate
	ResultWin
	ResultPush
	ResultLoss
	ResultLossPreDeducted
	ResultLossWithExtraDeduction
)

// Result is the tagged variant every process_move returns on success.
// Only the fields relevant to Kind are populated; see spec §4.B's table.
type Result struct {
	Kind         ResultKind
	Payout       int64  // ResultContinueWithUpdate: signed delta applied now
	Amount       uint64 // ResultWin / ResultPush: credited/refunded amount
	TotalWagered uint64 // ResultLossPreDeducted: total stake absorbed
	Extra        uint64 // ResultLossWithExtraDeduction: additional deduction
	Logs         []string
}

func Continue(logs []string) Result { return Result{Kind: ResultContinue, Logs: logs} }

func ContinueWithUpdate(payout int64, logs []string) Result {
	return Result{Kind: ResultContinueWithUpdate, Payout: payout, Logs: logs}
}

func Win(amount uint64, logs []string) Result {
	return Result{Kind: ResultWin, Amount: amount, Logs: logs}
}

func Push(amount uint64, logs []string) Result {
	return Result{Kind: ResultPush, Amount: amount, Logs: logs}
}

func Loss(logs []string) Result { return Result{Kind: ResultLoss, Logs: logs} }

func LossPreDeducted(totalWagered uint64, logs []string) Result {
	return Result{Kind: ResultLossPreDeducted, TotalWagered: totalWagered, Logs: logs}
}

func LossWithExtraDeduction(extra uint64, logs []string) Result {
	return Result{Kind: ResultLossWithExtraDeduction, Extra: extra, Logs: logs}
}

// Game is the common per-game state machine interface every
// internal/games/<name> package implements.
type Game interface {
	Init(session *Session, rng *GameRng) Result
	ProcessMove(session *Session, payload []byte, rng *GameRng) (Result, error)
}

// IsKnownCard reports whether c is a dealt, visible card (not the Unknown
// sentinel and in range).
func IsKnownCard(c uint8) bool { return cards.IsValid(c) }
