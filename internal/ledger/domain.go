package ledger

import (
	"fmt"
	"math/big"

	"nullspace.io/casino-chain/internal/games"
)

// Modifiers and Stats restore the fields spec.md §3 names on Account
// ("modifiers, stats") but leaves unshaped; SPEC_FULL.md §3.NEW pins their
// contents to what original_source's per-game logs actually track.
type Modifiers struct {
	SuperModeUnlockedAt uint64 `json:"superModeUnlockedAt,omitempty"`
}

type Stats struct {
	HandsPlayed uint64 `json:"handsPlayed"`
	TotalWagered uint64 `json:"totalWagered"`
	TotalWon    uint64 `json:"totalWon"`
}

// Account is spec §3's Account(pk) record. Created lazily; nonce
// monotonically increases; an account is never destroyed.
type Account struct {
	PubKey    [32]byte  `json:"pubKey"`
	Nonce     uint64    `json:"nonce"`
	Chips     uint64    `json:"chips"`
	VUSDT     uint64    `json:"vusdt"`
	Modifiers Modifiers `json:"modifiers"`
	Stats     Stats     `json:"stats"`
}

func (o *Overlay) GetAccount(pk [32]byte) (*Account, error) {
	v, ok, err := getJSON[Account](o, AccountKey(pk))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Account{PubKey: pk}, nil
	}
	return v, nil
}

func (o *Overlay) PutAccount(a *Account) error {
	return putJSON(o, AccountKey(a.PubKey), a)
}

// CreditChips saturates at the uint64 maximum instead of overflowing, per
// spec §7's "saturating arithmetic everywhere" rule. DebitChips returns an
// error and leaves the balance unchanged when it is short of amount.
func (o *Overlay) CreditChips(pk [32]byte, amount uint64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	sum := a.Chips + amount
	if sum < a.Chips {
		sum = ^uint64(0)
	}
	a.Chips = sum
	return o.PutAccount(a)
}

func (o *Overlay) DebitChips(pk [32]byte, amount uint64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	if a.Chips < amount {
		return fmt.Errorf("ledger: insufficient chips")
	}
	a.Chips -= amount
	return o.PutAccount(a)
}

// DebitChipsSaturating subtracts amount from an account's chip balance,
// flooring at zero instead of returning an error, for the
// LossWithExtraDeduction path where the extra deduction is a forced
// additional stake already assumed collectible by the caller.
func (o *Overlay) DebitChipsSaturating(pk [32]byte, amount uint64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	if a.Chips < amount {
		a.Chips = 0
	} else {
		a.Chips -= amount
	}
	return o.PutAccount(a)
}

// ApplySignedPayout applies a signed i64 delta (spec §9's "execution layer
// exposes only i64 payout deltas" rule) to an account's chip balance,
// saturating at zero on the downside.
func (o *Overlay) ApplySignedPayout(pk [32]byte, delta int64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	if delta >= 0 {
		sum := a.Chips + uint64(delta)
		if sum < a.Chips {
			sum = ^uint64(0)
		}
		a.Chips = sum
	} else {
		dec := uint64(-delta)
		if dec > a.Chips {
			a.Chips = 0
		} else {
			a.Chips -= dec
		}
	}
	return o.PutAccount(a)
}

// CasinoSession is spec §3's CasinoSession(session_id) record: games.Session
// already carries exactly this shape (ID/Player/GameType/Bet/StateBlob/
// MoveCount/CreatedAt/IsComplete/SuperMode/IsTournament/TournamentID), so the
// ledger reuses it directly rather than defining a parallel struct.
type CasinoSession = games.Session

func (o *Overlay) GetSession(id uint64) (*CasinoSession, bool, error) {
	return getJSON[CasinoSession](o, SessionKey(id))
}

func (o *Overlay) PutSession(s *CasinoSession) error {
	return putJSON(o, SessionKey(s.ID), s)
}

// DeleteSession archives a completed session out of live keyspace, per
// spec §3's "destroyed when is_complete is observed and archived" rule. v0
// archival is a tombstone delete; a full implementation would move the
// record to a separate archive namespace for historical query, which
// internal/replay's event-folding serves instead.
func (o *Overlay) DeleteSession(id uint64) {
	o.Delete(SessionKey(id))
}

// Validator is the staking handler's registry entry, adapted from the
// teacher's dealer-committee validator bonding (internal/app/staking.go,
// bonds.go, slash.go in the teacher) and repurposed for this chain's own
// consensus-weight staking rather than per-table dealer committees.
type Validator struct {
	PubKey        [32]byte `json:"pubKey"`
	CommissionBps uint16   `json:"commissionBps"`
	Bonded        uint64   `json:"bonded"`
	Jailed        bool     `json:"jailed"`
}

func (o *Overlay) GetValidator(pk [32]byte) (*Validator, bool, error) {
	return getJSON[Validator](o, ValidatorKey(pk))
}

func (o *Overlay) PutValidator(v *Validator) error {
	return putJSON(o, ValidatorKey(v.PubKey), v)
}

// Tournament is spec §3's flat, down-pointing Tournament(id) record.
type Tournament struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	PrizePool uint64     `json:"prizePool"`
	Players   [][32]byte `json:"players"`
	Status    uint8      `json:"status"`
}

func (o *Overlay) GetTournament(id uint64) (*Tournament, bool, error) {
	return getJSON[Tournament](o, TournamentKey(id))
}

func (o *Overlay) PutTournament(t *Tournament) error {
	return putJSON(o, TournamentKey(t.ID), t)
}

// HouseState is spec §3's singleton house ledger.
type HouseState struct {
	TotalChipsIssued    uint64 `json:"totalChipsIssued"`
	TotalVUSDTLiability uint64 `json:"totalVusdtLiability"`
	Treasury            uint64 `json:"treasury"`
}

func (o *Overlay) GetHouse() (*HouseState, error) {
	v, ok, err := getJSON[HouseState](o, HouseKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return &HouseState{}, nil
	}
	return v, nil
}

func (o *Overlay) PutHouse(h *HouseState) error {
	return putJSON(o, HouseKey(), h)
}

// AmmPool is spec §3's constant-product liquidity pool: the invariant
// `rng_reserve * vusdt_reserve >= k_before` must hold after every non-seed
// operation (checked by internal/exec's liquidity handler, not here).
type AmmPool struct {
	ID           uint64 `json:"id"`
	RngReserve   uint64 `json:"rngReserve"`
	VusdtReserve uint64 `json:"vusdtReserve"`
}

// K returns the pool's constant-product invariant value as a big.Int so
// callers can compare invariants without risking a silent uint64*uint64
// overflow (the product of two near-max u64 reserves exceeds u64 range).
func (p *AmmPool) K() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(p.RngReserve), new(big.Int).SetUint64(p.VusdtReserve))
}

func (o *Overlay) GetAmmPool(id uint64) (*AmmPool, bool, error) {
	return getJSON[AmmPool](o, AmmPoolKey(id))
}

func (o *Overlay) PutAmmPool(p *AmmPool) error {
	return putJSON(o, AmmPoolKey(p.ID), p)
}

// Vault is spec §3's VaultRegistry entry: `debt <= collateral * price *
// max_ltv` is the caller-checked invariant (internal/exec's liquidity
// handler); price is supplied per-call since it is an external oracle
// input, not part of the vault's own persisted state.
type Vault struct {
	ID         uint64   `json:"id"`
	Owner      [32]byte `json:"owner"`
	Collateral uint64   `json:"collateral"`
	Debt       uint64   `json:"debt"`
	MaxLTVBps  uint32   `json:"maxLtvBps"`
}

func (o *Overlay) GetVault(id uint64) (*Vault, bool, error) {
	return getJSON[Vault](o, VaultKey(id))
}

func (o *Overlay) PutVault(v *Vault) error {
	return putJSON(o, VaultKey(v.ID), v)
}

// BridgeRecord is spec §3's BridgeState entry, keyed by external chain id +
// external nonce for replay-guarded cross-chain deposit/withdraw.
type BridgeRecord struct {
	ExternalChainID uint64   `json:"externalChainId"`
	ExternalNonce   uint64   `json:"externalNonce"`
	Direction       uint8    `json:"direction"` // 0=deposit (in), 1=withdraw (out)
	Amount          uint64   `json:"amount"`
	Account         [32]byte `json:"account"`
	Processed       bool     `json:"processed"`
}

func (o *Overlay) GetBridgeRecord(chainID, nonce uint64) (*BridgeRecord, bool, error) {
	return getJSON[BridgeRecord](o, BridgeRecordKey(chainID, nonce))
}

func (o *Overlay) PutBridgeRecord(r *BridgeRecord) error {
	return putJSON(o, BridgeRecordKey(r.ExternalChainID, r.ExternalNonce), r)
}

// GlobalTableRound is spec §3's GlobalTableRound(game_type) singleton: the
// shared table-level state (e.g. Craps' point/dice/made-points mask) that
// is copied into a new Craps session's blob when the session starts and
// written back after each of its moves (spec §4.B.4).
type GlobalTableRound struct {
	GameType              uint8  `json:"gameType"`
	Point                 uint8  `json:"point"`
	Die1                  uint8  `json:"die1"`
	Die2                  uint8  `json:"die2"`
	MadePointsMask        uint8  `json:"madePointsMask"`
	EpochPointEstablished uint8  `json:"epochPointEstablished"`
	FieldPaytable         uint8  `json:"fieldPaytable"`
	RollCount             uint64 `json:"rollCount"`
}

func (o *Overlay) GetGlobalTableRound(gameType uint8) (*GlobalTableRound, bool, error) {
	return getJSON[GlobalTableRound](o, GlobalTableRoundKey(gameType))
}

func (o *Overlay) PutGlobalTableRound(r *GlobalTableRound) error {
	return putJSON(o, GlobalTableRoundKey(r.GameType), r)
}

// Leaderboard is spec §3's flat, down-pointing leaderboard table.
type LeaderboardEntry struct {
	Player [32]byte `json:"player"`
	Score  uint64   `json:"score"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

func (o *Overlay) GetLeaderboard() (*Leaderboard, error) {
	v, ok, err := getJSON[Leaderboard](o, LeaderboardKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Leaderboard{}, nil
	}
	return v, nil
}

func (o *Overlay) PutLeaderboard(l *Leaderboard) error {
	return putJSON(o, LeaderboardKey(), l)
}

// BumpLeaderboard adds delta to player's score, inserting a new entry if
// absent. Entries are kept sorted by descending score so query paths never
// need to re-sort.
func (o *Overlay) BumpLeaderboard(player [32]byte, delta uint64) error {
	lb, err := o.GetLeaderboard()
	if err != nil {
		return err
	}
	found := false
	for i := range lb.Entries {
		if lb.Entries[i].Player == player {
			lb.Entries[i].Score += delta
			found = true
			break
		}
	}
	if !found {
		lb.Entries = append(lb.Entries, LeaderboardEntry{Player: player, Score: delta})
	}
	for i := 1; i < len(lb.Entries); i++ {
		for j := i; j > 0 && lb.Entries[j].Score > lb.Entries[j-1].Score; j-- {
			lb.Entries[j], lb.Entries[j-1] = lb.Entries[j-1], lb.Entries[j]
		}
	}
	return o.PutLeaderboard(lb)
}
