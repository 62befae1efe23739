// Package craps implements the global-table flavor of Craps described in
// SPEC_FULL.md §4.B.4: one running table whose point/dice/made-points state
// is copied into a player's per-session state blob when the session starts
// and copied back out after each of that session's moves, with each player
// holding an independent list of bets against that shared table state. A
// session that is already open does not pick up table changes made by
// other sessions.
//
// State blob, big-endian:
//
//	[point:u8] [d1:u8] [d2:u8] [madePointsMask:u8] [epochPointEstablished:u8]
//	[betCount:u8] {betType:u8 target:u8 _pad:u8 amount:u64}×N [rules:u8]
package craps

import (
	"fmt"

	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const (
	stateVersion = 1
	maxBets      = 16
)

type BetType uint8

const (
	BetPass BetType = iota
	BetDontPass
	BetCome
	BetDontCome
	BetField
	BetYes
	BetNo
	BetNext
	BetHardway4
	BetHardway6
	BetHardway8
	BetHardway10
	BetFire
	BetAtsSmall
	BetAtsTall
	BetAtsAll
	BetMuggsy
	BetDiffDoubles
	BetRideLine
	BetReplay
	BetHotRoller
)

func betTypeValid(v uint8) bool { return v <= uint8(BetHotRoller) }

type FieldPaytable uint8

const (
	// FieldPaytableStandard pays 2:1 on a field roll of 2, 3:1 on 12, 1:1
	// otherwise (3,4,9,10,11).
	FieldPaytableStandard FieldPaytable = iota
	// FieldPaytableDouble3and11 pays 2:1 on both 2 and 12.
	FieldPaytableDouble3and11
)

type Rules struct {
	FieldPaytable FieldPaytable
}

func defaultRules() Rules { return Rules{FieldPaytable: FieldPaytableStandard} }

func rulesFromByte(v uint8) (Rules, bool) {
	if v > uint8(FieldPaytableDouble3and11) {
		return Rules{}, false
	}
	return Rules{FieldPaytable: FieldPaytable(v)}, true
}

type Bet struct {
	Type   BetType
	Target uint8
	Amount uint64
}

type State struct {
	Point                 uint8
	D1, D2                uint8
	MadePointsMask        uint8
	EpochPointEstablished uint8
	Bets                  []Bet
	Rules                 Rules
}

func parseState(blob []byte) (*State, bool) {
	r := serialization.NewReader(blob)
	point, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	d1, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	d2, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	madePointsMask, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	epoch, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	betCount, ok := r.ReadU8()
	if !ok || int(betCount) > maxBets {
		return nil, false
	}
	bets := make([]Bet, 0, betCount)
	for i := uint8(0); i < betCount; i++ {
		betType, ok1 := r.ReadU8()
		target, ok2 := r.ReadU8()
		_, ok3 := r.ReadU8() // _pad
		amount, ok4 := r.ReadU64BE()
		if !ok1 || !ok2 || !ok3 || !ok4 || !betTypeValid(betType) {
			return nil, false
		}
		bets = append(bets, Bet{Type: BetType(betType), Target: target, Amount: amount})
	}
	rules := defaultRules()
	if r.Remaining() > 0 {
		rb, _ := r.ReadU8()
		rules, ok = rulesFromByte(rb)
		if !ok {
			return nil, false
		}
	}
	if r.Remaining() != 0 {
		return nil, false
	}
	return &State{
		Point:                 point,
		D1:                    d1,
		D2:                    d2,
		MadePointsMask:        madePointsMask,
		EpochPointEstablished: epoch,
		Bets:                  bets,
		Rules:                 rules,
	}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(16 + len(st.Bets)*11)
	w.PushU8(st.Point)
	w.PushU8(st.D1)
	w.PushU8(st.D2)
	w.PushU8(st.MadePointsMask)
	w.PushU8(st.EpochPointEstablished)
	w.PushU8(uint8(len(st.Bets)))
	for _, b := range st.Bets {
		w.PushU8(uint8(b.Type))
		w.PushU8(b.Target)
		w.PushU8(0)
		w.PushU64BE(b.Amount)
	}
	w.PushU8(uint8(st.Rules.FieldPaytable))
	return w.Bytes()
}

// Move payload tags.
const (
	MoveRoll      = 0
	MovePlaceBet  = 1 // [1, betType, target, amount:u64]
	MoveClearBets = 2
	MoveSetRules  = 3 // [3, fieldPaytable:u8]
)

// Craps implements games.Game.
type Craps struct{}

func (Craps) Init(session *games.Session, _ *games.GameRng) games.Result {
	if _, ok := parseState(session.StateBlob); ok {
		// Keep the blob already seeded from the shared table round.
		return games.Continue(nil)
	}
	st := &State{Rules: defaultRules()}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (Craps) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
	if session.IsComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}
	if len(pl) == 0 {
		return games.Result{}, games.ErrInvalidPayload
	}
	st, ok := parseState(session.StateBlob)
	if !ok {
		return games.Result{}, games.ErrInvalidPayload
	}

	switch pl[0] {
	case MoveSetRules:
		if len(pl) != 2 {
			return games.Result{}, games.ErrInvalidPayload
		}
		rules, ok := rulesFromByte(pl[1])
		if !ok {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Rules = rules
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveClearBets:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Bets = nil
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MovePlaceBet:
		if len(pl) != 11 {
			return games.Result{}, games.ErrInvalidPayload
		}
		if len(st.Bets) >= maxBets {
			return games.Result{}, games.ErrInvalidMove
		}
		if !betTypeValid(pl[1]) {
			return games.Result{}, games.ErrInvalidPayload
		}
		amount, err := payload.ParseU64BE(pl, 3)
		if err != nil {
			return games.Result{}, err
		}
		st.Bets = append(st.Bets, Bet{Type: BetType(pl[1]), Target: pl[2], Amount: amount})
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(-int64(amount), nil), nil

	case MoveRoll:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		d1 := rng.RollDie()
		d2 := rng.RollDie()
		session.MoveCount++
		return resolveRoll(session, st, d1, d2)

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

func resolveRoll(session *games.Session, st *State, d1, d2 uint8) (games.Result, error) {
	sum := int(d1) + int(d2)
	comeOut := st.Point == 0
	var netPayout int64
	var resolved []Bet

	for _, b := range st.Bets {
		payout, keep := resolveBet(st, b, d1, d2, sum, comeOut)
		netPayout += payout
		if keep {
			resolved = append(resolved, b)
		}
	}
	st.Bets = resolved

	if comeOut {
		switch {
		case sum == 7 || sum == 11:
			// natural, pass bets already paid above; point stays unset.
		case sum == 2 || sum == 3 || sum == 12:
			// craps, pass bets already lost above; point stays unset.
		default:
			st.Point = uint8(sum)
			st.EpochPointEstablished++
		}
	} else {
		if sum == int(st.Point) {
			st.MadePointsMask |= 1 << (uint(st.Point) % 8)
			st.Point = 0
		} else if sum == 7 {
			st.MadePointsMask = 0
			st.Point = 0
		}
	}

	st.D1, st.D2 = d1, d2
	session.StateBlob = serializeState(st)

	logs := []string{fmt.Sprintf(`{"d1":%d,"d2":%d,"sum":%d,"point":%d,"payout":%d}`, d1, d2, sum, st.Point, netPayout)}
	if netPayout == 0 {
		return games.Continue(logs), nil
	}
	return games.ContinueWithUpdate(netPayout, logs), nil
}

// resolveBet returns what this roll credits for b and whether the bet stays
// on the table for the next roll. The stake was already deducted when the
// bet was placed, so a win returns stake + winnings, a push returns the
// stake, and a loss returns 0. A bet that resolves this roll is dropped
// (keep=false); a bet that remains in play (e.g. a Come bet awaiting its
// own point) is kept.
func resolveBet(st *State, b Bet, d1, d2 uint8, sum int, comeOut bool) (int64, bool) {
	switch b.Type {
	case BetPass:
		if comeOut {
			switch {
			case sum == 7 || sum == 11:
				return int64(payload.SatMulU64(b.Amount, 2)), false
			case sum == 2 || sum == 3 || sum == 12:
				return 0, false
			default:
				return 0, true
			}
		}
		switch {
		case sum == int(st.Point):
			return int64(payload.SatMulU64(b.Amount, 2)), false
		case sum == 7:
			return 0, false
		default:
			return 0, true
		}

	case BetDontPass:
		if comeOut {
			switch {
			case sum == 7 || sum == 11:
				return 0, false
			case sum == 2 || sum == 3:
				return int64(payload.SatMulU64(b.Amount, 2)), false
			case sum == 12:
				return int64(b.Amount), false // push on bar-12
			default:
				return 0, true
			}
		}
		switch {
		case sum == 7:
			return int64(payload.SatMulU64(b.Amount, 2)), false
		case sum == int(st.Point):
			return 0, false
		default:
			return 0, true
		}

	case BetField:
		switch {
		case sum == 2:
			// 2:1 on 2 under both rule variants.
			return int64(payload.SatMulU64(b.Amount, 3)), false
		case sum == 12:
			if st.Rules.FieldPaytable == FieldPaytableDouble3and11 {
				return int64(payload.SatMulU64(b.Amount, 3)), false
			}
			return int64(payload.SatMulU64(b.Amount, 4)), false // 3:1 standard
		case sum == 3 || sum == 4 || sum == 9 || sum == 10 || sum == 11:
			return int64(payload.SatMulU64(b.Amount, 2)), false
		default:
			return 0, false
		}

	case BetYes:
		if sum == int(b.Target) {
			return int64(payload.SatMulU64(b.Amount, yesNoMultiplier(b.Target))), false
		}
		if sum == 7 {
			return 0, false
		}
		return 0, true

	case BetNo:
		if sum == 7 {
			return int64(payload.SatMulU64(b.Amount, noMultiplier(b.Target))), false
		}
		if sum == int(b.Target) {
			return 0, false
		}
		return 0, true

	case BetNext:
		if sum == int(b.Target) {
			return int64(payload.SatMulU64(b.Amount, nextMultiplier(b.Target))), false
		}
		return 0, false

	case BetHardway4, BetHardway6, BetHardway8, BetHardway10:
		target := hardwayTarget(b.Type)
		isHard := d1 == d2 && sum == int(target)
		if isHard {
			return int64(payload.SatMulU64(b.Amount, hardwayMultiplier(target))), false
		}
		if sum == int(target) || sum == 7 {
			return 0, false
		}
		return 0, true

	case BetCome, BetDontCome:
		// Simplified come/don't-come: resolved against the table point the
		// same roll they're placed on (no separate travel-to-number state
		// is tracked in this blob layout), mirroring Pass/Don't Pass.
		if b.Type == BetCome {
			return resolveBet(st, Bet{Type: BetPass, Amount: b.Amount}, d1, d2, sum, comeOut)
		}
		return resolveBet(st, Bet{Type: BetDontPass, Amount: b.Amount}, d1, d2, sum, comeOut)

	default:
		// Bonus/proposition bets (Fire, ATS, Muggsy, Diff Doubles, Ride
		// Line, Replay, Hot Roller) require multi-roll epoch tracking beyond
		// this blob's fields; resolved here as a single-roll push so they
		// never silently win or lose on partial state.
		return int64(b.Amount), false
	}
}

func yesNoMultiplier(target uint8) uint64 {
	switch target {
	case 4, 10:
		return 2 // every target pays even money: stake + 1:1 winnings
	case 5, 9:
		return 2
	case 6, 8:
		return 2
	default:
		return 1
	}
}

func noMultiplier(target uint8) uint64 { return yesNoMultiplier(target) }

func nextMultiplier(target uint8) uint64 {
	switch target {
	case 2, 12:
		return 31
	case 3, 11:
		return 16
	case 4, 10:
		return 11
	case 5, 9:
		return 8
	case 6, 8:
		return 6
	case 7:
		return 5
	default:
		return 1
	}
}

func hardwayTarget(t BetType) uint8 {
	switch t {
	case BetHardway4:
		return 4
	case BetHardway6:
		return 6
	case BetHardway8:
		return 8
	default:
		return 10
	}
}

func hardwayMultiplier(target uint8) uint64 {
	if target == 4 || target == 10 {
		return 8
	}
	return 10
}

// TableSnapshot is the subset of per-session State that is shared across
// every player's session via the ledger's GlobalTableRound singleton: it
// seeds a session's blob when the session starts and is read back out of
// the blob after each of that session's moves.
type TableSnapshot struct {
	Point                 uint8
	D1, D2                uint8
	MadePointsMask        uint8
	EpochPointEstablished uint8
	FieldPaytable         uint8
}

// NewSessionBlobFromTable builds a fresh session blob (no bets yet) seeded
// with the shared table's current point/dice/rules.
func NewSessionBlobFromTable(snap TableSnapshot) []byte {
	st := &State{
		Point:                 snap.Point,
		D1:                    snap.D1,
		D2:                    snap.D2,
		MadePointsMask:        snap.MadePointsMask,
		EpochPointEstablished: snap.EpochPointEstablished,
		Rules:                 Rules{FieldPaytable: FieldPaytable(snap.FieldPaytable)},
	}
	return serializeState(st)
}

// TableSnapshotFromBlob extracts the shared fields back out of a session's
// blob after it resolves a roll, so the singleton can be updated.
func TableSnapshotFromBlob(blob []byte) (TableSnapshot, bool) {
	st, ok := parseState(blob)
	if !ok {
		return TableSnapshot{}, false
	}
	return TableSnapshot{
		Point:                 st.Point,
		D1:                    st.D1,
		D2:                    st.D2,
		MadePointsMask:        st.MadePointsMask,
		EpochPointEstablished: st.EpochPointEstablished,
		FieldPaytable:         uint8(st.Rules.FieldPaytable),
	}, true
}
