// Package sicbo implements Sic Bo: three dice are rolled and a single bet
// is resolved against the standard WoO pay table (Big/Small, Total,
// single-number, double, triple, and two-dice combination bets).
//
// State blob: [stage:u8] [betType:u8] [target:u8] [d1:u8] [d2:u8] [d3:u8]
package sicbo

import (
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

type Stage uint8

const (
	StageBetting Stage = iota
	StageComplete
)

type BetType uint8

const (
	BetBig        BetType = iota // total 11-17, excluding any triple
	BetSmall                     // total 4-10, excluding any triple
	BetTotal                     // target is the exact sum 4-17
	BetSingle                    // target is a die face 1-6; pays by match count
	BetDouble                    // target is a die face 1-6; both matching dice
	BetTriple                    // target is a die face 1-6; any-triple if target==0
	BetCombination                // target encodes two die faces packed as hi<<4|lo
)

type Move uint8

const (
	MoveSetBet Move = iota // [0, betType:u8, target:u8]
	MoveRoll                // [1]
)

type State struct {
	Stage   Stage
	BetType BetType
	Target  uint8
	D1, D2, D3 uint8
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) != 6 {
		return nil, false
	}
	r := serialization.NewReader(blob)
	stageByte, _ := r.ReadU8()
	if stageByte > uint8(StageComplete) {
		return nil, false
	}
	betByte, _ := r.ReadU8()
	if betByte > uint8(BetCombination) {
		return nil, false
	}
	target, _ := r.ReadU8()
	d1, _ := r.ReadU8()
	d2, _ := r.ReadU8()
	d3, _ := r.ReadU8()
	if d1 > 6 || d2 > 6 || d3 > 6 {
		return nil, false
	}
	return &State{Stage: Stage(stageByte), BetType: BetType(betByte), Target: target, D1: d1, D2: d2, D3: d3}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(6)
	w.PushU8(uint8(st.Stage))
	w.PushU8(uint8(st.BetType))
	w.PushU8(st.Target)
	w.PushU8(st.D1)
	w.PushU8(st.D2)
	w.PushU8(st.D3)
	return w.Bytes()
}

type SicBo struct{}

func (SicBo) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{Stage: StageBetting}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (SicBo) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
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
	if st.Stage == StageComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}

	switch Move(pl[0]) {
	case MoveSetBet:
		if len(pl) != 3 || pl[1] > uint8(BetCombination) {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.BetType = BetType(pl[1])
		st.Target = pl[2]
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveRoll:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		d1 := rng.RollDie()
		d2 := rng.RollDie()
		d3 := rng.RollDie()
		st.D1, st.D2, st.D3 = d1, d2, d3
		st.Stage = StageComplete
		session.IsComplete = true
		session.StateBlob = serializeState(st)

		mult, isWin := resolveBet(st)
		if !isWin {
			return games.LossPreDeducted(session.Bet, nil), nil
		}
		return games.Win(payload.SatMulU64(session.Bet, mult), nil), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

func resolveBet(st *State) (uint64, bool) {
	d1, d2, d3 := int(st.D1), int(st.D2), int(st.D3)
	sum := d1 + d2 + d3
	isTriple := d1 == d2 && d2 == d3

	switch st.BetType {
	case BetBig:
		return 2, !isTriple && sum >= 11 && sum <= 17
	case BetSmall:
		return 2, !isTriple && sum >= 4 && sum <= 10
	case BetTotal:
		mult, ok := totalMultiplier(sum)
		return mult, ok && sum == int(st.Target)
	case BetSingle:
		count := matchCount(d1, d2, d3, int(st.Target))
		switch count {
		case 1:
			return 2, true
		case 2:
			return 3, true
		case 3:
			return 4, true
		default:
			return 0, false
		}
	case BetDouble:
		count := matchCount(d1, d2, d3, int(st.Target))
		return 11, count >= 2
	case BetTriple:
		if st.Target == 0 {
			return 31, isTriple
		}
		return 181, isTriple && d1 == int(st.Target)
	case BetCombination:
		hi, lo := int(st.Target>>4), int(st.Target&0x0F)
		dice := []int{d1, d2, d3}
		hasHi, hasLo := false, false
		for _, d := range dice {
			if d == hi {
				hasHi = true
			}
			if d == lo {
				hasLo = true
			}
		}
		return 6, hasHi && hasLo
	default:
		return 0, false
	}
}

func matchCount(d1, d2, d3, target int) int {
	count := 0
	if d1 == target {
		count++
	}
	if d2 == target {
		count++
	}
	if d3 == target {
		count++
	}
	return count
}

// totalMultiplier is the standard WoO sum-bet pay table as total-return
// multiples, stake included (61 on a 4 or 17 is 60 to 1).
func totalMultiplier(sum int) (uint64, bool) {
	switch sum {
	case 4, 17:
		return 61, true
	case 5, 16:
		return 31, true
	case 6, 15:
		return 18, true
	case 7, 14:
		return 13, true
	case 8, 13:
		return 9, true
	case 9, 10, 11, 12:
		return 7, true
	default:
		return 0, false
	}
}
