// Package roulette implements single-zero (European) roulette: a spin
// lands on 0-36 and a single bet is resolved against the standard payout
// table for straight-up, split, street, corner, line, dozen, column, and
// even-money (red/black, odd/even, high/low) bets.
//
// State blob: [stage:u8] [betType:u8] [numbers:u8×6] [numberCount:u8] [result:u8]
package roulette

import (
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const pocketCount = 37 // 0..36, single zero

type Stage uint8

const (
	StageBetting Stage = iota
	StageComplete
)

type BetType uint8

const (
	BetStraightUp BetType = iota // 1 number
	BetSplit                      // 2 adjacent numbers
	BetStreet                     // 3 numbers in a row
	BetCorner                     // 4 numbers
	BetLine                       // 6 numbers (double street)
	BetDozen                       // 1-12, 13-24, or 25-36
	BetColumn                      // one of the three columns
	BetRed
	BetBlack
	BetOdd
	BetEven
	BetLow  // 1-18
	BetHigh // 19-36
)

const maxNumbers = 6

var redNumbers = map[uint8]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true,
	18: true, 19: true, 21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

type Move uint8

const (
	MoveSetBet Move = iota // [0, betType:u8, numberCount:u8, numbers[6]:u8]
	MoveSpin                // [1]
)

type State struct {
	Stage       Stage
	BetType     BetType
	Numbers     [maxNumbers]uint8
	NumberCount uint8
	Result      uint8
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) != 10 {
		return nil, false
	}
	r := serialization.NewReader(blob)
	stageByte, _ := r.ReadU8()
	if stageByte > uint8(StageComplete) {
		return nil, false
	}
	betByte, _ := r.ReadU8()
	if betByte > uint8(BetHigh) {
		return nil, false
	}
	nums, ok := r.ReadBytes(maxNumbers)
	if !ok {
		return nil, false
	}
	count, _ := r.ReadU8()
	if count > maxNumbers {
		return nil, false
	}
	for i := uint8(0); i < count; i++ {
		if nums[i] >= pocketCount {
			return nil, false
		}
	}
	result, _ := r.ReadU8()
	if result != 0xFF && result >= pocketCount {
		return nil, false
	}
	var arr [maxNumbers]uint8
	copy(arr[:], nums)
	return &State{Stage: Stage(stageByte), BetType: BetType(betByte), Numbers: arr, NumberCount: count, Result: result}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(10)
	w.PushU8(uint8(st.Stage))
	w.PushU8(uint8(st.BetType))
	w.PushBytes(st.Numbers[:])
	w.PushU8(st.NumberCount)
	w.PushU8(st.Result)
	return w.Bytes()
}

type Roulette struct{}

func (Roulette) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{Stage: StageBetting, Result: 0xFF}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (Roulette) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
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
		if len(pl) != 3+maxNumbers || pl[1] > uint8(BetHigh) {
			return games.Result{}, games.ErrInvalidPayload
		}
		count := pl[2]
		if count > maxNumbers {
			return games.Result{}, games.ErrInvalidPayload
		}
		for i := uint8(0); i < count; i++ {
			if pl[3+i] >= pocketCount {
				return games.Result{}, games.ErrInvalidPayload
			}
		}
		var nums [maxNumbers]uint8
		copy(nums[:], pl[3:3+maxNumbers])
		st.BetType = BetType(pl[1])
		st.NumberCount = count
		st.Numbers = nums
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveSpin:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Result = spinPocket(rng)
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

// spinPocket draws a uniformly distributed pocket 0..36 from the shared
// die roller by rejection-sampling three combined d6 rolls.
func spinPocket(rng *games.GameRng) uint8 {
	const space = 216 // 6*6*6 combined die space
	for {
		a := rng.RollDie() - 1 // 0..5
		b := rng.RollDie() - 1 // 0..5
		c := rng.RollDie() - 1 // 0..5
		full := (uint16(a)*6+uint16(b))*6 + uint16(c) // 0..215
		if full < space-(space%pocketCount) {
			return uint8(full % pocketCount)
		}
	}
}

func isRed(n uint8) bool {
	return redNumbers[n]
}

func resolveBet(st *State) (uint64, bool) {
	n := st.Result
	switch st.BetType {
	case BetStraightUp:
		return 36, st.NumberCount == 1 && st.Numbers[0] == n
	case BetSplit:
		return 18, containsNumber(st, n)
	case BetStreet:
		return 12, containsNumber(st, n)
	case BetCorner:
		return 9, containsNumber(st, n)
	case BetLine:
		return 6, containsNumber(st, n)
	case BetDozen:
		if n == 0 {
			return 0, false
		}
		dozen := (n - 1) / 12
		return 3, st.NumberCount >= 1 && uint8(dozen) == st.Numbers[0]
	case BetColumn:
		if n == 0 {
			return 0, false
		}
		col := (n - 1) % 3
		return 3, st.NumberCount >= 1 && uint8(col) == st.Numbers[0]
	case BetRed:
		return 2, n != 0 && isRed(n)
	case BetBlack:
		return 2, n != 0 && !isRed(n)
	case BetOdd:
		return 2, n != 0 && n%2 == 1
	case BetEven:
		return 2, n != 0 && n%2 == 0
	case BetLow:
		return 2, n >= 1 && n <= 18
	case BetHigh:
		return 2, n >= 19 && n <= 36
	default:
		return 0, false
	}
}

func containsNumber(st *State, n uint8) bool {
	for i := uint8(0); i < st.NumberCount; i++ {
		if st.Numbers[i] == n {
			return true
		}
	}
	return false
}
