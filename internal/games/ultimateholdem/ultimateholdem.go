// Package ultimateholdem implements Ultimate Texas Hold'em: the player
// posts equal Ante and Blind bets (each equal to session.Bet) plus an
// optional Trips side bet, then chooses to raise 4x/3x pre-flop, 2x after
// the flop, or 1x/fold at the river. The dealer qualifies with a pair of
// 4s or better. Blind pays when the player wins with a straight or better,
// pushes on any other player win or a tie, and loses when the player loses.
//
// State blob: [stage:u8] [holeCards[2]:u8] [community[5]:u8]
//
//	[playBet:u64] [tripsBet:u64]
package ultimateholdem

import (
	"sort"

	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
)

const holdemDecks = 1

type Stage uint8

const (
	StagePreFlop Stage = iota
	StageFlop
	StageRiver
	StageComplete
)

type Move uint8

const (
	MoveSetTrips Move = iota // [0, tripsBet:u64]
	MoveDeal                  // [1]
	MoveBet4x                 // [2] pre-flop raise, only legal at StagePreFlop
	MoveBet3x                 // [3] pre-flop raise, alternate sizing
	MoveCheckPreFlop          // [4]
	MoveBet2x                 // [5] flop raise, only legal at StageFlop
	MoveCheckFlop             // [6]
	MoveBet1x                 // [7] river raise
	MoveFold                  // [8] river fold, forfeits ante/blind/trips
)

type State struct {
	Stage     Stage
	HoleCards [2]uint8
	Community [5]uint8
	PlayBet   uint64
	TripsBet  uint64
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) != 24 {
		return nil, false
	}
	r := serialization.NewReader(blob)
	stageByte, _ := r.ReadU8()
	if stageByte > uint8(StageComplete) {
		return nil, false
	}
	hole, ok := r.ReadBytes(2)
	if !ok {
		return nil, false
	}
	community, ok := r.ReadBytes(5)
	if !ok {
		return nil, false
	}
	for _, c := range hole {
		if c != 0xFF && !cards.IsValid(c) {
			return nil, false
		}
	}
	for _, c := range community {
		if c != 0xFF && !cards.IsValid(c) {
			return nil, false
		}
	}
	playBet, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	tripsBet, ok := r.ReadU64BE()
	if !ok || r.Remaining() != 0 {
		return nil, false
	}
	var h [2]uint8
	var c [5]uint8
	copy(h[:], hole)
	copy(c[:], community)
	return &State{Stage: Stage(stageByte), HoleCards: h, Community: c, PlayBet: playBet, TripsBet: tripsBet}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(24)
	w.PushU8(uint8(st.Stage))
	w.PushBytes(st.HoleCards[:])
	w.PushBytes(st.Community[:])
	w.PushU64BE(st.PlayBet)
	w.PushU64BE(st.TripsBet)
	return w.Bytes()
}

type UltimateHoldem struct{}

func (UltimateHoldem) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{
		Stage:     StagePreFlop,
		HoleCards: [2]uint8{0xFF, 0xFF},
		Community: [5]uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (UltimateHoldem) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
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
	case MoveSetTrips:
		if len(pl) != 9 || st.HoleCards[0] != 0xFF {
			return games.Result{}, games.ErrInvalidPayload
		}
		trips, err := payload.ParseU64BE(pl, 1)
		if err != nil {
			return games.Result{}, err
		}
		st.TripsBet = trips
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveDeal:
		if len(pl) != 1 || st.HoleCards[0] != 0xFF {
			return games.Result{}, games.ErrInvalidMove
		}
		deck := rng.CreateDeck(holdemDecks)
		for i := 0; i < 2; i++ {
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.HoleCards[i] = c
		}
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(-int64(payload.SatMulU64(session.Bet, 2)), nil), nil

	case MoveBet4x, MoveBet3x:
		if st.Stage != StagePreFlop || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		mult := uint64(4)
		if Move(pl[0]) == MoveBet3x {
			mult = 3
		}
		st.PlayBet = payload.SatMulU64(session.Bet, mult)
		return dealToRiver(session, st, rng)

	case MoveCheckPreFlop:
		if st.Stage != StagePreFlop || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		st.Stage = StageFlop
		deck := rng.CreateDeckExcluding(st.HoleCards[:], holdemDecks)
		for i := 0; i < 3; i++ {
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.Community[i] = c
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveBet2x:
		if st.Stage != StageFlop || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		st.PlayBet = payload.SatMulU64(session.Bet, 2)
		return dealRiverCardsAndResolve(session, st, rng)

	case MoveCheckFlop:
		if st.Stage != StageFlop || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		st.Stage = StageRiver
		known := append(append([]uint8{}, st.HoleCards[:]...), st.Community[:3]...)
		deck := rng.CreateDeckExcluding(known, holdemDecks)
		for i := 3; i < 5; i++ {
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.Community[i] = c
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveBet1x:
		if st.Stage != StageRiver || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		st.PlayBet = session.Bet
		return resolveShowdown(session, st, rng)

	case MoveFold:
		if st.Stage != StageRiver || len(pl) != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		st.Stage = StageComplete
		session.IsComplete = true
		session.StateBlob = serializeState(st)
		wagered := payload.SatAddU64(payload.SatMulU64(session.Bet, 2), st.TripsBet)
		return games.LossPreDeducted(wagered, nil), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

func dealToRiver(session *games.Session, st *State, rng *games.GameRng) (games.Result, error) {
	known := append([]uint8{}, st.HoleCards[:]...)
	deck := rng.CreateDeckExcluding(known, holdemDecks)
	for i := 0; i < 5; i++ {
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		st.Community[i] = c
	}
	return resolveShowdown(session, st, rng)
}

func dealRiverCardsAndResolve(session *games.Session, st *State, rng *games.GameRng) (games.Result, error) {
	known := append(append([]uint8{}, st.HoleCards[:]...), st.Community[:3]...)
	deck := rng.CreateDeckExcluding(known, holdemDecks)
	for i := 3; i < 5; i++ {
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		st.Community[i] = c
	}
	return resolveShowdown(session, st, rng)
}

func resolveShowdown(session *games.Session, st *State, rng *games.GameRng) (games.Result, error) {
	st.Stage = StageComplete
	session.IsComplete = true

	deck := rng.CreateDeckExcluding(append(append([]uint8{}, st.HoleCards[:]...), st.Community[:]...), holdemDecks)
	var dealerHole [2]uint8
	for i := 0; i < 2; i++ {
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		dealerHole[i] = c
	}
	session.StateBlob = serializeState(st)

	playerSeven := append(append([]uint8{}, st.HoleCards[:]...), st.Community[:]...)
	dealerSeven := append(append([]uint8{}, dealerHole[:]...), st.Community[:]...)
	playerRank := bestHandRank(playerSeven)
	dealerRank := bestHandRank(dealerSeven)
	dealerQualifies := dealerRank >= pairOfFoursRank()

	ante := session.Bet
	blind := session.Bet
	var total uint64

	switch {
	case playerRank > dealerRank:
		total = payload.SatAddU64(total, payload.SatMulU64(ante, 2))
		total = payload.SatAddU64(total, payload.SatMulU64(st.PlayBet, 2))
		total = payload.SatAddU64(total, blindPayout(blind, playerRank))
	case playerRank == dealerRank:
		total = payload.SatAddU64(total, ante)
		total = payload.SatAddU64(total, st.PlayBet)
		total = payload.SatAddU64(total, blind)
	default:
		if !dealerQualifies {
			total = payload.SatAddU64(total, ante) // ante pushes, play and blind still lost
		}
	}

	tripsPayout := tripsPayout(st.TripsBet, playerRank)
	total = payload.SatAddU64(total, tripsPayout)

	wagered := payload.SatAddU64(payload.SatAddU64(payload.SatMulU64(ante, 2), st.PlayBet), st.TripsBet)
	if total == 0 {
		return games.LossPreDeducted(wagered, nil), nil
	}
	return games.Win(total, nil), nil
}

// pairOfFoursRank returns the minimum packed rank a dealer hand must reach
// to qualify: a pair of 4s or better.
func pairOfFoursRank() int64 {
	return packRank(1, []int{4, 0, 0, 0, 0})
}

func blindPayout(blind uint64, rank int64) uint64 {
	switch categoryOf(rank) {
	case 9:
		return payload.SatMulU64(blind, 501) // royal flush, 500:1
	case 8:
		return payload.SatMulU64(blind, 51) // straight flush, 50:1
	case 7:
		return payload.SatMulU64(blind, 11) // four of a kind, 10:1
	case 6:
		return payload.SatMulU64(blind, 4) // full house, 3:1
	case 5:
		return blind + blind*3/2 // flush, 3:2
	case 4:
		return payload.SatMulU64(blind, 2) // straight, 1:1
	default:
		return blind // push
	}
}

func tripsPayout(tripsBet uint64, rank int64) uint64 {
	if tripsBet == 0 {
		return 0
	}
	switch categoryOf(rank) {
	case 9:
		return payload.SatMulU64(tripsBet, 51) // royal flush, 50:1
	case 8:
		return payload.SatMulU64(tripsBet, 41) // straight flush, 40:1
	case 7:
		return payload.SatMulU64(tripsBet, 31) // four of a kind, 30:1
	case 6:
		return payload.SatMulU64(tripsBet, 9) // full house, 8:1
	case 5:
		return payload.SatMulU64(tripsBet, 8) // flush, 7:1
	case 4:
		return payload.SatMulU64(tripsBet, 5) // straight, 4:1
	case 3:
		return payload.SatMulU64(tripsBet, 4) // three of a kind, 3:1
	default:
		return 0
	}
}

// categoryOf extracts the hand category (0=high card .. 9=royal flush)
// packed into the high bits of a rank value produced by packRank.
func categoryOf(rank int64) int64 {
	return rank >> 40
}

// packRank combines a hand category and up to five tiebreak ranks into a
// single comparable integer: higher means stronger.
func packRank(category int, kickers []int) int64 {
	v := int64(category) << 40
	shift := 32
	for _, k := range kickers {
		v |= int64(k) << uint(shift)
		shift -= 8
	}
	return v
}

// bestHandRank evaluates the best 5-card hand out of a 7-card set and
// returns a packed, directly comparable rank.
func bestHandRank(seven []uint8) int64 {
	best := int64(-1)
	n := len(seven)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var five []uint8
			for i := 0; i < n; i++ {
				if i != a && i != b {
					five = append(five, seven[i])
				}
			}
			r := evaluateFive(five)
			if r > best {
				best = r
			}
		}
	}
	return best
}

func evaluateFive(cs []uint8) int64 {
	ranks := make([]int, len(cs))
	suits := make([]int, len(cs))
	for i, c := range cs {
		ranks[i] = int(cards.Rank(c))
		suits[i] = int(cards.Suit(c))
	}
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	isFlush := true
	for i := 1; i < len(suits); i++ {
		if suits[i] != suits[0] {
			isFlush = false
			break
		}
	}
	sorted := append([]int(nil), ranks...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	isStraight, straightHigh := detectStraight(sorted)

	type rc struct{ rank, count int }
	var groups []rc
	for r, c := range counts {
		groups = append(groups, rc{r, c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	kickers := make([]int, 5)
	for i, g := range groups {
		kickers[i] = g.rank
	}

	switch {
	case isStraight && isFlush:
		if straightHigh == 14 {
			return packRank(9, []int{14})
		}
		return packRank(8, []int{straightHigh})
	case groups[0].count == 4:
		return packRank(7, kickers)
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count == 2:
		return packRank(6, kickers)
	case isFlush:
		return packRank(5, sorted)
	case isStraight:
		return packRank(4, []int{straightHigh})
	case groups[0].count == 3:
		return packRank(3, kickers)
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		return packRank(2, kickers)
	case groups[0].count == 2:
		return packRank(1, kickers)
	default:
		return packRank(0, sorted)
	}
}

// detectStraight expects ranks sorted descending (2..14, ace-high) and
// reports whether five of them form a straight, including the wheel
// (A-2-3-4-5, reported with high card 5).
func detectStraight(sortedDesc []int) (bool, int) {
	uniq := []int{}
	seen := map[int]bool{}
	for _, r := range sortedDesc {
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}
	for i := 0; i <= len(uniq)-5; i++ {
		if uniq[i]-uniq[i+4] == 4 {
			return true, uniq[i]
		}
	}
	if seen[14] && seen[2] && seen[3] && seen[4] && seen[5] {
		return true, 5
	}
	return false, 0
}
