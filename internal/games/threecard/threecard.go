// Package threecard implements Three Card Poker.
//
// Grounded on original_source/execution/src/casino/three_card.rs: Ante +
// Play against the dealer (qualifying on queen-high or a configurable
// Q-6-4 variant), a Pair Plus side bet, a 6-Card Bonus side bet evaluated
// over the best 5 of the player's 3 + dealer's 3 cards, and a frozen
// Progressive side bet with its own mini-royal-by-suit jackpot rule. The
// ante bonus (straight or better) pays regardless of dealer qualification.
//
// State blob (v3), big-endian:
//
//	[version:u8=3] [stage:u8] [ante:u64] [pairPlus:u64] [sixCardBonus:u64]
//	[progressive:u64] [playerCards[3]:u8] [dealerCards[3]:u8] [rules:u8, optional]
//
// Stages: 0=Betting 1=Decision 2=AwaitingReveal 3=Complete.
// Moves:  0=Play 1=Fold 2=Deal 3=SetPairPlus(+u64) 4=Reveal
//
//	5=SetSixCardBonus(+u64) 6=SetProgressive(+u64) 8=SetRules(+u8)
//	7=atomic (SetPairPlus, SetSixCardBonus, SetProgressive, Deal) batch
package threecard

import (
	"fmt"
	"sort"

	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
	"nullspace.io/casino-chain/internal/games/supermode"
)

const (
	stateVersion = 3
	hiddenCard   = 0xFF
	// version(1) + stage(1) + ante/pairPlus/sixCardBonus/progressive(4*8) +
	// playerCards(3) + dealerCards(3), rules byte optional.
	stateLenBase      = 40
	stateLenWithRules = 41
	threeCardDecks       = 1
	maxSideBetAmount     = (uint64(1)<<63 - 1) / 1001
	progressiveJackpot   = 100_000 // frozen base jackpot for a mini-royal-spades hit
)

// Pay tables, expressed as to-1 multipliers (WoO reference tables).
const (
	anteStraightFlush = 5
	anteThreeOfAKind  = 4
	anteStraight      = 1

	pairplusStraightFlush = 40
	pairplusThreeOfAKind  = 30
	pairplusStraight      = 6
	pairplusFlush         = 3
	pairplusPair          = 1

	sixCardRoyalFlush    = 1000
	sixCardStraightFlush = 200
	sixCardFourOfAKind   = 100
	sixCardFullHouse     = 20
	sixCardFlush         = 15
	sixCardStraight      = 10
	sixCardThreeOfAKind  = 7

	progressiveMiniRoyalOther = 500
	progressiveStraightFlush  = 70
	progressiveThreeOfAKind   = 60
	progressiveStraight       = 6
)

type DealerQualifier uint8

const (
	QualifierQHigh DealerQualifier = iota
	QualifierQ64
)

func qualifierFromByte(v uint8) (DealerQualifier, bool) {
	if v > uint8(QualifierQ64) {
		return 0, false
	}
	return DealerQualifier(v), true
}

type Rules struct {
	DealerQualifier DealerQualifier
}

func defaultRules() Rules { return Rules{DealerQualifier: QualifierQHigh} }

type Stage uint8

const (
	StageBetting Stage = iota
	StageDecision
	StageAwaitingReveal
	StageComplete
)

func stageFromByte(v uint8) (Stage, bool) {
	if v > uint8(StageComplete) {
		return 0, false
	}
	return Stage(v), true
}

type Move uint8

const (
	MovePlay Move = iota
	MoveFold
	MoveDeal
	MoveSetPairPlus
	MoveReveal
	MoveSetSixCardBonus
	MoveSetProgressive
	MoveAtomicDeal
	MoveSetRules
)

type State struct {
	Stage        Stage
	Ante         uint64
	PairPlus     uint64
	SixCardBonus uint64
	Progressive  uint64
	PlayerCards  [3]uint8
	DealerCards  [3]uint8
	Rules        Rules
}

func clampSideBet(amount uint64) uint64 { return payload.ClampBetAmount(amount, maxSideBetAmount) }

func parseState(blob []byte) (*State, bool) {
	if len(blob) < stateLenBase || (len(blob) != stateLenBase && len(blob) != stateLenWithRules) {
		return nil, false
	}
	r := serialization.NewReader(blob)
	version, _ := r.ReadU8()
	if version != stateVersion {
		return nil, false
	}
	stageByte, _ := r.ReadU8()
	stage, ok := stageFromByte(stageByte)
	if !ok {
		return nil, false
	}
	ante, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	pairPlus, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	sixCard, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	progressive, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	playerCards, ok := r.ReadBytes(3)
	if !ok {
		return nil, false
	}
	dealerCards, ok := r.ReadBytes(3)
	if !ok {
		return nil, false
	}
	for _, c := range playerCards {
		if c != hiddenCard && !cards.IsValid(c) {
			return nil, false
		}
	}
	for _, c := range dealerCards {
		if c != hiddenCard && !cards.IsValid(c) {
			return nil, false
		}
	}

	rules := defaultRules()
	if r.Remaining() > 0 {
		rb, _ := r.ReadU8()
		rules.DealerQualifier, ok = qualifierFromByte(rb)
		if !ok {
			return nil, false
		}
	}
	if r.Remaining() != 0 {
		return nil, false
	}

	var pc, dc [3]uint8
	copy(pc[:], playerCards)
	copy(dc[:], dealerCards)

	return &State{
		Stage:        stage,
		Ante:         clampSideBet(ante),
		PairPlus:     clampSideBet(pairPlus),
		SixCardBonus: clampSideBet(sixCard),
		Progressive:  clampSideBet(progressive),
		PlayerCards:  pc,
		DealerCards:  dc,
		Rules:        rules,
	}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(33)
	w.PushU8(stateVersion)
	w.PushU8(uint8(st.Stage))
	w.PushU64BE(st.Ante)
	w.PushU64BE(st.PairPlus)
	w.PushU64BE(st.SixCardBonus)
	w.PushU64BE(st.Progressive)
	w.PushBytes(st.PlayerCards[:])
	w.PushBytes(st.DealerCards[:])
	w.PushU8(uint8(st.Rules.DealerQualifier))
	return w.Bytes()
}

// --- hand evaluation -------------------------------------------------

type HandRank uint8

const (
	RankHighCard HandRank = iota
	RankPair
	RankFlush
	RankStraight
	RankThreeOfAKind
	RankStraightFlush
)

func sortedRanksAceHigh(cs [3]uint8) [3]uint8 {
	r := [3]uint8{cards.Rank(cs[0]), cards.Rank(cs[1]), cards.Rank(cs[2])}
	sort.Slice(r[:], func(i, j int) bool { return r[i] < r[j] })
	return r
}

func isStraightRanks(r [3]uint8) bool {
	if r == [3]uint8{2, 3, 14} { // wheel: A-2-3
		return true
	}
	return r[1] == r[0]+1 && r[2] == r[1]+1
}

func evaluateHand(cs [3]uint8) HandRank {
	suits := [3]uint8{cards.Suit(cs[0]), cards.Suit(cs[1]), cards.Suit(cs[2])}
	isFlush := suits[0] == suits[1] && suits[1] == suits[2]

	ranks1based := [3]uint8{cs[0]%13 + 1, cs[1]%13 + 1, cs[2]%13 + 1}
	isTrips := ranks1based[0] == ranks1based[1] && ranks1based[1] == ranks1based[2]

	sorted := sortedRanksAceHigh(cs)
	isStraight := isStraightRanks(sorted)

	switch {
	case isStraight && isFlush:
		return RankStraightFlush
	case isTrips:
		return RankThreeOfAKind
	case isStraight:
		return RankStraight
	case isFlush:
		return RankFlush
	case ranks1based[0] == ranks1based[1] || ranks1based[1] == ranks1based[2] || ranks1based[0] == ranks1based[2]:
		return RankPair
	default:
		return RankHighCard
	}
}

// handBeats compares two 3-card hands of possibly-equal rank via kickers.
func handBeats(a, b [3]uint8) bool {
	rankA, rankB := evaluateHand(a), evaluateHand(b)
	if rankA != rankB {
		return rankA > rankB
	}
	sa, sb := sortedRanksAceHigh(a), sortedRanksAceHigh(b)
	// Compare high to low; trips/pair hands still compare correctly since
	// sorted ranks for AAA vs AAK differ at the kicker position.
	for i := 2; i >= 0; i-- {
		if sa[i] != sb[i] {
			return sa[i] > sb[i]
		}
	}
	return false
}

func dealerQualifies(dealer [3]uint8, rules Rules) bool {
	if evaluateHand(dealer) >= RankPair {
		return true
	}
	sorted := sortedRanksAceHigh(dealer)
	// sorted ascending; compare descending against the threshold.
	desc := [3]uint8{sorted[2], sorted[1], sorted[0]}
	switch rules.DealerQualifier {
	case QualifierQHigh:
		return desc[0] >= 12
	case QualifierQ64:
		threshold := [3]uint8{12, 6, 4}
		for i := 0; i < 3; i++ {
			if desc[i] != threshold[i] {
				return desc[i] > threshold[i]
			}
		}
		return true
	default:
		return false
	}
}

func pairplusMultiplier(cs [3]uint8) uint64 {
	switch evaluateHand(cs) {
	case RankStraightFlush:
		return pairplusStraightFlush
	case RankThreeOfAKind:
		return pairplusThreeOfAKind
	case RankStraight:
		return pairplusStraight
	case RankFlush:
		return pairplusFlush
	case RankPair:
		return pairplusPair
	default:
		return 0
	}
}

func anteBonusMultiplier(cs [3]uint8) uint64 {
	switch evaluateHand(cs) {
	case RankStraightFlush:
		return anteStraightFlush
	case RankThreeOfAKind:
		return anteThreeOfAKind
	case RankStraight:
		return anteStraight
	default:
		return 0
	}
}

type SixCardBonusRank uint8

const (
	SixCardNone SixCardBonusRank = iota
	SixCardThreeOfAKindRank
	SixCardStraightRank
	SixCardFlushRank
	SixCardFullHouseRank
	SixCardFourOfAKindRank
	SixCardStraightFlushRank
	SixCardRoyalFlushRank
)

func evaluateBest5Of6BonusRank(six [6]uint8) SixCardBonusRank {
	best := SixCardNone
	for skip := 0; skip < 6; skip++ {
		var five []uint8
		for i, c := range six {
			if i != skip {
				five = append(five, c)
			}
		}
		r := evaluate5CardBonusRank(five)
		if r > best {
			best = r
		}
	}
	return best
}

func evaluate5CardBonusRank(five []uint8) SixCardBonusRank {
	ranks := make([]int, 5)
	suits := make([]int, 5)
	for i, c := range five {
		ranks[i] = int(cards.Rank(c))
		suits[i] = int(cards.Suit(c))
	}
	sortedRanks := append([]int(nil), ranks...)
	sort.Ints(sortedRanks)

	isFlush := true
	for i := 1; i < 5; i++ {
		if suits[i] != suits[0] {
			isFlush = false
			break
		}
	}

	isStraight := true
	for i := 1; i < 5; i++ {
		if sortedRanks[i] != sortedRanks[i-1]+1 {
			isStraight = false
			break
		}
	}
	isWheel := sortedRanks[0] == 2 && sortedRanks[1] == 3 && sortedRanks[2] == 4 &&
		sortedRanks[3] == 5 && sortedRanks[4] == 14
	if isWheel {
		isStraight = true
	}

	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	var fourKind, threeKind, pairs int
	for _, c := range counts {
		switch c {
		case 4:
			fourKind++
		case 3:
			threeKind++
		case 2:
			pairs++
		}
	}

	isRoyal := isStraight && isFlush && sortedRanks[0] == 10
	switch {
	case isRoyal:
		return SixCardRoyalFlushRank
	case isStraight && isFlush:
		return SixCardStraightFlushRank
	case fourKind == 1:
		return SixCardFourOfAKindRank
	case threeKind == 1 && pairs == 1:
		return SixCardFullHouseRank
	case isFlush:
		return SixCardFlushRank
	case isStraight:
		return SixCardStraightRank
	case threeKind == 1:
		return SixCardThreeOfAKindRank
	default:
		return SixCardNone
	}
}

func sixCardBonusMultiplier(r SixCardBonusRank) uint64 {
	switch r {
	case SixCardRoyalFlushRank:
		return sixCardRoyalFlush
	case SixCardStraightFlushRank:
		return sixCardStraightFlush
	case SixCardFourOfAKindRank:
		return sixCardFourOfAKind
	case SixCardFullHouseRank:
		return sixCardFullHouse
	case SixCardFlushRank:
		return sixCardFlush
	case SixCardStraightRank:
		return sixCardStraight
	case SixCardThreeOfAKindRank:
		return sixCardThreeOfAKind
	default:
		return 0
	}
}

// resolveProgressiveReturn: mini-royal (Q-K-A suited) in spades pays the
// frozen base jackpot; any other suit pays 500:1. Straight flush 70:1,
// trips 60:1, straight 6:1.
func resolveProgressiveReturn(bet uint64, playerCards [3]uint8) uint64 {
	if bet == 0 {
		return 0
	}
	sorted := sortedRanksAceHigh(playerCards)
	isMiniRoyal := sorted == [3]uint8{12, 13, 14}
	if isMiniRoyal {
		if cards.Suit(playerCards[0]) == 0 && cards.Suit(playerCards[1]) == 0 && cards.Suit(playerCards[2]) == 0 {
			return progressiveJackpot
		}
		return payload.SatMulU64(bet, progressiveMiniRoyalOther)
	}
	switch evaluateHand(playerCards) {
	case RankStraightFlush:
		return payload.SatMulU64(bet, progressiveStraightFlush)
	case RankThreeOfAKind:
		return payload.SatMulU64(bet, progressiveThreeOfAKind)
	case RankStraight:
		return payload.SatMulU64(bet, progressiveStraight)
	default:
		return 0
	}
}

// --- game state machine ------------------------------------------------

type ThreeCard struct{}

func (ThreeCard) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{
		Stage:       StageBetting,
		Ante:        session.Bet,
		PlayerCards: [3]uint8{hiddenCard, hiddenCard, hiddenCard},
		DealerCards: [3]uint8{hiddenCard, hiddenCard, hiddenCard},
		Rules:       defaultRules(),
	}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (ThreeCard) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
	if session.IsComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}
	if len(pl) == 0 {
		return games.Result{}, games.ErrInvalidPayload
	}
	if pl[0] > uint8(MoveSetRules) {
		return games.Result{}, games.ErrInvalidPayload
	}
	mv := Move(pl[0])

	st, ok := parseState(session.StateBlob)
	if !ok {
		return games.Result{}, games.ErrInvalidPayload
	}
	if st.Stage == StageComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}

	switch st.Stage {
	case StageBetting:
		return processBetting(session, pl, mv, st, rng)
	case StageDecision:
		return processDecision(session, pl, mv, st, rng)
	case StageAwaitingReveal:
		return processReveal(session, pl, mv, st, rng)
	default:
		return games.Result{}, games.ErrGameAlreadyComplete
	}
}

func sideBetUpdate(old, next uint64) (int64, uint64) {
	if next >= old {
		return -int64(next - old), next
	}
	return int64(old - next), next
}

func dealThreeAndThree(rng *games.GameRng) ([3]uint8, [3]uint8, bool) {
	deck := rng.CreateDeck(threeCardDecks) // a single 52-card shoe per hand
	var p, d [3]uint8
	for i := 0; i < 3; i++ {
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return p, d, false
		}
		p[i] = c
	}
	for i := 0; i < 3; i++ {
		c, ok := rng.DrawCard(&deck)
		if !ok {
			return p, d, false
		}
		d[i] = c
	}
	return p, d, true
}

func processBetting(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	switch mv {
	case MoveSetRules:
		if len(pl) != 2 {
			return games.Result{}, games.ErrInvalidPayload
		}
		q, ok := qualifierFromByte(pl[1])
		if !ok {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Rules.DealerQualifier = q
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveSetPairPlus:
		next, err := payload.ParseU64BE(pl, 1)
		if err != nil || len(pl) != 9 {
			return games.Result{}, games.ErrInvalidPayload
		}
		next = clampSideBet(next)
		delta, updated := sideBetUpdate(st.PairPlus, next)
		st.PairPlus = updated
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(delta, nil), nil

	case MoveSetSixCardBonus:
		next, err := payload.ParseU64BE(pl, 1)
		if err != nil || len(pl) != 9 {
			return games.Result{}, games.ErrInvalidPayload
		}
		next = clampSideBet(next)
		delta, updated := sideBetUpdate(st.SixCardBonus, next)
		st.SixCardBonus = updated
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(delta, nil), nil

	case MoveSetProgressive:
		next, err := payload.ParseU64BE(pl, 1)
		if err != nil || len(pl) != 9 {
			return games.Result{}, games.ErrInvalidPayload
		}
		next = clampSideBet(next)
		delta, updated := sideBetUpdate(st.Progressive, next)
		st.Progressive = updated
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(delta, nil), nil

	case MoveDeal:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		if st.PlayerCards[0] != hiddenCard || st.DealerCards[0] != hiddenCard {
			return games.Result{}, games.ErrInvalidMove
		}
		p, d, ok := dealThreeAndThree(rng)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		st.PlayerCards = p
		st.DealerCards = d
		st.Stage = StageDecision
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	default:
		if pl[0] == uint8(MoveAtomicDeal) {
			if len(pl) != 25 {
				return games.Result{}, games.ErrInvalidPayload
			}
			if st.PlayerCards[0] != hiddenCard || st.DealerCards[0] != hiddenCard {
				return games.Result{}, games.ErrInvalidMove
			}
			pp, err := payload.ParseU64BE(pl, 1)
			if err != nil {
				return games.Result{}, err
			}
			sc, err := payload.ParseU64BE(pl, 9)
			if err != nil {
				return games.Result{}, err
			}
			pr, err := payload.ParseU64BE(pl, 17)
			if err != nil {
				return games.Result{}, err
			}
			ppDelta, ppNew := sideBetUpdate(st.PairPlus, clampSideBet(pp))
			scDelta, scNew := sideBetUpdate(st.SixCardBonus, clampSideBet(sc))
			prDelta, prNew := sideBetUpdate(st.Progressive, clampSideBet(pr))
			st.PairPlus, st.SixCardBonus, st.Progressive = ppNew, scNew, prNew

			p, d, ok := dealThreeAndThree(rng)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.PlayerCards = p
			st.DealerCards = d
			st.Stage = StageDecision
			session.StateBlob = serializeState(st)

			total := ppDelta + scDelta + prDelta
			if total == 0 {
				return games.Continue(nil), nil
			}
			return games.ContinueWithUpdate(total, nil), nil
		}
		return games.Result{}, games.ErrInvalidMove
	}
}

func processDecision(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	switch mv {
	case MovePlay:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Stage = StageAwaitingReveal
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(-int64(session.Bet), nil), nil

	case MoveFold:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		st.Stage = StageComplete
		session.IsComplete = true
		total := resolveSideBetsOnly(session, st, false)
		session.StateBlob = serializeState(st)
		return finalizeGameResult(session, st, total), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

func processReveal(session *games.Session, pl []byte, mv Move, st *State, _ *games.GameRng) (games.Result, error) {
	if mv != MoveReveal || len(pl) != 1 {
		return games.Result{}, games.ErrInvalidPayload
	}

	dealerQualified := dealerQualifies(st.DealerCards, st.Rules)
	var anteReturn, playReturn uint64

	if !dealerQualified {
		anteReturn = st.Ante
		playReturn = session.Bet // play bet pushes when dealer doesn't qualify
	} else if handBeats(st.PlayerCards, st.DealerCards) {
		anteReturn = payload.SatMulU64(st.Ante, 2)
		playReturn = payload.SatMulU64(session.Bet, 2)
	} else if handBeats(st.DealerCards, st.PlayerCards) {
		anteReturn = 0
		playReturn = 0
	} else {
		anteReturn = st.Ante
		playReturn = session.Bet
	}

	anteBonusMult := anteBonusMultiplier(st.PlayerCards)
	anteBonusReturn := uint64(0)
	if anteBonusMult > 0 {
		anteBonusReturn = payload.SatMulU64(st.Ante, anteBonusMult)
	}

	total := payload.SatAddU64(anteReturn, playReturn)
	total = payload.SatAddU64(total, anteBonusReturn)
	total = payload.SatAddU64(total, resolveSideBetsOnly(session, st, true))

	st.Stage = StageComplete
	session.IsComplete = true
	session.StateBlob = serializeState(st)

	return finalizeGameResult(session, st, total), nil
}

// resolveSideBetsOnly resolves Pair Plus, 6-Card Bonus, and Progressive,
// which pay independently of the ante/play outcome. The bool argument
// (false on the fold path) is ignored: every side bet resolves on its own
// evaluated hand whether the player folded or played.
func resolveSideBetsOnly(_ *games.Session, st *State, _ bool) uint64 {
	var total uint64
	if st.PairPlus > 0 {
		mult := pairplusMultiplier(st.PlayerCards)
		if mult > 0 {
			total = payload.SatAddU64(total, payload.SatMulU64(st.PairPlus, mult+1))
		}
	}
	if st.SixCardBonus > 0 {
		six := [6]uint8{st.PlayerCards[0], st.PlayerCards[1], st.PlayerCards[2], st.DealerCards[0], st.DealerCards[1], st.DealerCards[2]}
		rank := evaluateBest5Of6BonusRank(six)
		mult := sixCardBonusMultiplier(rank)
		if mult > 0 {
			total = payload.SatAddU64(total, payload.SatMulU64(st.SixCardBonus, mult+1))
		}
	}
	if st.Progressive > 0 {
		total = payload.SatAddU64(total, resolveProgressiveReturn(st.Progressive, st.PlayerCards))
	}
	return total
}

func totalWagered(session *games.Session, st *State, played bool) uint64 {
	wagered := st.Ante
	if played {
		wagered = payload.SatAddU64(wagered, session.Bet)
	}
	wagered = payload.SatAddU64(wagered, st.PairPlus)
	wagered = payload.SatAddU64(wagered, st.SixCardBonus)
	wagered = payload.SatAddU64(wagered, st.Progressive)
	return wagered
}

func applySuperMultiplier(session *games.Session, st *State, total uint64) uint64 {
	if !session.SuperMode.IsActive || total == 0 {
		return total
	}
	return supermode.ApplySuperMultiplier(st.PlayerCards[:], session.SuperMode.Multipliers, total)
}

func generateLogs(st *State, total uint64) []string {
	var pc, dc []string
	for _, c := range st.PlayerCards {
		pc = append(pc, fmt.Sprintf("%d", c))
	}
	for _, c := range st.DealerCards {
		dc = append(dc, fmt.Sprintf("%d", c))
	}
	return []string{fmt.Sprintf(
		`{"playerCards":[%v],"dealerCards":[%v],"ante":%d,"pairPlus":%d,"sixCardBonus":%d,"progressive":%d,"totalReturn":%d}`,
		pc, dc, st.Ante, st.PairPlus, st.SixCardBonus, st.Progressive, total)}
}

func finalizeGameResult(session *games.Session, st *State, total uint64) games.Result {
	played := st.Stage == StageComplete && session.IsComplete
	wagered := totalWagered(session, st, played)
	total = applySuperMultiplier(session, st, total)
	logs := generateLogs(st, total)
	if total == 0 {
		return games.LossPreDeducted(wagered, logs)
	}
	return games.Win(total, logs)
}
