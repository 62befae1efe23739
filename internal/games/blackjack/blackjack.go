// Package blackjack implements the blackjack state machine.
//
// Grounded on original_source/execution/src/casino/blackjack.rs in full:
// 8-deck H17 shoe, no surrender, no on-chain insurance, dealer hole card
// drawn only at Reveal (never peeked), up to 4 hands via splits, doubles,
// and an optional 21+3 side bet.
//
// State blob (v2), all integers big-endian:
//
//	[version:u8=2] [stage:u8] [sideBet21Plus3:u64] [initialCard1:u8]
//	[initialCard2:u8] [activeHandIdx:u8] [handCount:u8]
//	per hand: [betMult:u8] [status:u8] [wasSplit:u8] [cardCount:u8] [cards...]
//	[dealerCount:u8] [dealerCards...]
//
// Stages: 0=Betting 1=PlayerTurn 2=AwaitingReveal 3=Complete.
// Moves:  0=Hit 1=Stand 2=Double 3=Split 4=Deal 5=Set21Plus3 6=Reveal
// 7=atomic (Set21Plus3, Deal) batch.
package blackjack

import (
	"fmt"
	"strings"

	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
	"nullspace.io/casino-chain/internal/games/supermode"
)

const (
	maxHandSize    = 11
	maxHands       = 4
	stateVersion   = 2
	cardUnknown    = 0xFF
	blackjackDecks = 8
)

type Stage uint8

const (
	StageBetting Stage = iota
	StagePlayerTurn
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
	MoveHit Move = iota
	MoveStand
	MoveDouble
	MoveSplit
	MoveDeal
	MoveSet21Plus3
	MoveReveal
	MoveAtomicSetAndDeal = 7
)

type HandStatus uint8

const (
	HandPlaying HandStatus = iota
	HandStanding
	HandBusted
	HandBlackjack
)

func handStatusFromByte(v uint8) (HandStatus, bool) {
	if v > uint8(HandBlackjack) {
		return 0, false
	}
	return HandStatus(v), true
}

type Hand struct {
	Cards    []uint8
	BetMult  uint8
	Status   HandStatus
	WasSplit bool
}

type State struct {
	Stage             Stage
	SideBet21Plus3    uint64
	InitialPlayerCards [2]uint8
	ActiveHandIdx     uint8
	Hands             []Hand
	DealerCards       []uint8
}

// HandValue returns (value, isSoft) for a set of cards, aces counted as 11
// and reduced to 1 as needed to avoid busting.
func HandValue(cs []uint8) (uint8, bool) {
	var value int
	var aces int
	for _, c := range cs {
		v := int(cards.BlackjackValue(c))
		if v == 11 {
			aces++
		}
		value += v
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	isSoft := aces > 0 && value <= 21
	if value > 255 {
		value = 255
	}
	return uint8(value), isSoft
}

func IsBlackjack(cs []uint8) bool {
	return len(cs) == 2 && func() bool { v, _ := HandValue(cs); return v == 21 }()
}

func isNaturalBlackjack(h Hand) bool {
	return !h.WasSplit && IsBlackjack(h.Cards)
}

func is21Plus3Straight(ranks [3]uint8) bool {
	sorted := ranks
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if sorted[j] < sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	isWheel := sorted == [3]uint8{2, 3, 14}
	isRun := sorted[1] == sorted[0]+1 && sorted[2] == sorted[1]+1
	return isWheel || isRun
}

// eval21Plus3Multiplier implements the WoO 21+3 "Version 4"/"Xtreme" pay
// table: straight-flush 30, trips 20, straight 10, flush 5, else 0 (to-1).
func eval21Plus3Multiplier(cs [3]uint8) uint64 {
	suits := [3]uint8{cards.Suit(cs[0]), cards.Suit(cs[1]), cards.Suit(cs[2])}
	isFlush := suits[0] == suits[1] && suits[1] == suits[2]

	r1, r2, r3 := cs[0]%13+1, cs[1]%13+1, cs[2]%13+1
	isTrips := r1 == r2 && r2 == r3

	ranks := [3]uint8{cards.Rank(cs[0]), cards.Rank(cs[1]), cards.Rank(cs[2])}
	isStraight := is21Plus3Straight(ranks)

	switch {
	case isTrips:
		return 20
	case isStraight && isFlush:
		return 30
	case isStraight:
		return 10
	case isFlush:
		return 5
	default:
		return 0
	}
}

func resolve21Plus3Return(st *State) uint64 {
	bet := st.SideBet21Plus3
	if bet == 0 {
		return 0
	}
	if !cards.IsValid(st.InitialPlayerCards[0]) || !cards.IsValid(st.InitialPlayerCards[1]) {
		return 0
	}
	if len(st.DealerCards) == 0 || !cards.IsValid(st.DealerCards[0]) {
		return 0
	}
	combo := [3]uint8{st.InitialPlayerCards[0], st.InitialPlayerCards[1], st.DealerCards[0]}
	mult := eval21Plus3Multiplier(combo)
	if mult == 0 {
		return 0
	}
	return payload.SatMulU64(bet, mult+1)
}

func apply21Plus3Update(st *State, newBet uint64) (int64, error) {
	old := int64(st.SideBet21Plus3)
	delta := int64(newBet) - old
	// both sides are bounded well under i64 range since bets are clamped
	// upstream of the execution layer; a pathological overflow still
	// surfaces as InvalidMove rather than wrapping silently.
	if newBet > (1<<62) || old > (1<<62) {
		return 0, games.ErrInvalidMove
	}
	st.SideBet21Plus3 = newBet
	return -delta, nil
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(32)
	w.PushU8(stateVersion)
	w.PushU8(uint8(st.Stage))
	w.PushU64BE(st.SideBet21Plus3)
	w.PushBytes(st.InitialPlayerCards[:])
	w.PushU8(st.ActiveHandIdx)
	w.PushU8(uint8(len(st.Hands)))
	for _, h := range st.Hands {
		w.PushU8(h.BetMult)
		w.PushU8(uint8(h.Status))
		if h.WasSplit {
			w.PushU8(1)
		} else {
			w.PushU8(0)
		}
		w.PushU8(uint8(len(h.Cards)))
		w.PushBytes(h.Cards)
	}
	w.PushU8(uint8(len(st.DealerCards)))
	w.PushBytes(st.DealerCards)
	return w.Bytes()
}

func parseState(blob []byte) (*State, bool) {
	if len(blob) < 14 {
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
	sideBet, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	initCards, ok := r.ReadBytes(2)
	if !ok {
		return nil, false
	}
	activeHandIdx, ok := r.ReadU8()
	if !ok {
		return nil, false
	}
	handCount, ok := r.ReadU8()
	if !ok || int(handCount) > maxHands {
		return nil, false
	}

	hands := make([]Hand, 0, handCount)
	for i := uint8(0); i < handCount; i++ {
		betMult, ok1 := r.ReadU8()
		statusByte, ok2 := r.ReadU8()
		wasSplitByte, ok3 := r.ReadU8()
		cardCount, ok4 := r.ReadU8()
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return nil, false
		}
		status, ok := handStatusFromByte(statusByte)
		if !ok {
			return nil, false
		}
		if int(cardCount) > maxHandSize {
			return nil, false
		}
		cs, ok := r.ReadBytes(int(cardCount))
		if !ok {
			return nil, false
		}
		for _, c := range cs {
			if c != cardUnknown && !cards.IsValid(c) {
				return nil, false
			}
		}
		cardsCopy := append([]uint8(nil), cs...)
		hands = append(hands, Hand{
			Cards:    cardsCopy,
			BetMult:  betMult,
			Status:   status,
			WasSplit: wasSplitByte != 0,
		})
	}

	dealerCount, ok := r.ReadU8()
	if !ok || int(dealerCount) > maxHandSize {
		return nil, false
	}
	dealerCards, ok := r.ReadBytes(int(dealerCount))
	if !ok {
		return nil, false
	}
	for _, c := range dealerCards {
		if c != cardUnknown && !cards.IsValid(c) {
			return nil, false
		}
	}
	if r.Remaining() != 0 {
		return nil, false
	}

	return &State{
		Stage:              stage,
		SideBet21Plus3:     sideBet,
		InitialPlayerCards: [2]uint8{initCards[0], initCards[1]},
		ActiveHandIdx:      activeHandIdx,
		Hands:              hands,
		DealerCards:        append([]uint8(nil), dealerCards...),
	}, true
}

// Blackjack implements games.Game.
type Blackjack struct{}

func (Blackjack) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{
		Stage:              StageBetting,
		InitialPlayerCards: [2]uint8{cardUnknown, cardUnknown},
	}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (Blackjack) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
	if session.IsComplete {
		return games.Result{}, games.ErrGameAlreadyComplete
	}
	if len(pl) == 0 {
		return games.Result{}, games.ErrInvalidPayload
	}
	if pl[0] > MoveAtomicSetAndDeal {
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
	case StagePlayerTurn:
		return processPlayerTurn(session, pl, mv, st, rng)
	case StageAwaitingReveal:
		return processReveal(session, pl, mv, st, rng)
	default:
		return games.Result{}, games.ErrGameAlreadyComplete
	}
}

func dealInitial(session *games.Session, st *State, rng *games.GameRng) error {
	deck := rng.CreateDeck(blackjackDecks)
	p1, ok := rng.DrawCard(&deck)
	if !ok {
		return games.ErrDeckExhausted
	}
	p2, ok := rng.DrawCard(&deck)
	if !ok {
		return games.ErrDeckExhausted
	}
	dealerUp, ok := rng.DrawCard(&deck)
	if !ok {
		return games.ErrDeckExhausted
	}

	st.InitialPlayerCards = [2]uint8{p1, p2}
	playerCards := []uint8{p1, p2}
	playerBJ := IsBlackjack(playerCards)

	status := HandPlaying
	if playerBJ {
		status = HandBlackjack
	}
	st.Hands = []Hand{{Cards: playerCards, BetMult: 1, Status: status}}
	st.DealerCards = []uint8{dealerUp}
	st.ActiveHandIdx = 0
	if playerBJ {
		st.Stage = StageAwaitingReveal
	} else {
		st.Stage = StagePlayerTurn
		if !advanceTurn(st) {
			st.Stage = StageAwaitingReveal
		}
	}
	return nil
}

func processBetting(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	switch mv {
	case MoveSet21Plus3:
		newBet, err := payload.ParseU64BE(pl, 1)
		if err != nil {
			return games.Result{}, err
		}
		delta, err := apply21Plus3Update(st, newBet)
		if err != nil {
			return games.Result{}, err
		}
		session.StateBlob = serializeState(st)
		if delta == 0 {
			return games.Continue(nil), nil
		}
		return games.ContinueWithUpdate(delta, nil), nil

	case MoveDeal:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		if len(st.Hands) != 0 || len(st.DealerCards) != 0 {
			return games.Result{}, games.ErrInvalidMove
		}
		if err := dealInitial(session, st, rng); err != nil {
			return games.Result{}, err
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	default:
		if pl[0] == MoveAtomicSetAndDeal {
			if len(pl) != 9 {
				return games.Result{}, games.ErrInvalidPayload
			}
			if len(st.Hands) != 0 || len(st.DealerCards) != 0 {
				return games.Result{}, games.ErrInvalidMove
			}
			newBet, err := payload.ParseU64BE(pl, 1)
			if err != nil {
				return games.Result{}, err
			}
			delta, err := apply21Plus3Update(st, newBet)
			if err != nil {
				return games.Result{}, err
			}
			if err := dealInitial(session, st, rng); err != nil {
				return games.Result{}, err
			}
			session.StateBlob = serializeState(st)
			if delta == 0 {
				return games.Continue(nil), nil
			}
			return games.ContinueWithUpdate(delta, nil), nil
		}
		return games.Result{}, games.ErrInvalidMove
	}
}

func allVisibleCards(st *State) []uint8 {
	var all []uint8
	for _, h := range st.Hands {
		all = append(all, h.Cards...)
	}
	all = append(all, st.DealerCards...)
	return all
}

func processPlayerTurn(session *games.Session, _ []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	deck := rng.CreateDeckExcluding(allVisibleCards(st), blackjackDecks)

	switch mv {
	case MoveHit:
		if int(st.ActiveHandIdx) >= len(st.Hands) {
			return games.Result{}, games.ErrInvalidState
		}
		hand := &st.Hands[st.ActiveHandIdx]
		if hand.Status != HandPlaying {
			return games.Result{}, games.ErrInvalidMove
		}
		card, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		hand.Cards = append(hand.Cards, card)
		session.MoveCount++

		val, _ := HandValue(hand.Cards)
		switch {
		case val > 21:
			hand.Status = HandBusted
			if !advanceTurn(st) {
				if allBusted(st) {
					total := resolve21Plus3Return(st)
					st.Stage = StageComplete
					session.IsComplete = true
					session.StateBlob = serializeState(st)
					return finalizeGameResult(session, st, total), nil
				}
				st.Stage = StageAwaitingReveal
			}
		case val == 21:
			hand.Status = HandStanding
			if !advanceTurn(st) {
				st.Stage = StageAwaitingReveal
			}
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveStand:
		if int(st.ActiveHandIdx) >= len(st.Hands) {
			return games.Result{}, games.ErrInvalidState
		}
		hand := &st.Hands[st.ActiveHandIdx]
		if hand.Status != HandPlaying {
			return games.Result{}, games.ErrInvalidMove
		}
		hand.Status = HandStanding
		session.MoveCount++
		if !advanceTurn(st) {
			st.Stage = StageAwaitingReveal
		}
		session.StateBlob = serializeState(st)
		return games.Continue(nil), nil

	case MoveDouble:
		if int(st.ActiveHandIdx) >= len(st.Hands) {
			return games.Result{}, games.ErrInvalidState
		}
		hand := &st.Hands[st.ActiveHandIdx]
		if hand.Status != HandPlaying || len(hand.Cards) != 2 || hand.BetMult != 1 {
			return games.Result{}, games.ErrInvalidMove
		}
		extraBet := session.Bet
		hand.BetMult = 2
		card, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		hand.Cards = append(hand.Cards, card)
		session.MoveCount++

		val, _ := HandValue(hand.Cards)
		if val > 21 {
			hand.Status = HandBusted
		} else {
			hand.Status = HandStanding
		}

		if !advanceTurn(st) {
			if allBusted(st) {
				total := resolve21Plus3Return(st)
				st.Stage = StageComplete
				session.IsComplete = true
				session.StateBlob = serializeState(st)
				return finalizeGameResult(session, st, total), nil
			}
			st.Stage = StageAwaitingReveal
		}
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(-int64(extraBet), nil), nil

	case MoveSplit:
		if int(st.ActiveHandIdx) >= len(st.Hands) {
			return games.Result{}, games.ErrInvalidState
		}
		if len(st.Hands) >= maxHands {
			return games.Result{}, games.ErrInvalidMove
		}
		cur := &st.Hands[st.ActiveHandIdx]
		if cur.Status != HandPlaying || len(cur.Cards) != 2 {
			return games.Result{}, games.ErrInvalidMove
		}
		if cur.Cards[0]%13 != cur.Cards[1]%13 {
			return games.Result{}, games.ErrInvalidMove
		}
		splitBet := session.Bet

		splitCard := cur.Cards[1]
		cur.Cards = cur.Cards[:1]
		cur.WasSplit = true

		c1, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		cur.Cards = append(cur.Cards, c1)

		c2, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrDeckExhausted
		}
		newHand := Hand{Cards: []uint8{splitCard, c2}, BetMult: 1, Status: HandPlaying, WasSplit: true}

		idx := int(st.ActiveHandIdx) + 1
		st.Hands = append(st.Hands, Hand{})
		copy(st.Hands[idx+1:], st.Hands[idx:])
		st.Hands[idx] = newHand

		session.MoveCount++
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(-int64(splitBet), nil), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}

func processReveal(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	if mv != MoveReveal {
		return games.Result{}, games.ErrInvalidMove
	}
	if len(pl) != 1 {
		return games.Result{}, games.ErrInvalidPayload
	}

	deck := rng.CreateDeckExcluding(allVisibleCards(st), blackjackDecks)

	hole, ok := rng.DrawCard(&deck)
	if !ok {
		return games.Result{}, games.ErrDeckExhausted
	}
	st.DealerCards = append(st.DealerCards, hole)

	anyLive := false
	for _, h := range st.Hands {
		if h.Status != HandBusted {
			anyLive = true
			break
		}
	}
	if anyLive {
		for {
			val, soft := HandValue(st.DealerCards)
			if val > 17 || (val == 17 && !soft) {
				break
			}
			c, ok := rng.DrawCard(&deck)
			if !ok {
				return games.Result{}, games.ErrDeckExhausted
			}
			st.DealerCards = append(st.DealerCards, c)
		}
	}

	total := resolveMainReturn(session, st)
	total = payload.SatAddU64(total, resolve21Plus3Return(st))

	st.Stage = StageComplete
	session.IsComplete = true
	session.StateBlob = serializeState(st)

	return finalizeGameResult(session, st, total), nil
}

func advanceTurn(st *State) bool {
	for int(st.ActiveHandIdx) < len(st.Hands) {
		if st.Hands[st.ActiveHandIdx].Status == HandPlaying {
			return true
		}
		st.ActiveHandIdx++
	}
	return false
}

func allBusted(st *State) bool {
	for _, h := range st.Hands {
		if h.Status != HandBusted {
			return false
		}
	}
	return true
}

func resolveHandReturn(bet uint64, h Hand, dealerValue uint8, dealerBJ bool) uint64 {
	if h.Status == HandBusted {
		return 0
	}
	playerValue, _ := HandValue(h.Cards)
	playerBJ := isNaturalBlackjack(h)

	switch {
	case playerBJ && dealerBJ:
		return bet
	case playerBJ:
		return payload.SatMulU64(bet, 5) / 2
	case dealerBJ:
		return 0
	case dealerValue > 21 || playerValue > dealerValue:
		return payload.SatMulU64(bet, 2)
	case playerValue == dealerValue:
		return bet
	default:
		return 0
	}
}

func resolveMainReturn(session *games.Session, st *State) uint64 {
	dealerValue, _ := HandValue(st.DealerCards)
	dealerBJ := IsBlackjack(st.DealerCards)

	var acc uint64
	for _, h := range st.Hands {
		bet := payload.SatMulU64(session.Bet, uint64(h.BetMult))
		acc = payload.SatAddU64(acc, resolveHandReturn(bet, h, dealerValue, dealerBJ))
	}
	return acc
}

func totalWagered(session *games.Session, st *State) uint64 {
	var main uint64
	for _, h := range st.Hands {
		main = payload.SatAddU64(main, payload.SatMulU64(session.Bet, uint64(h.BetMult)))
	}
	return payload.SatAddU64(main, st.SideBet21Plus3)
}

func applySuperMultiplier(session *games.Session, st *State, total uint64) uint64 {
	if !session.SuperMode.IsActive || total == 0 || len(st.Hands) == 0 {
		return total
	}
	return supermode.ApplySuperMultiplier(st.Hands[0].Cards, session.SuperMode.Multipliers, total)
}

func generateLogs(session *games.Session, st *State, total uint64) []string {
	dealerValue, _ := HandValue(st.DealerCards)
	dealerBJ := IsBlackjack(st.DealerCards)

	var hands []string
	for _, h := range st.Hands {
		value, soft := HandValue(h.Cards)
		bet := payload.SatMulU64(session.Bet, uint64(h.BetMult))
		ret := resolveHandReturn(bet, h, dealerValue, dealerBJ)
		statusStr := [...]string{"PLAYING", "STANDING", "BUSTED", "BLACKJACK"}[h.Status]
		var cardStrs []string
		for _, c := range h.Cards {
			cardStrs = append(cardStrs, fmt.Sprintf("%d", c))
		}
		hands = append(hands, fmt.Sprintf(
			`{"cards":[%s],"value":%d,"soft":%t,"status":%q,"bet":%d,"return":%d}`,
			strings.Join(cardStrs, ","), value, soft, statusStr, bet, ret))
	}

	var dealerStrs []string
	for _, c := range st.DealerCards {
		dealerStrs = append(dealerStrs, fmt.Sprintf("%d", c))
	}

	sideBetReturn := resolve21Plus3Return(st)

	return []string{fmt.Sprintf(
		`{"hands":[%s],"dealer":{"cards":[%s],"value":%d,"blackjack":%t},"sideBet21Plus3":%d,"sideBetReturn":%d,"totalReturn":%d}`,
		strings.Join(hands, ","), strings.Join(dealerStrs, ","), dealerValue, dealerBJ,
		st.SideBet21Plus3, sideBetReturn, total,
	)}
}

func finalizeGameResult(session *games.Session, st *State, total uint64) games.Result {
	wagered := totalWagered(session, st)
	total = applySuperMultiplier(session, st, total)
	logs := generateLogs(session, st, total)
	if total == 0 {
		return games.LossPreDeducted(wagered, logs)
	}
	return games.Win(total, logs)
}
