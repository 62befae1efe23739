// Package casinowar implements Casino War.
//
// Grounded on original_source/execution/src/casino/casino_war.rs: 6-deck
// shoe, ace-high rank comparison, an optional tie side bet (10:1 or 11:1,
// selectable via a rules byte), and a War stage offering Surrender (half
// the ante refunded) or War (second ante, burn 3 cards, redeal, with a
// WoO tie-after-tie bonus equal to the ante).
//
// State blob (v1), big-endian:
//
//	[version:u8=1] [stage:u8] [playerCard:u8] [dealerCard:u8] [tieBet:u64]
//	[rules:u8, optional]
//
// Stages: 0=Betting 1=War 2=Complete.
// Moves:  0=Play 1=War 2=Surrender 3=SetTieBet(+u64) 5=SetRules(+u8)
// 4=atomic (SetTieBet, Play) batch.
package casinowar

import (
	"fmt"

	"nullspace.io/casino-chain/internal/cards"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/payload"
	"nullspace.io/casino-chain/internal/games/serialization"
	"nullspace.io/casino-chain/internal/games/supermode"
)

const (
	stateVersion     = 1
	hiddenCard       = 0xFF
	stateLenBase     = 12
	stateLenWithRule = 13
	casinoWarDecks   = 6
	maxTieBetAmount  = (uint64(1)<<63 - 1) / 12
)

type TieBetPayout uint8

const (
	TieBetTenToOne TieBetPayout = iota
	TieBetElevenToOne
)

type Rules struct {
	TieBetPayout     TieBetPayout
	TieAfterTieBonus bool
}

func defaultRules() Rules { return Rules{TieBetPayout: TieBetTenToOne, TieAfterTieBonus: true} }

func rulesFromByte(v uint8) (Rules, bool) {
	payoutBit := v & 0x01
	if payoutBit > 1 {
		return Rules{}, false
	}
	return Rules{
		TieBetPayout:     TieBetPayout(payoutBit),
		TieAfterTieBonus: v&0x02 != 0,
	}, true
}

func (r Rules) toByte() uint8 {
	b := uint8(r.TieBetPayout)
	if r.TieAfterTieBonus {
		b |= 0x02
	}
	return b
}

func (r Rules) tieBetMultiplier() uint64 {
	if r.TieBetPayout == TieBetElevenToOne {
		return 11
	}
	return 10
}

type Stage uint8

const (
	StageBetting Stage = iota
	StageWar
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
	MoveWar
	MoveSurrender
	MoveSetTieBet
	_ // 4 is the atomic batch tag, handled separately
	MoveSetRules
)

const moveAtomicBatch = 4

type State struct {
	PlayerCard uint8
	DealerCard uint8
	Stage      Stage
	TieBet     uint64
	Rules      Rules
}

func clampTieBet(amount uint64) uint64 { return payload.ClampBetAmount(amount, maxTieBetAmount) }

func parseState(blob []byte) (*State, bool) {
	if len(blob) < stateLenBase || (len(blob) != stateLenBase && len(blob) != stateLenWithRule) {
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
	playerCard, _ := r.ReadU8()
	dealerCard, _ := r.ReadU8()
	if playerCard != hiddenCard && playerCard >= 52 {
		return nil, false
	}
	if dealerCard != hiddenCard && dealerCard >= 52 {
		return nil, false
	}
	tieBet, ok := r.ReadU64BE()
	if !ok {
		return nil, false
	}
	tieBet = clampTieBet(tieBet)

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
		PlayerCard: playerCard,
		DealerCard: dealerCard,
		Stage:      stage,
		TieBet:     tieBet,
		Rules:      rules,
	}, true
}

func serializeState(st *State) []byte {
	w := serialization.NewWriter(13)
	w.PushU8(stateVersion)
	w.PushU8(uint8(st.Stage))
	w.PushU8(st.PlayerCard)
	w.PushU8(st.DealerCard)
	w.PushU64BE(st.TieBet)
	w.PushU8(st.Rules.toByte())
	return w.Bytes()
}

// CasinoWar implements games.Game.
type CasinoWar struct{}

func (CasinoWar) Init(session *games.Session, _ *games.GameRng) games.Result {
	st := &State{
		PlayerCard: hiddenCard,
		DealerCard: hiddenCard,
		Stage:      StageBetting,
		Rules:      defaultRules(),
	}
	session.StateBlob = serializeState(st)
	return games.Continue(nil)
}

func (CasinoWar) ProcessMove(session *games.Session, pl []byte, rng *games.GameRng) (games.Result, error) {
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
	session.MoveCount++

	switch st.Stage {
	case StageBetting:
		return processBetting(session, pl, mv, st, rng)
	case StageWar:
		return processWar(session, pl, mv, st, rng)
	default:
		return games.Result{}, games.ErrGameAlreadyComplete
	}
}

func tieBetApply(st *State, nextAmount uint64) (int64, error) {
	nextAmount = clampTieBet(nextAmount)
	prev := st.TieBet
	var delta int64
	if nextAmount >= prev {
		d := nextAmount - prev
		if d > 1<<62 {
			return 0, games.ErrInvalidPayload
		}
		delta = -int64(d)
	} else {
		d := prev - nextAmount
		if d > 1<<62 {
			return 0, games.ErrInvalidPayload
		}
		delta = int64(d)
	}
	st.TieBet = nextAmount
	return delta, nil
}

func dealCards(rng *games.GameRng) (uint8, uint8) {
	deck := rng.CreateDeck(casinoWarDecks)
	p, ok := rng.DrawCard(&deck)
	if !ok {
		p = 0
	}
	d, ok := rng.DrawCard(&deck)
	if !ok {
		d = 1
	}
	return p, d
}

func tieBetReturn(st *State, playerRank, dealerRank uint8) uint64 {
	if st.TieBet > 0 && playerRank == dealerRank {
		return payload.SatMulU64(st.TieBet, st.Rules.tieBetMultiplier()+1)
	}
	return 0
}

func processBetting(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	switch mv {
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

	case MoveSetTieBet:
		next, err := payload.ParseU64BE(pl, 1)
		if err != nil || len(pl) != 9 {
			return games.Result{}, games.ErrInvalidPayload
		}
		delta, err := tieBetApply(st, next)
		if err != nil {
			return games.Result{}, err
		}
		session.StateBlob = serializeState(st)
		return games.ContinueWithUpdate(delta, nil), nil

	case MovePlay:
		if len(pl) != 1 {
			return games.Result{}, games.ErrInvalidPayload
		}
		playerCard, dealerCard := dealCards(rng)
		playerRank, dealerRank := cards.Rank(playerCard), cards.Rank(dealerCard)
		tieReturn := tieBetReturn(st, playerRank, dealerRank)

		switch {
		case playerRank > dealerRank:
			return finalizePlayerWin(session, st, playerCard, dealerCard, 0), nil
		case playerRank < dealerRank:
			return finalizeDealerWin(session, st, playerCard, dealerCard, 0), nil
		default:
			st.Stage = StageWar
			st.PlayerCard = playerCard
			st.DealerCard = dealerCard
			session.StateBlob = serializeState(st)
			logs := []string{fmt.Sprintf(
				`{"stage":"DEAL","playerCard":%d,"dealerCard":%d,"outcome":"TIE","tieBet":%d,"tieBetPayout":%d}`,
				playerCard, dealerCard, st.TieBet, tieReturn)}
			if tieReturn != 0 {
				return games.ContinueWithUpdate(int64(tieReturn), logs), nil
			}
			return games.Continue(logs), nil
		}

	default:
		if pl[0] == moveAtomicBatch {
			if len(pl) != 9 {
				return games.Result{}, games.ErrInvalidPayload
			}
			next, err := payload.ParseU64BE(pl, 1)
			if err != nil {
				return games.Result{}, err
			}
			tieDelta, err := tieBetApply(st, next)
			if err != nil {
				return games.Result{}, err
			}
			playerCard, dealerCard := dealCards(rng)
			playerRank, dealerRank := cards.Rank(playerCard), cards.Rank(dealerCard)
			tieReturn := tieBetReturn(st, playerRank, dealerRank)

			switch {
			case playerRank > dealerRank:
				return finalizePlayerWin(session, st, playerCard, dealerCard, tieDelta), nil
			case playerRank < dealerRank:
				return finalizeDealerWin(session, st, playerCard, dealerCard, tieDelta), nil
			default:
				st.Stage = StageWar
				st.PlayerCard = playerCard
				st.DealerCard = dealerCard
				session.StateBlob = serializeState(st)
				total := tieDelta + int64(tieReturn)
				logs := []string{fmt.Sprintf(
					`{"stage":"DEAL","playerCard":%d,"dealerCard":%d,"outcome":"TIE","tieBet":%d,"tieBetPayout":%d}`,
					playerCard, dealerCard, st.TieBet, tieReturn)}
				if total != 0 {
					return games.ContinueWithUpdate(total, logs), nil
				}
				return games.Continue(logs), nil
			}
		}
		return games.Result{}, games.ErrInvalidMove
	}
}

func finalizePlayerWin(session *games.Session, st *State, playerCard, dealerCard uint8, extraPayout int64) games.Result {
	st.Stage = StageComplete
	st.PlayerCard = playerCard
	st.DealerCard = dealerCard
	session.StateBlob = serializeState(st)
	session.IsComplete = true

	baseWinnings := payload.SatMulU64(session.Bet, 2)
	finalWinnings := baseWinnings
	if session.SuperMode.IsActive {
		finalWinnings = supermode.ApplySuperMultiplier([]uint8{playerCard}, session.SuperMode.Multipliers, baseWinnings)
	}
	logs := []string{fmt.Sprintf(
		`{"stage":"DEAL","playerCard":%d,"dealerCard":%d,"outcome":"PLAYER_WIN","tieBet":%d,"payout":%d}`,
		playerCard, dealerCard, st.TieBet, finalWinnings)}
	if extraPayout != 0 {
		return games.ContinueWithUpdate(extraPayout+int64(finalWinnings), logs)
	}
	return games.Win(finalWinnings, logs)
}

func finalizeDealerWin(session *games.Session, st *State, playerCard, dealerCard uint8, extraPayout int64) games.Result {
	st.Stage = StageComplete
	st.PlayerCard = playerCard
	st.DealerCard = dealerCard
	session.StateBlob = serializeState(st)
	session.IsComplete = true
	logs := []string{fmt.Sprintf(
		`{"stage":"DEAL","playerCard":%d,"dealerCard":%d,"outcome":"DEALER_WIN","tieBet":%d,"payout":0}`,
		playerCard, dealerCard, st.TieBet)}
	if extraPayout != 0 {
		return games.ContinueWithUpdate(extraPayout, logs)
	}
	return games.Loss(logs)
}

func processWar(session *games.Session, pl []byte, mv Move, st *State, rng *games.GameRng) (games.Result, error) {
	switch mv {
	case MoveSurrender:
		st.Stage = StageComplete
		session.StateBlob = serializeState(st)
		session.IsComplete = true
		refund := session.Bet / 2
		logs := []string{fmt.Sprintf(
			`{"stage":"SURRENDER","playerCard":%d,"dealerCard":%d,"outcome":"SURRENDER","payout":%d}`,
			st.PlayerCard, st.DealerCard, refund)}
		return games.Win(refund, logs), nil

	case MoveWar:
		warBet := session.Bet
		originalPlayer, originalDealer := st.PlayerCard, st.DealerCard

		deck := rng.CreateDeckExcluding([]uint8{st.PlayerCard, st.DealerCard}, casinoWarDecks)
		for i := 0; i < 3; i++ {
			rng.DrawCard(&deck)
		}
		newPlayer, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrInvalidMove
		}
		newDealer, ok := rng.DrawCard(&deck)
		if !ok {
			return games.Result{}, games.ErrInvalidMove
		}
		newPlayerRank, newDealerRank := cards.Rank(newPlayer), cards.Rank(newDealer)

		st.Stage = StageComplete
		st.PlayerCard = newPlayer
		st.DealerCard = newDealer
		session.StateBlob = serializeState(st)
		session.IsComplete = true

		if newPlayerRank >= newDealerRank {
			isTieAfterTie := newPlayerRank == newDealerRank
			bonus := uint64(0)
			if isTieAfterTie && st.Rules.TieAfterTieBonus {
				bonus = session.Bet
			}
			baseWinnings := payload.SatAddU64(payload.SatMulU64(session.Bet, 2), bonus)
			finalWinnings := baseWinnings
			if session.SuperMode.IsActive {
				finalWinnings = supermode.ApplySuperMultiplier([]uint8{newPlayer}, session.SuperMode.Multipliers, baseWinnings)
			}
			outcome := "PLAYER_WIN"
			if isTieAfterTie {
				outcome = "TIE_AFTER_TIE"
			}
			logs := []string{fmt.Sprintf(
				`{"stage":"WAR","originalPlayerCard":%d,"originalDealerCard":%d,"warPlayerCard":%d,"warDealerCard":%d,"outcome":"%s","payout":%d}`,
				originalPlayer, originalDealer, newPlayer, newDealer, outcome, finalWinnings)}
			return games.Win(finalWinnings, logs), nil
		}

		logs := []string{fmt.Sprintf(
			`{"stage":"WAR","originalPlayerCard":%d,"originalDealerCard":%d,"warPlayerCard":%d,"warDealerCard":%d,"outcome":"DEALER_WIN","payout":0}`,
			originalPlayer, originalDealer, newPlayer, newDealer)}
		return games.LossWithExtraDeduction(warBet, logs), nil

	default:
		return games.Result{}, games.ErrInvalidMove
	}
}
