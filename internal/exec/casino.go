package exec

import (
	"fmt"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/games"
	"nullspace.io/casino-chain/internal/games/craps"
	"nullspace.io/casino-chain/internal/games/registry"
	"nullspace.io/casino-chain/internal/games/supermode"
	"nullspace.io/casino-chain/internal/ledger"
)

// maxBet is a defensive ceiling on any single session's bet, preventing a
// pathological bet large enough to make a fixed-multiple payout (e.g.
// Blackjack's 3:2 blackjack bonus) overflow i64 when translated to a
// payout delta (spec §9's bet-amount-clamp guard).
const maxBet = uint64(1) << 40

func dispatchCasino(overlay *ledger.Overlay, tx *codec.Transaction, block Block, txIndex uint32) ([]*codec.Event, error) {
	switch tx.Tag {
	case codec.TagCasinoRegister:
		body, err := codec.DecodeCasinoRegister(tx.Body)
		if err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name: "CasinoRegistered",
			Attrs: []codec.EventAttr{
				{Key: "signer", Value: fmt.Sprintf("%x", tx.SignerPubKey)},
				{Key: "name", Value: body.Name},
			},
		}}, nil

	case codec.TagCasinoDeposit:
		body, err := codec.DecodeCasinoDeposit(tx.Body)
		if err != nil {
			return nil, err
		}
		if err := overlay.CreditChips(tx.SignerPubKey, body.Amount); err != nil {
			return nil, err
		}
		house, err := overlay.GetHouse()
		if err != nil {
			return nil, err
		}
		house.TotalChipsIssued += body.Amount
		if err := overlay.PutHouse(house); err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name: "CasinoDeposited",
			Attrs: []codec.EventAttr{
				{Key: "signer", Value: fmt.Sprintf("%x", tx.SignerPubKey)},
				{Key: "amount", Value: fmt.Sprintf("%d", body.Amount)},
			},
		}}, nil

	case codec.TagCasinoStartGame:
		body, err := codec.DecodeCasinoStartGame(tx.Body)
		if err != nil {
			return nil, err
		}
		return startGame(overlay, tx, body, block)

	case codec.TagCasinoGameMove:
		body, err := codec.DecodeCasinoGameMove(tx.Body)
		if err != nil {
			return nil, err
		}
		return processGameMove(overlay, tx, body, block, txIndex)

	default:
		return nil, fmt.Errorf("exec: casino handler received non-casino tag %d", tx.Tag)
	}
}

func startGame(overlay *ledger.Overlay, tx *codec.Transaction, body codec.CasinoStartGameBody, block Block) ([]*codec.Event, error) {
	if body.Bet == 0 || body.Bet > maxBet {
		return nil, games.ErrInvalidPayload
	}
	gameType := games.GameType(body.GameType)
	if _, ok := registry.Lookup(gameType); !ok {
		return nil, games.ErrInvalidPayload
	}
	if _, exists, err := overlay.GetSession(body.SessionID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("exec: session %d already exists", body.SessionID)
	}

	if err := overlay.DebitChips(tx.SignerPubKey, body.Bet); err != nil {
		return nil, err
	}

	session := &games.Session{
		ID:        body.SessionID,
		Player:    tx.SignerPubKey,
		GameType:  gameType,
		Bet:       body.Bet,
		CreatedAt: block.Height,
	}
	syncGlobalTableRoundIntoSession(overlay, session)

	rng := games.NewGameRng(block.Seed, session.ID, session.MoveCount)
	result, err := registry.Init(gameType, session, rng)
	if err != nil {
		return nil, err
	}
	events, err := settleResult(overlay, tx, session, result)
	if err != nil {
		return nil, err
	}
	if err := overlay.PutSession(session); err != nil {
		return nil, err
	}
	events = append([]*codec.Event{{
		Name: "CasinoGameStarted",
		Attrs: []codec.EventAttr{
			{Key: "signer", Value: fmt.Sprintf("%x", tx.SignerPubKey)},
			{Key: "sessionId", Value: fmt.Sprintf("%d", body.SessionID)},
			{Key: "gameType", Value: fmt.Sprintf("%d", body.GameType)},
			{Key: "bet", Value: fmt.Sprintf("%d", body.Bet)},
		},
	}}, events...)
	if gameType == games.GameTypeCraps {
		// A craps session doubles as one shared table's round: emit
		// RoundOpened so internal/replay can fold a round projection
		// purely from the event stream (spec §4.H), never touching the
		// live ledger.
		events = append([]*codec.Event{{
			Name: "RoundOpened",
			Attrs: []codec.EventAttr{
				{Key: "sessionId", Value: fmt.Sprintf("%d", body.SessionID)},
				{Key: "gameType", Value: "craps"},
			},
		}}, events...)
	}
	return events, nil
}

func processGameMove(overlay *ledger.Overlay, tx *codec.Transaction, body codec.CasinoGameMoveBody, block Block, txIndex uint32) ([]*codec.Event, error) {
	session, ok, err := overlay.GetSession(body.SessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, games.ErrInvalidState
	}
	if session.Player != tx.SignerPubKey {
		return nil, games.ErrInvalidMove
	}
	if session.IsComplete {
		return nil, games.ErrGameAlreadyComplete
	}

	session.MoveCount++
	rng := games.NewGameRng(block.Seed, session.ID, session.MoveCount)

	var pointBefore uint8
	if session.GameType == games.GameTypeCraps {
		if snap, ok := craps.TableSnapshotFromBlob(session.StateBlob); ok {
			pointBefore = snap.Point
		}
	}

	result, err := registry.ProcessMove(session.GameType, session, body.Payload, rng)
	if err != nil {
		return nil, err
	}

	events, err := settleResult(overlay, tx, session, result)
	if err != nil {
		return nil, err
	}

	if session.GameType == games.GameTypeCraps {
		events = append(events, crapsRoundEvents(session, body.Payload, pointBefore)...)
	}

	syncGlobalTableRoundFromSession(overlay, session)
	if session.IsComplete {
		overlay.DeleteSession(session.ID)
	} else {
		if err := overlay.PutSession(session); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// settleResult translates a games.Result into balance deltas and events,
// per spec §4.E.2's "translate the GameResult into balance delta" step.
func settleResult(overlay *ledger.Overlay, tx *codec.Transaction, session *games.Session, result games.Result) ([]*codec.Event, error) {
	events := make([]*codec.Event, 0, len(result.Logs)+1)
	for _, l := range result.Logs {
		events = append(events, &codec.Event{
			Name: "CasinoGameLog",
			Attrs: []codec.EventAttr{
				{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
				{Key: "log", Value: l},
			},
		})
	}

	settle := func(name string, amount int64) error {
		if amount != 0 {
			if err := overlay.ApplySignedPayout(session.Player, amount); err != nil {
				return err
			}
		}
		events = append(events, &codec.Event{
			Name: name,
			Attrs: []codec.EventAttr{
				{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
				{Key: "amount", Value: fmt.Sprintf("%d", amount)},
			},
		})
		return nil
	}

	var settledAmount int64

	switch result.Kind {
	case games.ResultContinue:
		// No balance change.
	case games.ResultContinueWithUpdate:
		if err := settle("CasinoGameContinue", result.Payout); err != nil {
			return nil, err
		}
	case games.ResultWin:
		session.IsComplete = true
		amount := supermode.ApplySuperMultiplier(nil, session.SuperMode.Multipliers, result.Amount)
		settledAmount = int64(clampPayout(amount))
		if err := settle("CasinoGameWin", settledAmount); err != nil {
			return nil, err
		}
	case games.ResultPush:
		session.IsComplete = true
		settledAmount = int64(clampPayout(result.Amount))
		if err := settle("CasinoGamePush", settledAmount); err != nil {
			return nil, err
		}
	case games.ResultLoss:
		session.IsComplete = true
		events = append(events, &codec.Event{Name: "CasinoGameLoss", Attrs: []codec.EventAttr{
			{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
		}})
	case games.ResultLossPreDeducted:
		session.IsComplete = true
		settledAmount = -int64(clampPayout(result.TotalWagered))
		events = append(events, &codec.Event{Name: "CasinoGameLoss", Attrs: []codec.EventAttr{
			{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
			{Key: "totalWagered", Value: fmt.Sprintf("%d", result.TotalWagered)},
		}})
	case games.ResultLossWithExtraDeduction:
		session.IsComplete = true
		if err := overlay.DebitChipsSaturating(session.Player, result.Extra); err != nil {
			return nil, err
		}
		settledAmount = -int64(clampPayout(result.Extra))
		events = append(events, &codec.Event{Name: "CasinoGameLoss", Attrs: []codec.EventAttr{
			{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
			{Key: "extra", Value: fmt.Sprintf("%d", result.Extra)},
		}})
	default:
		return nil, games.ErrInvalidState
	}

	if session.IsComplete {
		events = append(events, &codec.Event{
			Name: "PlayerSettled",
			Attrs: []codec.EventAttr{
				{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)},
				{Key: "player", Value: fmt.Sprintf("%x", session.Player)},
				{Key: "amount", Value: fmt.Sprintf("%d", settledAmount)},
			},
		})
		account, err := overlay.GetAccount(session.Player)
		if err != nil {
			return nil, err
		}
		account.Stats.HandsPlayed++
		account.Stats.TotalWagered += session.Bet
		if result.Kind == games.ResultWin {
			account.Stats.TotalWon += result.Amount
		}
		if err := overlay.PutAccount(account); err != nil {
			return nil, err
		}
		if err := overlay.BumpLeaderboard(session.Player, session.Bet); err != nil {
			return nil, err
		}
	}

	return events, nil
}

func clampPayout(amount uint64) uint64 {
	const i64Max = uint64(1<<63 - 1)
	if amount > i64Max {
		return i64Max
	}
	return amount
}

// crapsRoundEvents projects the round-lifecycle events internal/replay
// folds (spec §4.H) out of a single craps move, without internal/exec
// needing to track its own copy of the table's phase clock (spec §4.B.4
// names Betting/Locked/Rolling/Payout/Cooldown as that clock's phases;
// this mirrors them onto the Locked/Outcome/Finalized event vocabulary).
func crapsRoundEvents(session *games.Session, payload []byte, pointBefore uint8) []*codec.Event {
	if len(payload) == 0 {
		return nil
	}
	sessionIDAttr := codec.EventAttr{Key: "sessionId", Value: fmt.Sprintf("%d", session.ID)}

	switch payload[0] {
	case craps.MovePlaceBet:
		if len(payload) != 11 {
			return nil
		}
		var amount uint64
		for _, b := range payload[3:11] {
			amount = amount<<8 | uint64(b)
		}
		return []*codec.Event{{
			Name: "BetAccepted",
			Attrs: []codec.EventAttr{
				sessionIDAttr,
				{Key: "betType", Value: fmt.Sprintf("%d", payload[1])},
				{Key: "target", Value: fmt.Sprintf("%d", payload[2])},
				{Key: "amount", Value: fmt.Sprintf("%d", amount)},
			},
		}}

	case craps.MoveRoll:
		snap, ok := craps.TableSnapshotFromBlob(session.StateBlob)
		if !ok {
			return nil
		}
		out := []*codec.Event{
			{Name: "Locked", Attrs: []codec.EventAttr{sessionIDAttr}},
			{Name: "Outcome", Attrs: []codec.EventAttr{
				sessionIDAttr,
				{Key: "die1", Value: fmt.Sprintf("%d", snap.D1)},
				{Key: "die2", Value: fmt.Sprintf("%d", snap.D2)},
				{Key: "point", Value: fmt.Sprintf("%d", snap.Point)},
			}},
		}
		if pointBefore != 0 && snap.Point == 0 {
			// The point was made or the shooter seven-out: either way
			// this come-out/point cycle is over.
			out = append(out, &codec.Event{Name: "Finalized", Attrs: []codec.EventAttr{sessionIDAttr}})
		}
		return out

	default:
		return nil
	}
}

// syncGlobalTableRoundIntoSession copies the shared table-level state (spec
// §4.B.4) into a freshly started session's blob before Init runs. Only
// Craps currently carries a synchronized global table round; other games
// are no-ops.
func syncGlobalTableRoundIntoSession(overlay *ledger.Overlay, session *games.Session) {
	if session.GameType != games.GameTypeCraps {
		return
	}
	round, ok, err := overlay.GetGlobalTableRound(uint8(games.GameTypeCraps))
	if err != nil || !ok {
		return
	}
	session.StateBlob = craps.NewSessionBlobFromTable(craps.TableSnapshot{
		Point:                 round.Point,
		D1:                    round.Die1,
		D2:                    round.Die2,
		MadePointsMask:        round.MadePointsMask,
		EpochPointEstablished: round.EpochPointEstablished,
		FieldPaytable:         round.FieldPaytable,
	})
}

// syncGlobalTableRoundFromSession persists the table-level fields of a
// Craps session's blob, after every move, back to the shared singleton so the
// next player to join sees the up-to-date point/dice/made-points state.
func syncGlobalTableRoundFromSession(overlay *ledger.Overlay, session *games.Session) {
	if session.GameType != games.GameTypeCraps {
		return
	}
	snap, ok := craps.TableSnapshotFromBlob(session.StateBlob)
	if !ok {
		return
	}
	round := &ledger.GlobalTableRound{
		GameType:              uint8(games.GameTypeCraps),
		Point:                 snap.Point,
		Die1:                  snap.D1,
		Die2:                  snap.D2,
		MadePointsMask:        snap.MadePointsMask,
		EpochPointEstablished: snap.EpochPointEstablished,
		FieldPaytable:         snap.FieldPaytable,
	}
	if existing, ok, err := overlay.GetGlobalTableRound(uint8(games.GameTypeCraps)); err == nil && ok {
		round.RollCount = existing.RollCount + 1
	} else {
		round.RollCount = 1
	}
	_ = overlay.PutGlobalTableRound(round)
}
