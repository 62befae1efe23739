package exec

import (
	"fmt"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
)

// dispatchBridge drives BridgeState: a deposit/withdraw record keyed by
// external chain id + external nonce, replay-guarded the same way spec
// §4.E describes (same style as the liquidity handlers, no teacher
// counterpart).
func dispatchBridge(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	switch tx.Tag {
	case codec.TagBridgeDeposit:
		return bridgeDeposit(overlay, tx)
	case codec.TagBridgeWithdraw:
		return bridgeWithdraw(overlay, tx)
	default:
		return nil, fmt.Errorf("exec: bridge handler received non-bridge tag %d", tx.Tag)
	}
}

func bridgeDeposit(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeBridgeDeposit(tx.Body)
	if err != nil {
		return nil, err
	}
	existing, ok, err := overlay.GetBridgeRecord(body.ExternalChainID, body.ExternalNonce)
	if err != nil {
		return nil, err
	}
	if ok && existing.Processed {
		return nil, fmt.Errorf("exec: bridge deposit chain=%d nonce=%d already processed", body.ExternalChainID, body.ExternalNonce)
	}
	if err := creditVusdt(overlay, tx.SignerPubKey, body.Amount); err != nil {
		return nil, err
	}
	rec := &ledger.BridgeRecord{
		ExternalChainID: body.ExternalChainID,
		ExternalNonce:   body.ExternalNonce,
		Direction:       0,
		Amount:          body.Amount,
		Account:         tx.SignerPubKey,
		Processed:       true,
	}
	if err := overlay.PutBridgeRecord(rec); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "BridgeDeposited",
		Attrs: []codec.EventAttr{
			{Key: "externalChainId", Value: fmt.Sprintf("%d", body.ExternalChainID)},
			{Key: "externalNonce", Value: fmt.Sprintf("%d", body.ExternalNonce)},
			{Key: "amount", Value: fmt.Sprintf("%d", body.Amount)},
		},
	}}, nil
}

func bridgeWithdraw(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeBridgeWithdraw(tx.Body)
	if err != nil {
		return nil, err
	}
	existing, ok, err := overlay.GetBridgeRecord(body.ExternalChainID, body.ExternalNonce)
	if err != nil {
		return nil, err
	}
	if ok && existing.Processed {
		return nil, fmt.Errorf("exec: bridge withdraw chain=%d nonce=%d already processed", body.ExternalChainID, body.ExternalNonce)
	}
	if err := debitVusdt(overlay, tx.SignerPubKey, body.Amount); err != nil {
		return nil, err
	}
	rec := &ledger.BridgeRecord{
		ExternalChainID: body.ExternalChainID,
		ExternalNonce:   body.ExternalNonce,
		Direction:       1,
		Amount:          body.Amount,
		Account:         tx.SignerPubKey,
		Processed:       true,
	}
	if err := overlay.PutBridgeRecord(rec); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "BridgeWithdrawn",
		Attrs: []codec.EventAttr{
			{Key: "externalChainId", Value: fmt.Sprintf("%d", body.ExternalChainID)},
			{Key: "externalNonce", Value: fmt.Sprintf("%d", body.ExternalNonce)},
			{Key: "amount", Value: fmt.Sprintf("%d", body.Amount)},
		},
	}}, nil
}
