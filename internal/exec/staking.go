package exec

import (
	"fmt"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
	"nullspace.io/casino-chain/internal/xcrypto"
)

// dispatchStaking adapts the teacher's dealer-committee bonding
// (internal/app/staking.go/bonds.go/slash.go) from per-table dealer seats
// to this chain's own consensus-weight validator set. The
// HashToScalar-derived committee weight it reports comes from
// internal/xcrypto's domain-separated scalar hashing.
func dispatchStaking(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	switch tx.Tag {
	case codec.TagStakingRegisterValidator:
		body, err := codec.DecodeStakingRegisterValidator(tx.Body)
		if err != nil {
			return nil, err
		}
		if _, ok, err := overlay.GetValidator(body.ValidatorPubKey); err != nil {
			return nil, err
		} else if ok {
			return nil, fmt.Errorf("exec: validator already registered")
		}
		v := &ledger.Validator{PubKey: body.ValidatorPubKey, CommissionBps: body.CommissionBps}
		if err := overlay.PutValidator(v); err != nil {
			return nil, err
		}
		weight, err := xcrypto.HashToScalar("casino-chain/staking/register", body.ValidatorPubKey[:])
		if err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name: "ValidatorRegistered",
			Attrs: []codec.EventAttr{
				{Key: "validator", Value: fmt.Sprintf("%x", body.ValidatorPubKey)},
				{Key: "commissionBps", Value: fmt.Sprintf("%d", body.CommissionBps)},
				{Key: "initialWeight", Value: fmt.Sprintf("%d", weight.Uint64())},
			},
		}}, nil

	case codec.TagStakingBond:
		body, err := codec.DecodeStakingBond(tx.Body)
		if err != nil {
			return nil, err
		}
		v, ok, err := overlay.GetValidator(body.ValidatorPubKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("exec: unknown validator")
		}
		if err := overlay.DebitChips(tx.SignerPubKey, body.Amount); err != nil {
			return nil, err
		}
		v.Bonded += body.Amount
		if err := overlay.PutValidator(v); err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name: "ValidatorBonded",
			Attrs: []codec.EventAttr{
				{Key: "validator", Value: fmt.Sprintf("%x", body.ValidatorPubKey)},
				{Key: "amount", Value: fmt.Sprintf("%d", body.Amount)},
				{Key: "bonded", Value: fmt.Sprintf("%d", v.Bonded)},
			},
		}}, nil

	case codec.TagStakingUnbond:
		body, err := codec.DecodeStakingUnbond(tx.Body)
		if err != nil {
			return nil, err
		}
		v, ok, err := overlay.GetValidator(body.ValidatorPubKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("exec: unknown validator")
		}
		if v.Bonded < body.Amount {
			return nil, fmt.Errorf("exec: unbond exceeds bonded stake")
		}
		v.Bonded -= body.Amount
		if err := overlay.PutValidator(v); err != nil {
			return nil, err
		}
		if err := overlay.CreditChips(tx.SignerPubKey, body.Amount); err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name: "ValidatorUnbonded",
			Attrs: []codec.EventAttr{
				{Key: "validator", Value: fmt.Sprintf("%x", body.ValidatorPubKey)},
				{Key: "amount", Value: fmt.Sprintf("%d", body.Amount)},
				{Key: "bonded", Value: fmt.Sprintf("%d", v.Bonded)},
			},
		}}, nil

	case codec.TagStakingUnjail:
		body, err := codec.DecodeStakingUnjail(tx.Body)
		if err != nil {
			return nil, err
		}
		v, ok, err := overlay.GetValidator(body.ValidatorPubKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("exec: unknown validator")
		}
		v.Jailed = false
		if err := overlay.PutValidator(v); err != nil {
			return nil, err
		}
		return []*codec.Event{{
			Name:  "ValidatorUnjailed",
			Attrs: []codec.EventAttr{{Key: "validator", Value: fmt.Sprintf("%x", body.ValidatorPubKey)}},
		}}, nil

	default:
		return nil, fmt.Errorf("exec: staking handler received non-staking tag %d", tx.Tag)
	}
}
