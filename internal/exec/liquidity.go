package exec

import (
	"fmt"
	"math/big"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
)

// dispatchLiquidity drives AmmPool (constant-product x*y=k) and Vault
// (debt <= collateral*price*max_ltv) records. Spec names both invariants
// but, unlike the poker/dealer domain, the teacher has no AMM or lending
// counterpart — this is new business logic in the teacher's overlay/event
// style (okEvent-shaped events, saturating arithmetic).
func dispatchLiquidity(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	switch tx.Tag {
	case codec.TagLiquidityAddLiquidity:
		return liquidityAddLiquidity(overlay, tx)
	case codec.TagLiquiditySwap:
		return liquiditySwap(overlay, tx)
	case codec.TagVaultOpen:
		return vaultOpen(overlay, tx)
	case codec.TagVaultRepay:
		return vaultRepay(overlay, tx)
	default:
		return nil, fmt.Errorf("exec: liquidity handler received non-liquidity tag %d", tx.Tag)
	}
}

func liquidityAddLiquidity(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeLiquidityAddLiquidity(tx.Body)
	if err != nil {
		return nil, err
	}
	if body.RngAmount == 0 || body.VusdtAmount == 0 {
		return nil, fmt.Errorf("exec: add_liquidity requires both legs")
	}
	pool, ok, err := overlay.GetAmmPool(body.PoolID)
	if err != nil {
		return nil, err
	}
	if !ok {
		pool = &ledger.AmmPool{ID: body.PoolID}
	}
	if err := overlay.DebitChips(tx.SignerPubKey, body.RngAmount); err != nil {
		return nil, err
	}
	if err := debitVusdt(overlay, tx.SignerPubKey, body.VusdtAmount); err != nil {
		return nil, err
	}
	pool.RngReserve += body.RngAmount
	pool.VusdtReserve += body.VusdtAmount
	if err := overlay.PutAmmPool(pool); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "LiquidityAdded",
		Attrs: []codec.EventAttr{
			{Key: "poolId", Value: fmt.Sprintf("%d", body.PoolID)},
			{Key: "rngReserve", Value: fmt.Sprintf("%d", pool.RngReserve)},
			{Key: "vusdtReserve", Value: fmt.Sprintf("%d", pool.VusdtReserve)},
		},
	}}, nil
}

// liquiditySwap executes a constant-product swap and checks that
// rng_reserve * vusdt_reserve never decreases across the operation, per
// spec §3's AMM invariant.
func liquiditySwap(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeLiquiditySwap(tx.Body)
	if err != nil {
		return nil, err
	}
	if body.AmountIn == 0 {
		return nil, fmt.Errorf("exec: swap requires a nonzero input amount")
	}
	pool, ok, err := overlay.GetAmmPool(body.PoolID)
	if err != nil {
		return nil, err
	}
	if !ok || pool.RngReserve == 0 || pool.VusdtReserve == 0 {
		return nil, fmt.Errorf("exec: pool %d has no liquidity", body.PoolID)
	}
	kBefore := pool.K()

	var amountOut uint64
	if body.RngToVusdt {
		if err := overlay.DebitChips(tx.SignerPubKey, body.AmountIn); err != nil {
			return nil, err
		}
		newRng := pool.RngReserve + body.AmountIn
		amountOut, err = swapAmountOut(pool.VusdtReserve, kBefore, newRng)
		if err != nil {
			return nil, err
		}
		if amountOut < body.MinAmountOut {
			return nil, fmt.Errorf("exec: slippage exceeded")
		}
		pool.RngReserve = newRng
		pool.VusdtReserve -= amountOut
		if err := creditVusdt(overlay, tx.SignerPubKey, amountOut); err != nil {
			return nil, err
		}
	} else {
		if err := debitVusdt(overlay, tx.SignerPubKey, body.AmountIn); err != nil {
			return nil, err
		}
		newVusdt := pool.VusdtReserve + body.AmountIn
		amountOut, err = swapAmountOut(pool.RngReserve, kBefore, newVusdt)
		if err != nil {
			return nil, err
		}
		if amountOut < body.MinAmountOut {
			return nil, fmt.Errorf("exec: slippage exceeded")
		}
		pool.VusdtReserve = newVusdt
		pool.RngReserve -= amountOut
		if err := overlay.CreditChips(tx.SignerPubKey, amountOut); err != nil {
			return nil, err
		}
	}

	if pool.K().Cmp(kBefore) < 0 {
		return nil, fmt.Errorf("exec: swap would violate constant-product invariant")
	}
	if err := overlay.PutAmmPool(pool); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "LiquiditySwapped",
		Attrs: []codec.EventAttr{
			{Key: "poolId", Value: fmt.Sprintf("%d", body.PoolID)},
			{Key: "amountIn", Value: fmt.Sprintf("%d", body.AmountIn)},
			{Key: "amountOut", Value: fmt.Sprintf("%d", amountOut)},
		},
	}}, nil
}

// swapAmountOut returns otherReserve - ceil(kBefore / newReserve), the
// constant-product leg's output amount, computed entirely in big.Int so
// that a k exceeding 64 bits (large reserves) is never truncated before
// the subtraction. Returns an error if the result would be negative (the
// post-swap reserve can't support the invariant at all).
func swapAmountOut(otherReserve uint64, kBefore *big.Int, newReserve uint64) (uint64, error) {
	if newReserve == 0 {
		return 0, fmt.Errorf("exec: swap would leave a zero reserve")
	}
	newReserveBig := new(big.Int).SetUint64(newReserve)
	quotient := new(big.Int).Add(kBefore, new(big.Int).Sub(newReserveBig, big.NewInt(1)))
	quotient.Div(quotient, newReserveBig)

	out := new(big.Int).Sub(new(big.Int).SetUint64(otherReserve), quotient)
	if out.Sign() < 0 {
		return 0, fmt.Errorf("exec: swap would violate constant-product invariant")
	}
	return out.Uint64(), nil
}

const vaultLTVDenominator = 10000

func vaultOpen(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeVaultOpen(tx.Body)
	if err != nil {
		return nil, err
	}
	if _, ok, err := overlay.GetVault(body.VaultID); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("exec: vault %d already open", body.VaultID)
	}
	maxDebt := maxVaultDebt(body.Collateral, body.PriceBps, body.MaxLTVBps)
	if body.Debt > maxDebt {
		return nil, fmt.Errorf("exec: debt exceeds max LTV")
	}
	if err := overlay.DebitChips(tx.SignerPubKey, body.Collateral); err != nil {
		return nil, err
	}
	if err := creditVusdt(overlay, tx.SignerPubKey, body.Debt); err != nil {
		return nil, err
	}
	v := &ledger.Vault{ID: body.VaultID, Owner: tx.SignerPubKey, Collateral: body.Collateral, Debt: body.Debt, MaxLTVBps: body.MaxLTVBps}
	if err := overlay.PutVault(v); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "VaultOpened",
		Attrs: []codec.EventAttr{
			{Key: "vaultId", Value: fmt.Sprintf("%d", body.VaultID)},
			{Key: "collateral", Value: fmt.Sprintf("%d", body.Collateral)},
			{Key: "debt", Value: fmt.Sprintf("%d", body.Debt)},
		},
	}}, nil
}

func vaultRepay(overlay *ledger.Overlay, tx *codec.Transaction) ([]*codec.Event, error) {
	body, err := codec.DecodeVaultRepay(tx.Body)
	if err != nil {
		return nil, err
	}
	v, ok, err := overlay.GetVault(body.VaultID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("exec: unknown vault %d", body.VaultID)
	}
	if v.Owner != tx.SignerPubKey {
		return nil, fmt.Errorf("exec: not vault owner")
	}
	repay := body.Amount
	if repay > v.Debt {
		repay = v.Debt
	}
	if err := debitVusdt(overlay, tx.SignerPubKey, repay); err != nil {
		return nil, err
	}
	v.Debt -= repay
	released := uint64(0)
	if v.Debt == 0 {
		released = v.Collateral
		v.Collateral = 0
		if err := overlay.CreditChips(tx.SignerPubKey, released); err != nil {
			return nil, err
		}
	}
	if err := overlay.PutVault(v); err != nil {
		return nil, err
	}
	return []*codec.Event{{
		Name: "VaultRepaid",
		Attrs: []codec.EventAttr{
			{Key: "vaultId", Value: fmt.Sprintf("%d", body.VaultID)},
			{Key: "repaid", Value: fmt.Sprintf("%d", repay)},
			{Key: "remainingDebt", Value: fmt.Sprintf("%d", v.Debt)},
			{Key: "collateralReleased", Value: fmt.Sprintf("%d", released)},
		},
	}}, nil
}

// maxVaultDebt computes collateral * price * max_ltv, scaled: price and
// max_ltv are both expressed in basis-point-scale fixed point
// (priceBps = vusdt per unit collateral * 10000; maxLTVBps out of 10000).
func maxVaultDebt(collateral, priceBps uint64, maxLTVBps uint32) uint64 {
	valueBps := widenMul(collateral, priceBps)
	maxDebtBps := widenMul(valueBps, uint64(maxLTVBps))
	return maxDebtBps / (vaultLTVDenominator * vaultLTVDenominator)
}

func widenMul(a, b uint64) uint64 {
	p := a * b
	if a != 0 && p/a != b {
		return ^uint64(0)
	}
	return p
}

// debitVusdt/creditVusdt treat Account.VUSDT the way DebitChips/CreditChips
// treat Account.Chips: a short balance fails the debit, and the credit
// saturates at the uint64 maximum.
func debitVusdt(o *ledger.Overlay, pk [32]byte, amount uint64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	if a.VUSDT < amount {
		return fmt.Errorf("ledger: insufficient vusdt")
	}
	a.VUSDT -= amount
	return o.PutAccount(a)
}

func creditVusdt(o *ledger.Overlay, pk [32]byte, amount uint64) error {
	a, err := o.GetAccount(pk)
	if err != nil {
		return err
	}
	sum := a.VUSDT + amount
	if sum < a.VUSDT {
		sum = ^uint64(0)
	}
	a.VUSDT = sum
	return o.PutAccount(a)
}
