package codec

import (
	"fmt"

	"nullspace.io/casino-chain/internal/games/serialization"
)

// --- Staking (spec §4.E's "staking" domain handler) ---

type StakingRegisterValidatorBody struct {
	ValidatorPubKey [32]byte
	CommissionBps   uint16
}

func EncodeStakingRegisterValidator(b StakingRegisterValidatorBody) []byte {
	w := serialization.NewWriter(34)
	w.PushBytes(b.ValidatorPubKey[:])
	w.PushU16BE(b.CommissionBps)
	return w.Bytes()
}

func DecodeStakingRegisterValidator(body []byte) (StakingRegisterValidatorBody, error) {
	r := serialization.NewReader(body)
	pk, ok := r.ReadBytes(32)
	if !ok {
		return StakingRegisterValidatorBody{}, fmt.Errorf("codec: truncated validator pubkey")
	}
	bps, ok := r.ReadU16BE()
	if !ok || r.Remaining() != 0 {
		return StakingRegisterValidatorBody{}, fmt.Errorf("codec: malformed register_validator body")
	}
	var out StakingRegisterValidatorBody
	copy(out.ValidatorPubKey[:], pk)
	out.CommissionBps = bps
	return out, nil
}

type StakingBondBody struct {
	ValidatorPubKey [32]byte
	Amount          uint64
}

func encodeValidatorAmount(pk [32]byte, amount uint64) []byte {
	w := serialization.NewWriter(40)
	w.PushBytes(pk[:])
	w.PushU64BE(amount)
	return w.Bytes()
}

func decodeValidatorAmount(body []byte) ([32]byte, uint64, error) {
	r := serialization.NewReader(body)
	pk, ok := r.ReadBytes(32)
	if !ok {
		return [32]byte{}, 0, fmt.Errorf("codec: truncated validator pubkey")
	}
	amount, ok := r.ReadU64BE()
	if !ok || r.Remaining() != 0 {
		return [32]byte{}, 0, fmt.Errorf("codec: malformed validator/amount body")
	}
	var out [32]byte
	copy(out[:], pk)
	return out, amount, nil
}

func EncodeStakingBond(b StakingBondBody) []byte {
	return encodeValidatorAmount(b.ValidatorPubKey, b.Amount)
}

func DecodeStakingBond(body []byte) (StakingBondBody, error) {
	pk, amount, err := decodeValidatorAmount(body)
	if err != nil {
		return StakingBondBody{}, err
	}
	return StakingBondBody{ValidatorPubKey: pk, Amount: amount}, nil
}

type StakingUnbondBody struct {
	ValidatorPubKey [32]byte
	Amount          uint64
}

func EncodeStakingUnbond(b StakingUnbondBody) []byte {
	return encodeValidatorAmount(b.ValidatorPubKey, b.Amount)
}

func DecodeStakingUnbond(body []byte) (StakingUnbondBody, error) {
	pk, amount, err := decodeValidatorAmount(body)
	if err != nil {
		return StakingUnbondBody{}, err
	}
	return StakingUnbondBody{ValidatorPubKey: pk, Amount: amount}, nil
}

type StakingUnjailBody struct {
	ValidatorPubKey [32]byte
}

func EncodeStakingUnjail(b StakingUnjailBody) []byte {
	w := serialization.NewWriter(32)
	w.PushBytes(b.ValidatorPubKey[:])
	return w.Bytes()
}

func DecodeStakingUnjail(body []byte) (StakingUnjailBody, error) {
	r := serialization.NewReader(body)
	pk, ok := r.ReadBytes(32)
	if !ok || r.Remaining() != 0 {
		return StakingUnjailBody{}, fmt.Errorf("codec: malformed unjail body")
	}
	var out StakingUnjailBody
	copy(out.ValidatorPubKey[:], pk)
	return out, nil
}

// --- Liquidity (AMM + vaults) ---

type LiquidityAddLiquidityBody struct {
	PoolID      uint64
	RngAmount   uint64
	VusdtAmount uint64
}

func EncodeLiquidityAddLiquidity(b LiquidityAddLiquidityBody) []byte {
	w := serialization.NewWriter(24)
	w.PushU64BE(b.PoolID)
	w.PushU64BE(b.RngAmount)
	w.PushU64BE(b.VusdtAmount)
	return w.Bytes()
}

func DecodeLiquidityAddLiquidity(body []byte) (LiquidityAddLiquidityBody, error) {
	r := serialization.NewReader(body)
	poolID, ok1 := r.ReadU64BE()
	rngAmt, ok2 := r.ReadU64BE()
	vusdtAmt, ok3 := r.ReadU64BE()
	if !ok1 || !ok2 || !ok3 || r.Remaining() != 0 {
		return LiquidityAddLiquidityBody{}, fmt.Errorf("codec: malformed add_liquidity body")
	}
	return LiquidityAddLiquidityBody{PoolID: poolID, RngAmount: rngAmt, VusdtAmount: vusdtAmt}, nil
}

// LiquiditySwapBody swaps AmountIn of the "rng" leg for the "vusdt" leg when
// RngToVusdt is true, or the reverse otherwise.
type LiquiditySwapBody struct {
	PoolID      uint64
	RngToVusdt  bool
	AmountIn    uint64
	MinAmountOut uint64
}

func EncodeLiquiditySwap(b LiquiditySwapBody) []byte {
	w := serialization.NewWriter(25)
	w.PushU64BE(b.PoolID)
	dir := uint8(0)
	if b.RngToVusdt {
		dir = 1
	}
	w.PushU8(dir)
	w.PushU64BE(b.AmountIn)
	w.PushU64BE(b.MinAmountOut)
	return w.Bytes()
}

func DecodeLiquiditySwap(body []byte) (LiquiditySwapBody, error) {
	r := serialization.NewReader(body)
	poolID, ok1 := r.ReadU64BE()
	dir, ok2 := r.ReadU8()
	amtIn, ok3 := r.ReadU64BE()
	minOut, ok4 := r.ReadU64BE()
	if !ok1 || !ok2 || !ok3 || !ok4 || r.Remaining() != 0 {
		return LiquiditySwapBody{}, fmt.Errorf("codec: malformed swap body")
	}
	return LiquiditySwapBody{PoolID: poolID, RngToVusdt: dir == 1, AmountIn: amtIn, MinAmountOut: minOut}, nil
}

type VaultOpenBody struct {
	VaultID    uint64
	Collateral uint64
	Debt       uint64
	MaxLTVBps  uint32
	PriceBps   uint64 // oracle price of collateral in vusdt, scaled by 1e4
}

func EncodeVaultOpen(b VaultOpenBody) []byte {
	w := serialization.NewWriter(36)
	w.PushU64BE(b.VaultID)
	w.PushU64BE(b.Collateral)
	w.PushU64BE(b.Debt)
	var ltv [4]byte
	ltv[0] = byte(b.MaxLTVBps >> 24)
	ltv[1] = byte(b.MaxLTVBps >> 16)
	ltv[2] = byte(b.MaxLTVBps >> 8)
	ltv[3] = byte(b.MaxLTVBps)
	w.PushBytes(ltv[:])
	w.PushU64BE(b.PriceBps)
	return w.Bytes()
}

func DecodeVaultOpen(body []byte) (VaultOpenBody, error) {
	r := serialization.NewReader(body)
	vaultID, ok1 := r.ReadU64BE()
	collateral, ok2 := r.ReadU64BE()
	debt, ok3 := r.ReadU64BE()
	ltvBytes, ok4 := r.ReadBytes(4)
	priceBps, ok5 := r.ReadU64BE()
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || r.Remaining() != 0 {
		return VaultOpenBody{}, fmt.Errorf("codec: malformed vault_open body")
	}
	ltv := uint32(ltvBytes[0])<<24 | uint32(ltvBytes[1])<<16 | uint32(ltvBytes[2])<<8 | uint32(ltvBytes[3])
	return VaultOpenBody{VaultID: vaultID, Collateral: collateral, Debt: debt, MaxLTVBps: ltv, PriceBps: priceBps}, nil
}

type VaultRepayBody struct {
	VaultID uint64
	Amount  uint64
}

func EncodeVaultRepay(b VaultRepayBody) []byte {
	w := serialization.NewWriter(16)
	w.PushU64BE(b.VaultID)
	w.PushU64BE(b.Amount)
	return w.Bytes()
}

func DecodeVaultRepay(body []byte) (VaultRepayBody, error) {
	r := serialization.NewReader(body)
	vaultID, ok1 := r.ReadU64BE()
	amount, ok2 := r.ReadU64BE()
	if !ok1 || !ok2 || r.Remaining() != 0 {
		return VaultRepayBody{}, fmt.Errorf("codec: malformed vault_repay body")
	}
	return VaultRepayBody{VaultID: vaultID, Amount: amount}, nil
}

// --- Bridge ---

type BridgeDepositBody struct {
	ExternalChainID uint64
	ExternalNonce   uint64
	Amount          uint64
}

func encodeBridgeRecord(chainID, nonce, amount uint64) []byte {
	w := serialization.NewWriter(24)
	w.PushU64BE(chainID)
	w.PushU64BE(nonce)
	w.PushU64BE(amount)
	return w.Bytes()
}

func decodeBridgeRecord(body []byte) (uint64, uint64, uint64, error) {
	r := serialization.NewReader(body)
	chainID, ok1 := r.ReadU64BE()
	nonce, ok2 := r.ReadU64BE()
	amount, ok3 := r.ReadU64BE()
	if !ok1 || !ok2 || !ok3 || r.Remaining() != 0 {
		return 0, 0, 0, fmt.Errorf("codec: malformed bridge body")
	}
	return chainID, nonce, amount, nil
}

func EncodeBridgeDeposit(b BridgeDepositBody) []byte {
	return encodeBridgeRecord(b.ExternalChainID, b.ExternalNonce, b.Amount)
}

func DecodeBridgeDeposit(body []byte) (BridgeDepositBody, error) {
	chainID, nonce, amount, err := decodeBridgeRecord(body)
	if err != nil {
		return BridgeDepositBody{}, err
	}
	return BridgeDepositBody{ExternalChainID: chainID, ExternalNonce: nonce, Amount: amount}, nil
}

type BridgeWithdrawBody struct {
	ExternalChainID uint64
	ExternalNonce   uint64
	Amount          uint64
}

func EncodeBridgeWithdraw(b BridgeWithdrawBody) []byte {
	return encodeBridgeRecord(b.ExternalChainID, b.ExternalNonce, b.Amount)
}

func DecodeBridgeWithdraw(body []byte) (BridgeWithdrawBody, error) {
	chainID, nonce, amount, err := decodeBridgeRecord(body)
	if err != nil {
		return BridgeWithdrawBody{}, err
	}
	return BridgeWithdrawBody{ExternalChainID: chainID, ExternalNonce: nonce, Amount: amount}, nil
}
