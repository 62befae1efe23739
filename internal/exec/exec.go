// Package exec is the deterministic transaction application pipeline spec
// §4.E describes: Prepare (nonce check + advance) -> Dispatch (route to a
// domain handler) -> Output (typed event stream) -> Commit (flush the
// pending overlay). Every replica executing the same (seed, ordered
// transactions, pre-state) produces byte-identical output logs and write
// sets, per spec §4.E's determinism contract.
//
// Grounded on the teacher's internal/app.OCPApp.deliverTx dispatch-by-tag
// loop and okEvent event-attribute builder, generalized from the teacher's
// string-keyed JSON TxEnvelope switch to spec §6.1's binary instruction-tag
// switch over four domain handlers (casino/staking/liquidity/bridge)
// instead of the teacher's poker-table-specific tx set.
package exec

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
)

// FatalError wraps a store-level failure that halts block execution, per
// spec §7's "store errors propagate as fatal block-execution errors" rule.
// It is never returned for payload-level (GameError) errors or a stale
// (already used) nonce, both of which are handled inline without aborting
// the block; a nonce gap, by contrast, is fatal.
type FatalError struct{ cause error }

func (e *FatalError) Error() string { return "exec: fatal: " + e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

func fatal(cause error) *FatalError { return &FatalError{cause: errors.WithStack(cause)} }

// Block is one finalized block's inputs: an ordered transaction list and a
// view-scoped consensus seed (spec §4.A), plus the wall-clock time the
// outer layer observed for this height (used only by the protocol/reveal
// timeout surface, never by RNG or state-machine logic).
type Block struct {
	Height    uint64
	Seed      []byte
	NowUnixMs uint64
	Txs       [][]byte
}

// Result is what Execute returns: the block's output log (spec §6.5) and
// the ordered write set the caller flushes to the committed ledger.Store.
type Result struct {
	Outputs []*codec.Output
	Writes  []ledger.Write
}

// Logger is the minimal go-kit/log surface Execute needs; callers pass
// log.NewNopLogger() in tests.
type Logger interface {
	Log(keyvals ...interface{}) error
}

// Execute applies block.Txs in order against overlay, returning the
// accumulated output log and write set. A fatal error aborts immediately;
// the overlay's partial writes for the in-flight transaction are rolled
// back first so "the overlay is either fully committed or entirely
// discarded" (spec §5) holds even on the fatal path.
func Execute(overlay *ledger.Overlay, block Block, logger Logger) (Result, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	var outputs []*codec.Output

	for i, raw := range block.Txs {
		tx, err := codec.DecodeTransaction(raw)
		if err != nil {
			// A malformed transaction never reached us honestly under
			// spec's consensus assumptions (CheckTx would have rejected
			// it); treat as a dropped, non-fatal no-op rather than
			// aborting the whole block over one bad entry.
			_ = logger.Log("msg", "dropping undecodable transaction", "index", i, "err", err)
			continue
		}

		mark := overlay.Snapshot()
		events, ok, fatalErr := prepareAndDispatch(overlay, tx, block, uint32(i), logger)
		if fatalErr != nil {
			overlay.Rollback(mark)
			return Result{}, fatalErr
		}
		if !ok {
			// Invalid signature or stale/replayed nonce: dropped without
			// an Output entry. A payload-level handler error instead comes
			// back with ok=true and a CasinoError event.
			continue
		}
		for _, e := range events {
			outputs = append(outputs, &codec.Output{Tag: codec.OutputTagEvent, Event: e})
		}
		outputs = append(outputs, &codec.Output{Tag: codec.OutputTagTransaction, Transaction: tx})
	}

	outputs = append(outputs, &codec.Output{Tag: codec.OutputTagCommit, CommitHeight: block.Height, CommitStart: 0})
	return Result{Outputs: outputs, Writes: overlay.Writes()}, nil
}

// prepareAndDispatch performs the Prepare phase (nonce check + advance) and,
// if accepted, routes to Dispatch. ok=false on a dropped/non-fatal
// transaction; a non-nil error is always fatal.
func prepareAndDispatch(overlay *ledger.Overlay, tx *codec.Transaction, block Block, txIndex uint32, logger Logger) ([]*codec.Event, bool, error) {
	if !tx.VerifySignature() {
		_ = logger.Log("msg", "dropping transaction with invalid signature", "index", txIndex)
		return nil, false, nil
	}

	account, err := overlay.GetAccount(tx.SignerPubKey)
	if err != nil {
		return nil, false, fatal(errors.Wrap(err, "load signer account"))
	}

	switch {
	case tx.Nonce < account.Nonce:
		_ = logger.Log("msg", "dropping late/replayed transaction", "signer", fmt.Sprintf("%x", tx.SignerPubKey), "have", account.Nonce, "got", tx.Nonce)
		return nil, false, nil
	case tx.Nonce > account.Nonce:
		// A nonce gap indicates a programming bug in the ordering layer
		// above us (spec §4.E.1): it is responsible for presenting
		// transactions with contiguous nonces per signer.
		return nil, false, fatal(fmt.Errorf("nonce gap for signer %x: account at %d, tx at %d", tx.SignerPubKey, account.Nonce, tx.Nonce))
	}

	account.Nonce++
	if err := overlay.PutAccount(account); err != nil {
		return nil, false, fatal(errors.Wrap(err, "advance signer nonce"))
	}

	events, err := Dispatch(overlay, tx, block, txIndex)
	if err != nil {
		if fe, ok := err.(*FatalError); ok {
			return nil, false, fe
		}
		// Payload-level error: emit a CasinoError event and keep going,
		// per spec §7 ("not fatal ... emits a CasinoError event").
		return []*codec.Event{casinoErrorEvent(tx, err)}, true, nil
	}
	return events, true, nil
}

func casinoErrorEvent(tx *codec.Transaction, err error) *codec.Event {
	return &codec.Event{
		Name: "CasinoError",
		Attrs: []codec.EventAttr{
			{Key: "signer", Value: fmt.Sprintf("%x", tx.SignerPubKey)},
			{Key: "nonce", Value: fmt.Sprintf("%d", tx.Nonce)},
			{Key: "error", Value: err.Error()},
		},
	}
}

// Dispatch routes tx to one of the four domain handlers by instruction
// tag, per spec §4.E.2.
func Dispatch(overlay *ledger.Overlay, tx *codec.Transaction, block Block, txIndex uint32) ([]*codec.Event, error) {
	switch tx.Tag {
	case codec.TagCasinoRegister, codec.TagCasinoDeposit, codec.TagCasinoStartGame, codec.TagCasinoGameMove:
		return dispatchCasino(overlay, tx, block, txIndex)
	case codec.TagStakingRegisterValidator, codec.TagStakingBond, codec.TagStakingUnbond, codec.TagStakingUnjail:
		return dispatchStaking(overlay, tx)
	case codec.TagLiquidityAddLiquidity, codec.TagLiquiditySwap, codec.TagVaultOpen, codec.TagVaultRepay:
		return dispatchLiquidity(overlay, tx)
	case codec.TagBridgeDeposit, codec.TagBridgeWithdraw:
		return dispatchBridge(overlay, tx)
	default:
		return nil, fmt.Errorf("exec: unroutable instruction tag %d", tx.Tag)
	}
}
