package exec

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/go-kit/log"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
)

func signedDeposit(t *testing.T, priv ed25519.PrivateKey, pub ed25519.PublicKey, nonce uint64, amount uint64) []byte {
	t.Helper()
	tx := &codec.Transaction{
		Nonce: nonce,
		Tag:   codec.TagCasinoDeposit,
		Body:  codec.EncodeCasinoDeposit(codec.CasinoDepositBody{Amount: amount}),
	}
	copy(tx.SignerPubKey[:], pub)
	sig := ed25519.Sign(priv, tx.SignBytes())
	copy(tx.Signature[:], sig)
	return codec.EncodeTransaction(tx)
}

// TestExecuteIsDeterministic exercises spec §8 property 3: given identical
// (seed, pre-state, ordered transactions), two independent executions
// against freshly rehydrated overlays over the same committed store produce
// byte-identical output logs and write sets.
func TestExecuteIsDeterministic(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	raw1 := signedDeposit(t, priv, pub, 0, 100)
	raw2 := signedDeposit(t, priv, pub, 1, 50)
	block := Block{Height: 1, Seed: []byte("seed-A"), NowUnixMs: 1700000000000, Txs: [][]byte{raw1, raw2}}

	store := ledger.NewStore()
	overlayA := ledger.NewOverlay(store)
	resultA, err := Execute(overlayA, block, log.NewNopLogger())
	if err != nil {
		t.Fatalf("first execution: %v", err)
	}

	overlayB := ledger.NewOverlay(store)
	resultB, err := Execute(overlayB, block, log.NewNopLogger())
	if err != nil {
		t.Fatalf("second execution: %v", err)
	}

	if len(resultA.Outputs) != len(resultB.Outputs) {
		t.Fatalf("output length mismatch: %d vs %d", len(resultA.Outputs), len(resultB.Outputs))
	}
	for i := range resultA.Outputs {
		a := codec.EncodeOutput(resultA.Outputs[i])
		b := codec.EncodeOutput(resultB.Outputs[i])
		if !bytes.Equal(a, b) {
			t.Fatalf("output %d differs: %x vs %x", i, a, b)
		}
	}

	if len(resultA.Writes) != len(resultB.Writes) {
		t.Fatalf("write set length mismatch: %d vs %d", len(resultA.Writes), len(resultB.Writes))
	}
	storeA := ledger.NewStore()
	storeA.Apply(resultA.Writes)
	storeB := ledger.NewStore()
	storeB.Apply(resultB.Writes)
	if !bytes.Equal(storeA.AppHash(), storeB.AppHash()) {
		t.Fatalf("app hash mismatch after applying write sets")
	}
}

// TestNonceGapIsFatalAndAbortsBlock covers spec §4.E.1: a nonce strictly
// greater than the stored value is a fatal programming-bug condition that
// halts the whole block, not a silently dropped transaction.
func TestNonceGapIsFatalAndAbortsBlock(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	raw := signedDeposit(t, priv, pub, 5, 100)
	block := Block{Height: 1, Seed: []byte("seed"), Txs: [][]byte{raw}}

	store := ledger.NewStore()
	overlay := ledger.NewOverlay(store)
	_, err := Execute(overlay, block, log.NewNopLogger())
	if err == nil {
		t.Fatalf("expected fatal error on nonce gap")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("expected *FatalError, got %T: %v", err, err)
	}
}

// TestStaleNonceIsDroppedNotFatal covers spec §7: a nonce less than the
// stored value is a non-fatal, silently dropped replay.
func TestStaleNonceIsDroppedNotFatal(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	good := signedDeposit(t, priv, pub, 0, 100)
	stale := signedDeposit(t, priv, pub, 0, 999)
	block := Block{Height: 1, Seed: []byte("seed"), Txs: [][]byte{good, stale}}

	store := ledger.NewStore()
	overlay := ledger.NewOverlay(store)
	result, err := Execute(overlay, block, log.NewNopLogger())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var txOutputs int
	for _, o := range result.Outputs {
		if o.Tag == codec.OutputTagTransaction {
			txOutputs++
		}
	}
	if txOutputs != 1 {
		t.Fatalf("expected exactly one transaction output (stale replay dropped), got %d", txOutputs)
	}

	store.Apply(result.Writes)
	var pk [32]byte
	copy(pk[:], pub)
	acct, _ := ledger.NewOverlay(store).GetAccount(pk)
	if acct.Chips != 100 {
		t.Fatalf("expected only the first deposit applied, got chips=%d", acct.Chips)
	}
	if acct.Nonce != 1 {
		t.Fatalf("expected nonce advanced exactly once, got %d", acct.Nonce)
	}
}

// TestInvalidSignatureIsDroppedNotFatal covers spec §7's "propagated up as
// not fatal" rule for a transaction that fails signature verification.
func TestInvalidSignatureIsDroppedNotFatal(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	raw := signedDeposit(t, priv, pub, 0, 100)
	raw[0] ^= 0xFF // corrupt the nonce without re-signing
	block := Block{Height: 1, Seed: []byte("seed"), Txs: [][]byte{raw}}

	store := ledger.NewStore()
	overlay := ledger.NewOverlay(store)
	result, err := Execute(overlay, block, log.NewNopLogger())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, o := range result.Outputs {
		if o.Tag == codec.OutputTagTransaction {
			t.Fatalf("expected no transaction output for an invalid signature")
		}
	}
}
