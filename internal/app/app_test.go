package app

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"

	"nullspace.io/casino-chain/internal/codec"
	"nullspace.io/casino-chain/internal/ledger"
)

func newTestApp(t *testing.T) *OCPApp {
	t.Helper()
	a, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func signedTx(t *testing.T, priv ed25519.PrivateKey, pub ed25519.PublicKey, nonce uint64, tag codec.InstructionTag, body []byte) *codec.Transaction {
	t.Helper()
	tx := &codec.Transaction{Nonce: nonce, Tag: tag, Body: body}
	copy(tx.SignerPubKey[:], pub)
	sig := ed25519.Sign(priv, tx.SignBytes())
	copy(tx.Signature[:], sig)
	return tx
}

func finalize(t *testing.T, a *OCPApp, height int64, raws [][]byte) *abci.FinalizeBlockResponse {
	t.Helper()
	resp, err := a.FinalizeBlock(context.Background(), &abci.FinalizeBlockRequest{
		Height: height,
		Time:   time.Unix(1700000000, 0),
		Hash:   []byte{byte(height)},
		Txs:    raws,
	})
	if err != nil {
		t.Fatalf("FinalizeBlock: %v", err)
	}
	if _, err := a.Commit(context.Background(), &abci.CommitRequest{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return resp
}

func TestInfoReflectsPersistedHeight(t *testing.T) {
	home := t.TempDir()
	a, err := New(home)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pub, priv, _ := ed25519.GenerateKey(nil)
	depositBody := codec.EncodeCasinoDeposit(codec.CasinoDepositBody{Amount: 100})
	tx := signedTx(t, priv, pub, 0, codec.TagCasinoDeposit, depositBody)
	finalize(t, a, 1, [][]byte{codec.EncodeTransaction(tx)})

	reopened, err := New(home)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	info, err := reopened.Info(context.Background(), &abci.InfoRequest{})
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.LastBlockHeight != 1 {
		t.Fatalf("expected persisted height 1, got %d", info.LastBlockHeight)
	}
}

func TestCheckTxRejectsBadSignatureAndMalformedBytes(t *testing.T) {
	a := newTestApp(t)

	pub, priv, _ := ed25519.GenerateKey(nil)
	tx := signedTx(t, priv, pub, 0, codec.TagCasinoDeposit, codec.EncodeCasinoDeposit(codec.CasinoDepositBody{Amount: 10}))
	raw := codec.EncodeTransaction(tx)

	resp, err := a.CheckTx(context.Background(), &abci.CheckTxRequest{Tx: raw})
	if err != nil {
		t.Fatalf("CheckTx: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("expected valid tx to pass CheckTx, got code %d: %s", resp.Code, resp.Log)
	}

	tampered := append([]byte(nil), raw...)
	tampered[0] ^= 0xFF // corrupt the nonce, invalidating the signature
	resp, err = a.CheckTx(context.Background(), &abci.CheckTxRequest{Tx: tampered})
	if err != nil {
		t.Fatalf("CheckTx: %v", err)
	}
	if resp.Code == 0 {
		t.Fatalf("expected tampered tx to fail CheckTx")
	}

	resp, err = a.CheckTx(context.Background(), &abci.CheckTxRequest{Tx: []byte("short")})
	if err != nil {
		t.Fatalf("CheckTx: %v", err)
	}
	if resp.Code == 0 {
		t.Fatalf("expected undecodable tx to fail CheckTx")
	}
}

func TestFinalizeBlockCreditsDepositAndDropsStaleNonce(t *testing.T) {
	a := newTestApp(t)
	pub, priv, _ := ed25519.GenerateKey(nil)

	good := signedTx(t, priv, pub, 0, codec.TagCasinoDeposit, codec.EncodeCasinoDeposit(codec.CasinoDepositBody{Amount: 250}))
	stale := signedTx(t, priv, pub, 0, codec.TagCasinoDeposit, codec.EncodeCasinoDeposit(codec.CasinoDepositBody{Amount: 999}))

	resp := finalize(t, a, 1, [][]byte{codec.EncodeTransaction(good), codec.EncodeTransaction(stale)})
	if len(resp.TxResults) != 2 {
		t.Fatalf("expected 2 tx results, got %d", len(resp.TxResults))
	}
	if resp.TxResults[0].Code != 0 {
		t.Fatalf("expected first deposit to succeed: %+v", resp.TxResults[0])
	}
	if resp.TxResults[1].Code == 0 {
		t.Fatalf("expected replayed nonce to be dropped")
	}

	var pk [32]byte
	copy(pk[:], pub)
	queryResp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/account/" + hexEncode(pk)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if queryResp.Code != 0 {
		t.Fatalf("expected account query to succeed: %s", queryResp.Log)
	}
	var acct ledger.Account
	if err := json.Unmarshal(queryResp.Value, &acct); err != nil {
		t.Fatalf("unmarshal account: %v", err)
	}
	if acct.Chips != 250 {
		t.Fatalf("expected chips 250 (stale replay must not double-apply), got %d", acct.Chips)
	}
	if acct.Nonce != 1 {
		t.Fatalf("expected nonce advanced exactly once, got %d", acct.Nonce)
	}
}

func TestQueryUnknownAccountIsZeroValue(t *testing.T) {
	a := newTestApp(t)
	var pk [32]byte
	pk[0] = 0xAB
	resp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/account/" + hexEncode(pk)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("expected zero-value account lookup to succeed, got %s", resp.Log)
	}
	var acct ledger.Account
	if err := json.Unmarshal(resp.Value, &acct); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if acct.Chips != 0 {
		t.Fatalf("expected zero chips for never-seen account")
	}
}

func TestQueryUnknownPathIsRejected(t *testing.T) {
	a := newTestApp(t)
	resp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/nonsense"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Code == 0 {
		t.Fatalf("expected unknown path to be rejected")
	}
}

func TestInitChainMintsGenesisAccounts(t *testing.T) {
	a := newTestApp(t)
	pub, _, _ := ed25519.GenerateKey(nil)
	var pk [32]byte
	copy(pk[:], pub)

	genesis, err := json.Marshal(map[string]any{
		"accounts": []map[string]any{
			{"pubKey": hexEncode(pk), "chips": 1000, "vusdt": 50},
		},
	})
	if err != nil {
		t.Fatalf("marshal genesis: %v", err)
	}
	if _, err := a.InitChain(context.Background(), &abci.InitChainRequest{AppStateBytes: genesis}); err != nil {
		t.Fatalf("InitChain: %v", err)
	}

	resp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/account/" + hexEncode(pk)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var acct ledger.Account
	if err := json.Unmarshal(resp.Value, &acct); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if acct.Chips != 1000 || acct.VUSDT != 50 {
		t.Fatalf("unexpected genesis account: %+v", acct)
	}

	houseResp, err := a.Query(context.Background(), &abci.QueryRequest{Path: "/house"})
	if err != nil {
		t.Fatalf("Query house: %v", err)
	}
	var house ledger.HouseState
	if err := json.Unmarshal(houseResp.Value, &house); err != nil {
		t.Fatalf("unmarshal house: %v", err)
	}
	if house.TotalChipsIssued != 1000 || house.TotalVUSDTLiability != 50 {
		t.Fatalf("unexpected house state: %+v", house)
	}
}

func hexEncode(pk [32]byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range pk {
		out[i*2] = digits[b>>4]
		out[i*2+1] = digits[b&0x0f]
	}
	return string(out)
}
