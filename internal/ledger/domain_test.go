package ledger

import "testing"

func pubkey(b byte) [32]byte {
	var pk [32]byte
	pk[0] = b
	return pk
}

func TestGetAccountReturnsZeroValueForUnknownKey(t *testing.T) {
	o := NewOverlay(NewStore())
	a, err := o.GetAccount(pubkey(1))
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if a.Nonce != 0 || a.Chips != 0 {
		t.Fatalf("expected zero-value account, got %+v", a)
	}
}

func TestCreditChipsSaturatesAtMaxUint64(t *testing.T) {
	o := NewOverlay(NewStore())
	pk := pubkey(1)
	if err := o.CreditChips(pk, ^uint64(0)-5); err != nil {
		t.Fatalf("CreditChips: %v", err)
	}
	if err := o.CreditChips(pk, 100); err != nil {
		t.Fatalf("CreditChips: %v", err)
	}
	a, _ := o.GetAccount(pk)
	if a.Chips != ^uint64(0) {
		t.Fatalf("expected saturation at max uint64, got %d", a.Chips)
	}
}

func TestDebitChipsRejectsInsufficientBalance(t *testing.T) {
	o := NewOverlay(NewStore())
	pk := pubkey(1)
	o.CreditChips(pk, 50)
	if err := o.DebitChips(pk, 100); err == nil {
		t.Fatalf("expected insufficient-balance error")
	}
	a, _ := o.GetAccount(pk)
	if a.Chips != 50 {
		t.Fatalf("expected balance unchanged after rejected debit, got %d", a.Chips)
	}
}

func TestDebitChipsSaturatingFloorsAtZero(t *testing.T) {
	o := NewOverlay(NewStore())
	pk := pubkey(1)
	o.CreditChips(pk, 50)
	if err := o.DebitChipsSaturating(pk, 100); err != nil {
		t.Fatalf("DebitChipsSaturating: %v", err)
	}
	a, _ := o.GetAccount(pk)
	if a.Chips != 0 {
		t.Fatalf("expected balance floored at 0, got %d", a.Chips)
	}
}

func TestApplySignedPayoutHandlesCreditAndSaturatingDebit(t *testing.T) {
	o := NewOverlay(NewStore())
	pk := pubkey(1)
	o.CreditChips(pk, 100)

	if err := o.ApplySignedPayout(pk, 50); err != nil {
		t.Fatalf("ApplySignedPayout credit: %v", err)
	}
	a, _ := o.GetAccount(pk)
	if a.Chips != 150 {
		t.Fatalf("expected 150 after +50, got %d", a.Chips)
	}

	if err := o.ApplySignedPayout(pk, -1000); err != nil {
		t.Fatalf("ApplySignedPayout debit: %v", err)
	}
	a, _ = o.GetAccount(pk)
	if a.Chips != 0 {
		t.Fatalf("expected floor at 0 after an oversized negative payout, got %d", a.Chips)
	}
}
