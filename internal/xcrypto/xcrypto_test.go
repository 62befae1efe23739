package xcrypto

import "testing"

func TestHashToScalarDeterministic(t *testing.T) {
	a, err := HashToScalar("committee-weight", []byte("seed"), []byte("validator-1"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashToScalar("committee-weight", []byte("seed"), []byte("validator-1"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(a.Bytes()) != string(b.Bytes()) {
		t.Fatalf("expected identical inputs to hash to the same scalar")
	}
}

func TestHashToScalarDiffersByMessage(t *testing.T) {
	a, _ := HashToScalar("committee-weight", []byte("seed"), []byte("validator-1"))
	b, _ := HashToScalar("committee-weight", []byte("seed"), []byte("validator-2"))
	if string(a.Bytes()) == string(b.Bytes()) {
		t.Fatalf("expected different validator ids to hash differently")
	}
}

func TestHashToScalarRejectsNilMessage(t *testing.T) {
	if _, err := HashToScalar("x", nil); err == nil {
		t.Fatalf("expected error on nil message")
	}
}

func TestScalarFromUniformBytesRejectsWrongLength(t *testing.T) {
	if _, err := ScalarFromUniformBytes([]byte("too short")); err == nil {
		t.Fatalf("expected error on non-64-byte input")
	}
}
