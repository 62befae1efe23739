package artifacts

import "testing"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(1024, 4096, 16)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return r
}

func TestStoreIsIdempotent(t *testing.T) {
	r := newTestRegistry(t)
	data := []byte("hello artifact")
	h1, err := r.Store(data, 1, [32]byte{1}, 100)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	h2, err := r.Store(data, 1, [32]byte{2}, 200)
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical hash for identical data")
	}
	got, meta, err := r.Get(h1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("roundtrip mismatch")
	}
	if meta.Creator != ([32]byte{1}) {
		t.Fatalf("expected first store's metadata to win, got %v", meta.Creator)
	}
}

func TestArtifactTooLarge(t *testing.T) {
	r := newTestRegistry(t)
	big := make([]byte, 2000)
	if _, err := r.Store(big, 1, [32]byte{}, 0); err == nil {
		t.Fatalf("expected ArtifactTooLargeError")
	} else if _, ok := err.(*ArtifactTooLargeError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestRegistryFull(t *testing.T) {
	// Total cap 3500: three 1000-byte artifacts fit, a fourth would not.
	r, err := NewRegistry(1024, 3500, 16)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	chunk := make([]byte, 1000)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	if _, err := r.Store(chunk, 1, [32]byte{}, 0); err != nil {
		t.Fatalf("first store: %v", err)
	}
	chunk2 := make([]byte, 1000)
	for i := range chunk2 {
		chunk2[i] = byte(i + 1)
	}
	if _, err := r.Store(chunk2, 1, [32]byte{}, 0); err != nil {
		t.Fatalf("second store: %v", err)
	}
	chunk3 := make([]byte, 1000)
	for i := range chunk3 {
		chunk3[i] = byte(i + 2)
	}
	if _, err := r.Store(chunk3, 1, [32]byte{}, 0); err != nil {
		t.Fatalf("third store: %v", err)
	}
	chunk4 := make([]byte, 1000)
	for i := range chunk4 {
		chunk4[i] = byte(i + 3)
	}
	if _, err := r.Store(chunk4, 1, [32]byte{}, 0); err == nil {
		t.Fatalf("expected RegistryFullError")
	} else if _, ok := err.(*RegistryFullError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestGetByCommitmentIndexesAcrossStores(t *testing.T) {
	r := newTestRegistry(t)
	commitment := [32]byte{7}
	h1, _ := r.StoreForCommitment([]byte("a"), 1, [32]byte{}, 0, commitment)
	h2, _ := r.StoreForCommitment([]byte("b"), 1, [32]byte{}, 0, commitment)

	hashes := r.GetByCommitment(commitment)
	if len(hashes) != 2 || hashes[0] != h1 || hashes[1] != h2 {
		t.Fatalf("unexpected commitment index: %v", hashes)
	}
}

func TestFindMissing(t *testing.T) {
	r := newTestRegistry(t)
	present, _ := r.Store([]byte("present"), 1, [32]byte{}, 0)
	absent := hashOf([]byte("absent"))

	missing := r.FindMissing([][32]byte{present, absent})
	if len(missing) != 1 || missing[0] != absent {
		t.Fatalf("unexpected missing set: %v", missing)
	}
}

func TestBackfillRoundTrip(t *testing.T) {
	source := newTestRegistry(t)
	dest := newTestRegistry(t)

	h, err := source.Store([]byte("payload"), 2, [32]byte{3}, 0)
	if err != nil {
		t.Fatalf("source store: %v", err)
	}

	req := ArtifactRequest{Hashes: [][32]byte{h, hashOf([]byte("nonexistent"))}}
	resp := source.HandleArtifactRequest(req)
	if len(resp.Found) != 1 || len(resp.Missing) != 1 {
		t.Fatalf("unexpected response shape: %+v", resp)
	}

	result := dest.ProcessBackfillResponse(resp, 500, 2, [32]byte{9})
	if result.CountStored() != 1 {
		t.Fatalf("expected exactly one stored artifact, got %+v", result.Outcomes)
	}
	got, _, err := dest.Get(h)
	if err != nil || string(got) != "payload" {
		t.Fatalf("backfilled artifact not retrievable: %v", err)
	}

	// Re-processing the same response must be a no-op, not a duplicate
	// store or an error.
	result2 := dest.ProcessBackfillResponse(resp, 600, 2, [32]byte{9})
	if result2.Outcomes[0].Kind != BackfillAlreadyPresent {
		t.Fatalf("expected BackfillAlreadyPresent on replay, got %v", result2.Outcomes[0].Kind)
	}
}

func TestBackfillRejectsHashMismatch(t *testing.T) {
	dest := newTestRegistry(t)
	claimed := hashOf([]byte("real data"))
	resp := ArtifactResponse{Found: []FoundArtifact{{Hash: claimed, Data: []byte("tampered data")}}}

	result := dest.ProcessBackfillResponse(resp, 0, 1, [32]byte{})
	if len(result.Outcomes) != 1 || result.Outcomes[0].Kind != BackfillHashMismatch {
		t.Fatalf("expected hash mismatch outcome, got %+v", result.Outcomes)
	}
	if dest.Contains(claimed) {
		t.Fatalf("tampered data must never be stored")
	}
}
