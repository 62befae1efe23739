package ledger

import "testing"

func TestOverlayReadsFallThroughToStoreThenPending(t *testing.T) {
	store := NewStore()
	store.Apply([]Write{{Key: "k1", Status: StatusUpdate, Value: []byte("from-store")}})

	o := NewOverlay(store)
	if v, ok := o.Get("k1"); !ok || string(v) != "from-store" {
		t.Fatalf("expected fall-through read, got %q ok=%v", v, ok)
	}

	o.Put("k1", []byte("from-overlay"))
	if v, ok := o.Get("k1"); !ok || string(v) != "from-overlay" {
		t.Fatalf("expected overlay to shadow the store, got %q ok=%v", v, ok)
	}

	// The underlying store must be untouched until Apply is called.
	if v, _ := store.Get("k1"); string(v) != "from-store" {
		t.Fatalf("store must not be mutated by an uncommitted overlay write")
	}
}

func TestOverlayDeleteShadowsStoreValue(t *testing.T) {
	store := NewStore()
	store.Apply([]Write{{Key: "k1", Status: StatusUpdate, Value: []byte("v")}})

	o := NewOverlay(store)
	o.Delete("k1")
	if _, ok := o.Get("k1"); ok {
		t.Fatalf("expected deleted key to read as absent")
	}
}

func TestOverlayRollbackRestoresPriorVisibilityWithoutDiscardingEarlierWrites(t *testing.T) {
	store := NewStore()
	o := NewOverlay(store)

	o.Put("tx1-key", []byte("tx1-value"))
	mark := o.Snapshot()
	o.Put("tx2-key", []byte("tx2-value"))
	o.Rollback(mark)

	if v, ok := o.Get("tx1-key"); !ok || string(v) != "tx1-value" {
		t.Fatalf("expected tx1's write to survive tx2's rollback, got %q ok=%v", v, ok)
	}
	if _, ok := o.Get("tx2-key"); ok {
		t.Fatalf("expected tx2's write to be discarded by rollback")
	}
}

func TestOverlayWritesPreservesFirstTouchOrder(t *testing.T) {
	store := NewStore()
	o := NewOverlay(store)
	o.Put("b", []byte("1"))
	o.Put("a", []byte("2"))
	o.Put("b", []byte("3")) // re-touch, should not move position

	writes := o.Writes()
	if len(writes) != 2 {
		t.Fatalf("expected 2 distinct touched keys, got %d", len(writes))
	}
	if writes[0].Key != "b" || string(writes[0].Value) != "3" {
		t.Fatalf("expected b (latest value) first, got %+v", writes[0])
	}
	if writes[1].Key != "a" {
		t.Fatalf("expected a second, got %+v", writes[1])
	}
}

func TestAppHashIsOrderIndependentAndChangesWithContent(t *testing.T) {
	s1 := NewStore()
	s1.Apply([]Write{
		{Key: "a", Status: StatusUpdate, Value: []byte("1")},
		{Key: "b", Status: StatusUpdate, Value: []byte("2")},
	})

	s2 := NewStore()
	s2.Apply([]Write{
		{Key: "b", Status: StatusUpdate, Value: []byte("2")},
		{Key: "a", Status: StatusUpdate, Value: []byte("1")},
	})

	h1, h2 := s1.AppHash(), s2.AppHash()
	if string(h1) != string(h2) {
		t.Fatalf("AppHash must be independent of application order")
	}

	s2.Apply([]Write{{Key: "a", Status: StatusUpdate, Value: []byte("3")}})
	if string(s2.AppHash()) == string(h2) {
		t.Fatalf("AppHash must change when content changes")
	}
}

func TestStoreApplyDeleteRemovesKey(t *testing.T) {
	s := NewStore()
	s.Apply([]Write{{Key: "k", Status: StatusUpdate, Value: []byte("v")}})
	s.Apply([]Write{{Key: "k", Status: StatusDelete}})
	if _, ok := s.Get("k"); ok {
		t.Fatalf("expected key to be removed after a delete write")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	s := NewStore()
	s.Apply([]Write{
		{Key: "account/aa", Status: StatusUpdate, Value: []byte(`{"nonce":1}`)},
		{Key: "house", Status: StatusUpdate, Value: []byte(`{"totalChipsIssued":5}`)},
	})
	if err := s.Save(home); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded.AppHash()) != string(s.AppHash()) {
		t.Fatalf("expected reloaded store to have identical AppHash")
	}
}

func TestLoadMissingSnapshotReturnsEmptyStore(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	empty := NewStore()
	if string(s.AppHash()) != string(empty.AppHash()) {
		t.Fatalf("expected a fresh store when no snapshot file exists")
	}
}
