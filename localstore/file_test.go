package localstore

import (
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Set(KeyProducts, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	data, ok, err := store.Get(KeyProducts)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected key to exist")
	}
	if string(data) != `[{"id":"1"}]` {
		t.Fatalf("unexpected value: %s", data)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Set(KeyUserToken, []byte(`"tok-123"`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	data, ok, err := reopened.Get(KeyUserToken)
	if err != nil || !ok {
		t.Fatalf("expected persisted token, ok=%v err=%v", ok, err)
	}
	if string(data) != `"tok-123"` {
		t.Fatalf("unexpected value: %s", data)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	_, ok, err := store.Get("nothere")
	if err != nil {
		t.Fatalf("get of missing key errored: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}
}

func TestFileStoreDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Set(KeyUser, []byte(`{}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Delete(KeyUser); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(KeyUser); ok {
		t.Fatalf("expected key gone after delete")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(KeyUser); err != nil {
		t.Fatalf("delete of missing key errored: %v", err)
	}
}

func TestMemStoreCopiesValues(t *testing.T) {
	store := NewMemStore()
	value := []byte("abc")
	if err := store.Set(KeyCustomers, value); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	value[0] = 'z'

	data, ok, err := store.Get(KeyCustomers)
	if err != nil || !ok {
		t.Fatalf("get failed, ok=%v err=%v", ok, err)
	}
	if string(data) != "abc" {
		t.Fatalf("stored value was aliased: %s", data)
	}
}
