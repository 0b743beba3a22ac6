package testsupport

import (
	"context"
	"testing"

	"nutriverify/internal/catalog"
	"nutriverify/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustInsert stores rec and returns the persisted copy.
func MustInsert(t testing.TB, store *catalog.Store, rec catalog.Record) *catalog.Record {
	t.Helper()

	inserted, err := store.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return inserted
}

// MustGet fetches a record that must exist.
func MustGet(t testing.TB, store *catalog.Store, id int64) *catalog.Record {
	t.Helper()

	rec, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	if rec == nil {
		t.Fatalf("record %d not found", id)
	}
	return rec
}
