package testsupport

import (
	"context"
	"testing"

	"psud/internal/config"
	"psud/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// Enqueue queues a command for tests using the provided store.
func Enqueue(t testing.TB, st *store.Store, kind, value string) int64 {
	t.Helper()

	id, err := st.Enqueue(context.Background(), kind, value)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return id
}
