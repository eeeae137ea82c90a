package testsupport

import (
	"context"
	"testing"

	"igreport/internal/config"
	"igreport/internal/store"
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

// StartSession opens a session for actor dated 08/08/2025.
func StartSession(t testing.TB, st *store.Store, actor string) *store.Session {
	t.Helper()

	session, err := st.StartSession(context.Background(), actor, "08/08/2025")
	if err != nil {
		t.Fatalf("store.StartSession: %v", err)
	}
	return session
}

// SetOrder stores an order list for actor.
func SetOrder(t testing.TB, st *store.Store, actor string, names ...string) {
	t.Helper()

	if err := st.SetOrder(context.Background(), actor, names); err != nil {
		t.Fatalf("store.SetOrder: %v", err)
	}
}
