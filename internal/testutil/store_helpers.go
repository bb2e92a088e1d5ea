package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pokesag/pokesag/internal/store"
)

// NewTestStore creates a temporary database with the schema applied.
// The database is closed when the test completes.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})

	if err := st.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return st
}

// SeedPages inserts msgs in order.
func SeedPages(t *testing.T, st *store.Store, msgs []store.Message) {
	t.Helper()
	MustNoErr(t, st.InsertBatch(context.Background(), msgs), "seed pages")
}

// NewFixtureStore returns a test store holding FixturePages.
func NewFixtureStore(t *testing.T) *store.Store {
	t.Helper()
	st := NewTestStore(t)
	SeedPages(t, st, FixturePages())
	return st
}
