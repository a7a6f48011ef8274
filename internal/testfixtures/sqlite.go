package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/orientation-hub/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated store in a temporary file. The store is
// closed automatically when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "orientation.db")
	store, err := sqlite.Open(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate store: %v", err)
	}
	return store
}
