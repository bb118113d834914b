package testsupport

import (
	"context"
	"testing"

	"mangafixer/internal/config"
	"mangafixer/internal/tracking"
)

// MustOpenStore opens a tracking.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tracking.Store {
	t.Helper()

	store, err := tracking.Open(context.Background(), cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("tracking.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
