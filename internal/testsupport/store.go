package testsupport

import (
	"testing"

	"vidgen/internal/artifacts"
	"vidgen/internal/config"
	"vidgen/internal/logging"
)

// MustOpenStore opens an artifact store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *artifacts.Store {
	t.Helper()

	store, err := artifacts.Open(cfg.Paths.CacheRoot, cfg.Cache.MaxGiB, logging.NewNop())
	if err != nil {
		t.Fatalf("artifacts.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
