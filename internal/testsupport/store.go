package testsupport

import (
	"testing"

	"stanza/internal/config"
	"stanza/internal/syncstate"
)

// MustOpenIndex opens the sync index configured in cfg and registers cleanup.
// It returns nil when the index is disabled.
func MustOpenIndex(t testing.TB, cfg *config.Config) *syncstate.Store {
	t.Helper()

	if !cfg.Index.Enabled {
		return nil
	}
	store, err := syncstate.Open(cfg.Index.Path)
	if err != nil {
		t.Fatalf("syncstate.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
