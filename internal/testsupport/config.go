package testsupport

import (
	"path/filepath"
	"testing"

	"stanza/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Paths are absolute, as after config.Load.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Index.Path = filepath.Join(base, "state", "index.db")

	builder := &configBuilder{
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithDocument adds a document whose source is <base>/<name>.ni and whose
// stanza directory is <base>/<name>.stanza.
func WithDocument(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Documents = append(b.cfg.Documents, config.Document{
			Name:        name,
			Source:      filepath.Join(b.baseDir, name+".ni"),
			Destination: filepath.Join(b.baseDir, name+".stanza"),
		})
	}
}

// WithIndexDisabled turns the sync index off.
func WithIndexDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Index.Enabled = false
	}
}
