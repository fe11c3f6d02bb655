package testsupport

import (
	"path/filepath"
	"testing"

	"vecna/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp data directory per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Generator.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGeneratorEndpoint points the content generator at a test server.
func WithGeneratorEndpoint(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generator.BaseURL = baseURL
	}
}

// WithMinTextChars overrides the rulebook extraction threshold.
func WithMinTextChars(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rulebook.MinTextChars = n
	}
}

// BaseDir returns the temp root used for this config, useful for placing
// fixture files next to the data directory.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
