package testsupport

import (
	"path/filepath"
	"testing"

	"playtime/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.HLTB.BaseURL = "http://127.0.0.1:1"
	cfgVal.HLTB.RequestTimeout = 2
	cfgVal.HLTB.RequestsPerSecond = 0
	cfgVal.Cache.Path = filepath.Join(base, "cache", "results.db")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.LockPath = filepath.Join(base, "run", "playtime.lock")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Logging.Format = "json"

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

// WithBaseURL points the HLTB client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.HLTB.BaseURL = url
	}
}

// WithCacheDisabled turns the result cache off.
func WithCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}

// WithInvalidateAfterMisses overrides the consecutive-miss threshold.
func WithInvalidateAfterMisses(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.InvalidateAfterMisses = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Cache.Path))
}
