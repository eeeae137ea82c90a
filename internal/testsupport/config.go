package testsupport

import (
	"path/filepath"
	"testing"

	"igreport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The remote credential is cleared so tests never reach a real endpoint.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ImageDir = filepath.Join(base, "images")
	cfgVal.Remote.APIKey = ""
	cfgVal.CLI.DefaultActor = "tester"

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

// WithMode sets the extraction mode.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.Mode = mode
	}
}

// WithAPIKey sets the remote credential.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.APIKey = key
	}
}

// WithRemoteURL points the remote client at a test server.
func WithRemoteURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.BaseURL = url
	}
}

// WithQueueThresholds overrides the advisory and ceiling waits in seconds.
func WithQueueThresholds(notify, ceiling int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.NotifyThresholdSeconds = notify
		b.cfg.Queue.MaxStartWaitSeconds = ceiling
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
