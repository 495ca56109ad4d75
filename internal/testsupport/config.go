package testsupport

import (
	"path/filepath"
	"testing"

	"vidgen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Stock lookups are disabled by default so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheRoot = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.StockImages.Enabled = false
	cfg.Retry.BackoffBaseSeconds = 0
	cfg.Retry.BackoffMaxSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithSegmentBounds overrides the segment count bounds on the test config.
func WithSegmentBounds(minSegments, maxSegments int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Segmentation.MinSegments = minSegments
		cfg.Segmentation.MaxSegments = maxSegments
	}
}

// WithStockImages re-enables stock lookups on the test config.
func WithStockImages() ConfigOption {
	return func(cfg *config.Config) {
		cfg.StockImages.Enabled = true
	}
}

// WithRetryAttempts overrides the gateway retry budget on the test config.
func WithRetryAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retry.Attempts = attempts
	}
}
