package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidgen/internal/services"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsInvertedSegmentBounds(t *testing.T) {
	cfg := Default()
	cfg.Segmentation.MinSegments = 8
	cfg.Segmentation.MaxSegments = 4
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Voice.ProviderOrder = []string{"espeak"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown provider to fail validation")
	}
}

func TestValidateRejectsInvertedWeights(t *testing.T) {
	cfg := Default()
	cfg.MatchWeights.ExactKeyword = 0.5
	cfg.MatchWeights.PartialToken = 2.0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected weight inversion to fail validation")
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidgen.toml")
	body := `
[paths]
cache_root = "` + filepath.Join(dir, "cache") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[segmentation]
min_segments = 3
max_segments = 6
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}
	if cfg.Segmentation.MinSegments != 3 || cfg.Segmentation.MaxSegments != 6 {
		t.Fatalf("segment bounds not applied: %+v", cfg.Segmentation)
	}
	if !filepath.IsAbs(cfg.Paths.CacheRoot) {
		t.Fatalf("cache root not absolute: %q", cfg.Paths.CacheRoot)
	}
	// Untouched sections keep defaults.
	if cfg.Retry.Attempts != defaultRetryAttempts {
		t.Fatalf("retry defaults lost: %+v", cfg.Retry)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if cfg.Segmentation.MinSegments != defaultMinSegments {
		t.Fatalf("expected defaults, got %+v", cfg.Segmentation)
	}
}
