package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheRoot string `toml:"cache_root"`
	LogDir    string `toml:"log_dir"`
	OutputDir string `toml:"output_dir"`
}

// Segmentation contains knobs for the content segmentation engine.
type Segmentation struct {
	MinSegments           int `toml:"min_segments"`
	MaxSegments           int `toml:"max_segments"`
	TargetSegmentDuration int `toml:"target_segment_duration"`
	ProposalAttempts      int `toml:"proposal_attempts"`
}

// MatchWeights contains the keyword-matching weights used during visual
// assignment. Exact keyword matches outrank partial token overlap.
type MatchWeights struct {
	ExactKeyword float64 `toml:"exact_keyword"`
	PartialToken float64 `toml:"partial_token"`
	TitleToken   float64 `toml:"title_token"`
}

// Reasoning contains connection settings for the reasoning (LLM) providers.
type Reasoning struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StockImages contains stock-image provider settings and fallback ordering.
type StockImages struct {
	Enabled        bool     `toml:"enabled"`
	ProviderOrder  []string `toml:"provider_order"`
	UnsplashKey    string   `toml:"unsplash_access_key"`
	PexelsKey      string   `toml:"pexels_api_key"`
	RequestsPerMin int      `toml:"requests_per_minute"`
}

// Voice contains voice-synthesis provider settings and fallback ordering.
type Voice struct {
	ProviderOrder []string `toml:"provider_order"`
	ElevenKey     string   `toml:"elevenlabs_api_key"`
	VoiceID       string   `toml:"voice_id"`
	Stability     float64  `toml:"stability"`
	Similarity    float64  `toml:"similarity_boost"`
	Language      string   `toml:"language"`
}

// ImageGeneration contains settings for AI image generation. The renderer
// consumes these when resolving generated-placeholder visuals.
type ImageGeneration struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Size    string `toml:"size"`
	Quality string `toml:"quality"`
}

// Retry contains the gateway retry policy shared by all provider chains.
type Retry struct {
	Attempts           int     `toml:"attempts"`
	BackoffBaseSeconds float64 `toml:"backoff_base_seconds"`
	BackoffMaxSeconds  float64 `toml:"backoff_max_seconds"`
}

// Cache contains artifact store settings beyond the root path.
type Cache struct {
	MaxGiB int `toml:"max_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidgen.
//
// Configuration sections by subsystem:
//   - Paths: cache root, log and output directories
//   - Segmentation: segment count bounds and target duration
//   - MatchWeights: keyword-matching weights for visual assignment
//   - Reasoning: LLM connection settings for segmentation and narration
//   - StockImages: stock provider keys and fallback ordering
//   - Voice: voice synthesis provider keys and fallback ordering
//   - ImageGeneration: AI image generation settings for the renderer
//   - Retry: gateway retry attempts and backoff policy
//   - Cache: artifact store size budget
//   - Logging: log format and level
type Config struct {
	Paths           Paths           `toml:"paths"`
	Segmentation    Segmentation    `toml:"segmentation"`
	MatchWeights    MatchWeights    `toml:"match_weights"`
	Reasoning       Reasoning       `toml:"reasoning"`
	StockImages     StockImages     `toml:"stock_images"`
	Voice           Voice           `toml:"voice"`
	ImageGeneration ImageGeneration `toml:"image_generation"`
	Retry           Retry           `toml:"retry"`
	Cache           Cache           `toml:"cache"`
	Logging         Logging         `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vidgen/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidgen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheRoot, c.Paths.LogDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
