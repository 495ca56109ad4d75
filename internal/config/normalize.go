package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReasoning()
	c.normalizeStockImages()
	c.normalizeVoice()
	c.normalizeImageGeneration()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheRoot) == "" {
		c.Paths.CacheRoot = defaultCacheRoot
	}
	if c.Paths.CacheRoot, err = expandPath(c.Paths.CacheRoot); err != nil {
		return fmt.Errorf("paths.cache_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeReasoning() {
	if c.Reasoning.APIKey == "" {
		c.Reasoning.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	if strings.TrimSpace(c.Reasoning.BaseURL) == "" {
		c.Reasoning.BaseURL = defaultReasoningBaseURL
	}
	if strings.TrimSpace(c.Reasoning.Model) == "" {
		c.Reasoning.Model = defaultReasoningModel
	}
	if c.Reasoning.TimeoutSeconds <= 0 {
		c.Reasoning.TimeoutSeconds = defaultReasoningTimeout
	}
}

func (c *Config) normalizeStockImages() {
	if c.StockImages.UnsplashKey == "" {
		c.StockImages.UnsplashKey = strings.TrimSpace(os.Getenv("UNSPLASH_ACCESS_KEY"))
	}
	if c.StockImages.PexelsKey == "" {
		c.StockImages.PexelsKey = strings.TrimSpace(os.Getenv("PEXELS_API_KEY"))
	}
	if len(c.StockImages.ProviderOrder) == 0 {
		c.StockImages.ProviderOrder = []string{"unsplash", "pexels"}
	}
	if c.StockImages.RequestsPerMin <= 0 {
		c.StockImages.RequestsPerMin = defaultStockRequestsPerMin
	}
	for i, name := range c.StockImages.ProviderOrder {
		c.StockImages.ProviderOrder[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

func (c *Config) normalizeVoice() {
	if c.Voice.ElevenKey == "" {
		c.Voice.ElevenKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	}
	if voiceID := strings.TrimSpace(os.Getenv("VOICE_ID")); voiceID != "" {
		c.Voice.VoiceID = voiceID
	}
	if len(c.Voice.ProviderOrder) == 0 {
		c.Voice.ProviderOrder = []string{"elevenlabs", "googletts"}
	}
	if strings.TrimSpace(c.Voice.VoiceID) == "" {
		c.Voice.VoiceID = defaultVoiceID
	}
	if strings.TrimSpace(c.Voice.Language) == "" {
		c.Voice.Language = defaultVoiceLanguage
	}
	for i, name := range c.Voice.ProviderOrder {
		c.Voice.ProviderOrder[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

func (c *Config) normalizeImageGeneration() {
	if c.ImageGeneration.APIKey == "" {
		c.ImageGeneration.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if strings.TrimSpace(c.ImageGeneration.Model) == "" {
		c.ImageGeneration.Model = defaultImageGenerationModel
	}
	if strings.TrimSpace(c.ImageGeneration.Size) == "" {
		c.ImageGeneration.Size = defaultImageGenerationSize
	}
	if strings.TrimSpace(c.ImageGeneration.Quality) == "" {
		c.ImageGeneration.Quality = defaultImageGenerationGrade
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
