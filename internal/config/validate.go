package config

import (
	"fmt"

	"vidgen/internal/services"
)

// Validate ensures the configuration is usable. Violations are tagged with
// services.ErrConfiguration and reported before any pipeline phase executes.
func (c *Config) Validate() error {
	if err := c.validateSegmentation(); err != nil {
		return err
	}
	if err := c.validateMatchWeights(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	s := c.Segmentation
	if s.MinSegments < 1 {
		return configErr("segmentation.min_segments must be at least 1")
	}
	if s.MaxSegments < s.MinSegments {
		return configErr(fmt.Sprintf("segmentation.min_segments (%d) exceeds max_segments (%d)", s.MinSegments, s.MaxSegments))
	}
	if s.TargetSegmentDuration <= 0 {
		return configErr("segmentation.target_segment_duration must be positive")
	}
	if s.ProposalAttempts < 1 {
		return configErr("segmentation.proposal_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateMatchWeights() error {
	w := c.MatchWeights
	if w.ExactKeyword <= 0 || w.PartialToken <= 0 || w.TitleToken <= 0 {
		return configErr("match_weights values must be positive")
	}
	if w.ExactKeyword < w.PartialToken {
		return configErr("match_weights.exact_keyword must outweigh partial_token")
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, name := range c.StockImages.ProviderOrder {
		switch name {
		case "unsplash", "pexels":
		default:
			return configErr(fmt.Sprintf("stock_images.provider_order: unknown provider %q", name))
		}
	}
	for _, name := range c.Voice.ProviderOrder {
		switch name {
		case "elevenlabs", "googletts":
		default:
			return configErr(fmt.Sprintf("voice.provider_order: unknown provider %q", name))
		}
	}
	if len(c.Voice.ProviderOrder) == 0 {
		return configErr("voice.provider_order must name at least one provider")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.Attempts < 1 {
		return configErr("retry.attempts must be at least 1")
	}
	if c.Retry.BackoffBaseSeconds < 0 {
		return configErr("retry.backoff_base_seconds must not be negative")
	}
	if c.Retry.BackoffMaxSeconds > 0 && c.Retry.BackoffMaxSeconds < c.Retry.BackoffBaseSeconds {
		return configErr("retry.backoff_max_seconds must not undercut backoff_base_seconds")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.MaxGiB < 0 {
		return configErr("cache.max_gib must not be negative")
	}
	return nil
}

func configErr(message string) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", message, nil)
}
