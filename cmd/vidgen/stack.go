package main

import (
	"fmt"
	"log/slog"
	"time"

	"vidgen/internal/artifacts"
	"vidgen/internal/config"
	"vidgen/internal/docparse"
	"vidgen/internal/gateway"
	"vidgen/internal/pipeline"
	"vidgen/internal/providers/elevenlabs"
	"vidgen/internal/providers/googletts"
	"vidgen/internal/providers/openaiimage"
	"vidgen/internal/providers/openrouter"
	"vidgen/internal/providers/pexels"
	"vidgen/internal/providers/unsplash"
	"vidgen/internal/script"
	"vidgen/internal/segment"
)

// buildGateway assembles the provider chains the configuration names, in
// fallback order.
func buildGateway(cfg *config.Config, logger *slog.Logger) (*gateway.Gateway, error) {
	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithRetryPolicy(
			cfg.Retry.Attempts,
			time.Duration(cfg.Retry.BackoffBaseSeconds*float64(time.Second)),
			time.Duration(cfg.Retry.BackoffMaxSeconds*float64(time.Second)),
		),
		gateway.WithReasoningProviders(openrouter.New(cfg.Reasoning)),
	}

	if cfg.StockImages.Enabled {
		var stock []gateway.StockProvider
		for _, name := range cfg.StockImages.ProviderOrder {
			switch name {
			case "unsplash":
				stock = append(stock, unsplash.New(cfg.StockImages.UnsplashKey, cfg.StockImages.RequestsPerMin))
			case "pexels":
				stock = append(stock, pexels.New(cfg.StockImages.PexelsKey, cfg.StockImages.RequestsPerMin))
			default:
				return nil, fmt.Errorf("unknown stock provider %q", name)
			}
		}
		opts = append(opts, gateway.WithStockProviders(stock...))
	}

	var voice []gateway.VoiceProvider
	for _, name := range cfg.Voice.ProviderOrder {
		switch name {
		case "elevenlabs":
			voice = append(voice, elevenlabs.New(cfg.Voice.ElevenKey))
		case "googletts":
			voice = append(voice, googletts.New())
		default:
			return nil, fmt.Errorf("unknown voice provider %q", name)
		}
	}
	opts = append(opts, gateway.WithVoiceProviders(voice...))

	if cfg.ImageGeneration.Enabled {
		opts = append(opts, gateway.WithImageGenProviders(
			openaiimage.New(cfg.ImageGeneration.APIKey, cfg.ImageGeneration.Model,
				cfg.ImageGeneration.Size, cfg.ImageGeneration.Quality)))
	}

	return gateway.New(opts...), nil
}

// buildOrchestrator wires the full pipeline stack for CLI commands.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*pipeline.Orchestrator, *artifacts.Store, *gateway.Gateway, error) {
	store, err := artifacts.Open(cfg.Paths.CacheRoot, cfg.Cache.MaxGiB, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	orchestrator, err := pipeline.New(pipeline.Deps{
		Store:     store,
		Parser:    docparse.New(logger),
		Segmenter: segment.New(gw, logger),
		Scripter:  script.New(gw, cfg.Paths.OutputDir, logger),
		Config:    cfg,
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}
	return orchestrator, store, gw, nil
}
