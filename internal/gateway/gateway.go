package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vidgen/internal/document"
	"vidgen/internal/logging"
	"vidgen/internal/services"
)

// Gateway routes capability requests through ordered provider chains.
type Gateway struct {
	reasoning []ReasoningProvider
	stock     []StockProvider
	voice     []VoiceProvider
	imageGen  []ImageGenProvider

	retryAttempts int
	backoffBase   time.Duration
	backoffMax    time.Duration
	sleeper       func(time.Duration)

	counters *Counters
	logger   *slog.Logger
}

// Option customizes gateway construction.
type Option func(*Gateway)

// WithReasoningProviders sets the reasoning chain, in fallback order.
func WithReasoningProviders(providers ...ReasoningProvider) Option {
	return func(g *Gateway) { g.reasoning = providers }
}

// WithStockProviders sets the stock-image chain, in fallback order.
func WithStockProviders(providers ...StockProvider) Option {
	return func(g *Gateway) { g.stock = providers }
}

// WithVoiceProviders sets the voice-synthesis chain, in fallback order.
func WithVoiceProviders(providers ...VoiceProvider) Option {
	return func(g *Gateway) { g.voice = providers }
}

// WithImageGenProviders sets the image-generation chain, in fallback order.
func WithImageGenProviders(providers ...ImageGenProvider) Option {
	return func(g *Gateway) { g.imageGen = providers }
}

// WithRetryPolicy overrides per-attempt retries and backoff delays.
func WithRetryPolicy(attempts int, base, max time.Duration) Option {
	return func(g *Gateway) {
		if attempts > 0 {
			g.retryAttempts = attempts
		}
		if base >= 0 {
			g.backoffBase = base
		}
		if max > 0 {
			g.backoffMax = max
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(g *Gateway) { g.sleeper = sleeper }
}

// WithLogger attaches a logger for attempt-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logging.NewComponentLogger(logger, "gateway")
		}
	}
}

// New constructs a gateway with the supplied chains and policy.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		retryAttempts: 3,
		backoffBase:   time.Second,
		backoffMax:    10 * time.Second,
		counters:      NewCounters(),
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Counters exposes the call-count instrumentation.
func (g *Gateway) Counters() *Counters { return g.counters }

// ProposeSegmentation walks the reasoning chain for a segmentation proposal.
func (g *Gateway) ProposeSegmentation(ctx context.Context, req ProposalRequest) ([]ProposalGroup, error) {
	return run(ctx, g, CapabilityReasoning, len(g.reasoning), func(i int) string {
		return g.reasoning[i].Name()
	}, func(ctx context.Context, i int) ([]ProposalGroup, error) {
		return g.reasoning[i].ProposeSegmentation(ctx, req)
	})
}

// GenerateNarration walks the reasoning chain for segment narration text.
func (g *Gateway) GenerateNarration(ctx context.Context, req NarrationRequest) (string, error) {
	return run(ctx, g, CapabilityReasoning, len(g.reasoning), func(i int) string {
		return g.reasoning[i].Name()
	}, func(ctx context.Context, i int) (string, error) {
		return g.reasoning[i].GenerateNarration(ctx, req)
	})
}

// SearchStock walks the stock-image chain for candidates matching the query.
func (g *Gateway) SearchStock(ctx context.Context, query string, limit int) ([]document.StockImageCandidate, error) {
	return run(ctx, g, CapabilityStockImage, len(g.stock), func(i int) string {
		return g.stock[i].Name()
	}, func(ctx context.Context, i int) ([]document.StockImageCandidate, error) {
		return g.stock[i].Search(ctx, query, limit)
	})
}

// SynthesizeVoice walks the voice chain for narration audio. The result also
// reports which provider produced the audio.
func (g *Gateway) SynthesizeVoice(ctx context.Context, req VoiceRequest) (VoiceResult, string, error) {
	type attributed struct {
		result   VoiceResult
		provider string
	}
	out, err := run(ctx, g, CapabilityVoice, len(g.voice), func(i int) string {
		return g.voice[i].Name()
	}, func(ctx context.Context, i int) (attributed, error) {
		result, err := g.voice[i].Synthesize(ctx, req)
		return attributed{result: result, provider: g.voice[i].Name()}, err
	})
	return out.result, out.provider, err
}

// GenerateImage walks the image-generation chain for a rendered image.
func (g *Gateway) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return run(ctx, g, CapabilityImageGeneration, len(g.imageGen), func(i int) string {
		return g.imageGen[i].Name()
	}, func(ctx context.Context, i int) ([]byte, error) {
		return g.imageGen[i].Generate(ctx, prompt)
	})
}

// run drives the shared chain-walk: for each provider in order, spend the
// retry budget on recoverable errors, then advance. Fatal errors abort the
// chain immediately; exhaustion surfaces a ProviderError.
func run[T any](ctx context.Context, g *Gateway, capability Capability, count int, name func(int) string, call func(context.Context, int) (T, error)) (T, error) {
	var zero T
	if count == 0 {
		return zero, services.NewProviderError(string(capability), nil, errors.New("no providers configured"))
	}

	attempted := make([]string, 0, count)
	var lastErr error

	for i := 0; i < count; i++ {
		providerName := name(i)
		attempted = append(attempted, providerName)

		for attempt := 1; attempt <= g.retryAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			g.counters.record(capability, providerName)

			result, err := call(ctx, i)
			if err == nil {
				return result, nil
			}
			lastErr = err

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return zero, err
			}
			if !services.Recoverable(err) {
				g.logger.Warn("provider failed fatally",
					logging.String(logging.FieldCapability, string(capability)),
					logging.String(logging.FieldProvider, providerName),
					logging.Error(err))
				return zero, err
			}

			g.logger.Debug("provider attempt failed",
				logging.String(logging.FieldCapability, string(capability)),
				logging.String(logging.FieldProvider, providerName),
				logging.Int("attempt", attempt),
				logging.Error(err))

			if attempt < g.retryAttempts {
				if err := g.sleep(ctx, g.backoffDelay(attempt)); err != nil {
					return zero, err
				}
			}
		}

		g.logger.Warn("provider exhausted, advancing chain",
			logging.String(logging.FieldCapability, string(capability)),
			logging.String(logging.FieldProvider, providerName),
			logging.Error(lastErr))
	}

	return zero, services.NewProviderError(string(capability), attempted, lastErr)
}

// backoffDelay returns base*2^(attempt-1) capped at the configured maximum.
func (g *Gateway) backoffDelay(attempt int) time.Duration {
	if g.backoffBase <= 0 {
		return 0
	}
	delay := g.backoffBase
	for i := 1; i < attempt; i++ {
		if delay > g.backoffMax/2 {
			return g.backoffMax
		}
		delay *= 2
	}
	if g.backoffMax > 0 && delay > g.backoffMax {
		return g.backoffMax
	}
	return delay
}

func (g *Gateway) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if g.sleeper != nil {
		g.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
