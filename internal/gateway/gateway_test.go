package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidgen/internal/document"
	"vidgen/internal/services"
)

type stubStock struct {
	name    string
	results []document.StockImageCandidate
	errs    []error
	calls   int
}

func (s *stubStock) Name() string { return s.name }

func (s *stubStock) Search(_ context.Context, _ string, _ int) ([]document.StockImageCandidate, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.results, nil
}

func transient(msg string) error {
	return services.Wrap(services.ErrTransient, "stock", "search", msg, nil)
}

func newTestGateway(opts ...Option) *Gateway {
	base := []Option{
		WithRetryPolicy(2, time.Millisecond, 2*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	}
	return New(append(base, opts...)...)
}

func TestFirstProviderWins(t *testing.T) {
	first := &stubStock{name: "unsplash", results: []document.StockImageCandidate{{ID: "a"}}}
	second := &stubStock{name: "pexels"}
	g := newTestGateway(WithStockProviders(first, second))

	got, err := g.SearchStock(context.Background(), "gophers", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if second.calls != 0 {
		t.Fatal("second provider should not be touched")
	}
}

func TestRecoverableAdvancesChain(t *testing.T) {
	first := &stubStock{name: "unsplash", errs: []error{transient("429"), transient("429")}}
	second := &stubStock{name: "pexels", results: []document.StockImageCandidate{{ID: "b"}}}
	g := newTestGateway(WithStockProviders(first, second))

	got, err := g.SearchStock(context.Background(), "gophers", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].ID != "b" {
		t.Fatalf("expected fallback result, got %+v", got)
	}
	if first.calls != 2 {
		t.Fatalf("expected retry budget of 2 on first provider, got %d", first.calls)
	}
}

func TestFatalErrorStopsChain(t *testing.T) {
	fatal := services.Wrap(services.ErrValidation, "stock", "search", "bad credentials", nil)
	first := &stubStock{name: "unsplash", errs: []error{fatal}}
	second := &stubStock{name: "pexels", results: []document.StockImageCandidate{{ID: "b"}}}
	g := newTestGateway(WithStockProviders(first, second))

	_, err := g.SearchStock(context.Background(), "gophers", 1)
	if err == nil {
		t.Fatal("expected failure")
	}
	if errors.Is(err, services.ErrProviderExhausted) {
		t.Fatal("fatal errors must not be reported as exhaustion")
	}
	if second.calls != 0 {
		t.Fatal("fatal error must not advance the chain")
	}
}

func TestExhaustionSurfacesProviderError(t *testing.T) {
	first := &stubStock{name: "unsplash", errs: []error{transient("503"), transient("503")}}
	second := &stubStock{name: "pexels", errs: []error{transient("503"), transient("503")}}
	g := newTestGateway(WithStockProviders(first, second))

	_, err := g.SearchStock(context.Background(), "gophers", 1)
	var provErr *services.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if provErr.Capability != string(CapabilityStockImage) {
		t.Fatalf("wrong capability: %q", provErr.Capability)
	}
	if len(provErr.Attempted) != 2 || provErr.Attempted[0] != "unsplash" || provErr.Attempted[1] != "pexels" {
		t.Fatalf("wrong attempt record: %v", provErr.Attempted)
	}
}

func TestEmptyChainFailsImmediately(t *testing.T) {
	g := newTestGateway()
	_, err := g.SearchStock(context.Background(), "gophers", 1)
	if !errors.Is(err, services.ErrProviderExhausted) {
		t.Fatalf("expected exhaustion for empty chain, got %v", err)
	}
}

func TestCountersRecordAttempts(t *testing.T) {
	first := &stubStock{name: "unsplash", errs: []error{transient("503"), transient("503")}}
	second := &stubStock{name: "pexels", results: []document.StockImageCandidate{{ID: "b"}}}
	g := newTestGateway(WithStockProviders(first, second))

	if _, err := g.SearchStock(context.Background(), "gophers", 1); err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := g.Counters().Calls(CapabilityStockImage); got != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", got)
	}
	if got := g.Counters().ProviderCalls("unsplash"); got != 2 {
		t.Fatalf("expected 2 unsplash attempts, got %d", got)
	}
}

func TestCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := &stubStock{name: "unsplash", errs: []error{transient("503")}}
	g := newTestGateway(WithStockProviders(first))

	_, err := g.SearchStock(ctx, "gophers", 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if first.calls != 0 {
		t.Fatal("cancelled context must not reach providers")
	}
}

func TestBackoffDelayDoubles(t *testing.T) {
	g := New(WithRetryPolicy(5, 100*time.Millisecond, time.Second))
	if d := g.backoffDelay(1); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := g.backoffDelay(2); d != 200*time.Millisecond {
		t.Fatalf("attempt 2: %v", d)
	}
	if d := g.backoffDelay(10); d != time.Second {
		t.Fatalf("attempt 10 should cap at max: %v", d)
	}
}
