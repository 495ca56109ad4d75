package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"vidgen/internal/artifacts"
	"vidgen/internal/config"
	"vidgen/internal/document"
	"vidgen/internal/gateway"
	"vidgen/internal/outline"
	"vidgen/internal/script"
	"vidgen/internal/segment"
	"vidgen/internal/testsupport"
)

type fixedParser struct {
	doc   *document.Document
	calls int
}

func (p *fixedParser) Parse(ctx context.Context, path string) (*document.Document, error) {
	p.calls++
	return p.doc, nil
}

type fixedExtractor struct {
	images []document.ExtractedImage
}

func (e *fixedExtractor) Extract(ctx context.Context, path string, doc *document.Document) ([]document.ExtractedImage, error) {
	return e.images, nil
}

type fixedRenderer struct {
	calls int
}

func (r *fixedRenderer) Render(ctx context.Context, doc *document.Document, o *outline.Outline, s *outline.Script) (string, error) {
	r.calls++
	return "/videos/out.mp4", nil
}

type scriptedReasoning struct {
	mu       sync.Mutex
	delay    time.Duration
	fail     error
	onCall   func()
	proposal []gateway.ProposalGroup
}

func (r *scriptedReasoning) Name() string { return "stub-reasoning" }

func (r *scriptedReasoning) ProposeSegmentation(ctx context.Context, req gateway.ProposalRequest) ([]gateway.ProposalGroup, error) {
	r.mu.Lock()
	onCall := r.onCall
	r.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.fail != nil {
		return nil, r.fail
	}
	return r.proposal, nil
}

func (r *scriptedReasoning) GenerateNarration(ctx context.Context, req gateway.NarrationRequest) (string, error) {
	if r.fail != nil {
		return "", r.fail
	}
	return fmt.Sprintf("Narration for %s.", req.SegmentTitle), nil
}

type scriptedVoice struct {
	failText string
}

func (v *scriptedVoice) Name() string { return "stub-voice" }

func (v *scriptedVoice) Synthesize(ctx context.Context, req gateway.VoiceRequest) (gateway.VoiceResult, error) {
	if v.failText != "" && req.Text == v.failText {
		return gateway.VoiceResult{}, errors.New("voice rejected text")
	}
	return gateway.VoiceResult{Audio: []byte("mp3"), Duration: 3.5}, nil
}

type harness struct {
	orchestrator *Orchestrator
	gw           *gateway.Gateway
	store        *artifacts.Store
	cfg          *config.Config
	renderer     *fixedRenderer
	parser       *fixedParser
	reasoning    *scriptedReasoning
	voice        *scriptedVoice
	source       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	doc := &document.Document{ID: "doc-1", Title: "Deep Ocean Currents", PageCount: 12}
	for i := 0; i < 6; i++ {
		doc.Sections = append(doc.Sections, document.Section{
			Title:     fmt.Sprintf("chapter %d", i+1),
			Text:      fmt.Sprintf("body of chapter %d", i+1),
			PageStart: i*2 + 1,
			PageEnd:   i*2 + 2,
		})
		doc.Text += doc.Sections[i].Text + "\n"
	}

	proposal := make([]gateway.ProposalGroup, 0, 6)
	for i := 0; i < 6; i++ {
		proposal = append(proposal, gateway.ProposalGroup{
			Title:          fmt.Sprintf("Part %d", i+1),
			SectionIndices: []int{i},
			Keywords:       []string{"ocean"},
		})
	}

	reasoning := &scriptedReasoning{proposal: proposal}
	voice := &scriptedVoice{}
	gw := gateway.New(
		gateway.WithReasoningProviders(reasoning),
		gateway.WithVoiceProviders(voice),
		gateway.WithRetryPolicy(1, 0, 0),
	)

	renderer := &fixedRenderer{}
	parser := &fixedParser{doc: doc}

	orchestrator, err := New(Deps{
		Store:     store,
		Parser:    parser,
		Extractor: &fixedExtractor{},
		Segmenter: segment.New(gw, nil),
		Scripter:  script.New(gw, cfg.Paths.OutputDir, nil),
		Renderer:  renderer,
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	source := testsupport.WriteSource(t, t.TempDir(), "input.pdf", "pdf bytes")

	return &harness{
		orchestrator: orchestrator,
		gw:           gw,
		store:        store,
		cfg:          cfg,
		renderer:     renderer,
		parser:       parser,
		reasoning:    reasoning,
		voice:        voice,
		source:       source,
	}
}

func TestRunColdThenWarm(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	if phase, failed := report.Failed(); failed {
		t.Fatalf("cold run failed at %s", phase)
	}
	if report.OutputPath == "" {
		t.Fatal("cold run produced no output path")
	}
	if h.gw.Counters().Total() == 0 {
		t.Fatal("cold run should issue provider calls")
	}

	h.gw.Counters().Reset()
	warm, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if calls := h.gw.Counters().Total(); calls != 0 {
		t.Fatalf("warm run issued %d provider calls, want 0", calls)
	}
	for _, outcome := range warm.Phases {
		if outcome.Status != StatusHit {
			t.Fatalf("warm run phase %s status %s, want hit", outcome.Phase, outcome.Status)
		}
	}
	if warm.OutputPath != report.OutputPath {
		t.Fatalf("warm output %q differs from cold %q", warm.OutputPath, report.OutputPath)
	}
}

func TestRunConcurrentSharedFingerprint(t *testing.T) {
	h := newHarness(t)
	h.reasoning.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	reports := make([]*RunReport, 2)
	runErrs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], runErrs[i] = h.orchestrator.Run(context.Background(), h.source)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		if runErrs[i] != nil {
			t.Fatalf("run %d: %v", i, runErrs[i])
		}
	}
	// One segmentation proposal total: the second caller joined the first
	// in-flight execution or hit the published artifact.
	if calls := h.gw.Counters().ProviderCalls("stub-reasoning"); calls != 7 {
		// 1 proposal + 6 narrations when work is shared.
		t.Fatalf("reasoning called %d times, want 7", calls)
	}
	if reports[0].OutputPath != reports[1].OutputPath {
		t.Fatal("concurrent callers received different results")
	}
}

func TestRunFailedPhasePublishesNothing(t *testing.T) {
	h := newHarness(t)
	h.reasoning.fail = errors.New("bad credentials")
	ctx := context.Background()

	report, err := h.orchestrator.Run(ctx, h.source)
	if err == nil {
		t.Fatal("expected run failure")
	}
	phase, failed := report.Failed()
	if !failed || phase != PhaseSegmented {
		t.Fatalf("expected segmented failure, got %v (failed=%v)", phase, failed)
	}

	var fp string
	for _, outcome := range report.Phases {
		if outcome.Phase == PhaseSegmented {
			fp = outcome.Fingerprint
		}
	}
	if _, found, err := h.store.Lookup(ctx, string(PhaseSegmented), fp); err != nil || found {
		t.Fatalf("failed phase must not publish an artifact (found=%v, err=%v)", found, err)
	}

	// The phase is a pure function of its inputs: clearing the fault and
	// re-running recomputes from scratch.
	h.reasoning.fail = nil
	retry, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if phase, failed := retry.Failed(); failed {
		t.Fatalf("retry failed at %s", phase)
	}
}

func TestRunPartialScriptSkipsRender(t *testing.T) {
	h := newHarness(t)
	h.voice.failText = "Narration for Part 2."
	ctx := context.Background()

	report, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.FailedSegments) != 1 || report.FailedSegments[0] != 1 {
		t.Fatalf("expected segment 1 reported failed, got %v", report.FailedSegments)
	}
	if h.renderer.calls != 0 {
		t.Fatal("render must not run on a partial script")
	}

	last := report.Phases[len(report.Phases)-1]
	if last.Phase != PhaseRendered || last.Status != StatusSkipped {
		t.Fatalf("expected rendered skipped, got %s %s", last.Phase, last.Status)
	}
}

func TestRunPartialScriptHealsOnRerun(t *testing.T) {
	h := newHarness(t)
	h.voice.failText = "Narration for Part 2."
	ctx := context.Background()

	report, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(report.FailedSegments) != 1 || report.FailedSegments[0] != 1 {
		t.Fatalf("expected segment 1 reported failed, got %v", report.FailedSegments)
	}

	// Voice chain recovers; the cached partial script must seed a retry of
	// only the failed segment, not short-circuit as a hit.
	h.voice.failText = ""
	h.gw.Counters().Reset()
	healed, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("heal run: %v", err)
	}
	if len(healed.FailedSegments) != 0 {
		t.Fatalf("heal run still reports failures: %v", healed.FailedSegments)
	}
	if healed.OutputPath == "" {
		t.Fatal("heal run produced no output path")
	}
	if h.renderer.calls != 1 {
		t.Fatalf("renderer called %d times, want 1", h.renderer.calls)
	}
	if calls := h.gw.Counters().ProviderCalls("stub-voice"); calls != 1 {
		t.Fatalf("heal run made %d voice calls, want 1 for the failed segment", calls)
	}
	if calls := h.gw.Counters().ProviderCalls("stub-reasoning"); calls != 1 {
		t.Fatalf("heal run made %d narration calls, want 1 for the failed segment", calls)
	}
	var scripted PhaseOutcome
	for _, outcome := range healed.Phases {
		if outcome.Phase == PhaseScripted {
			scripted = outcome
		}
	}
	if scripted.Status != StatusExecuted {
		t.Fatalf("scripted status %s, want executed", scripted.Status)
	}

	// Now complete, the script is served from cache.
	h.gw.Counters().Reset()
	warm, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if calls := h.gw.Counters().Total(); calls != 0 {
		t.Fatalf("warm run issued %d provider calls, want 0", calls)
	}
	if len(warm.FailedSegments) != 0 {
		t.Fatalf("warm run reports failures: %v", warm.FailedSegments)
	}
}

func TestRunWarmAfterKeyRotation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.orchestrator.Run(ctx, h.source); err != nil {
		t.Fatalf("cold run: %v", err)
	}

	// Rotating credentials changes no output; the cache must survive it.
	h.cfg.Voice.ElevenKey = "rotated-secret"
	h.cfg.Reasoning.APIKey = "rotated-secret"
	h.cfg.ImageGeneration.APIKey = "rotated-secret"
	rotated, err := New(Deps{
		Store:     h.store,
		Parser:    h.parser,
		Extractor: &fixedExtractor{},
		Segmenter: segment.New(h.gw, nil),
		Scripter:  script.New(h.gw, h.cfg.Paths.OutputDir, nil),
		Renderer:  h.renderer,
		Config:    h.cfg,
	})
	if err != nil {
		t.Fatalf("New after rotation: %v", err)
	}

	h.gw.Counters().Reset()
	warm, err := rotated.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if calls := h.gw.Counters().Total(); calls != 0 {
		t.Fatalf("warm run after key rotation issued %d provider calls, want 0", calls)
	}
	for _, outcome := range warm.Phases {
		if outcome.Status != StatusHit {
			t.Fatalf("phase %s status %s after key rotation, want hit", outcome.Phase, outcome.Status)
		}
	}
}

func TestRunCancellationHonoredAtBoundary(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.reasoning.onCall = func() { cancel() }

	report, err := h.orchestrator.Run(ctx, h.source)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	// The in-flight segmentation phase ran to completion and published.
	var segmented, scripted PhaseOutcome
	for _, outcome := range report.Phases {
		switch outcome.Phase {
		case PhaseSegmented:
			segmented = outcome
		case PhaseScripted:
			scripted = outcome
		}
	}
	if segmented.Status != StatusExecuted {
		t.Fatalf("segmented status %s, want executed", segmented.Status)
	}
	if scripted.Status != StatusSkipped {
		t.Fatalf("scripted status %s, want skipped", scripted.Status)
	}
	if _, found, err := h.store.Lookup(context.Background(), string(PhaseSegmented), segmented.Fingerprint); err != nil || !found {
		t.Fatalf("completed phase should have published (found=%v, err=%v)", found, err)
	}
}

func TestRunCorruptArtifactRecomputes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	report, err := h.orchestrator.Run(ctx, h.source)
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	var fp string
	for _, outcome := range report.Phases {
		if outcome.Phase == PhaseSegmented {
			fp = outcome.Fingerprint
		}
	}
	artifact, found, err := h.store.Lookup(ctx, string(PhaseSegmented), fp)
	if err != nil || !found {
		t.Fatalf("expected segmented artifact (found=%v, err=%v)", found, err)
	}
	if err := os.WriteFile(artifact.PayloadPath, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("tamper artifact: %v", err)
	}

	h.gw.Counters().Reset()
	if _, err := h.orchestrator.Run(ctx, h.source); err != nil {
		t.Fatalf("run after corruption: %v", err)
	}
	if calls := h.gw.Counters().ProviderCalls("stub-reasoning"); calls == 0 {
		t.Fatal("corrupt artifact should force recomputation")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSegmentBounds(8, 3))
	store := testsupport.MustOpenStore(t, cfg)

	_, err := New(Deps{
		Store:     store,
		Parser:    &fixedParser{},
		Segmenter: segment.New(nil, nil),
		Scripter:  script.New(nil, "", nil),
		Config:    cfg,
	})
	if err == nil {
		t.Fatal("expected configuration rejection before any phase")
	}
}

func TestFlightGroupSharesExecution(t *testing.T) {
	group := newFlightGroup()
	var executions int
	var mu sync.Mutex
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, _, err := group.do("key", func() (any, error) {
				mu.Lock()
				executions++
				mu.Unlock()
				<-release
				return "result", nil
			})
			if err != nil {
				t.Errorf("do: %v", err)
			}
			results[i] = value
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if executions != 1 {
		t.Fatalf("expected exactly one execution, got %d", executions)
	}
	for i, result := range results {
		if result != "result" {
			t.Fatalf("caller %d got %v", i, result)
		}
	}
}
