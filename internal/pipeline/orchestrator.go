package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"vidgen/internal/artifacts"
	"vidgen/internal/config"
	"vidgen/internal/document"
	"vidgen/internal/fingerprint"
	"vidgen/internal/logging"
	"vidgen/internal/outline"
	"vidgen/internal/script"
	"vidgen/internal/segment"
	"vidgen/internal/services"
)

// Schema versions for payloads owned by the orchestrator. The outline and
// script payloads carry outline.SchemaVersion.
const (
	documentSchemaVersion = 1
	imagesSchemaVersion   = 1
	renderSchemaVersion   = 1
)

// DocumentParser produces the structured document from a source file.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (*document.Document, error)
}

// ImageExtractor pulls labeled images out of the source file.
type ImageExtractor interface {
	Extract(ctx context.Context, path string, doc *document.Document) ([]document.ExtractedImage, error)
}

// Segmenter turns a document plus images into an outline.
type Segmenter interface {
	Segment(ctx context.Context, doc *document.Document, images []document.ExtractedImage, cfg *config.Config) (*outline.Outline, error)
}

// Scripter expands an outline into narration and audio.
type Scripter interface {
	Synthesize(ctx context.Context, doc *document.Document, images []document.ExtractedImage, o *outline.Outline, prior []outline.ScriptEntry, cfg *config.Config) (*script.Result, error)
}

// Renderer composes the final video. Out of scope for this module; a nil
// renderer ends the run after scripting.
type Renderer interface {
	Render(ctx context.Context, doc *document.Document, o *outline.Outline, s *outline.Script) (string, error)
}

// RenderRecord is the persisted output of the render phase.
type RenderRecord struct {
	VideoPath string `json:"video_path"`
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Store     *artifacts.Store
	Parser    DocumentParser
	Extractor ImageExtractor
	Segmenter Segmenter
	Scripter  Scripter
	Renderer  Renderer
	Config    *config.Config
	Logger    *slog.Logger
}

// Orchestrator drives pipeline runs.
type Orchestrator struct {
	store     *artifacts.Store
	parser    DocumentParser
	extractor ImageExtractor
	segmenter Segmenter
	scripter  Scripter
	renderer  Renderer
	cfg       *config.Config
	flight    *flightGroup
	logger    *slog.Logger
}

// New validates configuration and assembles an orchestrator. Configuration
// problems surface here, before any phase can execute.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: artifact store required")
	case deps.Parser == nil:
		return nil, errors.New("pipeline: document parser required")
	case deps.Segmenter == nil:
		return nil, errors.New("pipeline: segmenter required")
	case deps.Scripter == nil:
		return nil, errors.New("pipeline: scripter required")
	case deps.Config == nil:
		return nil, errors.New("pipeline: config required")
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		store:     deps.Store,
		parser:    deps.Parser,
		extractor: deps.Extractor,
		segmenter: deps.Segmenter,
		scripter:  deps.Scripter,
		renderer:  deps.Renderer,
		cfg:       deps.Config,
		flight:    newFlightGroup(),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes the pipeline for one source file. The returned report lists
// every phase outcome even when the run fails partway.
func (o *Orchestrator) Run(ctx context.Context, path string) (*RunReport, error) {
	report := &RunReport{}

	sourceHash, err := hashFile(path)
	if err != nil {
		return report, fmt.Errorf("pipeline: read source: %w", err)
	}

	// Parsed
	fpParsed, err := fingerprint.Hash(sourceHash)
	if err != nil {
		return report, err
	}
	doc, err := executePhase[*document.Document](ctx, o, report, PhaseParsed, fpParsed, documentSchemaVersion, nil,
		func(ctx context.Context) (*document.Document, error) {
			return o.parser.Parse(ctx, path)
		})
	if err != nil {
		return report, err
	}
	report.DocumentID = doc.ID

	// ImagesExtracted
	fpImages, err := fingerprint.Hash(sourceHash, fpParsed)
	if err != nil {
		return report, err
	}
	images, err := executePhase[[]document.ExtractedImage](ctx, o, report, PhaseImagesExtracted, fpImages, imagesSchemaVersion, nil,
		func(ctx context.Context) ([]document.ExtractedImage, error) {
			if o.extractor == nil {
				return nil, nil
			}
			return o.extractor.Extract(ctx, path, doc)
		})
	if err != nil {
		return report, err
	}

	// Segmented
	fpSegmented, err := segment.Fingerprint(doc, images, o.cfg)
	if err != nil {
		return report, err
	}
	plan, err := executePhase[*outline.Outline](ctx, o, report, PhaseSegmented, fpSegmented, outline.SchemaVersion, nil,
		func(ctx context.Context) (*outline.Outline, error) {
			return o.segmenter.Segment(ctx, doc, images, o.cfg)
		})
	if err != nil {
		return report, err
	}

	// Scripted. The fingerprint covers the voice parameters that shape the
	// audio, never the API keys: rotating a credential changes nothing about
	// the output, and secrets must not feed a persisted hash.
	fpScripted, err := fingerprint.Hash(fpSegmented,
		o.cfg.Voice.ProviderOrder,
		o.cfg.Voice.VoiceID,
		o.cfg.Voice.Stability,
		o.cfg.Voice.Similarity,
		o.cfg.Voice.Language,
		o.cfg.Reasoning.Model,
	)
	if err != nil {
		return report, err
	}
	// A cached partial script is a resume point, not a hit: its surviving
	// entries seed the coordinator so only the failed segments are bought
	// again once the voice chain recovers.
	var priorEntries []outline.ScriptEntry
	if cached, ok := loadCached[*outline.Script](ctx, o, PhaseScripted, fpScripted, outline.SchemaVersion); ok && len(cached.FailedIndices) > 0 {
		priorEntries = cached.Entries
	}
	scriptArtifact, err := executePhase[*outline.Script](ctx, o, report, PhaseScripted, fpScripted, outline.SchemaVersion, scriptIncomplete,
		func(ctx context.Context) (*outline.Script, error) {
			result, synthErr := o.scripter.Synthesize(ctx, doc, images, plan, priorEntries, o.cfg)
			if synthErr != nil {
				return nil, synthErr
			}
			return &outline.Script{
				DocumentID:    doc.ID,
				Fingerprint:   fpScripted,
				SchemaVersion: outline.SchemaVersion,
				Entries:       result.Entries,
				FailedIndices: result.Failed,
			}, nil
		})
	if err != nil {
		return report, err
	}
	report.FailedSegments = scriptArtifact.FailedIndices

	// Rendered
	if o.renderer == nil {
		report.record(PhaseOutcome{Phase: PhaseRendered, Status: StatusSkipped, Error: "no renderer configured"})
		return report, nil
	}
	if len(scriptArtifact.FailedIndices) > 0 {
		o.logger.Warn("render withheld, script is partial",
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.Any("failed_segments", scriptArtifact.FailedIndices))
		report.record(PhaseOutcome{Phase: PhaseRendered, Status: StatusSkipped, Error: "script has failed segments"})
		return report, nil
	}
	fpRendered, err := fingerprint.Hash(fpScripted,
		o.cfg.ImageGeneration.Enabled,
		o.cfg.ImageGeneration.Model,
		o.cfg.ImageGeneration.Size,
		o.cfg.ImageGeneration.Quality,
	)
	if err != nil {
		return report, err
	}
	rendered, err := executePhase[*RenderRecord](ctx, o, report, PhaseRendered, fpRendered, renderSchemaVersion, nil,
		func(ctx context.Context) (*RenderRecord, error) {
			videoPath, renderErr := o.renderer.Render(ctx, doc, plan, scriptArtifact)
			if renderErr != nil {
				return nil, renderErr
			}
			return &RenderRecord{VideoPath: videoPath}, nil
		})
	if err != nil {
		return report, err
	}
	report.OutputPath = rendered.VideoPath
	return report, nil
}

// scriptIncomplete marks a cached script with failed segments as stale so the
// scripted phase re-executes instead of serving it.
func scriptIncomplete(s *outline.Script) bool {
	return s != nil && len(s.FailedIndices) > 0
}

// executePhase applies the shared phase discipline: cancellation check at the
// boundary, cache lookup, single-flight execution under a per-fingerprint
// lease, atomic publication, and report bookkeeping. A started phase runs on
// a detached context so cancellation never interrupts it mid-flight. A cached
// artifact the stale predicate rejects is deleted and recomputed; the store is
// append-only per fingerprint, so replacement requires the delete.
func executePhase[T any](ctx context.Context, o *Orchestrator, report *RunReport, phase Phase, fp string, schemaVersion int, stale func(T) bool, exec func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		report.record(PhaseOutcome{Phase: phase, Status: StatusSkipped, Fingerprint: fp, Error: err.Error()})
		return zero, err
	}
	start := time.Now()

	if value, ok := loadCached[T](ctx, o, phase, fp, schemaVersion); ok {
		if stale == nil || !stale(value) {
			report.record(PhaseOutcome{Phase: phase, Status: StatusHit, Fingerprint: fp, Elapsed: time.Since(start)})
			return value, nil
		}
		_ = o.store.Delete(ctx, string(phase), fp)
	}

	key := string(phase) + ":" + fp
	detached := context.WithoutCancel(ctx)
	value, shared, err := o.flight.do(key, func() (any, error) {
		return o.executeLocked(detached, phase, fp, schemaVersion, func(ctx context.Context) (any, error) {
			return exec(ctx)
		}, func(ctx context.Context) (any, bool) {
			cached, ok := loadCached[T](ctx, o, phase, fp, schemaVersion)
			if ok && stale != nil && stale(cached) {
				_ = o.store.Delete(ctx, string(phase), fp)
				return nil, false
			}
			return cached, ok
		})
	})
	if err != nil {
		report.record(PhaseOutcome{Phase: phase, Status: StatusFailed, Fingerprint: fp, Error: err.Error(), Elapsed: time.Since(start)})
		return zero, fmt.Errorf("phase %s: %w", phase, err)
	}

	status := StatusExecuted
	if shared {
		status = StatusHit
	}
	report.record(PhaseOutcome{Phase: phase, Status: status, Fingerprint: fp, Elapsed: time.Since(start)})
	return value.(T), nil
}

// executeLocked runs one phase body under the artifact store's cross-process
// lease, re-checking the cache once the lease is held.
func (o *Orchestrator) executeLocked(ctx context.Context, phase Phase, fp string, schemaVersion int, exec func(context.Context) (any, error), recheck func(context.Context) (any, bool)) (any, error) {
	lease, err := o.store.AcquireLease(ctx, string(phase), fp)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	// Another process may have published while we waited on the lease.
	if value, ok := recheck(ctx); ok {
		return value, nil
	}

	value, err := exec(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := o.store.WriteJSON(ctx, string(phase), fp, schemaVersion, value); err != nil {
		return nil, err
	}
	o.logger.Info("phase executed",
		logging.String(logging.FieldPhase, string(phase)),
		logging.String(logging.FieldFingerprint, fingerprint.Short(fp)))
	return value, nil
}

// loadCached returns a decoded artifact when a healthy one exists. Corrupt
// artifacts are deleted and treated as misses.
func loadCached[T any](ctx context.Context, o *Orchestrator, phase Phase, fp string, schemaVersion int) (T, bool) {
	var value T
	_, found, err := o.store.Lookup(ctx, string(phase), fp)
	if err != nil || !found {
		return value, false
	}
	if err := o.store.ReadJSON(ctx, string(phase), fp, schemaVersion, &value); err != nil {
		if errors.Is(err, services.ErrCacheCorruption) {
			o.logger.Warn("corrupt artifact discarded",
				logging.String(logging.FieldPhase, string(phase)),
				logging.String(logging.FieldFingerprint, fingerprint.Short(fp)),
				logging.Error(err))
			_ = o.store.Delete(ctx, string(phase), fp)
		}
		var zero T
		return zero, false
	}
	return value, true
}

func hashFile(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
