package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidgen/internal/config"
	"vidgen/internal/document"
	"vidgen/internal/fingerprint"
	"vidgen/internal/gateway"
	"vidgen/internal/logging"
	"vidgen/internal/outline"
	"vidgen/internal/services"
)

// Planner is the slice of the provider gateway the engine consumes.
type Planner interface {
	ProposeSegmentation(ctx context.Context, req gateway.ProposalRequest) ([]gateway.ProposalGroup, error)
	SearchStock(ctx context.Context, query string, limit int) ([]document.StockImageCandidate, error)
}

// Engine produces outlines from documents.
type Engine struct {
	planner Planner
	logger  *slog.Logger
}

// New constructs an engine backed by the given planner.
func New(planner Planner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		planner: planner,
		logger:  logging.NewComponentLogger(logger, "segment"),
	}
}

// stockCandidateLimit bounds how many stock results one fallback query pulls.
const stockCandidateLimit = 3

// Fingerprint computes the cache key for an outline: document content, the
// extracted-image set, and the configuration subset that shapes segmentation.
// Knobs that cannot change a successful outline, like the proposal retry
// budget, stay out of the hash so tuning them never busts the cache.
func Fingerprint(doc *document.Document, images []document.ExtractedImage, cfg *config.Config) (string, error) {
	imageSet := make([]string, 0, len(images))
	for _, img := range images {
		imageSet = append(imageSet, img.ID+"\x00"+img.Label)
	}
	return fingerprint.Hash(
		doc.ID,
		doc.Text,
		doc.Sections,
		fingerprint.HashStrings(imageSet),
		cfg.Segmentation.MinSegments,
		cfg.Segmentation.MaxSegments,
		cfg.Segmentation.TargetSegmentDuration,
		cfg.MatchWeights,
	)
}

// Segment runs the full segmentation pass and returns a completed outline.
// The outline satisfies every structural invariant checked by
// outline.CheckInvariants before it is returned.
func (e *Engine) Segment(ctx context.Context, doc *document.Document, images []document.ExtractedImage, cfg *config.Config) (*outline.Outline, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := doc.ValidateImages(images); err != nil {
		return nil, err
	}

	fp, err := Fingerprint(doc, images, cfg)
	if err != nil {
		return nil, fmt.Errorf("segment fingerprint: %w", err)
	}

	var plans []plan
	if len(doc.Sections) == 0 {
		// No structure to partition: one catch-all segment, exempt from the
		// count bounds.
		plans = []plan{catchAll(doc)}
	} else {
		plans, err = e.plan(ctx, doc, cfg)
		if err != nil {
			return nil, err
		}
		plans = repair(plans, doc, cfg.Segmentation.MinSegments, cfg.Segmentation.MaxSegments)
	}

	segments := e.assemble(plans, cfg.Segmentation.TargetSegmentDuration)
	assignDocumentImages(segments, images, cfg.MatchWeights)
	if err := e.fillEmptySegments(ctx, segments, cfg); err != nil {
		return nil, err
	}
	for i := range segments {
		segments[i].Style = styleFor(segments[i].Visuals)
	}

	result := &outline.Outline{
		DocumentID:    doc.ID,
		Title:         doc.Title,
		Fingerprint:   fp,
		SchemaVersion: outline.SchemaVersion,
		Segments:      segments,
	}
	if err := result.CheckInvariants(); err != nil {
		return nil, services.Wrap(services.ErrSegmentation, "segment", "assemble", "outline failed invariant check", err)
	}

	e.logger.Info("outline produced",
		logging.String(logging.FieldDocumentID, doc.ID),
		logging.String(logging.FieldFingerprint, fingerprint.Short(fp)),
		logging.Int("segments", len(segments)))
	return result, nil
}

// plan obtains a structurally valid proposal within the retry budget.
func (e *Engine) plan(ctx context.Context, doc *document.Document, cfg *config.Config) ([]plan, error) {
	req := gateway.ProposalRequest{
		DocumentTitle:  doc.Title,
		Sections:       summarize(doc.Sections),
		MinSegments:    cfg.Segmentation.MinSegments,
		MaxSegments:    cfg.Segmentation.MaxSegments,
		TargetDuration: cfg.Segmentation.TargetSegmentDuration,
	}

	attempts := cfg.Segmentation.ProposalAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		groups, err := e.planner.ProposeSegmentation(ctx, req)
		if err != nil {
			// Chain exhaustion and cancellation are not structural problems;
			// retrying the proposal will not help.
			return nil, err
		}
		plans, validateErr := plansFromProposal(groups, doc)
		if validateErr == nil {
			return plans, nil
		}
		lastErr = validateErr
		e.logger.Warn("segmentation proposal rejected",
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.Int("attempt", attempt),
			logging.Error(validateErr))
	}
	return nil, services.Wrap(services.ErrSegmentation, "segment", "propose",
		fmt.Sprintf("no structurally valid proposal in %d attempts", attempts), lastErr)
}

// plansFromProposal converts a raw proposal into plans, rejecting anything
// that is not an in-order partition of the section list.
func plansFromProposal(groups []gateway.ProposalGroup, doc *document.Document) ([]plan, error) {
	if len(groups) == 0 {
		return nil, errors.New("proposal has no groups")
	}
	next := 0
	plans := make([]plan, 0, len(groups))
	for gi, group := range groups {
		if len(group.SectionIndices) == 0 {
			return nil, fmt.Errorf("group %d is empty", gi)
		}
		for _, idx := range group.SectionIndices {
			if idx != next {
				return nil, fmt.Errorf("group %d breaks document order: section %d where %d expected", gi, idx, next)
			}
			next++
		}
		p := planFromSections(doc, group.SectionIndices)
		p.title = strings.TrimSpace(group.Title)
		if p.title == "" {
			p.title = doc.Sections[group.SectionIndices[0]].Title
		}
		p.keywords = cleanTerms(group.Keywords)
		p.keyPoints = cleanTerms(group.KeyPoints)
		plans = append(plans, p)
	}
	if next != len(doc.Sections) {
		return nil, fmt.Errorf("proposal covers %d of %d sections", next, len(doc.Sections))
	}
	return plans, nil
}

// assemble converts final plans into ordered outline segments.
func (e *Engine) assemble(plans []plan, targetDuration int) []outline.Segment {
	segments := make([]outline.Segment, len(plans))
	for i, p := range plans {
		segments[i] = outline.Segment{
			Index:          i,
			Title:          p.title,
			PageStart:      p.pageStart,
			PageEnd:        p.pageEnd,
			SectionIndices: append([]int(nil), p.sectionIndices...),
			Keywords:       append([]string(nil), p.keywords...),
			KeyPoints:      append([]string(nil), p.keyPoints...),
			TargetDuration: targetDuration,
		}
	}
	return segments
}

// fillEmptySegments resolves segments the primary matching left without
// visuals: first a lazy stock lookup, then a generated placeholder.
func (e *Engine) fillEmptySegments(ctx context.Context, segments []outline.Segment, cfg *config.Config) error {
	for i := range segments {
		if len(segments[i].Visuals) > 0 {
			continue
		}
		if cfg.StockImages.Enabled {
			candidates, err := e.planner.SearchStock(ctx, stockQuery(&segments[i]), stockCandidateLimit)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				e.logger.Warn("stock fallback exhausted",
					logging.Int("segment", i),
					logging.Error(err))
			}
			for rank, candidate := range candidates {
				segments[i].Visuals = append(segments[i].Visuals, outline.VisualAssignment{
					Kind:     outline.VisualStockImage,
					SourceID: candidate.ID,
					Score:    candidate.Relevance,
					Rank:     rank,
				})
			}
		}
		if len(segments[i].Visuals) == 0 {
			segments[i].Visuals = []outline.VisualAssignment{{
				Kind:     outline.VisualGeneratedPlaceholder,
				SourceID: placeholderID(&segments[i]),
			}}
		}
	}
	return nil
}

// styleFor picks the rendering style from the segment's visual mix.
func styleFor(visuals []outline.VisualAssignment) outline.Style {
	hasStock := false
	for _, v := range visuals {
		switch v.Kind {
		case outline.VisualDocumentImage:
			return outline.StyleSlideshow
		case outline.VisualStockImage:
			hasStock = true
		case outline.VisualGeneratedPlaceholder:
		}
	}
	if hasStock {
		return outline.StyleAnimated
	}
	return outline.StyleAIGenerated
}

// stockQuery builds the keyword query for a segment's fallback lookup.
func stockQuery(seg *outline.Segment) string {
	keywords := seg.Keywords
	if len(keywords) > stockCandidateLimit {
		keywords = keywords[:stockCandidateLimit]
	}
	if len(keywords) > 0 {
		return strings.Join(keywords, " ")
	}
	return seg.Title
}

func placeholderID(seg *outline.Segment) string {
	return fmt.Sprintf("placeholder-%03d", seg.Index)
}

func summarize(sections []document.Section) []gateway.SectionSummary {
	summaries := make([]gateway.SectionSummary, len(sections))
	for i, sec := range sections {
		summaries[i] = gateway.SectionSummary{
			Index:     i,
			Title:     sec.Title,
			Level:     sec.Level,
			TextChars: len(sec.Text),
			PageStart: sec.PageStart,
			PageEnd:   sec.PageEnd,
		}
	}
	return summaries
}

func cleanTerms(terms []string) []string {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			cleaned = append(cleaned, term)
		}
	}
	return cleaned
}
