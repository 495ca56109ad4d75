// Package script expands an outline into narration text and synthesized
// audio, one entry per segment. Provider failures are contained per segment:
// a segment whose voice chain is exhausted is reported as failed without
// discarding siblings that already completed.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vidgen/internal/config"
	"vidgen/internal/document"
	"vidgen/internal/gateway"
	"vidgen/internal/logging"
	"vidgen/internal/outline"
)

// Synthesizer is the slice of the provider gateway the coordinator consumes.
type Synthesizer interface {
	GenerateNarration(ctx context.Context, req gateway.NarrationRequest) (string, error)
	SynthesizeVoice(ctx context.Context, req gateway.VoiceRequest) (gateway.VoiceResult, string, error)
}

// Result carries the per-segment entries that completed plus the indices that
// exhausted their provider chains.
type Result struct {
	Entries []outline.ScriptEntry
	Failed  []int
}

// Coordinator drives narration and voice synthesis for an outline.
type Coordinator struct {
	synth    Synthesizer
	audioDir string
	logger   *slog.Logger
}

// New constructs a coordinator that writes audio files under audioDir.
func New(synth Synthesizer, audioDir string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		synth:    synth,
		audioDir: audioDir,
		logger:   logging.NewComponentLogger(logger, "script"),
	}
}

// Synthesize produces one ScriptEntry per segment in index order. Entries for
// failed segments are omitted and their indices recorded; the caller decides
// whether a partial script is worth keeping. Entries carried in prior, from an
// earlier partial pass over the same outline, are reused verbatim so only the
// segments that failed before are synthesized again.
func (c *Coordinator) Synthesize(ctx context.Context, doc *document.Document, images []document.ExtractedImage, o *outline.Outline, prior []outline.ScriptEntry, cfg *config.Config) (*Result, error) {
	if len(o.Segments) == 0 {
		return nil, errors.New("script: outline has no segments")
	}
	if c.audioDir != "" {
		if err := os.MkdirAll(c.audioDir, 0o755); err != nil {
			return nil, fmt.Errorf("script: create audio dir: %w", err)
		}
	}

	carried := make(map[int]outline.ScriptEntry, len(prior))
	for _, entry := range prior {
		if entry.SegmentIndex >= 0 && entry.SegmentIndex < len(o.Segments) {
			carried[entry.SegmentIndex] = entry
		}
	}

	labels := labelIndex(images)
	result := &Result{}
	for i := range o.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry, ok := carried[i]; ok {
			result.Entries = append(result.Entries, entry)
			continue
		}
		entry, err := c.synthesizeSegment(ctx, doc, labels, o, i, cfg)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			c.logger.Warn("segment failed, continuing with siblings",
				logging.String(logging.FieldDocumentID, doc.ID),
				logging.Int("segment", i),
				logging.Error(err))
			result.Failed = append(result.Failed, i)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func (c *Coordinator) synthesizeSegment(ctx context.Context, doc *document.Document, labels map[string]string, o *outline.Outline, index int, cfg *config.Config) (outline.ScriptEntry, error) {
	seg := &o.Segments[index]

	narration := seg.Narration
	if strings.TrimSpace(narration) == "" {
		text, err := c.synth.GenerateNarration(ctx, gateway.NarrationRequest{
			VideoTitle:     o.Title,
			SegmentTitle:   seg.Title,
			SegmentNumber:  index + 1,
			TotalSegments:  len(o.Segments),
			SectionText:    sectionText(doc, seg),
			KeyPoints:      seg.KeyPoints,
			VisualLabels:   visualLabels(seg, labels),
			TargetDuration: seg.TargetDuration,
		})
		if err != nil {
			return outline.ScriptEntry{}, err
		}
		narration = strings.TrimSpace(text)
		if narration == "" {
			return outline.ScriptEntry{}, fmt.Errorf("segment %d: empty narration", index)
		}
	}

	voice, provider, err := c.synth.SynthesizeVoice(ctx, gateway.VoiceRequest{
		Text:       narration,
		VoiceID:    cfg.Voice.VoiceID,
		Stability:  cfg.Voice.Stability,
		Similarity: cfg.Voice.Similarity,
		Language:   cfg.Voice.Language,
	})
	if err != nil {
		return outline.ScriptEntry{}, err
	}

	audioRef, err := c.persistAudio(doc.ID, index, voice.Audio)
	if err != nil {
		return outline.ScriptEntry{}, err
	}

	return outline.ScriptEntry{
		SegmentIndex: index,
		Narration:    narration,
		WordCount:    len(strings.Fields(narration)),
		AudioRef:     audioRef,
		Duration:     voice.Duration,
		Provider:     provider,
	}, nil
}

// persistAudio writes the synthesized bytes next to the other run outputs and
// returns the reference recorded in the script artifact.
func (c *Coordinator) persistAudio(documentID string, index int, audio []byte) (string, error) {
	if c.audioDir == "" {
		return fmt.Sprintf("inline:%d-bytes", len(audio)), nil
	}
	name := fmt.Sprintf("%s-segment-%03d.mp3", documentID, index)
	path := filepath.Join(c.audioDir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("script: write audio %q: %w", path, err)
	}
	return path, nil
}

// sectionText joins the source text of the segment's sections. Catch-all
// segments with no section indices fall back to the whole document text.
func sectionText(doc *document.Document, seg *outline.Segment) string {
	if len(seg.SectionIndices) == 0 {
		return doc.Text
	}
	parts := make([]string, 0, len(seg.SectionIndices))
	for _, idx := range seg.SectionIndices {
		if idx >= 0 && idx < len(doc.Sections) {
			parts = append(parts, doc.Sections[idx].Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func visualLabels(seg *outline.Segment, labels map[string]string) []string {
	var out []string
	for _, v := range seg.Visuals {
		if v.Kind != outline.VisualDocumentImage {
			continue
		}
		if label, ok := labels[v.SourceID]; ok && label != "" {
			out = append(out, label)
		}
	}
	return out
}

func labelIndex(images []document.ExtractedImage) map[string]string {
	labels := make(map[string]string, len(images))
	for _, img := range images {
		labels[img.ID] = img.Label
	}
	return labels
}
