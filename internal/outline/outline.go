// Package outline defines the narrative outline and script artifacts owned by
// the segmentation engine and script coordinator.
package outline

import "fmt"

// SchemaVersion is stamped on persisted outline artifacts so readers can
// reject payloads written by an incompatible build.
const SchemaVersion = 2

// VisualKind is the closed set of visual provenance tags.
type VisualKind string

const (
	VisualDocumentImage        VisualKind = "document-image"
	VisualStockImage           VisualKind = "stock-image"
	VisualGeneratedPlaceholder VisualKind = "generated-placeholder"
)

// Valid reports whether the kind is one of the closed variants.
func (k VisualKind) Valid() bool {
	switch k {
	case VisualDocumentImage, VisualStockImage, VisualGeneratedPlaceholder:
		return true
	}
	return false
}

// Style is the closed set of rendering styles a segment can be tagged with.
type Style string

const (
	StyleSlideshow   Style = "slideshow"
	StyleAnimated    Style = "animated"
	StyleAIGenerated Style = "ai_generated"
)

// VisualAssignment binds a segment to one visual asset and its provenance.
type VisualAssignment struct {
	Kind     VisualKind `json:"kind"`
	SourceID string     `json:"source_id"`
	Score    float64    `json:"score"`
	Rank     int        `json:"rank"`
}

// Segment is one narrative unit of the eventual video.
type Segment struct {
	Index          int                `json:"index"`
	Title          string             `json:"title"`
	PageStart      int                `json:"page_start"`
	PageEnd        int                `json:"page_end"`
	SectionIndices []int              `json:"section_indices"`
	Keywords       []string           `json:"keywords"`
	KeyPoints      []string           `json:"key_points,omitempty"`
	Narration      string             `json:"narration,omitempty"`
	Visuals        []VisualAssignment `json:"visuals"`
	Style          Style              `json:"style,omitempty"`
	TargetDuration int                `json:"target_duration"`
}

// Outline is the ordered segment sequence produced by the segmentation
// engine. Immutable once persisted; re-segmentation under a different
// fingerprint supersedes it rather than mutating it.
type Outline struct {
	DocumentID    string    `json:"document_id"`
	Title         string    `json:"title"`
	Fingerprint   string    `json:"fingerprint"`
	SchemaVersion int       `json:"schema_version"`
	Segments      []Segment `json:"segments"`
}

// ScriptEntry is the narration text plus synthesized audio for one segment.
type ScriptEntry struct {
	SegmentIndex int     `json:"segment_index"`
	Narration    string  `json:"narration"`
	WordCount    int     `json:"word_count"`
	AudioRef     string  `json:"audio_ref"`
	Duration     float64 `json:"duration_seconds"`
	Provider     string  `json:"provider"`
}

// Script is the persisted script artifact for a document run.
type Script struct {
	DocumentID    string        `json:"document_id"`
	Fingerprint   string        `json:"fingerprint"`
	SchemaVersion int           `json:"schema_version"`
	Entries       []ScriptEntry `json:"entries"`
	FailedIndices []int         `json:"failed_indices,omitempty"`
}

// CheckInvariants verifies the ordering and exclusivity guarantees every
// completed outline must satisfy: indices dense from zero, page ranges
// monotonically non-decreasing and non-overlapping, at least one visual per
// segment, and no document image claimed twice.
func (o *Outline) CheckInvariants() error {
	claimed := make(map[string]int)
	prevEnd := 0
	for i, seg := range o.Segments {
		if seg.Index != i {
			return fmt.Errorf("segment %d carries index %d", i, seg.Index)
		}
		if seg.PageStart < 1 || seg.PageEnd < seg.PageStart {
			return fmt.Errorf("segment %d has malformed page range %d..%d", i, seg.PageStart, seg.PageEnd)
		}
		if seg.PageStart < prevEnd {
			return fmt.Errorf("segment %d overlaps previous segment (starts %d, previous ended %d)", i, seg.PageStart, prevEnd)
		}
		prevEnd = seg.PageEnd
		if len(seg.Visuals) == 0 {
			return fmt.Errorf("segment %d has no visual assignment", i)
		}
		for _, v := range seg.Visuals {
			if !v.Kind.Valid() {
				return fmt.Errorf("segment %d carries unknown visual kind %q", i, v.Kind)
			}
			if v.Kind != VisualDocumentImage {
				continue
			}
			if owner, dup := claimed[v.SourceID]; dup {
				return fmt.Errorf("document image %q claimed by segments %d and %d", v.SourceID, owner, i)
			}
			claimed[v.SourceID] = i
		}
	}
	return nil
}
