package gateway

import (
	"context"

	"vidgen/internal/document"
)

// Capability identifies one class of external service behind the gateway.
type Capability string

const (
	CapabilityReasoning       Capability = "reasoning"
	CapabilityStockImage      Capability = "stock-image"
	CapabilityVoice           Capability = "voice"
	CapabilityImageGeneration Capability = "image-generation"
)

// SectionSummary describes one document section for the segmentation prompt.
// Full text stays out; the reasoning service sees structure, not content.
type SectionSummary struct {
	Index     int    `json:"index"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	TextChars int    `json:"text_chars"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

// ProposalRequest asks the reasoning service for an ordered partition of the
// section tree into narrative groups.
type ProposalRequest struct {
	DocumentTitle  string           `json:"document_title"`
	Sections       []SectionSummary `json:"sections"`
	MinSegments    int              `json:"min_segments"`
	MaxSegments    int              `json:"max_segments"`
	TargetDuration int              `json:"target_duration"`
}

// ProposalGroup is one proposed segment: a contiguous run of sections with a
// short title, visual keywords, and talking points.
type ProposalGroup struct {
	Title          string   `json:"title"`
	SectionIndices []int    `json:"section_indices"`
	Keywords       []string `json:"keywords"`
	KeyPoints      []string `json:"key_points"`
}

// NarrationRequest seeds narration generation for one segment.
type NarrationRequest struct {
	VideoTitle     string   `json:"video_title"`
	SegmentTitle   string   `json:"segment_title"`
	SegmentNumber  int      `json:"segment_number"`
	TotalSegments  int      `json:"total_segments"`
	SectionText    string   `json:"section_text"`
	KeyPoints      []string `json:"key_points"`
	VisualLabels   []string `json:"visual_labels"`
	TargetDuration int      `json:"target_duration"`
}

// VoiceRequest asks a voice provider to synthesize narration audio.
type VoiceRequest struct {
	Text       string
	VoiceID    string
	Stability  float64
	Similarity float64
	Language   string
}

// VoiceResult is synthesized audio plus its playback duration in seconds.
type VoiceResult struct {
	Audio    []byte
	Duration float64
}

// ReasoningProvider is one reasoning (LLM) backend.
type ReasoningProvider interface {
	Name() string
	ProposeSegmentation(ctx context.Context, req ProposalRequest) ([]ProposalGroup, error)
	GenerateNarration(ctx context.Context, req NarrationRequest) (string, error)
}

// StockProvider is one stock-image search backend.
type StockProvider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]document.StockImageCandidate, error)
}

// VoiceProvider is one voice-synthesis backend.
type VoiceProvider interface {
	Name() string
	Synthesize(ctx context.Context, req VoiceRequest) (VoiceResult, error)
}

// ImageGenProvider is one image-generation backend. Only the renderer invokes
// it, when resolving generated-placeholder visuals.
type ImageGenProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
