package openrouter

import (
	"fmt"

	"vidgen/internal/gateway"
)

const segmentationSystemPrompt = `You are a video outline planner. You receive a JSON description of a document's section tree: each section has an index, title, nesting level, character length, and page range. Partition the sections, in their given order, into narrative video segments.

Rules:
- Respect document order. Every section index appears in exactly one segment, and indices within and across segments are strictly increasing.
- Produce between min_segments and max_segments segments.
- Each segment needs a short punchy title, 3-6 visual keywords (concrete nouns suited to image search), and 2-4 key talking points.
- Never emit an empty segment.

Respond with JSON only:
{"segments": [{"title": "...", "section_indices": [0, 1], "keywords": ["..."], "key_points": ["..."]}]}`

func narrationSystemPrompt(req gateway.NarrationRequest) string {
	position := "a middle segment"
	switch {
	case req.SegmentNumber == 1:
		position = "the opening segment: hook the viewer and introduce the topic"
	case req.SegmentNumber == req.TotalSegments:
		position = "the closing segment: wrap up and leave a takeaway"
	}
	return fmt.Sprintf(`You write voiceover narration for educational videos. You receive a JSON segment context: video title, segment title, source text, key points, and labels of the visuals shown on screen.

Write narration for %s. Target roughly %d seconds of speech (about %d words at a natural pace). Speak plainly, no stage directions, no markdown, no "welcome back" filler. Reference what the visuals show when it helps.

Respond with JSON only: {"narration": "..."}`, position, req.TargetDuration, req.TargetDuration*150/60)
}
