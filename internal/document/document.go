// Package document defines the parsed-document contracts the pipeline
// consumes from the PDF parser and image extractor collaborators.
package document

import (
	"fmt"
	"strings"

	"vidgen/internal/services"
)

// Document is the structured output of the document parser. Immutable once
// parsed.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	Text      string    `json:"text"`
	PageCount int       `json:"page_count"`
}

// Section is one structural unit of the document, ordered by position.
type Section struct {
	Title     string `json:"title"`
	Level     int    `json:"level"`
	Text      string `json:"text"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

// BoundingBox locates an extracted image on its source page.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// ExtractedImage is one image pulled from a document page and labeled by the
// image extractor collaborator. Immutable.
type ExtractedImage struct {
	ID         string      `json:"id"`
	Page       int         `json:"page"`
	BBox       BoundingBox `json:"bbox"`
	ByteRef    string      `json:"byte_ref"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
}

// StockImageCandidate is one result of a stock-image keyword query. Ephemeral,
// fetched per segmentation request.
type StockImageCandidate struct {
	ID        string  `json:"id"`
	Provider  string  `json:"provider"`
	URLRef    string  `json:"url_ref"`
	Relevance float64 `json:"relevance"`
}

// Validate checks the structural invariants the segmentation engine relies on:
// sections ordered by document position with non-overlapping, in-bounds page
// ranges. Violations are tagged services.ErrValidation.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return invalid("document id is empty")
	}
	if d.PageCount < 1 {
		return invalid(fmt.Sprintf("page count %d is not positive", d.PageCount))
	}
	prevEnd := 0
	for i, sec := range d.Sections {
		if sec.PageStart < 1 || sec.PageEnd < sec.PageStart {
			return invalid(fmt.Sprintf("section %d has malformed page range %d..%d", i, sec.PageStart, sec.PageEnd))
		}
		if sec.PageEnd > d.PageCount {
			return invalid(fmt.Sprintf("section %d ends on page %d beyond page count %d", i, sec.PageEnd, d.PageCount))
		}
		if sec.PageStart < prevEnd {
			return invalid(fmt.Sprintf("section %d starts on page %d before previous section ended on %d", i, sec.PageStart, prevEnd))
		}
		prevEnd = sec.PageEnd
	}
	return nil
}

// ValidateImages checks extracted-image metadata against the document.
func (d *Document) ValidateImages(images []ExtractedImage) error {
	seen := make(map[string]struct{}, len(images))
	for i, img := range images {
		if strings.TrimSpace(img.ID) == "" {
			return invalid(fmt.Sprintf("image %d has empty id", i))
		}
		if _, dup := seen[img.ID]; dup {
			return invalid(fmt.Sprintf("image id %q appears twice", img.ID))
		}
		seen[img.ID] = struct{}{}
		if img.Page < 1 || img.Page > d.PageCount {
			return invalid(fmt.Sprintf("image %q references page %d outside 1..%d", img.ID, img.Page, d.PageCount))
		}
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "document", "validate", message, nil)
}
