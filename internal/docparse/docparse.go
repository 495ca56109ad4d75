// Package docparse adapts PDF files into the document contract the pipeline
// consumes. Headings are detected by font size relative to the dominant body
// size, the same heuristic the rest of the structure builder keys on; when a
// document exposes no usable headings the parser returns a sectionless
// document and the segmentation engine falls back to its catch-all path.
package docparse

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"vidgen/internal/document"
	"vidgen/internal/logging"
)

// headingScale is how much larger than the body font a run must be to count
// as a heading.
const headingScale = 1.15

// Parser reads PDFs into documents.
type Parser struct {
	logger *slog.Logger
}

// New constructs a parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Parser{logger: logging.NewComponentLogger(logger, "docparse")}
}

type heading struct {
	text     string
	page     int
	fontSize float64
}

// Parse extracts page text and a heading-based section tree from the PDF at
// path.
func (p *Parser) Parse(ctx context.Context, path string) (*document.Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docparse: open %q: %w", path, err)
	}
	defer file.Close()

	pageCount := reader.NumPage()
	if pageCount < 1 {
		return nil, fmt.Errorf("docparse: %q has no pages", path)
	}

	pageTexts := make([]string, pageCount+1)
	fontCounts := make(map[float64]int)
	var pageContents [][]pdf.Text

	for n := 1; n <= pageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			pageContents = append(pageContents, nil)
			continue
		}
		plain, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("page text unreadable",
				logging.String("path", filepath.Base(path)),
				logging.Int("page", n),
				logging.Error(err))
			pageContents = append(pageContents, nil)
			continue
		}
		pageTexts[n] = plain

		texts := page.Content().Text
		pageContents = append(pageContents, texts)
		for _, t := range texts {
			fontCounts[roundSize(t.FontSize)] += len(t.S)
		}
	}

	bodySize := dominantSize(fontCounts)
	headings := collectHeadings(pageContents, bodySize)
	sections := buildSections(headings, pageTexts, pageCount)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title := stem
	if len(headings) > 0 {
		title = headings[0].text
	}

	doc := &document.Document{
		ID:        stem,
		Title:     title,
		Sections:  sections,
		Text:      strings.Join(pageTexts[1:], "\n"),
		PageCount: pageCount,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	p.logger.Info("document parsed",
		logging.String(logging.FieldDocumentID, doc.ID),
		logging.Int("pages", pageCount),
		logging.Int("sections", len(sections)))
	return doc, nil
}

// collectHeadings walks each page's text runs and joins consecutive oversized
// runs on the same baseline into heading lines.
func collectHeadings(pageContents [][]pdf.Text, bodySize float64) []heading {
	if bodySize <= 0 {
		return nil
	}
	threshold := bodySize * headingScale

	var headings []heading
	for pageIdx, texts := range pageContents {
		page := pageIdx + 1
		var line strings.Builder
		var lineSize float64
		lastY := math.NaN()

		flush := func() {
			text := strings.TrimSpace(line.String())
			line.Reset()
			if usableHeading(text) {
				headings = append(headings, heading{text: text, page: page, fontSize: lineSize})
			}
		}

		for _, t := range texts {
			if t.FontSize < threshold {
				continue
			}
			if !math.IsNaN(lastY) && math.Abs(t.Y-lastY) > 0.5 {
				flush()
			}
			line.WriteString(t.S)
			lineSize = roundSize(t.FontSize)
			lastY = t.Y
		}
		flush()
	}
	return headings
}

// buildSections turns the ordered heading list into sections. Each section
// spans the pages from its heading to the next heading's page, and its text
// is the concatenation of those pages.
func buildSections(headings []heading, pageTexts []string, pageCount int) []document.Section {
	if len(headings) == 0 {
		return nil
	}
	levels := levelIndex(headings)

	sections := make([]document.Section, 0, len(headings))
	for i, h := range headings {
		end := pageCount
		if i+1 < len(headings) {
			end = headings[i+1].page
		}
		var body strings.Builder
		for page := h.page; page <= end && page < len(pageTexts); page++ {
			body.WriteString(pageTexts[page])
		}
		sections = append(sections, document.Section{
			Title:     h.text,
			Level:     levels[h.fontSize],
			Text:      body.String(),
			PageStart: h.page,
			PageEnd:   end,
		})
	}
	return sections
}

// levelIndex maps distinct heading font sizes to nesting levels, largest
// first.
func levelIndex(headings []heading) map[float64]int {
	distinct := make(map[float64]struct{})
	for _, h := range headings {
		distinct[h.fontSize] = struct{}{}
	}
	sizes := make([]float64, 0, len(distinct))
	for size := range distinct {
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := make(map[float64]int, len(sizes))
	for i, size := range sizes {
		levels[size] = i + 1
	}
	return levels
}

// dominantSize picks the font size carrying the most characters: the body
// text.
func dominantSize(counts map[float64]int) float64 {
	var best float64
	bestCount := 0
	for size, count := range counts {
		if count > bestCount || (count == bestCount && size < best) {
			best, bestCount = size, count
		}
	}
	return best
}

func usableHeading(text string) bool {
	return len(text) >= 3 && len(text) <= 120
}

func roundSize(size float64) float64 {
	return math.Round(size*2) / 2
}
