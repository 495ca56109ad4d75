package segment

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidgen/internal/document"
)

// plan is the engine's working representation of one proposed segment before
// it becomes an outline.Segment.
type plan struct {
	title          string
	sectionIndices []int
	keywords       []string
	keyPoints      []string
	pageStart      int
	pageEnd        int
	chars          int
}

var titleCaser = cases.Title(language.English)

// catchAll covers a document with no section tree: one segment spanning every
// page.
func catchAll(doc *document.Document) plan {
	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = "Overview"
	}
	return plan{
		title:     titleCaser.String(title),
		keywords:  tokenize(title),
		pageStart: 1,
		pageEnd:   doc.PageCount,
		chars:     len(doc.Text),
	}
}

// planFromSections builds a plan covering a contiguous run of sections.
func planFromSections(doc *document.Document, indices []int) plan {
	p := plan{sectionIndices: append([]int(nil), indices...)}
	for _, idx := range indices {
		sec := doc.Sections[idx]
		if p.pageStart == 0 {
			p.pageStart = sec.PageStart
		}
		p.pageEnd = sec.PageEnd
		p.chars += len(sec.Text)
	}
	return p
}

// repair forces the plan count into [minSegments, maxSegments] without ever
// reordering sections. Over the maximum, the two smallest adjacent plans are
// merged repeatedly; under the minimum, the largest plan is split repeatedly
// at its most balanced internal section boundary. Single-section plans split
// by page range so even a three-section document can satisfy a minimum of
// five.
func repair(plans []plan, doc *document.Document, minSegments, maxSegments int) []plan {
	for maxSegments > 0 && len(plans) > maxSegments {
		plans = mergeSmallestAdjacent(plans)
	}
	for minSegments > 0 && len(plans) < minSegments {
		split, ok := splitLargest(plans, doc)
		if !ok {
			break
		}
		plans = split
	}
	return plans
}

// mergeSmallestAdjacent joins the adjacent pair with the smallest combined
// text size, keeping the earlier pair on ties.
func mergeSmallestAdjacent(plans []plan) []plan {
	if len(plans) < 2 {
		return plans
	}
	best := 0
	bestSize := plans[0].chars + plans[1].chars
	for i := 1; i < len(plans)-1; i++ {
		size := plans[i].chars + plans[i+1].chars
		if size < bestSize {
			best, bestSize = i, size
		}
	}

	left, right := plans[best], plans[best+1]
	merged := plan{
		title:          left.title,
		sectionIndices: append(append([]int(nil), left.sectionIndices...), right.sectionIndices...),
		keywords:       mergeTerms(left.keywords, right.keywords),
		keyPoints:      mergeTerms(left.keyPoints, right.keyPoints),
		pageStart:      left.pageStart,
		pageEnd:        right.pageEnd,
		chars:          left.chars + right.chars,
	}

	out := make([]plan, 0, len(plans)-1)
	out = append(out, plans[:best]...)
	out = append(out, merged)
	out = append(out, plans[best+2:]...)
	return out
}

// splitLargest splits the plan with the most text into two. Plans spanning
// multiple sections split at the section boundary that best balances text
// size; single-section plans split their page range in half.
func splitLargest(plans []plan, doc *document.Document) ([]plan, bool) {
	target := 0
	for i := 1; i < len(plans); i++ {
		if plans[i].chars > plans[target].chars {
			target = i
		}
	}

	left, right, ok := splitPlan(plans[target], doc)
	if !ok {
		return plans, false
	}
	out := make([]plan, 0, len(plans)+1)
	out = append(out, plans[:target]...)
	out = append(out, left, right)
	out = append(out, plans[target+1:]...)
	return out, true
}

func splitPlan(p plan, doc *document.Document) (plan, plan, bool) {
	if len(p.sectionIndices) >= 2 {
		return splitAtSectionBoundary(p, doc)
	}
	return splitPageRange(p)
}

func splitAtSectionBoundary(p plan, doc *document.Document) (plan, plan, bool) {
	bestBoundary := 1
	bestImbalance := -1
	running := 0
	for b := 1; b < len(p.sectionIndices); b++ {
		running += len(doc.Sections[p.sectionIndices[b-1]].Text)
		imbalance := p.chars - 2*running
		if imbalance < 0 {
			imbalance = -imbalance
		}
		if bestImbalance < 0 || imbalance < bestImbalance {
			bestBoundary, bestImbalance = b, imbalance
		}
	}

	left := planFromSections(doc, p.sectionIndices[:bestBoundary])
	right := planFromSections(doc, p.sectionIndices[bestBoundary:])
	left.title = sectionTitleFor(doc, left.sectionIndices[0], p.title)
	right.title = sectionTitleFor(doc, right.sectionIndices[0], p.title)
	left.keywords, right.keywords = p.keywords, p.keywords
	left.keyPoints, right.keyPoints = splitHalf(p.keyPoints)
	return left, right, true
}

// splitPageRange halves a single-section plan by pages. Both halves keep the
// section index so narration still draws from the right source text. A
// one-page plan places both halves on that page; page ranges stay
// non-overlapping because the second half starts where the first ends.
func splitPageRange(p plan) (plan, plan, bool) {
	mid := p.pageStart + (p.pageEnd-p.pageStart)/2
	left := p
	right := p
	left.pageEnd = mid
	if p.pageEnd > p.pageStart {
		right.pageStart = mid + 1
	} else {
		right.pageStart = mid
	}
	left.chars = p.chars / 2
	right.chars = p.chars - left.chars
	left.title = fmt.Sprintf("%s, Part 1", p.title)
	right.title = fmt.Sprintf("%s, Part 2", p.title)
	left.keyPoints, right.keyPoints = splitHalf(p.keyPoints)
	return left, right, true
}

func sectionTitleFor(doc *document.Document, sectionIndex int, fallback string) string {
	title := strings.TrimSpace(doc.Sections[sectionIndex].Title)
	if title == "" {
		return fallback
	}
	return titleCaser.String(title)
}

func splitHalf(terms []string) ([]string, []string) {
	if len(terms) < 2 {
		return terms, terms
	}
	mid := len(terms) / 2
	return terms[:mid], terms[mid:]
}

func mergeTerms(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, term := range append(append([]string(nil), a...), b...) {
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, term)
	}
	return merged
}
