package docparse

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func TestCollectHeadingsJoinsBaselines(t *testing.T) {
	contents := [][]pdf.Text{
		{
			{S: "Deep ", Y: 700, FontSize: 18},
			{S: "Oceans", Y: 700, FontSize: 18},
			{S: "body text", Y: 650, FontSize: 10},
			{S: "Currents", Y: 500, FontSize: 14},
		},
	}

	headings := collectHeadings(contents, 10)
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d: %+v", len(headings), headings)
	}
	if headings[0].text != "Deep Oceans" {
		t.Fatalf("first heading %q", headings[0].text)
	}
	if headings[1].text != "Currents" {
		t.Fatalf("second heading %q", headings[1].text)
	}
	if headings[0].page != 1 {
		t.Fatalf("heading page %d", headings[0].page)
	}
}

func TestCollectHeadingsNoBodySize(t *testing.T) {
	contents := [][]pdf.Text{{{S: "Anything", Y: 700, FontSize: 18}}}
	if headings := collectHeadings(contents, 0); headings != nil {
		t.Fatalf("expected no headings without a body size, got %+v", headings)
	}
}

func TestBuildSectionsSpansToNextHeading(t *testing.T) {
	headings := []heading{
		{text: "Intro", page: 1, fontSize: 18},
		{text: "Methods", page: 3, fontSize: 14},
	}
	pageTexts := []string{"", "p1 ", "p2 ", "p3 ", "p4 "}

	sections := buildSections(headings, pageTexts, 4)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].PageStart != 1 || sections[0].PageEnd != 3 {
		t.Fatalf("section 0 range %d..%d", sections[0].PageStart, sections[0].PageEnd)
	}
	if sections[1].PageStart != 3 || sections[1].PageEnd != 4 {
		t.Fatalf("section 1 range %d..%d", sections[1].PageStart, sections[1].PageEnd)
	}
	if sections[0].Level != 1 || sections[1].Level != 2 {
		t.Fatalf("levels %d, %d", sections[0].Level, sections[1].Level)
	}
	if sections[0].Text != "p1 p2 p3 " {
		t.Fatalf("section 0 text %q", sections[0].Text)
	}
}

func TestDominantSizePrefersMostCharacters(t *testing.T) {
	counts := map[float64]int{10: 5000, 18: 120, 14: 300}
	if size := dominantSize(counts); size != 10 {
		t.Fatalf("dominant size %v, want 10", size)
	}
}
