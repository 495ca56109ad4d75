package outline

import (
	"strings"
	"testing"
)

func segment(index, start, end int, visuals ...VisualAssignment) Segment {
	return Segment{
		Index:     index,
		Title:     "seg",
		PageStart: start,
		PageEnd:   end,
		Visuals:   visuals,
	}
}

func TestCheckInvariantsAccepts(t *testing.T) {
	o := Outline{
		DocumentID:    "doc",
		SchemaVersion: SchemaVersion,
		Segments: []Segment{
			segment(0, 1, 3, VisualAssignment{Kind: VisualDocumentImage, SourceID: "img-1"}),
			segment(1, 3, 5, VisualAssignment{Kind: VisualStockImage, SourceID: "stock-1"}),
			segment(2, 6, 9, VisualAssignment{Kind: VisualGeneratedPlaceholder, SourceID: "gen-2"}),
		},
	}
	if err := o.CheckInvariants(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckInvariantsRejectsOverlap(t *testing.T) {
	o := Outline{Segments: []Segment{
		segment(0, 1, 5, VisualAssignment{Kind: VisualStockImage, SourceID: "a"}),
		segment(1, 4, 8, VisualAssignment{Kind: VisualStockImage, SourceID: "b"}),
	}}
	err := o.CheckInvariants()
	if err == nil || !strings.Contains(err.Error(), "overlaps") {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestCheckInvariantsRejectsDoubleClaim(t *testing.T) {
	o := Outline{Segments: []Segment{
		segment(0, 1, 3, VisualAssignment{Kind: VisualDocumentImage, SourceID: "img-1"}),
		segment(1, 4, 6, VisualAssignment{Kind: VisualDocumentImage, SourceID: "img-1"}),
	}}
	err := o.CheckInvariants()
	if err == nil || !strings.Contains(err.Error(), "claimed by segments") {
		t.Fatalf("expected exclusivity error, got %v", err)
	}
}

func TestCheckInvariantsRejectsEmptyVisuals(t *testing.T) {
	o := Outline{Segments: []Segment{segment(0, 1, 3)}}
	if err := o.CheckInvariants(); err == nil {
		t.Fatal("expected missing-visual error")
	}
}

func TestVisualKindValid(t *testing.T) {
	for _, kind := range []VisualKind{VisualDocumentImage, VisualStockImage, VisualGeneratedPlaceholder} {
		if !kind.Valid() {
			t.Fatalf("kind %q should be valid", kind)
		}
	}
	if VisualKind("hologram").Valid() {
		t.Fatal("unknown kind should be invalid")
	}
}
