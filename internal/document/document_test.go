package document

import (
	"errors"
	"testing"

	"vidgen/internal/services"
)

func validDoc() Document {
	return Document{
		ID:        "doc-1",
		Title:     "Demo",
		PageCount: 10,
		Sections: []Section{
			{Title: "Intro", Level: 1, Text: "hello", PageStart: 1, PageEnd: 3},
			{Title: "Body", Level: 1, Text: "world", PageStart: 4, PageEnd: 8},
			{Title: "End", Level: 1, Text: "bye", PageStart: 9, PageEnd: 10},
		},
	}
}

func TestValidateAcceptsOrderedSections(t *testing.T) {
	doc := validDoc()
	if err := doc.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsOverlappingSections(t *testing.T) {
	doc := validDoc()
	doc.Sections[1].PageStart = 2
	err := doc.Validate()
	if err == nil {
		t.Fatal("expected overlap rejection")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestValidateRejectsSectionBeyondPageCount(t *testing.T) {
	doc := validDoc()
	doc.Sections[2].PageEnd = 12
	if err := doc.Validate(); err == nil {
		t.Fatal("expected out-of-bounds rejection")
	}
}

func TestValidateImages(t *testing.T) {
	doc := validDoc()
	images := []ExtractedImage{
		{ID: "img-1", Page: 2, Label: "chart"},
		{ID: "img-2", Page: 9, Label: "photo"},
	}
	if err := doc.ValidateImages(images); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	images = append(images, ExtractedImage{ID: "img-1", Page: 3})
	if err := doc.ValidateImages(images); err == nil {
		t.Fatal("expected duplicate id rejection")
	}

	if err := doc.ValidateImages([]ExtractedImage{{ID: "img-9", Page: 42}}); err == nil {
		t.Fatal("expected out-of-range page rejection")
	}
}
