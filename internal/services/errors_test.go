package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrValidation, "segmentation", "validate sections", "overlapping page ranges", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "segmentation: validate sections") {
		t.Fatalf("missing detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "script", "synthesize", "", errors.New("boom"))
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestProviderErrorUnwrapsExhaustion(t *testing.T) {
	err := NewProviderError("voice", []string{"elevenlabs", "googletts"}, errors.New("503"))
	if !errors.Is(err, ErrProviderExhausted) {
		t.Fatalf("expected exhaustion sentinel")
	}
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected typed provider error")
	}
	if provErr.Capability != "voice" || len(provErr.Attempted) != 2 {
		t.Fatalf("unexpected fields: %+v", provErr)
	}
}

func TestRecoverable(t *testing.T) {
	if Recoverable(Wrap(ErrValidation, "", "", "bad input", nil)) {
		t.Fatal("validation errors must not be recoverable")
	}
	if !Recoverable(Wrap(ErrTimeout, "", "", "deadline", nil)) {
		t.Fatal("timeouts should advance the chain")
	}
	if Recoverable(nil) {
		t.Fatal("nil is not recoverable")
	}
}
