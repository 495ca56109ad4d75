package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"vidgen/internal/services"
)

func TestConsoleHandlerRendersAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("phase started", String(FieldPhase, "segmented"), Int("segments", 5))

	line := buf.String()
	if !strings.Contains(line, "phase started") {
		t.Fatalf("missing message: %q", line)
	}
	if !strings.Contains(line, "phase=segmented") || !strings.Contains(line, "segments=5") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestWithContextTagsRunAndPhase(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithPhase(ctx, "scripted")

	WithContext(ctx, base).Info("ok")

	line := buf.String()
	if !strings.Contains(line, "run_id=run-1") || !strings.Contains(line, "phase=scripted") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
