package googletts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidgen/internal/gateway"
)

func TestSplitChunksRespectsLimit(t *testing.T) {
	text := strings.Repeat("word ", 100)
	chunks := splitChunks(strings.TrimSpace(text), 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk exceeds limit: %d chars", len(chunk))
		}
	}
	if strings.Join(chunks, " ") != strings.TrimSpace(text) {
		t.Fatal("chunks must reassemble to the original text")
	}
}

func TestSplitChunksClampsOversizedWord(t *testing.T) {
	long := strings.Repeat("x", 130)
	chunks := splitChunks("intro "+long+" outro", 50)
	for _, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk exceeds limit: %d chars", len(chunk))
		}
	}
	if joined := strings.Join(chunks, ""); !strings.Contains(joined, long) {
		t.Fatal("oversized word lost during splitting")
	}
}

func TestSynthesizeConcatenatesChunks(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("mp3"))
	}))
	defer server.Close()

	client := New(WithBaseURL(server.URL))
	long := strings.TrimSpace(strings.Repeat("narration text segment ", 30))
	result, err := client.Synthesize(context.Background(), gateway.VoiceRequest{Text: long, Language: "en"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if requests < 2 {
		t.Fatalf("expected chunked requests, got %d", requests)
	}
	if len(result.Audio) != requests*3 {
		t.Fatalf("audio not concatenated: %d bytes for %d requests", len(result.Audio), requests)
	}
	if result.Duration <= 0 {
		t.Fatal("duration estimate missing")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := New()
	if _, err := client.Synthesize(context.Background(), gateway.VoiceRequest{}); err == nil {
		t.Fatal("expected error for empty text")
	}
}
