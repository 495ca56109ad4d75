package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidgen/internal/config"
	"vidgen/internal/gateway"
	"vidgen/internal/services"
)

func TestDecodeJSONHandlesFences(t *testing.T) {
	cases := []string{
		`{"segments": []}`,
		"```json\n{\"segments\": []}\n```",
		"Here you go:\n{\"segments\": []}",
	}
	for _, payload := range cases {
		var parsed struct {
			Segments []gateway.ProposalGroup `json:"segments"`
		}
		if err := DecodeJSON(payload, &parsed); err != nil {
			t.Fatalf("decode %q: %v", payload, err)
		}
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var parsed map[string]any
	if err := DecodeJSON("not json at all", &parsed); err == nil {
		t.Fatal("expected decode failure")
	}
}

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.Reasoning{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	})
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return body
}

func TestProposeSegmentationParsesGroups(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		w.Write(completionBody(`{"segments":[{"title":"Intro","section_indices":[1,0],"keywords":["rocket"],"key_points":["p"]}]}`))
	})

	groups, err := client.ProposeSegmentation(context.Background(), gateway.ProposalRequest{MinSegments: 1, MaxSegments: 3})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if len(groups) != 1 || groups[0].Title != "Intro" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if groups[0].SectionIndices[0] != 0 || groups[0].SectionIndices[1] != 1 {
		t.Fatalf("indices should be sorted: %v", groups[0].SectionIndices)
	}
}

func TestServerErrorIsRecoverable(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	_, err := client.ProposeSegmentation(context.Background(), gateway.ProposalRequest{})
	if !services.Recoverable(err) {
		t.Fatalf("5xx should be recoverable, got %v", err)
	}
}

func TestBadRequestIsFatal(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	})
	_, err := client.ProposeSegmentation(context.Background(), gateway.ProposalRequest{})
	if err == nil {
		t.Fatal("expected failure")
	}
	if services.Recoverable(err) {
		t.Fatalf("4xx should be fatal, got %v", err)
	}
}

func TestGenerateNarration(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(`{"narration":"The story begins here."}`))
	})
	text, err := client.GenerateNarration(context.Background(), gateway.NarrationRequest{
		SegmentTitle: "Intro", SegmentNumber: 1, TotalSegments: 3, TargetDuration: 45,
	})
	if err != nil {
		t.Fatalf("narration: %v", err)
	}
	if text != "The story begins here." {
		t.Fatalf("unexpected narration %q", text)
	}
}

func TestMissingAPIKeyFailsFast(t *testing.T) {
	client := New(config.Reasoning{BaseURL: "http://127.0.0.1:0"})
	_, err := client.GenerateNarration(context.Background(), gateway.NarrationRequest{})
	if err == nil {
		t.Fatal("expected api key error")
	}
	if errors.Is(err, services.ErrTransient) {
		t.Fatal("missing key must not be retried")
	}
}
