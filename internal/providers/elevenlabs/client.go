// Package elevenlabs implements voice synthesis against the ElevenLabs
// text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"vidgen/internal/gateway"
	"vidgen/internal/services"
)

const defaultBaseURL = "https://api.elevenlabs.io/v1"

// wordsPerSecond approximates narration pace for duration estimates when the
// API does not report audio length.
const wordsPerSecond = 2.5

// Client synthesizes narration audio via ElevenLabs.
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs an ElevenLabs client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		modelID:    "eleven_multilingual_v2",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider inside gateway chains and artifacts.
func (c *Client) Name() string { return "elevenlabs" }

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts narration text to audio bytes.
func (c *Client) Synthesize(ctx context.Context, req gateway.VoiceRequest) (gateway.VoiceResult, error) {
	var empty gateway.VoiceResult
	if c.apiKey == "" {
		return empty, errors.New("elevenlabs: api key required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return empty, errors.New("elevenlabs: text required")
	}

	payload, err := json.Marshal(ttsRequest{
		Text:    req.Text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       req.Stability,
			SimilarityBoost: req.Similarity,
		},
	})
	if err != nil {
		return empty, fmt.Errorf("elevenlabs: encode body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, req.VoiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return empty, fmt.Errorf("elevenlabs: new request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return empty, services.Wrap(services.ErrTimeout, "voice", "elevenlabs", "http timeout", err)
		}
		return empty, services.Wrap(services.ErrTransient, "voice", "elevenlabs", "http error", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, services.Wrap(services.ErrTransient, "voice", "elevenlabs", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return empty, services.Wrap(services.ErrTransient, "voice", "elevenlabs", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return empty, fmt.Errorf("elevenlabs: http %d: %s", resp.StatusCode, string(audio))
	}
	if len(audio) == 0 {
		return empty, services.Wrap(services.ErrTransient, "voice", "elevenlabs", "empty audio", nil)
	}

	return gateway.VoiceResult{
		Audio:    audio,
		Duration: estimateDuration(req.Text),
	}, nil
}

func estimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return float64(words) / wordsPerSecond
}
