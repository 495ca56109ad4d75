// Package googletts implements voice synthesis against the free Google
// Translate text-to-speech endpoint. It is the keyless fallback at the end of
// the voice chain.
package googletts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vidgen/internal/gateway"
	"vidgen/internal/services"
)

const defaultBaseURL = "https://translate.google.com/translate_tts"

// maxChunkChars is the endpoint's per-request text limit.
const maxChunkChars = 200

const wordsPerSecond = 2.5

// Client synthesizes narration audio via the translate TTS endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the endpoint (used in tests).
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

// New constructs a client. No credentials are required.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider inside gateway chains and artifacts.
func (c *Client) Name() string { return "googletts" }

// Synthesize converts narration text to audio, chunking long text to respect
// the endpoint's request size limit and concatenating the MP3 frames.
func (c *Client) Synthesize(ctx context.Context, req gateway.VoiceRequest) (gateway.VoiceResult, error) {
	var empty gateway.VoiceResult
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return empty, errors.New("googletts: text required")
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	var audio []byte
	for _, chunk := range splitChunks(text, maxChunkChars) {
		part, err := c.fetchChunk(ctx, chunk, language)
		if err != nil {
			return empty, err
		}
		audio = append(audio, part...)
	}
	if len(audio) == 0 {
		return empty, services.Wrap(services.ErrTransient, "voice", "googletts", "empty audio", nil)
	}

	words := len(strings.Fields(text))
	return gateway.VoiceResult{
		Audio:    audio,
		Duration: float64(words) / wordsPerSecond,
	}, nil
}

func (c *Client) fetchChunk(ctx context.Context, chunk, language string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s?%s", c.baseURL, url.Values{
		"ie":     {"UTF-8"},
		"client": {"tw-ob"},
		"tl":     {language},
		"q":      {chunk},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("googletts: new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "voice", "googletts", "http timeout", err)
		}
		return nil, services.Wrap(services.ErrTransient, "voice", "googletts", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "voice", "googletts", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "voice", "googletts", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("googletts: http %d", resp.StatusCode)
	}
	return body, nil
}

// splitChunks breaks text on word boundaries into pieces of at most limit
// characters. A single word longer than the limit is hard-split so no chunk
// ever exceeds the endpoint's per-request cap.
func splitChunks(text string, limit int) []string {
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, word := range strings.Fields(text) {
		for len(word) > limit {
			flush()
			chunks = append(chunks, word[:limit])
			word = word[limit:]
		}
		if word == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	flush()
	return chunks
}
