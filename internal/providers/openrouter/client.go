// Package openrouter implements the reasoning capability against the
// OpenRouter chat-completions API. The gateway owns retry and fallback; this
// client performs single attempts and classifies failures as recoverable or
// fatal via the services error markers.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"vidgen/internal/config"
	"vidgen/internal/gateway"
	"vidgen/internal/services"
)

const defaultHTTPTimeout = 60 * time.Second

// Client wraps the OpenRouter chat completion API.
type Client struct {
	cfg        config.Reasoning
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a reasoning client from configuration.
func New(cfg config.Reasoning, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider inside gateway chains and artifacts.
func (c *Client) Name() string { return "openrouter" }

// ProposeSegmentation requests an ordered partition of the section tree.
func (c *Client) ProposeSegmentation(ctx context.Context, req gateway.ProposalRequest) ([]gateway.ProposalGroup, error) {
	user, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter propose: encode request: %w", err)
	}
	content, err := c.completeJSON(ctx, segmentationSystemPrompt, string(user))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Segments []gateway.ProposalGroup `json:"segments"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		// Malformed model output is worth another attempt.
		return nil, services.Wrap(services.ErrTransient, "reasoning", "propose segmentation", "parse payload", err)
	}
	for i := range parsed.Segments {
		sort.Ints(parsed.Segments[i].SectionIndices)
	}
	return parsed.Segments, nil
}

// GenerateNarration requests narration text for one segment.
func (c *Client) GenerateNarration(ctx context.Context, req gateway.NarrationRequest) (string, error) {
	user, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openrouter narration: encode request: %w", err)
	}
	content, err := c.completeJSON(ctx, narrationSystemPrompt(req), string(user))
	if err != nil {
		return "", err
	}
	var parsed struct {
		Narration string `json:"narration"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return "", services.Wrap(services.ErrTransient, "reasoning", "generate narration", "parse payload", err)
	}
	narration := strings.TrimSpace(parsed.Narration)
	if narration == "" {
		return "", services.Wrap(services.ErrTransient, "reasoning", "generate narration", "empty narration", nil)
	}
	return narration, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", errors.New("openrouter: api key required")
	}
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openrouter: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError("openrouter", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "reasoning", "openrouter", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", classifyStatus("openrouter", resp.StatusCode, body)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", services.Wrap(services.ErrTransient, "reasoning", "openrouter", "decode response", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("openrouter: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrTransient, "reasoning", "openrouter", "empty choices", nil)
}

func classifyTransportError(provider string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "reasoning", provider, "http timeout", err)
	}
	return services.Wrap(services.ErrTransient, "reasoning", provider, "http error", err)
}

func classifyStatus(provider string, status int, body []byte) error {
	snippet := summarizeSnippet(string(body))
	switch {
	case status == http.StatusRequestTimeout:
		return services.Wrap(services.ErrTimeout, "reasoning", provider, fmt.Sprintf("http %d: %s", status, snippet), nil)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "reasoning", provider, fmt.Sprintf("http %d: %s", status, snippet), nil)
	default:
		// 4xx other than timeout/quota means the request itself is wrong.
		return fmt.Errorf("%s: http %d: %s", provider, status, snippet)
	}
}

// DecodeJSON decodes JSON from a model response, tolerating code fences and
// leading prose around the payload.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizePayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizeSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizeSnippet(sanitized))
	}
	return nil
}

func sanitizePayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizeSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
