// Package openaiimage implements the image-generation capability against the
// OpenAI images API. The renderer invokes it when resolving
// generated-placeholder visuals; the pipeline core never calls it directly.
package openaiimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"vidgen/internal/services"
)

const defaultBaseURL = "https://api.openai.com/v1/images/generations"

// Client generates illustrative images from prompts.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	quality    string
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

// New constructs an image-generation client.
func New(apiKey, model, size, quality string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      model,
		size:       size,
		quality:    quality,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider inside gateway chains and artifacts.
func (c *Client) Name() string { return "openai-image" }

type generateRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type generateResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate renders one image for the prompt and returns the raw bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.New("openai-image: api key required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("openai-image: prompt required")
	}

	payload, err := json.Marshal(generateRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("openai-image: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("openai-image: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "image-generation", "openai-image", "http timeout", err)
		}
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("openai-image: http %d: %s", resp.StatusCode, string(body))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", "decode response", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai-image: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", "empty data", nil)
	}
	image, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "image-generation", "openai-image", "decode image payload", err)
	}
	return image, nil
}
