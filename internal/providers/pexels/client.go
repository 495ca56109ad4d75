// Package pexels implements stock-image search against the Pexels API.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"vidgen/internal/document"
	"vidgen/internal/services"
)

const defaultBaseURL = "https://api.pexels.com/v1"

// Client searches Pexels for landscape photos matching segment keywords.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
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

// New constructs a client with an outbound rate cap.
func New(apiKey string, requestsPerMinute int, opts ...Option) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider inside gateway chains and artifacts.
func (c *Client) Name() string { return "pexels" }

type searchResponse struct {
	Photos []struct {
		ID  int64 `json:"id"`
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
		Alt string `json:"alt"`
	} `json:"photos"`
}

// Search returns up to limit landscape photos for the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]document.StockImageCandidate, error) {
	if c.apiKey == "" {
		return nil, errors.New("pexels: api key required")
	}
	if limit <= 0 {
		limit = 1
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(limit)},
		"orientation": {"landscape"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pexels: new request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "stock", "pexels", "http timeout", err)
		}
		return nil, services.Wrap(services.ErrTransient, "stock", "pexels", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "stock", "pexels", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "stock", "pexels", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pexels: http %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "stock", "pexels", "decode response", err)
	}

	candidates := make([]document.StockImageCandidate, 0, len(parsed.Photos))
	for rank, photo := range parsed.Photos {
		candidates = append(candidates, document.StockImageCandidate{
			ID:        "pexels-" + strconv.FormatInt(photo.ID, 10),
			Provider:  c.Name(),
			URLRef:    photo.Src.Large,
			Relevance: 1.0 / float64(rank+1),
		})
	}
	return candidates, nil
}
