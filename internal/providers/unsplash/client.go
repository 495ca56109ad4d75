// Package unsplash implements stock-image search against the Unsplash API.
package unsplash

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

const defaultBaseURL = "https://api.unsplash.com"

// Client searches Unsplash for landscape photos matching segment keywords.
type Client struct {
	accessKey  string
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

// New constructs a client. requestsPerMinute bounds outbound search traffic;
// Unsplash demo keys allow 50/hour, so callers should configure conservatively.
func New(accessKey string, requestsPerMinute int, opts ...Option) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	c := &Client{
		accessKey:  accessKey,
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
func (c *Client) Name() string { return "unsplash" }

type searchResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
	} `json:"results"`
}

// Search returns up to limit landscape photos for the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]document.StockImageCandidate, error) {
	if c.accessKey == "" {
		return nil, errors.New("unsplash: access key required")
	}
	if limit <= 0 {
		limit = 1
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search/photos?%s", c.baseURL, url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(limit)},
		"orientation": {"landscape"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("unsplash: new request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "stock", "unsplash", "http timeout", err)
		}
		return nil, services.Wrap(services.ErrTransient, "stock", "unsplash", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "stock", "unsplash", "read body", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "stock", "unsplash", fmt.Sprintf("http %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unsplash: http %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrTransient, "stock", "unsplash", "decode response", err)
	}

	candidates := make([]document.StockImageCandidate, 0, len(parsed.Results))
	for rank, photo := range parsed.Results {
		candidates = append(candidates, document.StockImageCandidate{
			ID:       "unsplash-" + photo.ID,
			Provider: c.Name(),
			URLRef:   photo.URLs.Regular,
			// Unsplash orders by relevance; decay the hint by rank.
			Relevance: 1.0 / float64(rank+1),
		})
	}
	return candidates, nil
}
