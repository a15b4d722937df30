// Package upstream provides a client for the BMKG nowcast REST API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

// Config holds configuration for the nowcast API client.
type Config struct {
	BaseURL   string        // Base URL (e.g., "https://nowcast.bmkg.go.id/api/v1")
	Timeout   time.Duration // HTTP timeout (default: 30s)
	RateLimit int           // Requests per minute (default: 60)
	UserAgent string        // User-Agent header (default: "bmkg-alert/1.0")
}

// Client is a BMKG nowcast API client.
//
// The upstream feed is public and unauthenticated but rate limited, so the
// client paces requests with a token bucket. Detail lookups within one poll
// cycle are the caller's to memoize; the client itself is stateless.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a new nowcast API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 60 // 60 requests per minute = 1 per second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "bmkg-alert/1.0"
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/60.0), 1),
		logger:      logger.With("component", "bmkg_client"),
	}
}

// get makes a rate-limited GET request and returns the raw body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, truncateBody(body))
	}

	return body, nil
}

// ListNowcast fetches the list of currently published warnings.
// An empty feed is normal outside severe weather and returns an empty slice.
func (c *Client) ListNowcast(ctx context.Context) ([]types.NowcastListItem, error) {
	start := time.Now()

	body, err := c.get(ctx, "/nowcast")
	if err != nil {
		return nil, fmt.Errorf("fetch nowcast list: %w", err)
	}

	var list types.NowcastList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("unmarshal nowcast list: %w", err)
	}

	c.logger.Debug("fetched nowcast list", "count", len(list.Data), "duration", time.Since(start))
	return list.Data, nil
}

// GetNowcastDetail fetches the full warning detail for one nowcast code.
// The response wraps the payload in a "data" envelope which is unwrapped here.
func (c *Client) GetNowcastDetail(ctx context.Context, code string) (*types.NowcastDetail, error) {
	if code == "" {
		return nil, fmt.Errorf("nowcast code is empty")
	}

	body, err := c.get(ctx, "/nowcast/"+url.PathEscape(code))
	if err != nil {
		return nil, fmt.Errorf("fetch nowcast detail %s: %w", code, err)
	}

	var envelope struct {
		Data types.NowcastDetail `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal nowcast detail %s: %w", code, err)
	}

	c.logger.Debug("fetched nowcast detail", "code", code, "warnings", len(envelope.Data.Warnings))
	return &envelope.Data, nil
}

// SearchWilayah searches administrative areas (kecamatan, kabupaten,
// provinsi) by name. The response is passed through verbatim for the admin UI
// location picker.
func (c *Client) SearchWilayah(ctx context.Context, query string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("wilayah query is empty")
	}

	body, err := c.get(ctx, "/wilayah/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("search wilayah %q: %w", query, err)
	}
	return json.RawMessage(body), nil
}

// ListProvinces fetches the province list, passed through verbatim.
func (c *Client) ListProvinces(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "/wilayah/provinces")
	if err != nil {
		return nil, fmt.Errorf("list provinces: %w", err)
	}
	return json.RawMessage(body), nil
}

// Health checks whether the upstream API is reachable.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.get(ctx, "/nowcast"); err != nil {
		return fmt.Errorf("upstream health check: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
