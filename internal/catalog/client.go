// ABOUTME: HTTP client that downloads and validates the remote post catalog.
// ABOUTME: Enforces a hard timeout and drops malformed entries instead of failing.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389-research/mirrorview/internal/metrics"
	"github.com/2389-research/mirrorview/internal/models"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single catalog request.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps the catalog download.
const maxBodySize = 64 << 20

// Fetcher retrieves a fresh catalog from its source.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Catalog, error)
}

// Client fetches the catalog from a single URL.
type Client struct {
	url        string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the hard per-fetch deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithClientMetrics records fetch outcomes.
func WithClientMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a catalog client for url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the catalog source.
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET against the catalog URL and returns the validated posts.
func (c *Client) Fetch(ctx context.Context) (models.Catalog, error) {
	fetchID := uuid.NewString()
	start := time.Now()

	catalog, err := c.fetch(ctx)
	elapsed := time.Since(start)

	result := "ok"
	var fe *FetchError
	if errors.As(err, &fe) {
		result = string(fe.Kind)
	}
	c.metrics.ObserveFetch(result, elapsed.Seconds())

	if err != nil {
		c.logger.Warn("catalog fetch failed",
			"fetch_id", fetchID, "catalog_url", c.url, "duration_ms", elapsed.Milliseconds(), "err", err)
		return nil, err
	}
	c.logger.Debug("catalog fetched",
		"fetch_id", fetchID, "catalog_url", c.url, "posts", len(catalog), "duration_ms", elapsed.Milliseconds())
	return catalog, nil
}

func (c *Client) fetch(ctx context.Context) (models.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Kind: KindHTTP, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return Parse(body)
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindNetwork, Err: err}
}

// Parse decodes a catalog payload. The payload must be a JSON array; elements
// lacking a string title, a string link, or a links array are dropped.
// Non-string entries inside links are skipped. Extra fields are ignored.
func Parse(data []byte) (models.Catalog, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FetchError{Kind: KindFormat, Err: err}
	}
	if raw == nil {
		// a literal null decodes without error
		return nil, &FetchError{Kind: KindFormat, Err: errors.New("payload is null")}
	}

	catalog := make(models.Catalog, 0, len(raw))
	for _, elem := range raw {
		if post, ok := parsePost(elem); ok {
			catalog = append(catalog, post)
		}
	}
	return catalog, nil
}

func parsePost(elem json.RawMessage) (models.Post, bool) {
	var fields struct {
		Title json.RawMessage `json:"title"`
		Link  json.RawMessage `json:"link"`
		Links json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(elem, &fields); err != nil {
		return models.Post{}, false
	}
	if !isString(fields.Title) || !isString(fields.Link) || !isArray(fields.Links) {
		return models.Post{}, false
	}

	var post models.Post
	var entries []json.RawMessage
	if json.Unmarshal(fields.Title, &post.Title) != nil ||
		json.Unmarshal(fields.Link, &post.Link) != nil ||
		json.Unmarshal(fields.Links, &entries) != nil {
		return models.Post{}, false
	}
	post.Links = make([]string, 0, len(entries))
	for _, e := range entries {
		var link string
		if isString(e) && json.Unmarshal(e, &link) == nil {
			post.Links = append(post.Links, link)
		}
	}
	return post, true
}

func isString(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '"'
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
