package wsprlive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/signalsfoundry/searcharc/internal/ingest"
	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/internal/observability"
	"github.com/signalsfoundry/searcharc/model"
)

// DefaultTimeout bounds a single fetch request.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is the agent string the recovered fetch tooling sent.
const DefaultUserAgent = "Mozilla/5.0"

// Client fetches spot records over the database's HTTP interface.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        logging.Logger
	metrics    *observability.FetchCollector
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, typically a test
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout replaces the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUserAgent replaces the reported agent string.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient substitutes the underlying HTTP client entirely.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithLogger attaches a logger; the default discards output.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics attaches a fetch collector.
func WithMetrics(m *observability.FetchCollector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a client against the public database with the recovered
// defaults applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch runs the query and parses the response body into signal records.
// Load statistics come back alongside so callers can report skipped rows.
func (c *Client) Fetch(ctx context.Context, q Query) ([]model.SignalRecord, ingest.LoadStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.URL(c.baseURL), nil)
	if err != nil {
		return nil, ingest.LoadStats{}, fmt.Errorf("wsprlive: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.ObserveRequest(time.Since(start))
	}
	if err != nil {
		c.countError()
		return nil, ingest.LoadStats{}, fmt.Errorf("wsprlive: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.countError()
		return nil, ingest.LoadStats{}, fmt.Errorf("wsprlive: query returned status %d", resp.StatusCode)
	}

	records, stats, err := ingest.LoadSpots(resp.Body)
	if err != nil {
		c.countError()
		return nil, stats, fmt.Errorf("wsprlive: parse response: %w", err)
	}
	if c.metrics != nil {
		c.metrics.AddRows(stats.Loaded)
	}
	c.log.Info(ctx, "fetched spot records",
		logging.Int("loaded", stats.Loaded),
		logging.Int("skipped", stats.Skipped),
		logging.Time("window_start", q.Start),
		logging.Time("window_end", q.End),
	)
	return records, stats, nil
}

func (c *Client) countError() {
	if c.metrics != nil {
		c.metrics.IncErrors()
	}
}
