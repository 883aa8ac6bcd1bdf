// Package openlibrary implements the HTTP transport for the OpenLibrary catalog.
package openlibrary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
	"github.com/lepinkainen/bookscan/internal/httputil"
	"github.com/lepinkainen/bookscan/internal/metrics"
	"github.com/lepinkainen/bookscan/internal/ratelimit"
)

const (
	upstreamName        = "openlibrary"
	defaultBaseURL      = "https://openlibrary.org"
	defaultUserAgent    = "bookscan/1.0 (+https://github.com/lepinkainen/bookscan)"
	defaultTimeout      = 15 * time.Second
	defaultRatePerSec   = 1.0
	defaultMaxRetries   = 3
	maxResponseBodySize = 10 << 20
)

// Client fetches catalog responses. It satisfies identify.Fetcher.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	maxRetries  int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets the catalog root used by Ping.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRateLimit replaces the default one request per second.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(client *Client) {
		if burst < 1 {
			burst = 1
		}
		client.rateLimiter = ratelimit.NewWithBurst("OpenLibrary", requestsPerSecond, burst)
	}
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.maxRetries = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}

// NewClient creates an OpenLibrary client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: ratelimit.New("OpenLibrary", defaultRatePerSec),
		maxRetries:  defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the configured catalog root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and returns the response body of a 2xx reply.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, bserrors.NewTransportError("waiting for rate limiter", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, bserrors.NewTransportError("building request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		metrics.RecordUpstream(upstreamName, "error", time.Since(start).Seconds())
		return nil, bserrors.NewTransportError("requesting "+req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstream(upstreamName, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, bserrors.NewRateLimitErrorWithRetry(
			fmt.Sprintf("OpenLibrary rate limit exceeded after %d retries", c.maxRetries),
			httputil.RetryAfter(resp),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, bserrors.NewTransportError("",
			fmt.Errorf("openlibrary: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return nil, bserrors.NewTransportError("reading response", err)
	}
	if len(body) > maxResponseBodySize {
		return nil, bserrors.NewTransportError("", fmt.Errorf("openlibrary: response exceeds %d bytes", maxResponseBodySize))
	}
	return body, nil
}

// Ping checks that the catalog root answers with 200.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openlibrary ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openlibrary ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}
