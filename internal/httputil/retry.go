// Package httputil provides HTTP helpers for catalog clients.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff after a 429 response. Tests override it.
var RetryBaseDelay = 2 * time.Second

// DefaultMaxRetries is used when a caller passes maxRetries <= 0.
const DefaultMaxRetries = 3

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests) with
// exponential backoff starting at RetryBaseDelay. A Retry-After header given
// in seconds replaces the computed delay when it is longer.
//
// On each 429 the body is drained and closed before sleeping. If ctx is
// cancelled during a backoff the function returns ctx.Err(). After the last
// retry the 429 response is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		if hinted := RetryAfter(resp); hinted > backoff {
			backoff = hinted
		}
		slog.Debug("Rate limited, retrying", "url", req.URL.String(), "backoff", backoff, "attempt", attempt+1, "max_retries", maxRetries)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryAfter parses a Retry-After header given in seconds. It returns 0 when
// the header is absent or uses the HTTP-date form.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
