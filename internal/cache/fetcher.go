package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Fetcher is the transport contract shared with identify.Fetcher.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// CachedFetcher decorates a Fetcher with the SQLite response cache.
// Errors from the wrapped fetcher are never cached.
type CachedFetcher struct {
	next        Fetcher
	db          *CacheDB
	table       string
	ttl         time.Duration
	negativeTTL time.Duration
}

// FetcherOption configures a CachedFetcher.
type FetcherOption func(*CachedFetcher)

// WithTTL sets the lifetime of non-empty catalog answers.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *CachedFetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithNegativeTTL sets the lifetime of empty catalog answers.
func WithNegativeTTL(ttl time.Duration) FetcherOption {
	return func(f *CachedFetcher) {
		if ttl > 0 {
			f.negativeTTL = ttl
		}
	}
}

// NewCachedFetcher wraps next with db. A nil db disables caching.
func NewCachedFetcher(next Fetcher, db *CacheDB, opts ...FetcherOption) *CachedFetcher {
	f := &CachedFetcher{
		next:        next,
		db:          db,
		table:       "openlibrary_cache",
		ttl:         DefaultCacheTTL,
		negativeTTL: NegativeCacheTTL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the cached body for url or fetches and stores it.
func (f *CachedFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.db == nil {
		return f.next.Get(ctx, url)
	}

	body, fromCache, err := getOrFetch(f.db, f.table, url,
		func() (json.RawMessage, error) {
			return f.next.Get(ctx, url)
		},
		f.selectTTL,
	)
	if err != nil {
		return nil, err
	}
	if fromCache {
		slog.Debug("Serving catalog response from cache", "url", url)
	}
	return body, nil
}

func (f *CachedFetcher) selectTTL(body json.RawMessage) time.Duration {
	if IsEmptyCatalogAnswer(body) {
		return f.negativeTTL
	}
	return f.ttl
}

// IsEmptyCatalogAnswer reports whether body is an OpenLibrary "nothing found" reply:
// an empty object from the books endpoint or a search result with no docs.
func IsEmptyCatalogAnswer(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return false
	}
	if len(obj) == 0 {
		return true
	}

	docs, ok := obj["docs"]
	if !ok {
		return false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(docs, &list); err != nil {
		return false
	}
	return len(list) == 0
}
