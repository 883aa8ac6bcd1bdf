package cmd

import (
	"log/slog"
	"net/http"

	"github.com/lepinkainen/bookscan/internal/cache"
	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/library"
	"github.com/lepinkainen/bookscan/internal/openlibrary"
	"github.com/lepinkainen/bookscan/internal/tui"
)

// Swappable in tests
var (
	newFetcher      = defaultFetcher
	openBookLibrary = defaultOpenBookLibrary
	selectBook      = tui.SelectBook
	coverClient     = func() *http.Client { return &http.Client{Timeout: config.OpenLibraryTimeout} }
)

func newCatalogClient() *openlibrary.Client {
	burst := max(int(config.OpenLibraryRateLimit), 1)
	return openlibrary.NewClient(
		openlibrary.WithBaseURL(config.OpenLibraryBaseURL),
		openlibrary.WithHTTPClient(&http.Client{Timeout: config.OpenLibraryTimeout}),
		openlibrary.WithRateLimit(config.OpenLibraryRateLimit, burst),
		openlibrary.WithMaxRetries(config.OpenLibraryMaxRetries),
	)
}

// defaultFetcher builds the catalog transport and puts the response cache in
// front of it when caching is enabled. A cache that cannot be opened is skipped.
func defaultFetcher() identify.Fetcher {
	client := newCatalogClient()

	if !config.CacheEnabled {
		slog.Debug("Response cache disabled")
		return client
	}

	db, err := cache.GetGlobalCache()
	if err != nil {
		slog.Warn("Response cache unavailable, querying catalog directly", "error", err)
		return client
	}

	return cache.NewCachedFetcher(client, db,
		cache.WithTTL(cache.ConfiguredTTL("cache.ttl", cache.DefaultCacheTTL)),
		cache.WithNegativeTTL(cache.ConfiguredTTL("cache.negativettl", cache.NegativeCacheTTL)),
	)
}

func newIdentifier() *identify.Identifier {
	return identify.New(newFetcher(),
		identify.WithBaseURL(config.OpenLibraryBaseURL),
		identify.WithCoversURL(config.OpenLibraryCoversURL),
	)
}

func defaultOpenBookLibrary() (*library.Library, error) {
	return library.Open(config.LibraryDBFile)
}
