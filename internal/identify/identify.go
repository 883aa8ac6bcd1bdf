package identify

import (
	"context"
	"log/slog"
	"strings"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
)

// Identifier resolves OCR text to book metadata through a Fetcher.
// It keeps no state between calls and is safe for concurrent use.
type Identifier struct {
	fetcher   Fetcher
	baseURL   string
	coversURL string
}

// Option configures an Identifier.
type Option func(*Identifier)

// WithBaseURL points the identifier at another catalog host.
func WithBaseURL(baseURL string) Option {
	return func(id *Identifier) {
		if baseURL != "" {
			id.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithCoversURL sets the host used for cover image URLs.
func WithCoversURL(coversURL string) Option {
	return func(id *Identifier) {
		if coversURL != "" {
			id.coversURL = strings.TrimRight(coversURL, "/")
		}
	}
}

// New creates an Identifier that issues its requests through fetcher.
func New(fetcher Fetcher, opts ...Option) *Identifier {
	id := &Identifier{
		fetcher:   fetcher,
		baseURL:   DefaultBaseURL,
		coversURL: DefaultCoversURL,
	}
	for _, opt := range opts {
		opt(id)
	}
	return id
}

// Identify resolves ocrText to a book. It never returns a Go error: every
// failure is reported in the Outcome.
func (id *Identifier) Identify(ctx context.Context, ocrText string) Outcome {
	intent, err := ParseIntent(ocrText)
	if err != nil {
		return Failed("", FailureInvalidInput, err.Error())
	}

	record, err := id.lookup(ctx, intent)
	if err != nil {
		slog.Warn("Book search failed", "intent", intent.Kind, "error", err)
		return Failed(intent.Kind, classify(err), err.Error())
	}

	slog.Debug("Book identified", "intent", intent.Kind, "title", record.Title, "isbn", record.ISBN)
	return Succeeded(intent.Kind, record)
}

// Lookup is Identify with Go error semantics. Errors are the typed errors of
// the internal/errors package.
func (id *Identifier) Lookup(ctx context.Context, ocrText string) (*Record, error) {
	intent, err := ParseIntent(ocrText)
	if err != nil {
		return nil, err
	}
	return id.lookup(ctx, intent)
}

func (id *Identifier) lookup(ctx context.Context, intent Intent) (*Record, error) {
	searchURL := id.SearchURL(intent)
	slog.Debug("Searching catalog", "intent", intent.Kind, "isbn", intent.ISBN, "query", intent.Query)

	body, err := id.fetcher.Get(ctx, searchURL)
	if err != nil {
		if bserrors.IsTransport(err) {
			return nil, err
		}
		return nil, bserrors.NewTransportError("", err)
	}

	if intent.Kind == IntentISBN {
		return id.NormalizeISBNResponse(body, intent.ISBN)
	}
	return id.NormalizeSearchResponse(body)
}

func classify(err error) FailureKind {
	switch {
	case bserrors.IsInvalidInput(err):
		return FailureInvalidInput
	case bserrors.IsNotFound(err):
		return FailureNotFound
	default:
		return FailureTransport
	}
}
