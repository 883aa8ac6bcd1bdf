// Package identify resolves OCR text from a photographed book cover into
// catalog metadata. It picks between an ISBN lookup and a free-text search,
// issues exactly one catalog request and normalizes the answer into a Record.
package identify

import "context"

// UnknownAuthor is used when the catalog has no author for a book.
const UnknownAuthor = "Unknown"

// Fetcher performs a read-only GET and returns the raw response body.
// Retries, timeouts and caching are the fetcher's business.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Record is the canonical book metadata returned by a lookup.
type Record struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	PublishDate string   `json:"publishDate,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Pages       int      `json:"pages,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	CoverURL    string   `json:"coverUrl,omitempty"`
	Description string   `json:"description,omitempty"`
}

// FailureKind classifies a failed Outcome.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureInvalidInput FailureKind = "invalid_input"
	FailureNotFound     FailureKind = "not_found"
	FailureTransport    FailureKind = "transport"
)

// Outcome is the result of Identify: either Data is set and Success is true,
// or Error holds the failure reason.
type Outcome struct {
	Success bool        `json:"success"`
	Data    *Record     `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    FailureKind `json:"kind,omitempty"`
	Intent  IntentKind  `json:"intent,omitempty"`
}

// Succeeded builds a successful Outcome.
func Succeeded(intent IntentKind, record *Record) Outcome {
	return Outcome{Success: true, Data: record, Intent: intent}
}

// Failed builds a failed Outcome.
func Failed(intent IntentKind, kind FailureKind, reason string) Outcome {
	return Outcome{Error: reason, Kind: kind, Intent: intent}
}

// bibkeysBook is one entry of the /api/books?jscmd=data response.
// Publishers and subjects arrive either as strings or as {"name": ...} objects.
type bibkeysBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PublishDate   string `json:"publish_date"`
	Publishers    []any  `json:"publishers"`
	NumberOfPages int    `json:"number_of_pages"`
	Subjects      []any  `json:"subjects"`
	CoverID       int    `json:"cover_i"`
	Cover         struct {
		Large string `json:"large"`
	} `json:"cover"`
	Description any `json:"description"`
}

// searchResponse matches /search.json.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	Publisher           []string `json:"publisher"`
	ISBN                []string `json:"isbn"`
	NumberOfPages       int      `json:"number_of_pages"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	Subject             []string `json:"subject"`
	CoverID             int      `json:"cover_i"`
}
