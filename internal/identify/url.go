package identify

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the OpenLibrary catalog host.
	DefaultBaseURL = "https://openlibrary.org"
	// DefaultCoversURL serves cover images by cover id.
	DefaultCoversURL = "https://covers.openlibrary.org"
)

// SearchURL builds the catalog request for an intent.
func (id *Identifier) SearchURL(intent Intent) string {
	if intent.Kind == IntentISBN {
		return fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", id.baseURL, intent.ISBN)
	}
	return fmt.Sprintf("%s/search.json?q=%s", id.baseURL, EscapeQuery(intent.Query))
}

// uriComponentKeep undoes QueryEscape for the characters encodeURIComponent leaves alone.
var uriComponentKeep = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeQuery percent-encodes a free-text query the way browsers encode a URI
// component: spaces become %20 and !'()* stay literal.
func EscapeQuery(query string) string {
	return uriComponentKeep.Replace(url.QueryEscape(query))
}

// CoverURL returns the large cover image URL for an OpenLibrary cover id,
// or "" when the id is not set.
func (id *Identifier) CoverURL(coverID int) string {
	if coverID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-L.jpg", id.coversURL, coverID)
}
