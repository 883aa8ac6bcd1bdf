package identify

import (
	"context"
	"strings"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
)

// DefaultSearchLimit caps the candidates returned by Search.
const DefaultSearchLimit = 10

// Search runs a free-text catalog search and returns up to limit candidates
// in catalog order. Documents without a title are skipped. Identify keeps
// using only the first document; Search is for callers that let a person pick.
func (id *Identifier) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	text := NormalizeText(query)
	if text == "" {
		return nil, bserrors.NewInvalidInputError("Search query is empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	intent := Intent{Kind: IntentText, Query: truncateRunes(text, MaxQueryLength)}
	body, err := id.fetcher.Get(ctx, id.SearchURL(intent))
	if err != nil {
		if bserrors.IsTransport(err) {
			return nil, err
		}
		return nil, bserrors.NewTransportError("", err)
	}

	docs, err := decodeSearchDocs(body)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, min(limit, len(docs)))
	for _, doc := range docs {
		if len(records) == limit {
			break
		}
		if strings.TrimSpace(doc.Title) == "" {
			continue
		}
		records = append(records, id.recordFromDoc(doc))
	}

	if len(records) == 0 {
		return nil, bserrors.NewNotFoundError(noTextMatchMessage)
	}
	return records, nil
}
