package identify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
)

const (
	invalidInputMessage = "Invalid OCR text provided"
	noTextMatchMessage  = "No books found matching the text"
	missingTitleMessage = "Book data is missing a title"
)

// NormalizeISBNResponse turns a bibkeys response into a Record for isbn.
func (id *Identifier) NormalizeISBNResponse(body []byte, isbn string) (*Record, error) {
	var response map[string]bibkeysBook
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, bserrors.NewTransportError("decoding ISBN response", err)
	}

	book, ok := response["ISBN:"+isbn]
	if !ok {
		return nil, bserrors.NewNotFoundError(fmt.Sprintf("Book not found with this ISBN: %s", isbn))
	}
	if strings.TrimSpace(book.Title) == "" {
		return nil, bserrors.NewNotFoundError(missingTitleMessage)
	}

	record := &Record{
		Title:       book.Title,
		Author:      UnknownAuthor,
		PublishDate: book.PublishDate,
		ISBN:        isbn,
		Pages:       book.NumberOfPages,
		Subjects:    extractStringSlice(book.Subjects),
		Description: extractDescription(book.Description),
	}

	if len(book.Authors) > 0 && book.Authors[0].Name != "" {
		record.Author = book.Authors[0].Name
	}
	if publishers := extractStringSlice(book.Publishers); len(publishers) > 0 {
		record.Publisher = publishers[0]
	}

	record.CoverURL = id.CoverURL(book.CoverID)
	if record.CoverURL == "" {
		record.CoverURL = book.Cover.Large
	}

	return record, nil
}

// NormalizeSearchResponse turns a search.json response into a Record using
// the first document as the best match. No ranking is attempted.
func (id *Identifier) NormalizeSearchResponse(body []byte) (*Record, error) {
	docs, err := decodeSearchDocs(body)
	if err != nil {
		return nil, err
	}

	best := docs[0]
	if strings.TrimSpace(best.Title) == "" {
		return nil, bserrors.NewNotFoundError(missingTitleMessage)
	}

	record := id.recordFromDoc(best)
	return &record, nil
}

func decodeSearchDocs(body []byte) ([]searchDoc, error) {
	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, bserrors.NewTransportError("decoding search response", err)
	}
	if len(response.Docs) == 0 {
		return nil, bserrors.NewNotFoundError(noTextMatchMessage)
	}
	return response.Docs, nil
}

func (id *Identifier) recordFromDoc(doc searchDoc) Record {
	record := Record{
		Title:    doc.Title,
		Author:   firstOr(doc.AuthorName, UnknownAuthor),
		Subjects: doc.Subject,
		CoverURL: id.CoverURL(doc.CoverID),
	}

	if doc.FirstPublishYear > 0 {
		record.PublishDate = strconv.Itoa(doc.FirstPublishYear)
	}
	record.Publisher = firstOr(doc.Publisher, "")
	record.ISBN = firstOr(doc.ISBN, "")

	record.Pages = doc.NumberOfPages
	if record.Pages == 0 {
		record.Pages = doc.NumberOfPagesMedian
	}

	return record
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}

// extractDescription handles the two forms description can take: a plain
// string or an object with a "value" key.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

// extractStringSlice converts []any to []string, accepting plain strings and
// {"name": ...} objects.
func extractStringSlice(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				result = append(result, name)
			}
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
