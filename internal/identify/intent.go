package identify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	bserrors "github.com/lepinkainen/bookscan/internal/errors"
)

// MaxQueryLength is how many characters of OCR text go into a free-text search.
// Text past this point is usually blurb or barcode noise below the title block.
const MaxQueryLength = 100

// IntentKind tells which catalog endpoint a lookup uses.
type IntentKind string

const (
	IntentISBN IntentKind = "isbn"
	IntentText IntentKind = "text"
)

// Intent is the search decided for one OCR text. Exactly one of ISBN and Query is set.
type Intent struct {
	Kind  IntentKind
	ISBN  string
	Query string
}

var (
	// isbnPrefix matches an optional "ISBN", "ISBN-10" or "ISBN-13" label with its separators.
	isbnPrefix = regexp.MustCompile(`^(?i:ISBN(?:-1[03])?:?\s*)`)
	// isbnBody is the digit run of an ISBN-10 or ISBN-13, hyphens or spaces allowed between groups.
	isbnBody = regexp.MustCompile(`^(?i:(?:97[89][-\s])?[0-9]{1,5}[-\s]?[0-9]+[-\s]?[0-9]+[-\s]?[0-9X])`)

	lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")
)

// NormalizeText turns line breaks into spaces and trims the result. Other
// Unicode spaces (NBSP, em space, vertical tab) become plain spaces so ISBN
// matching only has to deal with ASCII separators.
func NormalizeText(ocrText string) string {
	return strings.TrimSpace(strings.Map(asciiSpace, lineBreaks.Replace(ocrText)))
}

func asciiSpace(r rune) rune {
	if r != ' ' && unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// ParseIntent decides between an ISBN lookup and a free-text search.
// Only the first ISBN-shaped candidate in the text is considered.
func ParseIntent(ocrText string) (Intent, error) {
	text := NormalizeText(ocrText)
	if text == "" {
		return Intent{}, bserrors.NewInvalidInputError(invalidInputMessage)
	}

	if match, ok := FindISBN(text); ok {
		return Intent{Kind: IntentISBN, ISBN: CleanISBN(match)}, nil
	}

	return Intent{Kind: IntentText, Query: truncateRunes(text, MaxQueryLength)}, nil
}

// FindISBN returns the leftmost ISBN-shaped substring of text, including any
// "ISBN" label in front of it.
func FindISBN(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		bodyStart := start
		if loc := isbnPrefix.FindStringIndex(text[start:]); loc != nil {
			bodyStart = start + loc[1]
		}

		if end, ok := matchISBNBody(text, bodyStart); ok {
			return text[start:end], true
		}
	}
	return "", false
}

// matchISBNBody checks the ISBN shape rules at pos and returns the end of the body.
func matchISBNBody(text string, pos int) (int, bool) {
	rest := text[pos:]
	if !looksLikeISBN(rest) {
		return 0, false
	}
	loc := isbnBody.FindStringIndex(rest)
	if loc == nil {
		return 0, false
	}
	return pos + loc[1], true
}

// looksLikeISBN accepts the four shapes an ISBN can take at the start of s:
// ten digits (or X), a 13 character hyphenated ISBN-10, a bare ISBN-13 with
// its 978/979 prefix, or a 17 character hyphenated ISBN-13.
func looksLikeISBN(s string) bool {
	switch {
	case allOf(s, 10, isDigitOrX):
		return true
	case separatedGroups(s, 3) && allOf(s, 13, isSeparatorDigitOrX):
		return true
	case hasEANPrefix(s) && len(s) >= 13 && allOf(s[3:], 10, isDigit):
		return true
	case separatedGroups(s, 4) && allOf(s, 17, isSeparatorOrDigit):
		return true
	}
	return false
}

// separatedGroups reports whether s starts with n runs of digits, each followed by a separator.
func separatedGroups(s string, n int) bool {
	i := 0
	for group := 0; group < n; group++ {
		digits := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
		if digits == 0 || i >= len(s) || !isSeparator(s[i]) {
			return false
		}
		i++
	}
	return true
}

func hasEANPrefix(s string) bool {
	return len(s) >= 3 && s[0] == '9' && s[1] == '7' && (s[2] == '8' || s[2] == '9')
}

func allOf(s string, n int, pred func(byte) bool) bool {
	if len(s) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if !pred(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isDigitOrX(b byte) bool { return isDigit(b) || b == 'X' || b == 'x' }

func isSeparator(b byte) bool {
	switch b {
	case '-', ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func isSeparatorDigitOrX(b byte) bool { return isSeparator(b) || isDigitOrX(b) }

func isSeparatorOrDigit(b byte) bool { return isSeparator(b) || isDigit(b) }

// CleanISBN strips the ISBN label, hyphens and whitespace from a matched
// candidate, leaving digits and an upper-case check character.
func CleanISBN(match string) string {
	if loc := isbnPrefix.FindStringIndex(match); loc != nil {
		match = match[loc[1]:]
	}

	var sb strings.Builder
	sb.Grow(len(match))
	for i := 0; i < len(match); i++ {
		b := match[i]
		switch {
		case isSeparator(b):
			continue
		case b == 'x':
			sb.WriteByte('X')
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
