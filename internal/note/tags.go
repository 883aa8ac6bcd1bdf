package note

import (
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
	// Obsidian tags may hold letters, digits, "_", "-" and "/" for nesting.
	invalidTagChars = regexp.MustCompile(`[^\p{L}\p{N}_/-]`)
)

// NormalizeTag turns a free-form subject into an Obsidian tag. Case is kept,
// whitespace becomes hyphens and characters Obsidian rejects are dropped.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return ""
	}

	tag = strings.ReplaceAll(tag, "&", "and")
	tag = whitespaceRun.ReplaceAllString(tag, "-")
	tag = invalidTagChars.ReplaceAllString(tag, "")
	tag = hyphenRun.ReplaceAllString(tag, "-")
	return strings.Trim(tag, "-/")
}

// MergeTags normalizes both lists and returns their sorted union.
func MergeTags(existing, added []string) []string {
	seen := make(map[string]bool)
	for _, list := range [][]string{existing, added} {
		for _, tag := range list {
			if normalized := NormalizeTag(tag); normalized != "" {
				seen[normalized] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for tag := range seen {
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}

// TagsFromAny extracts non-empty strings from []string or the []any YAML decodes to.
func TagsFromAny(val any) []string {
	var result []string
	switch v := val.(type) {
	case []string:
		for _, s := range v {
			if s != "" {
				result = append(result, s)
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				result = append(result, s)
			}
		}
	}
	return result
}
