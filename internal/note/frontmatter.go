// Package note renders identified books as markdown notes with YAML frontmatter.
package note

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is a markdown document with YAML frontmatter.
type Note struct {
	Frontmatter *Frontmatter
	Body        string
}

// Frontmatter keeps its keys sorted so rendered notes are deterministic.
type Frontmatter struct {
	fields map[string]any
	keys   []string
}

// NewFrontmatter creates an empty Frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{fields: make(map[string]any)}
}

// Set stores a value, keeping key order sorted.
func (f *Frontmatter) Set(key string, value any) {
	if _, exists := f.fields[key]; !exists {
		f.keys = append(f.keys, key)
		sort.Strings(f.keys)
	}
	f.fields[key] = value
}

// SetIf stores value only when it is not the zero value of its type.
func (f *Frontmatter) SetIf(key string, value any) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
	case int:
		if v == 0 {
			return
		}
	case []string:
		if len(v) == 0 {
			return
		}
	case nil:
		return
	}
	f.Set(key, value)
}

// Get retrieves a value.
func (f *Frontmatter) Get(key string) (any, bool) {
	val, ok := f.fields[key]
	return val, ok
}

// GetString retrieves a string value, or "" when absent or not a string.
func (f *Frontmatter) GetString(key string) string {
	s, _ := f.fields[key].(string)
	return s
}

// Keys returns a copy of the sorted keys.
func (f *Frontmatter) Keys() []string {
	return append([]string(nil), f.keys...)
}

// MarshalYAML writes keys in sorted order and tags as a flow sequence.
func (f *Frontmatter) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(f.keys)*2),
	}

	for _, key := range f.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}

		var valueNode *yaml.Node
		if key == "tags" {
			valueNode = &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, tag := range TagsFromAny(f.fields[key]) {
				valueNode.Content = append(valueNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: tag})
			}
		} else {
			valueNode = &yaml.Node{}
			if err := valueNode.Encode(f.fields[key]); err != nil {
				return nil, err
			}
		}

		node.Content = append(node.Content, keyNode, valueNode)
	}

	return node, nil
}

// Build serializes the note. Notes without frontmatter are written as bare body text.
func (n *Note) Build() ([]byte, error) {
	var buf bytes.Buffer

	if n.Frontmatter != nil && len(n.Frontmatter.keys) > 0 {
		buf.WriteString("---\n")
		fm, err := yaml.Marshal(n.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		buf.Write(fm)
		buf.WriteString("---\n")
	}

	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// Parse splits a markdown document into frontmatter and body.
// A document without a closing delimiter is all body.
func Parse(content []byte) (*Note, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return &Note{Frontmatter: NewFrontmatter(), Body: text}, nil
	}

	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return &Note{Frontmatter: NewFrontmatter(), Body: text}, nil
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &data); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	fm := NewFrontmatter()
	for key, value := range data {
		fm.Set(key, value)
	}
	return &Note{Frontmatter: fm, Body: rest[end+len("\n---\n"):]}, nil
}
