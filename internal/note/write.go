package note

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/bookscan/internal/identify"
)

// maxSubjectTags caps how many catalog subjects become tags; OpenLibrary lists dozens.
const maxSubjectTags = 5

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"?", "",
	"*", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameReplacer.Replace(name))
}

// FilePath returns where the note for a title lives inside dir.
func FilePath(dir, title string) string {
	return filepath.Join(dir, SanitizeFilename(title)+".md")
}

// Options adjust what Write puts into a note.
type Options struct {
	// CoverPath replaces the remote cover URL with a local file reference.
	CoverPath string
	// Overwrite replaces an existing note. Tags the user added to it are kept.
	Overwrite bool
}

// Render builds the note for record without touching the filesystem.
func Render(record *identify.Record, opts Options) *Note {
	fm := NewFrontmatter()
	fm.Set("title", record.Title)
	fm.Set("author", record.Author)
	fm.SetIf("isbn", record.ISBN)
	fm.SetIf("publisher", record.Publisher)
	fm.SetIf("published", record.PublishDate)
	fm.SetIf("pages", record.Pages)

	cover := record.CoverURL
	if opts.CoverPath != "" {
		cover = opts.CoverPath
	}
	fm.SetIf("cover", cover)

	subjects := record.Subjects
	if len(subjects) > maxSubjectTags {
		subjects = subjects[:maxSubjectTags]
	}
	tags := []string{"book"}
	for _, subject := range subjects {
		if tag := NormalizeTag(subject); tag != "" {
			tags = append(tags, "subject/"+tag)
		}
	}
	fm.Set("tags", MergeTags(nil, tags))

	return &Note{Frontmatter: fm, Body: renderBody(record)}
}

func renderBody(record *identify.Record) string {
	var sb strings.Builder
	if record.Description != "" {
		sb.WriteString(strings.TrimSpace(record.Description))
		sb.WriteString("\n")
	}
	if len(record.Subjects) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## Subjects\n\n")
		for _, subject := range record.Subjects {
			sb.WriteString("- ")
			sb.WriteString(subject)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Write renders record into dir and returns the note path and whether it was written.
// An existing note is left alone unless opts.Overwrite is set.
func Write(dir string, record *identify.Record, opts Options) (string, bool, error) {
	if record == nil || strings.TrimSpace(record.Title) == "" {
		return "", false, fmt.Errorf("cannot write a note without a title")
	}

	path := FilePath(dir, record.Title)
	n := Render(record, opts)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil && !opts.Overwrite:
		slog.Info("Note already exists, skipping", "path", path)
		return path, false, nil
	case err == nil:
		if old, parseErr := Parse(existing); parseErr == nil {
			oldTags, _ := old.Frontmatter.Get("tags")
			n.Frontmatter.Set("tags", MergeTags(TagsFromAny(oldTags), TagsFromAny(valueOf(n.Frontmatter, "tags"))))
		} else {
			slog.Warn("Existing note has invalid frontmatter, replacing it", "path", path, "error", parseErr)
		}
	case !os.IsNotExist(err):
		return "", false, fmt.Errorf("failed to read existing note: %w", err)
	}

	content, err := n.Build()
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create note directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write note: %w", err)
	}

	slog.Info("Wrote note", "path", path)
	return path, true, nil
}

func valueOf(fm *Frontmatter, key string) any {
	v, _ := fm.Get(key)
	return v
}
