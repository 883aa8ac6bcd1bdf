package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/bookscan/internal/identify"
)

const metadataPrefix = "metadata:"

// Location is the last reading position inside a book file.
type Location struct {
	CFI        string    `json:"cfi,omitempty"`
	Percentage float64   `json:"percentage"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FileMetadata describes one book file in the library.
type FileMetadata struct {
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	Cover    string    `json:"cover"`
	Progress string    `json:"progress"`
	Location *Location `json:"location"`
}

// FormatProgress renders a completion fraction in percent the way it is stored.
func FormatProgress(percentage float64) string {
	switch {
	case percentage < 0:
		percentage = 0
	case percentage > 100:
		percentage = 100
	}
	return fmt.Sprintf("%.0f%%", percentage)
}

// PutMetadata stores meta under the file name.
func (l *Library) PutMetadata(name string, meta FileMetadata) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setJSON(metadataPrefix+name, meta)
}

// Metadata returns the stored metadata of a file.
func (l *Library) Metadata(name string) (FileMetadata, bool, error) {
	var meta FileMetadata
	found, err := l.getJSON(metadataPrefix+name, &meta)
	return meta, found, err
}

// AllMetadata returns every metadata entry keyed by file name.
func (l *Library) AllMetadata() (map[string]FileMetadata, error) {
	keys, err := l.store.Keys(metadataPrefix)
	if err != nil {
		return nil, err
	}

	all := make(map[string]FileMetadata, len(keys))
	for _, key := range keys {
		var meta FileMetadata
		found, err := l.getJSON(key, &meta)
		if err != nil {
			return nil, err
		}
		if found {
			all[strings.TrimPrefix(key, metadataPrefix)] = meta
		}
	}
	return all, nil
}

// SetProgress records the reading progress of a file, creating its entry when
// absent. A nil location keeps the previously stored one.
func (l *Library) SetProgress(name, progress string, location *Location) (FileMetadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var meta FileMetadata
	found, err := l.getJSON(metadataPrefix+name, &meta)
	if err != nil {
		return FileMetadata{}, err
	}
	if !found {
		meta = FileMetadata{Title: name, Author: identify.UnknownAuthor}
	}

	meta.Progress = progress
	if location != nil {
		loc := *location
		if loc.UpdatedAt.IsZero() {
			loc.UpdatedAt = time.Now().UTC()
		}
		meta.Location = &loc
	}

	if err := l.setJSON(metadataPrefix+name, meta); err != nil {
		return FileMetadata{}, fmt.Errorf("failed to save progress: %w", err)
	}
	return meta, nil
}
