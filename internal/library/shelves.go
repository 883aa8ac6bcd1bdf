package library

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Shelf names double as storage keys.
const (
	FinishedShelf   = "finished-shelf"
	FavouritesShelf = "favourites-shelf"
)

var (
	// ErrMissingFilePath is returned when a shelf item has no file path.
	ErrMissingFilePath = errors.New("shelf item has no file path")
	// ErrUnknownShelf is returned for shelf names other than finished and favourites.
	ErrUnknownShelf = errors.New("unknown shelf")
)

// ShelfItem is a book file placed on a shelf. FilePath identifies it.
type ShelfItem struct {
	FilePath string `json:"filePath"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Cover    string `json:"cover,omitempty"`
}

// ParseShelf accepts "finished", "favourites" or the full shelf key.
func ParseShelf(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "finished", FinishedShelf:
		return FinishedShelf, nil
	case "favourites", "favorites", FavouritesShelf:
		return FavouritesShelf, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShelf, name)
}

// List returns the items on shelf in insertion order. A shelf never written is empty.
func (l *Library) List(shelf string) ([]ShelfItem, error) {
	key, err := ParseShelf(shelf)
	if err != nil {
		return nil, err
	}
	return l.list(key)
}

func (l *Library) list(key string) ([]ShelfItem, error) {
	items := []ShelfItem{}
	if _, err := l.getJSON(key, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add appends item to shelf. It reports false without writing when an item
// with the same file path is already there.
func (l *Library) Add(shelf string, item ShelfItem) (bool, error) {
	key, err := ParseShelf(shelf)
	if err != nil {
		return false, err
	}
	if item.FilePath == "" {
		return false, ErrMissingFilePath
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.list(key)
	if err != nil {
		return false, err
	}
	for _, existing := range items {
		if existing.FilePath == item.FilePath {
			slog.Debug("Book already on shelf", "shelf", key, "file", item.FilePath)
			return false, nil
		}
	}

	if err := l.setJSON(key, append(items, item)); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", key, err)
	}
	slog.Debug("Added book to shelf", "shelf", key, "file", item.FilePath)
	return true, nil
}

// Remove drops the item with filePath from shelf and reports whether it was there.
func (l *Library) Remove(shelf, filePath string) (bool, error) {
	key, err := ParseShelf(shelf)
	if err != nil {
		return false, err
	}
	if filePath == "" {
		return false, ErrMissingFilePath
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.list(key)
	if err != nil {
		return false, err
	}

	kept := items[:0]
	for _, existing := range items {
		if existing.FilePath != filePath {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}

	if err := l.setJSON(key, kept); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", key, err)
	}
	return true, nil
}
