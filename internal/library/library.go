// Package library keeps the reader's shelves, saved scans and per-file reading
// metadata in a key-value store.
package library

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lepinkainen/bookscan/internal/datastore"
)

// Library wraps a datastore.Store with typed accessors.
type Library struct {
	store datastore.Store
	// mu serializes read-modify-write cycles on shelf lists and metadata entries
	mu sync.Mutex
}

// New wraps an already connected store.
func New(store datastore.Store) *Library {
	return &Library{store: store}
}

// Open connects a SQLite store at dbPath and wraps it.
func Open(dbPath string) (*Library, error) {
	store := datastore.NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	return New(store), nil
}

// Close closes the underlying store.
func (l *Library) Close() error {
	return l.store.Close()
}

func (l *Library) getJSON(key string, target any) (bool, error) {
	raw, found, err := l.store.Get(key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return false, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

func (l *Library) setJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return l.store.Set(key, string(data))
}
