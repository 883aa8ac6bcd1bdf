package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lepinkainen/bookscan/internal/identify"
)

const scanPrefix = "scan:"

var (
	// ErrFailedScan is returned when asked to save an unsuccessful outcome.
	ErrFailedScan = errors.New("only successful scans can be saved")
	// ErrUnkeyedScan is returned when a record has neither title nor ISBN.
	ErrUnkeyedScan = errors.New("scan has neither title nor ISBN")
)

// ScanKey returns the storage key of a record: its title, or its ISBN when the title is blank.
func ScanKey(record *identify.Record) (string, error) {
	if record == nil {
		return "", ErrUnkeyedScan
	}
	if title := strings.TrimSpace(record.Title); title != "" {
		return scanPrefix + title, nil
	}
	if isbn := strings.TrimSpace(record.ISBN); isbn != "" {
		return scanPrefix + isbn, nil
	}
	return "", ErrUnkeyedScan
}

// SaveScan stores a successful outcome and returns its key. A later scan of
// the same book replaces the earlier one.
func (l *Library) SaveScan(outcome identify.Outcome) (string, error) {
	if !outcome.Success {
		return "", ErrFailedScan
	}
	key, err := ScanKey(outcome.Data)
	if err != nil {
		return "", err
	}
	if err := l.setJSON(key, outcome); err != nil {
		return "", fmt.Errorf("failed to save scan: %w", err)
	}
	return key, nil
}

// LoadScan returns the outcome stored under key. The "scan:" prefix is optional.
func (l *Library) LoadScan(key string) (identify.Outcome, bool, error) {
	var outcome identify.Outcome
	found, err := l.getJSON(scanStorageKey(key), &outcome)
	return outcome, found, err
}

// DeleteScan removes a saved scan and reports whether it existed. The "scan:" prefix is optional.
func (l *Library) DeleteScan(key string) (bool, error) {
	removed, err := l.store.Delete(scanStorageKey(key))
	if err != nil {
		return false, fmt.Errorf("failed to delete scan: %w", err)
	}
	return removed, nil
}

func scanStorageKey(key string) string {
	if strings.HasPrefix(key, scanPrefix) {
		return key
	}
	return scanPrefix + key
}

// ListScans returns every scan key in ascending order.
func (l *Library) ListScans() ([]string, error) {
	return l.store.Keys(scanPrefix)
}
