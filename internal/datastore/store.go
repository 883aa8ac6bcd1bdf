// Package datastore persists string values under string keys in SQLite.
package datastore

// Store defines the interface for local key-value storage
type Store interface {
	// Connect opens the store and creates its table if needed
	Connect() error

	// Get returns the value for key and whether it was present
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// BatchSet stores every entry in one transaction
	BatchSet(entries map[string]string) error

	// Delete removes key and reports whether it existed
	Delete(key string) (bool, error)

	// Keys lists the keys starting with prefix in ascending order
	Keys(prefix string) ([]string, error)

	// Close closes the connection to the data store
	Close() error
}
