package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lepinkainen/bookscan/internal/metrics"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached entries (30 days)
	DefaultCacheTTL = 720 * time.Hour
	// NegativeCacheTTL is the TTL for "not found" responses (7 days)
	NegativeCacheTTL = 168 * time.Hour
)

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func() (T, error)

// CacheDB manages the SQLite database connection for caching
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

var (
	globalCache     *CacheDB
	globalCacheOnce sync.Once
)

// ResetGlobalCache closes the current global cache and resets the singleton
// so the next call to GetGlobalCache will create a new instance.
func ResetGlobalCache() error {
	if globalCache != nil {
		if err := globalCache.Close(); err != nil {
			return err
		}
	}
	globalCache = nil
	globalCacheOnce = sync.Once{}
	return nil
}

// GetGlobalCache returns the singleton cache database instance
func GetGlobalCache() (*CacheDB, error) {
	var initErr error
	globalCacheOnce.Do(func() {
		dbPath := viper.GetString("cache.dbfile")
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		globalCache, initErr = Open(dbPath)
	})
	if initErr != nil {
		return nil, initErr
	}
	if globalCache == nil {
		return nil, errors.New("cache database not initialized")
	}
	return globalCache, nil
}

// Open creates a CacheDB and initializes every cache table.
func Open(dbPath string) (*CacheDB, error) {
	c, err := NewCacheDB(dbPath)
	if err != nil {
		return nil, err
	}
	for _, schema := range AllCacheSchemas {
		if err := c.CreateTable(schema); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), c.Close())
		}
	}
	return c, nil
}

// NewCacheDB creates a new CacheDB instance and opens the database connection
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	return &CacheDB{
		db:   db,
		path: dbPath,
	}, nil
}

// Path returns the database file the cache was opened from.
func (c *CacheDB) Path() string {
	return c.path
}

// CreateTable creates a table using the provided schema
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InvalidateSource deletes all entries from the specified cache table
// and returns the number of rows deleted.
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// validateTableName checks if the table name is in the whitelist
// to prevent SQL injection attacks
func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}

// ConfiguredTTL reads a duration from viper, falling back when it is unset or invalid.
func ConfiguredTTL(key string, fallback time.Duration) time.Duration {
	ttlStr := viper.GetString(key)
	if ttlStr == "" {
		return fallback
	}
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		slog.Warn("Invalid cache TTL, using default", "key", key, "ttl", ttlStr, "error", err)
		return fallback
	}
	return ttl
}

// GetOrFetch retrieves data from the global cache or fetches it using the provided function.
// Fetched values are stored with the configured cache.ttl.
func GetOrFetch[T any](tableName, cacheKey string, fetchFunc FetchFunc[T]) (T, bool, error) {
	return GetOrFetchWithTTL(tableName, cacheKey, fetchFunc, nil)
}

// GetOrFetchWithTTL retrieves data from the global cache or fetches it using the provided function.
// The ttlSelector is called after fetching to decide how long the value stays valid; nil uses cache.ttl.
func GetOrFetchWithTTL[T any](tableName, cacheKey string, fetchFunc FetchFunc[T], ttlSelector func(T) time.Duration) (T, bool, error) {
	c, err := GetGlobalCache()
	if err != nil {
		slog.Warn("Failed to initialize cache, fetching directly", "error", err)
		data, fetchErr := fetchFunc()
		return data, false, fetchErr
	}

	data, fromCache, err := getOrFetch(c, tableName, cacheKey, fetchFunc, ttlSelector)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}
	return data, fromCache, nil
}

// getOrFetch returns fetch errors unchanged so callers can classify them.
func getOrFetch[T any](c *CacheDB, tableName, cacheKey string, fetchFunc FetchFunc[T], ttlSelector func(T) time.Duration) (T, bool, error) {
	var zero T

	cached, fromCache, err := c.Get(tableName, cacheKey)
	if err != nil {
		slog.Warn("Cache lookup failed, fetching directly", "table", tableName, "key", cacheKey, "error", err)
	}
	if err == nil && fromCache {
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			slog.Debug("Cache hit", "table", tableName, "key", cacheKey)
			metrics.RecordCacheLookup(tableName, true)
			return result, true, nil
		}
		slog.Warn("Failed to unmarshal cached data, will refetch", "table", tableName, "key", cacheKey, "error", err)
	}

	metrics.RecordCacheLookup(tableName, false)
	slog.Debug("Cache miss, fetching data", "table", tableName, "key", cacheKey)
	data, err := fetchFunc()
	if err != nil {
		return zero, false, err
	}

	ttl := ConfiguredTTL("cache.ttl", DefaultCacheTTL)
	if ttlSelector != nil {
		ttl = ttlSelector(data)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "table", tableName, "key", cacheKey, "error", err)
		return data, false, nil
	}
	if err := c.Set(tableName, cacheKey, string(jsonData), ttl); err != nil {
		// caching failure shouldn't stop the lookup
		slog.Warn("Failed to cache data", "table", tableName, "key", cacheKey, "error", err)
	} else {
		slog.Debug("Data cached successfully", "table", tableName, "key", cacheKey, "ttl", ttl)
	}

	return data, false, nil
}

// Get retrieves an unexpired value from the specified table.
// Returns the cached data, whether it was found, and any error.
func (c *CacheDB) Get(tableName, key string) (string, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT data, expires_at
		FROM %s
		WHERE cache_key = ?
	`, tableName)

	var data string
	var expiresAt int64
	err := c.db.QueryRow(query, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if time.Now().Unix() >= expiresAt {
		slog.Debug("Cache expired", "table", tableName, "key", key, "expired_at", time.Unix(expiresAt, 0).UTC())
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value in the cache that expires after ttl.
func (c *CacheDB) Set(tableName, key, data string, ttl time.Duration) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, cached_at, expires_at)
		VALUES (?, ?, CURRENT_TIMESTAMP, ?)
	`, tableName)

	expiresAt := time.Now().Add(ttl).Unix()
	if _, err := c.db.Exec(query, key, data, expiresAt); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// ClearExpired removes expired entries from the specified table and returns how many were removed.
func (c *CacheDB) ClearExpired(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= ?`, tableName)
	result, err := c.db.Exec(query, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		slog.Info("Cleared expired cache entries", "table", tableName, "count", rows)
	}

	return rows, nil
}
