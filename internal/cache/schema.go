package cache

// SQL schemas for cache tables.
// All cache tables use "cache_key" as the primary key column and store the
// expiry as unix seconds so a lookup never has to know the TTL used on write.

// OpenLibraryCacheSchema defines the schema for raw OpenLibrary responses keyed by request URL
const OpenLibraryCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_expires_at ON openlibrary_cache(expires_at);
`

// CoverCacheSchema defines the schema for downloaded cover locations keyed by cover URL
const CoverCacheSchema = `
CREATE TABLE IF NOT EXISTS cover_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cover_expires_at ON cover_cache(expires_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	OpenLibraryCacheSchema,
	CoverCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	"openlibrary_cache": true,
	"cover_cache":       true,
}

// SourceTables maps the source names accepted on the command line to cache tables.
var SourceTables = map[string]string{
	"openlibrary": "openlibrary_cache",
	"covers":      "cover_cache",
}
