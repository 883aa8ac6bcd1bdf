package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OpenLibraryBaseURL is the root of the catalog API
	OpenLibraryBaseURL string
	// OpenLibraryCoversURL is the root of the cover image service
	OpenLibraryCoversURL string
	// OpenLibraryRateLimit is the number of catalog requests allowed per second
	OpenLibraryRateLimit float64
	// OpenLibraryTimeout bounds a single catalog request
	OpenLibraryTimeout time.Duration
	// OpenLibraryMaxRetries is how often a 429 answer is retried
	OpenLibraryMaxRetries int
	// CacheEnabled wraps the catalog transport with the response cache
	CacheEnabled bool
	// LibraryDBFile is the SQLite file holding shelves, scans and reading progress
	LibraryDBFile string
	// ServerAddress is the listen address of the HTTP API
	ServerAddress string
	// OverwriteFiles controls whether existing notes and covers are replaced
	OverwriteFiles bool
)

// SetDefaults registers the default value of every configuration key.
func SetDefaults() {
	viper.SetDefault("openlibrary.baseurl", "https://openlibrary.org")
	viper.SetDefault("openlibrary.coversurl", "https://covers.openlibrary.org")
	viper.SetDefault("openlibrary.ratelimit", 1.0)
	viper.SetDefault("openlibrary.timeout", "15s")
	viper.SetDefault("openlibrary.maxretries", 3)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")         // 30 days
	viper.SetDefault("cache.negativettl", "168h") // 7 days

	viper.SetDefault("library.dbfile", "./library.db")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("OverwriteFiles", false)
}

// InitConfig initializes the global configuration from viper
func InitConfig() {
	SetDefaults()

	OpenLibraryBaseURL = viper.GetString("openlibrary.baseurl")
	OpenLibraryCoversURL = viper.GetString("openlibrary.coversurl")
	OpenLibraryRateLimit = viper.GetFloat64("openlibrary.ratelimit")
	OpenLibraryTimeout = viper.GetDuration("openlibrary.timeout")
	OpenLibraryMaxRetries = viper.GetInt("openlibrary.maxretries")
	CacheEnabled = viper.GetBool("cache.enabled")
	LibraryDBFile = viper.GetString("library.dbfile")
	ServerAddress = viper.GetString("server.address")
	OverwriteFiles = viper.GetBool("OverwriteFiles")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetCacheEnabled sets the CacheEnabled flag
func SetCacheEnabled(enabled bool) {
	CacheEnabled = enabled
}
