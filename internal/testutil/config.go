package testutil

import (
	"testing"

	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OpenLibraryBaseURL   string
	OpenLibraryCoversURL string
	CacheEnabled         bool
	LibraryDBFile        string
	OverwriteFiles       bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OpenLibraryBaseURL:   config.OpenLibraryBaseURL,
		OpenLibraryCoversURL: config.OpenLibraryCoversURL,
		CacheEnabled:         config.CacheEnabled,
		LibraryDBFile:        config.LibraryDBFile,
		OverwriteFiles:       config.OverwriteFiles,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OpenLibraryBaseURL = state.OpenLibraryBaseURL
	config.OpenLibraryCoversURL = state.OpenLibraryCoversURL
	config.CacheEnabled = state.CacheEnabled
	config.LibraryDBFile = state.LibraryDBFile
	config.OverwriteFiles = state.OverwriteFiles
}

// ResetConfig resets viper and restores the config globals when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig points the catalog at baseURL and keeps every database inside env.
// Caching is off unless a test enables it.
func SetTestConfig(t *testing.T, env *TestEnv, baseURL string) {
	t.Helper()

	ResetConfig(t)
	config.SetDefaults()

	viper.Set("openlibrary.baseurl", baseURL)
	viper.Set("openlibrary.coversurl", baseURL)
	viper.Set("openlibrary.ratelimit", 0)
	viper.Set("cache.enabled", false)
	viper.Set("library.dbfile", env.Path("library.db"))
	SetupTestCache(t, env)

	config.InitConfig()
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so a previously unset key keeps the test value
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache configures viper to keep the response cache inside env.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.MkdirAll("cache")
	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")

	return cacheDir
}
