package cache

import (
	"testing"
	"time"

	"github.com/lepinkainen/bookscan/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGlobalCacheFile(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, ResetGlobalCache())
	t.Cleanup(func() { _ = ResetGlobalCache() })

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", env.Path("cache.db"))

	c, err := GetGlobalCache()
	require.NoError(t, err)
	return c
}

func TestInvalidateCacheCmd(t *testing.T) {
	c := setupGlobalCacheFile(t)
	require.NoError(t, c.Set("openlibrary_cache", "a", "1", time.Hour))

	cmd := &InvalidateCacheCmd{Source: "openlibrary"}
	require.NoError(t, cmd.Run())

	assert.False(t, hasRow(t, c, "openlibrary_cache", "a"))
}

func TestInvalidateCacheCmd_UnknownSource(t *testing.T) {
	setupGlobalCacheFile(t)

	err := (&InvalidateCacheCmd{Source: "tmdb"}).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache source 'tmdb'")
	assert.Contains(t, err.Error(), "covers, openlibrary")
}

func TestPruneCacheCmd(t *testing.T) {
	c := setupGlobalCacheFile(t)
	require.NoError(t, c.Set("openlibrary_cache", "fresh", "1", time.Hour))
	require.NoError(t, c.Set("cover_cache", "stale", "2", time.Hour))
	setExpiresAt(t, c, "cover_cache", "stale", time.Now().Add(-time.Hour))

	require.NoError(t, (&PruneCacheCmd{}).Run())

	assert.True(t, hasRow(t, c, "openlibrary_cache", "fresh"))
	assert.False(t, hasRow(t, c, "cover_cache", "stale"))
}
