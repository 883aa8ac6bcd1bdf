package testutil

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("notes", "dune.md")
	assert.Equal(t, filepath.Join(env.RootDir(), "notes", "dune.md"), path)
	assert.Equal(t, env.RootDir(), env.Path())
}

func TestTestEnv_WriteReadFile(t *testing.T) {
	env := NewTestEnv(t)

	abs := env.WriteFileString("nested/dir/book.txt", "Dune")
	assert.FileExists(t, abs)
	assert.Equal(t, "Dune", env.ReadFileString("nested/dir/book.txt"))
	env.AssertFileContains("nested/dir/book.txt", "Du")
}

func TestTestEnv_MkdirAllAndList(t *testing.T) {
	env := NewTestEnv(t)

	env.MkdirAll("library")
	env.WriteFileString("library/a.epub", "a")
	env.WriteFileString("library/b.epub", "b")

	assert.ElementsMatch(t, []string{"a.epub", "b.epub"}, env.ListFiles("library"))
	assert.True(t, env.FileExists("library/a.epub"))
	assert.False(t, env.FileExists("library/c.epub"))
	env.RequireFileExists("library/b.epub")
}

func TestTestEnv_Chdir(t *testing.T) {
	env := NewTestEnv(t)
	env.MkdirAll("work")

	env.Chdir("work")

	wd, err := os.Getwd()
	require.NoError(t, err)
	resolvedWd, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	resolvedWant, err := filepath.EvalSymlinks(env.Path("work"))
	require.NoError(t, err)
	assert.Equal(t, resolvedWant, resolvedWd)
}

func TestTestEnv_SetEnv(t *testing.T) {
	env := NewTestEnv(t)

	env.SetEnv("BOOKSCAN_TEST_VALUE", "on")
	assert.Equal(t, "on", os.Getenv("BOOKSCAN_TEST_VALUE"))
}

func TestTestEnv_String(t *testing.T) {
	env := NewTestEnv(t)
	assert.Contains(t, env.String(), env.RootDir())
}

func TestResetConfig(t *testing.T) {
	config.OverwriteFiles = true
	viper.Set("library.dbfile", "somewhere.db")

	t.Run("inner", func(t *testing.T) {
		ResetConfig(t)
		config.OverwriteFiles = false
		assert.Empty(t, viper.GetString("library.dbfile"))
	})

	assert.True(t, config.OverwriteFiles)
	config.OverwriteFiles = false
	viper.Reset()
}

func TestSetTestConfig(t *testing.T) {
	env := NewTestEnv(t)

	SetTestConfig(t, env, "http://127.0.0.1:1234")

	assert.Equal(t, "http://127.0.0.1:1234", config.OpenLibraryBaseURL)
	assert.False(t, config.CacheEnabled)
	assert.Equal(t, env.Path("library.db"), config.LibraryDBFile)
	assert.Equal(t, env.Path("cache", "test-cache.db"), viper.GetString("cache.dbfile"))
}

func TestSetViperValue(t *testing.T) {
	viper.Set("server.address", ":1")
	t.Cleanup(viper.Reset)

	t.Run("inner", func(t *testing.T) {
		SetViperValue(t, "server.address", ":2")
		assert.Equal(t, ":2", viper.GetString("server.address"))
	})

	assert.Equal(t, ":1", viper.GetString("server.address"))
}

func TestNewJSONServer(t *testing.T) {
	server, hits := NewJSONServer(t, http.StatusTeapot, `{"ok":true}`)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, server.URL, "127.0.0.1")
}
