package datastore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_GetSet(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set("scan:Dune", `{"title":"Dune"}`))
	value, found, err := store.Get("scan:Dune")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"title":"Dune"}`, value)

	require.NoError(t, store.Set("scan:Dune", `{"title":"Dune Messiah"}`))
	value, _, err = store.Get("scan:Dune")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Dune Messiah"}`, value)
}

func TestSQLiteStore_BatchSetAndKeys(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.BatchSet(map[string]string{
		"scan:b":          "2",
		"scan:a":          "1",
		"finished-shelf":  "[]",
		"scan_underscore": "x",
	}))
	require.NoError(t, store.BatchSet(nil))

	keys, err := store.Keys("scan:")
	require.NoError(t, err)
	assert.Equal(t, []string{"scan:a", "scan:b"}, keys)

	all, err := store.Keys("")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLiteStore_KeysEscapesWildcards(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("a_b", "1"))
	require.NoError(t, store.Set("axb", "2"))
	require.NoError(t, store.Set("50%off", "3"))
	require.NoError(t, store.Set("50xoff", "4"))

	keys, err := store.Keys("a_")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b"}, keys)

	keys, err = store.Keys("50%")
	require.NoError(t, err)
	assert.Equal(t, []string{"50%off"}, keys)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("k", "v"))

	deleted, err := store.Delete("k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete("k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLiteStore_NotConnected(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))

	_, _, err := store.Get("k")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, store.Set("k", "v"), ErrNotConnected)
	_, err = store.Delete("k")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = store.Keys("")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_PersistsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Connect())
	require.NoError(t, first.Set("favourites-shelf", `[{"filePath":"/b.epub"}]`))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Connect())
	defer func() { _ = second.Close() }()

	value, found, err := second.Get("favourites-shelf")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"filePath":"/b.epub"}]`, value)
}

func TestSQLiteStore_ConcurrentWrites(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Set("k", string(rune('a'+i))))
		}(i)
	}
	wg.Wait()

	_, found, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
}
