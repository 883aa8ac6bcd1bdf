package cmd

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	bserrors "github.com/lepinkainen/bookscan/internal/errors"
	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/library"
	"github.com/lepinkainen/bookscan/internal/tui"
	"github.com/stretchr/testify/require"
)

func writeTestEPUB(t *testing.T, path, title, author string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	files := map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`,
		"content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + title + `</dc:title>
    <dc:creator>` + author + `</dc:creator>
  </metadata>
</package>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func openTestLibrary(t *testing.T, env interface{ Path(...string) string }) *library.Library {
	t.Helper()
	lib, err := library.Open(env.Path("library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestShelfCommands(t *testing.T) {
	_, out := resetCmdState(t)

	require.NoError(t, runCLI(t, "shelf", "add", "finished", "/books/dune.epub", "--author", "Frank Herbert"))
	assert.Contains(t, out.String(), "Added dune to finished")

	out.Reset()
	require.NoError(t, runCLI(t, "shelf", "add", "finished", "/books/dune.epub"))
	assert.Contains(t, out.String(), "dune is already on finished")

	out.Reset()
	require.NoError(t, runCLI(t, "shelf", "list", "finished"))
	assert.Equal(t, "dune by Frank Herbert (/books/dune.epub)\n", out.String())

	out.Reset()
	require.NoError(t, runCLI(t, "shelf", "remove", "finished", "/books/dune.epub"))
	assert.Contains(t, out.String(), "Removed /books/dune.epub from finished")

	out.Reset()
	require.NoError(t, runCLI(t, "shelf", "list", "finished"))
	assert.Equal(t, "Shelf finished is empty\n", out.String())
}

func TestShelfCommandUnknownShelf(t *testing.T) {
	resetCmdState(t)

	err := runCLI(t, "shelf", "list", "wishlist")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, library.ErrUnknownShelf))
}

func TestScanCommands(t *testing.T) {
	_, out := resetCmdState(t)
	useFetcher(t, duneISBNResponse)

	require.NoError(t, runCLI(t, "scan", "list"))
	assert.Equal(t, "No saved scans\n", out.String())

	require.NoError(t, runCLI(t, "identify", "--save", "ISBN 9780441013593"))

	out.Reset()
	require.NoError(t, runCLI(t, "scan", "list"))
	assert.Equal(t, "Dune\n", out.String())

	out.Reset()
	require.NoError(t, runCLI(t, "scan", "show", "Dune"))
	assert.Contains(t, out.String(), "Author:    Frank Herbert")

	out.Reset()
	require.NoError(t, runCLI(t, "scan", "show", "--json", "Dune"))
	assert.Contains(t, out.String(), `"isbn": "9780441013593"`)

	out.Reset()
	require.NoError(t, runCLI(t, "scan", "delete", "Dune"))
	assert.Equal(t, "Deleted Dune\n", out.String())

	assert.EqualError(t, runCLI(t, "scan", "delete", "Dune"), "no saved scan for Dune")
	assert.EqualError(t, runCLI(t, "scan", "show", "Dune"), "no saved scan for Dune")
}

func TestProgressCommands(t *testing.T) {
	env, out := resetCmdState(t)

	require.NoError(t, runCLI(t, "progress", "set", "/books/dune.epub", "--percentage", "42.4", "--cfi", "epubcfi(/6/4)"))
	assert.Equal(t, "dune.epub: 42%\n", out.String())

	out.Reset()
	require.NoError(t, runCLI(t, "progress", "show", "dune.epub"))
	assert.Equal(t, "dune.epub: dune.epub by Unknown, 42% at epubcfi(/6/4)\n", out.String())

	meta, found, err := openTestLibrary(t, env).Metadata("dune.epub")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42.4, meta.Location.Percentage)
}

func TestProgressSetRequiresValue(t *testing.T) {
	resetCmdState(t)

	err := runCLI(t, "progress", "set", "dune.epub")
	assert.EqualError(t, err, "either --progress or --percentage is required")
}

func TestProgressShowMissing(t *testing.T) {
	resetCmdState(t)

	err := runCLI(t, "progress", "show", "nothing.epub")
	assert.EqualError(t, err, "no metadata for nothing.epub")
}

func TestLibraryIndexCommand(t *testing.T) {
	env, out := resetCmdState(t)
	writeTestEPUB(t, env.Path("books", "dune.epub"), "Dune", "Frank Herbert")
	writeTestEPUB(t, env.Path("books", "nested", "emma.epub"), "Emma", "Jane Austen")
	env.WriteFileString("books/broken.epub", "not a zip")

	lib := openTestLibrary(t, env)
	_, err := lib.SetProgress("dune.epub", "50%", nil)
	require.NoError(t, err)
	require.NoError(t, lib.Close())

	require.NoError(t, runCLI(t, "library", "index", env.Path("books")))
	assert.Equal(t, "Indexed 1 books (1 unreadable)\n", out.String())

	out.Reset()
	require.NoError(t, runCLI(t, "library", "index", "-r", env.Path("books")))
	assert.Equal(t, "Indexed 2 books (1 unreadable)\n", out.String())

	all, err := openTestLibrary(t, env).AllMetadata()
	require.NoError(t, err)
	assert.Equal(t, 2, len(all))
	assert.Equal(t, "Dune", all["dune.epub"].Title)
	assert.Equal(t, "Frank Herbert", all["dune.epub"].Author)
	assert.Equal(t, "50%", all["dune.epub"].Progress)
	assert.Equal(t, "0%", all["emma.epub"].Progress)
}

func TestSearchCommand(t *testing.T) {
	_, out := resetCmdState(t)
	useFetcher(t, duneSearchResponse)

	require.NoError(t, runCLI(t, "search", "dune", "--limit", "5"))
	assert.Contains(t, out.String(), "Dune\n")
	assert.Contains(t, out.String(), "Dune Messiah\n")
}

func TestSearchCommandNoMatches(t *testing.T) {
	_, out := resetCmdState(t)
	useFetcher(t, `{"docs": []}`)

	require.NoError(t, runCLI(t, "search", "zzzz"))
	assert.Equal(t, "No books found for \"zzzz\"\n", out.String())
}

func TestSearchCommandInteractive(t *testing.T) {
	t.Run("selected", func(t *testing.T) {
		_, out := resetCmdState(t)
		useFetcher(t, duneSearchResponse)
		selectBook = func(records []identify.Record, query string) (tui.SelectionResult, error) {
			assert.Equal(t, "dune", query)
			return tui.SelectionResult{Action: tui.ActionSelected, Selection: &records[1]}, nil
		}

		require.NoError(t, runCLI(t, "search", "-i", "dune"))
		assert.Contains(t, out.String(), "Dune Messiah\n")
		assert.NotContains(t, out.String(), "Published: 1965")
	})

	t.Run("stopped", func(t *testing.T) {
		resetCmdState(t)
		useFetcher(t, duneSearchResponse)
		selectBook = func([]identify.Record, string) (tui.SelectionResult, error) {
			return tui.SelectionResult{Action: tui.ActionStopped}, nil
		}

		err := runCLI(t, "search", "-i", "dune")
		assert.True(t, bserrors.IsSelectionCancelled(err))
	})

	t.Run("skipped", func(t *testing.T) {
		_, out := resetCmdState(t)
		useFetcher(t, duneSearchResponse)
		selectBook = func([]identify.Record, string) (tui.SelectionResult, error) {
			return tui.SelectionResult{Action: tui.ActionSkipped}, nil
		}

		require.NoError(t, runCLI(t, "search", "-i", "dune"))
		assert.Equal(t, "", out.String())
	})
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	resetCmdState(t)
	useFetcher(t, duneSearchResponse)

	orig := notifyContext
	t.Cleanup(func() { notifyContext = orig })
	notifyContext = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}

	assert.NoError(t, runCLI(t, "serve", "--address", "127.0.0.1:0"))
}
