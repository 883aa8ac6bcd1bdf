package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/bookscan/internal/cache"
	"github.com/lepinkainen/bookscan/internal/config"
	"github.com/lepinkainen/bookscan/internal/cover"
	bserrors "github.com/lepinkainen/bookscan/internal/errors"
	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/metrics"
	"github.com/lepinkainen/bookscan/internal/note"
	"github.com/lepinkainen/bookscan/internal/tui"
)

var stdin io.Reader = os.Stdin

const coverCacheTable = "cover_cache"

// IdentifyCmd resolves OCR text to a single book
type IdentifyCmd struct {
	Text     string `arg:"" optional:"" help:"OCR text; read from --file or stdin when omitted"`
	File     string `short:"f" help:"Read OCR text from a file"`
	JSON     bool   `help:"Print the outcome as JSON"`
	Save     bool   `help:"Save a successful result to the library"`
	NoteDir  string `help:"Write a Markdown note for the book into this directory"`
	CoverDir string `help:"Download the cover image into this directory"`
}

// SearchCmd lists catalog candidates for a free-text query
type SearchCmd struct {
	Query       string `arg:"" help:"Free-text query"`
	Limit       int    `help:"Maximum number of candidates" default:"10"`
	Interactive bool   `short:"i" help:"Pick a candidate interactively and print it"`
	JSON        bool   `help:"Print results as JSON"`
}

func (i *IdentifyCmd) Run() error {
	text, err := i.readText()
	if err != nil {
		return err
	}

	ctx := context.Background()
	outcome := newIdentifier().Identify(ctx, text)
	metrics.RecordIdentify(intentLabel(outcome.Intent), outcomeLabel(outcome))

	if i.JSON {
		if err := printJSON(outcome); err != nil {
			return err
		}
	}
	if !outcome.Success {
		return errors.New(outcome.Error)
	}
	if !i.JSON {
		printRecord(outcome.Data)
	}

	return exportRecord(ctx, outcome, exportOptions{
		save:     i.Save,
		noteDir:  i.NoteDir,
		coverDir: i.CoverDir,
	})
}

func (i *IdentifyCmd) readText() (string, error) {
	switch {
	case i.Text != "":
		return i.Text, nil
	case i.File != "":
		data, err := os.ReadFile(i.File)
		if err != nil {
			return "", fmt.Errorf("failed to read OCR text: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR text from stdin: %w", err)
	}
	return string(data), nil
}

func (s *SearchCmd) Run() error {
	records, err := newIdentifier().Search(context.Background(), s.Query, s.Limit)
	if err != nil {
		if bserrors.IsNotFound(err) {
			printf("No books found for %q\n", s.Query)
			return nil
		}
		return err
	}

	if s.Interactive {
		result, err := selectBook(records, s.Query)
		if err != nil {
			return fmt.Errorf("selection failed: %w", err)
		}
		switch result.Action {
		case tui.ActionSelected:
			records = []identify.Record{*result.Selection}
		case tui.ActionStopped:
			return bserrors.NewSelectionCancelledError("search stopped by user")
		default:
			slog.Info("No book selected", "query", s.Query)
			return nil
		}
	}

	if s.JSON {
		return printJSON(records)
	}
	for idx := range records {
		if idx > 0 {
			printf("\n")
		}
		printRecord(&records[idx])
	}
	return nil
}

type exportOptions struct {
	save     bool
	noteDir  string
	coverDir string
}

// exportRecord saves the scan and writes the note and cover as requested.
func exportRecord(ctx context.Context, outcome identify.Outcome, opts exportOptions) error {
	record := outcome.Data

	if opts.save {
		lib, err := openBookLibrary()
		if err != nil {
			return fmt.Errorf("failed to open library: %w", err)
		}
		defer lib.Close()

		key, err := lib.SaveScan(outcome)
		if err != nil {
			return err
		}
		slog.Info("Saved scan", "key", key)
	}

	var coverPath string
	if opts.coverDir != "" && record.CoverURL != "" {
		path, err := saveCover(ctx, record, opts.coverDir)
		if err != nil {
			slog.Warn("Failed to download cover", "url", record.CoverURL, "error", err)
		} else {
			coverPath = path
		}
	}

	if opts.noteDir != "" {
		notePath := coverPath
		if notePath != "" {
			if rel, err := filepath.Rel(opts.noteDir, coverPath); err == nil {
				notePath = filepath.ToSlash(rel)
			}
		}
		path, written, err := note.Write(opts.noteDir, record, note.Options{
			CoverPath: notePath,
			Overwrite: config.OverwriteFiles,
		})
		if err != nil {
			return err
		}
		if written {
			printf("Note: %s\n", path)
		}
	}

	return nil
}

// saveCover downloads the cover once per URL. The cover cache remembers where
// the file went, so a cached path is reused while it still exists in dir.
func saveCover(ctx context.Context, record *identify.Record, dir string) (string, error) {
	download := func() (string, error) {
		result, err := cover.Save(ctx, coverClient(), record.CoverURL, dir, record.Title, cover.DefaultMaxWidth, config.OverwriteFiles)
		if err != nil {
			return "", err
		}
		if result.Downloaded {
			printf("Cover: %s\n", result.Path)
		}
		return result.Path, nil
	}

	if !config.CacheEnabled || config.OverwriteFiles {
		return download()
	}

	path, fromCache, err := cache.GetOrFetch(coverCacheTable, record.CoverURL, download)
	if err != nil {
		return "", err
	}
	if fromCache {
		if _, statErr := os.Stat(path); statErr != nil || filepath.Dir(path) != filepath.Clean(dir) {
			slog.Debug("Cached cover not in target directory, downloading again", "path", path)
			return download()
		}
		slog.Debug("Cover found in cache", "path", path)
	}
	return path, nil
}

func printRecord(record *identify.Record) {
	printf("%s\n", record.Title)
	printf("  Author:    %s\n", record.Author)
	if record.PublishDate != "" {
		printf("  Published: %s\n", record.PublishDate)
	}
	if record.Publisher != "" {
		printf("  Publisher: %s\n", record.Publisher)
	}
	if record.ISBN != "" {
		printf("  ISBN:      %s\n", record.ISBN)
	}
	if record.Pages > 0 {
		printf("  Pages:     %d\n", record.Pages)
	}
	if len(record.Subjects) > 0 {
		printf("  Subjects:  %s\n", strings.Join(record.Subjects, ", "))
	}
	if record.CoverURL != "" {
		printf("  Cover:     %s\n", record.CoverURL)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func intentLabel(intent identify.IntentKind) string {
	if intent == "" {
		return "none"
	}
	return string(intent)
}

func outcomeLabel(outcome identify.Outcome) string {
	if outcome.Success {
		return "success"
	}
	return string(outcome.Kind)
}
