package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lepinkainen/bookscan/internal/epub"
	"github.com/lepinkainen/bookscan/internal/identify"
	"github.com/lepinkainen/bookscan/internal/library"
)

// ShelfCmd groups the shelf subcommands
type ShelfCmd struct {
	Add    ShelfAddCmd    `cmd:"" help:"Put a book on a shelf"`
	Remove ShelfRemoveCmd `cmd:"" help:"Take a book off a shelf"`
	List   ShelfListCmd   `cmd:"" help:"List the books on a shelf"`
}

// ShelfAddCmd adds a book file to a shelf
type ShelfAddCmd struct {
	Shelf    string `arg:"" help:"Shelf name: finished or favourites"`
	FilePath string `arg:"" help:"Path of the book file"`
	Title    string `help:"Book title (defaults to the file name)"`
	Author   string `help:"Book author"`
	Cover    string `help:"Cover image path or URL"`
}

// ShelfRemoveCmd removes a book file from a shelf
type ShelfRemoveCmd struct {
	Shelf    string `arg:"" help:"Shelf name: finished or favourites"`
	FilePath string `arg:"" help:"Path of the book file"`
}

// ShelfListCmd prints a shelf
type ShelfListCmd struct {
	Shelf string `arg:"" help:"Shelf name: finished or favourites"`
}

// ProgressCmd groups the reading progress subcommands
type ProgressCmd struct {
	Set  ProgressSetCmd  `cmd:"" help:"Record reading progress for a book file"`
	Show ProgressShowCmd `cmd:"" help:"Show reading progress"`
}

// ProgressSetCmd stores progress and an optional reading location
type ProgressSetCmd struct {
	File       string  `arg:"" help:"Book file name or path"`
	Progress   string  `help:"Progress label, e.g. 42%; derived from --percentage when omitted"`
	CFI        string  `help:"EPUB CFI of the reading position"`
	Percentage float64 `help:"Reading position as a percentage" default:"-1"`
}

// ProgressShowCmd prints progress for one file or all files
type ProgressShowCmd struct {
	File string `arg:"" optional:"" help:"Book file name or path"`
}

// LibraryCmd groups library maintenance subcommands
type LibraryCmd struct {
	Index LibraryIndexCmd `cmd:"" help:"Read EPUB metadata from a directory into the library"`
}

// ScanCmd groups the saved scan subcommands
type ScanCmd struct {
	List   ScanListCmd   `cmd:"" help:"List saved scans"`
	Show   ScanShowCmd   `cmd:"" help:"Print a saved scan"`
	Delete ScanDeleteCmd `cmd:"" help:"Delete a saved scan"`
}

// ScanListCmd prints every saved scan key
type ScanListCmd struct{}

// ScanShowCmd prints one saved scan
type ScanShowCmd struct {
	Key  string `arg:"" help:"Scan key: the book title, or its ISBN when untitled"`
	JSON bool   `help:"Print the stored outcome as JSON"`
}

// ScanDeleteCmd removes one saved scan
type ScanDeleteCmd struct {
	Key string `arg:"" help:"Scan key: the book title, or its ISBN when untitled"`
}

// LibraryIndexCmd indexes a directory of EPUB files
type LibraryIndexCmd struct {
	Dir       string `arg:"" help:"Directory containing EPUB files" type:"existingdir"`
	Recursive bool   `short:"r" help:"Scan subdirectories recursively"`
}

func withLibrary(fn func(lib *library.Library) error) error {
	lib, err := openBookLibrary()
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer func() {
		if err := lib.Close(); err != nil {
			slog.Warn("Failed to close library", "error", err)
		}
	}()
	return fn(lib)
}

func (a *ShelfAddCmd) Run() error {
	title := a.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(a.FilePath), filepath.Ext(a.FilePath))
	}
	item := library.ShelfItem{FilePath: a.FilePath, Title: title, Author: a.Author, Cover: a.Cover}

	return withLibrary(func(lib *library.Library) error {
		added, err := lib.Add(a.Shelf, item)
		if err != nil {
			return err
		}
		if added {
			printf("Added %s to %s\n", title, a.Shelf)
		} else {
			printf("%s is already on %s\n", title, a.Shelf)
		}
		return nil
	})
}

func (r *ShelfRemoveCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		removed, err := lib.Remove(r.Shelf, r.FilePath)
		if err != nil {
			return err
		}
		if removed {
			printf("Removed %s from %s\n", r.FilePath, r.Shelf)
		} else {
			printf("%s is not on %s\n", r.FilePath, r.Shelf)
		}
		return nil
	})
}

func (l *ShelfListCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		items, err := lib.List(l.Shelf)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			printf("Shelf %s is empty\n", l.Shelf)
			return nil
		}
		for _, item := range items {
			author := item.Author
			if author == "" {
				author = identify.UnknownAuthor
			}
			printf("%s by %s (%s)\n", item.Title, author, item.FilePath)
		}
		return nil
	})
}

func (s *ScanListCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		keys, err := lib.ListScans()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			printf("No saved scans\n")
			return nil
		}
		for _, key := range keys {
			printf("%s\n", strings.TrimPrefix(key, "scan:"))
		}
		return nil
	})
}

func (s *ScanShowCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		outcome, found, err := lib.LoadScan(s.Key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no saved scan for %s", s.Key)
		}
		if s.JSON {
			return printJSON(outcome)
		}
		printRecord(outcome.Data)
		return nil
	})
}

func (s *ScanDeleteCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		removed, err := lib.DeleteScan(s.Key)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no saved scan for %s", s.Key)
		}
		slog.Info("Deleted scan", "key", s.Key)
		printf("Deleted %s\n", s.Key)
		return nil
	})
}

func (p *ProgressSetCmd) Run() error {
	var location *library.Location
	if p.CFI != "" || p.Percentage >= 0 {
		location = &library.Location{CFI: p.CFI, Percentage: max(p.Percentage, 0)}
	}

	progress := p.Progress
	if progress == "" {
		if p.Percentage < 0 {
			return fmt.Errorf("either --progress or --percentage is required")
		}
		progress = library.FormatProgress(p.Percentage)
	}

	name := filepath.Base(p.File)
	return withLibrary(func(lib *library.Library) error {
		meta, err := lib.SetProgress(name, progress, location)
		if err != nil {
			return err
		}
		printf("%s: %s\n", meta.Title, meta.Progress)
		return nil
	})
}

func (p *ProgressShowCmd) Run() error {
	return withLibrary(func(lib *library.Library) error {
		if p.File != "" {
			name := filepath.Base(p.File)
			meta, found, err := lib.Metadata(name)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no metadata for %s", name)
			}
			printMetadata(name, meta)
			return nil
		}

		all, err := lib.AllMetadata()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printMetadata(name, all[name])
		}
		return nil
	})
}

func printMetadata(name string, meta library.FileMetadata) {
	printf("%s: %s by %s, %s", name, meta.Title, meta.Author, meta.Progress)
	if meta.Location != nil && meta.Location.CFI != "" {
		printf(" at %s", meta.Location.CFI)
	}
	printf("\n")
}

func (i *LibraryIndexCmd) Run() error {
	entries, err := epub.IndexDir(i.Dir, i.Recursive)
	if err != nil {
		return err
	}

	return withLibrary(func(lib *library.Library) error {
		indexed, failed := 0, 0
		for _, entry := range entries {
			if entry.Err != nil {
				failed++
				continue
			}

			name := filepath.Base(entry.Path)
			meta, found, err := lib.Metadata(name)
			if err != nil {
				return err
			}
			if !found {
				meta = library.FileMetadata{Progress: library.FormatProgress(0)}
			}

			meta.Title = entry.Metadata.Title
			if meta.Title == "" {
				meta.Title = strings.TrimSuffix(name, filepath.Ext(name))
			}
			meta.Author = entry.Metadata.Author()
			if meta.Author == "" {
				meta.Author = identify.UnknownAuthor
			}
			if entry.Metadata.CoverHref != "" {
				meta.Cover = entry.Metadata.CoverHref
			}

			if err := lib.PutMetadata(name, meta); err != nil {
				return err
			}
			indexed++
		}

		slog.Info("Library indexed", "dir", i.Dir, "indexed", indexed, "failed", failed)
		printf("Indexed %d books (%d unreadable)\n", indexed, failed)
		return nil
	})
}
