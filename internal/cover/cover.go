// Package cover downloads book cover images and stores them as resized JPEGs.
package cover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lepinkainen/bookscan/internal/note"
)

// DefaultMaxWidth is the widest cover kept on disk.
const DefaultMaxWidth = 600

// ErrNoCover is returned when a record has no cover URL.
var ErrNoCover = errors.New("cover not available")

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Result describes a Save call.
type Result struct {
	// Path is where the cover lives on disk
	Path string
	// Downloaded is false when an existing file was kept
	Downloaded bool
}

// Filename returns the cover file name for a title: "<title> - cover.jpg".
func Filename(title string) string {
	return note.SanitizeFilename(title) + " - cover.jpg"
}

// Download fetches imageURL, auto-orients it, shrinks it to maxWidth when
// wider and saves it as JPEG at savePath.
func Download(ctx context.Context, client HTTPDoer, imageURL, savePath string, maxWidth int) error {
	if imageURL == "" {
		return ErrNoCover
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, imageURL)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode cover: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return err
	}

	return imaging.Save(img, savePath, imaging.JPEGQuality(85))
}

// Save downloads the cover of a book into dir unless a file for the title
// already exists and overwrite is false.
func Save(ctx context.Context, client HTTPDoer, imageURL, dir, title string, maxWidth int, overwrite bool) (Result, error) {
	result := Result{Path: filepath.Join(dir, Filename(title))}

	if _, err := os.Stat(result.Path); err == nil && !overwrite {
		slog.Debug("Cover already exists, skipping download", "path", result.Path)
		return result, nil
	}

	if err := Download(ctx, client, imageURL, result.Path, maxWidth); err != nil {
		return Result{}, err
	}

	slog.Info("Downloaded cover", "path", result.Path)
	result.Downloaded = true
	return result, nil
}
