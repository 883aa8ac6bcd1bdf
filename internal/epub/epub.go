// Package epub reads package metadata from EPUB files.
package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const containerPath = "META-INF/container.xml"

var (
	// ErrNotEPUB is returned for files without an .epub extension.
	ErrNotEPUB = errors.New("not an epub file")
	// ErrNoRootfile is returned when container.xml names no package document.
	ErrNoRootfile = errors.New("epub container has no rootfile")
)

// Metadata is the Dublin Core metadata of an EPUB package.
type Metadata struct {
	Title       string   `json:"title"`
	Creators    []string `json:"creators,omitempty"`
	Language    string   `json:"language,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Subjects    []string `json:"subjects,omitempty"`
	Date        string   `json:"date,omitempty"`
	// CoverHref is the archive path of the cover image, if the package declares one.
	CoverHref string `json:"coverHref,omitempty"`
}

// Author returns the first creator or "" when there is none.
func (m Metadata) Author() string {
	if len(m.Creators) == 0 {
		return ""
	}
	return m.Creators[0]
}

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDoc struct {
	Metadata struct {
		Titles      []string `xml:"title"`
		Creators    []string `xml:"creator"`
		Languages   []string `xml:"language"`
		Identifiers []string `xml:"identifier"`
		Subjects    []string `xml:"subject"`
		Dates       []string `xml:"date"`
		Meta        []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

// ReadMetadata opens the EPUB at path and returns its package metadata.
func ReadMetadata(p string) (Metadata, error) {
	if !strings.EqualFold(filepath.Ext(p), ".epub") {
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotEPUB, p)
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer func() { _ = zr.Close() }()

	var c container
	if err := decodeEntry(&zr.Reader, containerPath, &c); err != nil {
		return Metadata{}, err
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return Metadata{}, ErrNoRootfile
	}
	opfPath := c.Rootfiles[0].FullPath

	var pkg packageDoc
	if err := decodeEntry(&zr.Reader, opfPath, &pkg); err != nil {
		return Metadata{}, err
	}

	return pkg.metadata(path.Dir(opfPath)), nil
}

func decodeEntry(zr *zip.Reader, name string, target any) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	if err := xml.NewDecoder(io.LimitReader(f, 4<<20)).Decode(target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (p packageDoc) metadata(opfDir string) Metadata {
	m := p.Metadata
	meta := Metadata{
		Title:       first(trimAll(m.Titles)),
		Creators:    trimAll(m.Creators),
		Language:    first(trimAll(m.Languages)),
		Identifiers: trimAll(m.Identifiers),
		Subjects:    trimAll(m.Subjects),
		Date:        first(trimAll(m.Dates)),
	}

	// EPUB 3 marks the cover in the manifest; EPUB 2 points at it from <meta name="cover">.
	coverID := ""
	for _, item := range m.Meta {
		if item.Name == "cover" {
			coverID = item.Content
		}
	}
	for _, item := range p.Manifest.Items {
		isCover := strings.Contains(" "+item.Properties+" ", " cover-image ") || (coverID != "" && item.ID == coverID)
		if isCover && item.Href != "" {
			meta.CoverHref = path.Join(opfDir, item.Href)
			break
		}
	}
	return meta
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Entry is the result of reading one file during IndexDir.
type Entry struct {
	Path     string
	Metadata Metadata
	Err      error
}

// IndexDir reads every .epub file in dir, descending into subdirectories when
// recursive is set. Unreadable books are reported in Entry.Err and do not stop the walk.
func IndexDir(dir string, recursive bool) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".epub") {
			return nil
		}

		meta, readErr := ReadMetadata(p)
		if readErr != nil {
			slog.Warn("Failed to read epub metadata", "file", p, "error", readErr)
		}
		entries = append(entries, Entry{Path: p, Metadata: meta, Err: readErr})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
