package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title> Dune </dc:title>
    <dc:creator>Frank Herbert</dc:creator>
    <dc:creator>Someone Else</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="uid">urn:isbn:9780441013593</dc:identifier>
    <dc:subject>Science fiction</dc:subject>
    <dc:subject>Arrakis</dc:subject>
    <dc:date>1965-08-01</dc:date>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="cover" href="images/cover.jpg" media-type="image/jpeg" properties="cover-image"/>
  </manifest>
</package>`

const testOPFv2 = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Emma</dc:title>
    <dc:creator opf:role="aut">Jane Austen</dc:creator>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="cover.png" media-type="image/png"/>
  </manifest>
</package>`

func writeEPUB(t *testing.T, path string, files map[string]string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestReadMetadata_EPUB3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dune.epub")
	writeEPUB(t, path, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
	})

	meta, err := ReadMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, "Dune", meta.Title)
	assert.Equal(t, []string{"Frank Herbert", "Someone Else"}, meta.Creators)
	assert.Equal(t, "Frank Herbert", meta.Author())
	assert.Equal(t, "en", meta.Language)
	assert.Equal(t, []string{"urn:isbn:9780441013593"}, meta.Identifiers)
	assert.Equal(t, []string{"Science fiction", "Arrakis"}, meta.Subjects)
	assert.Equal(t, "1965-08-01", meta.Date)
	assert.Equal(t, "OEBPS/images/cover.jpg", meta.CoverHref)
}

func TestReadMetadata_EPUB2CoverMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emma.EPUB")
	writeEPUB(t, path, map[string]string{
		"META-INF/container.xml": `<container><rootfiles><rootfile full-path="content.opf"/></rootfiles></container>`,
		"content.opf":            testOPFv2,
	})

	meta, err := ReadMetadata(path)
	require.NoError(t, err)

	assert.Equal(t, "Emma", meta.Title)
	assert.Equal(t, "Jane Austen", meta.Author())
	assert.Equal(t, "cover.png", meta.CoverHref)
}

func TestReadMetadata_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadMetadata(filepath.Join(dir, "book.pdf"))
	assert.ErrorIs(t, err, ErrNotEPUB)

	notZip := filepath.Join(dir, "broken.epub")
	require.NoError(t, os.WriteFile(notZip, []byte("not a zip"), 0o644))
	_, err = ReadMetadata(notZip)
	require.Error(t, err)

	noContainer := filepath.Join(dir, "nocontainer.epub")
	writeEPUB(t, noContainer, map[string]string{"mimetype": "application/epub+zip"})
	_, err = ReadMetadata(noContainer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "META-INF/container.xml")

	noRoot := filepath.Join(dir, "noroot.epub")
	writeEPUB(t, noRoot, map[string]string{"META-INF/container.xml": `<container><rootfiles/></container>`})
	_, err = ReadMetadata(noRoot)
	assert.ErrorIs(t, err, ErrNoRootfile)
}

func TestAuthorWithoutCreators(t *testing.T) {
	assert.Equal(t, "", Metadata{}.Author())
}

func TestIndexDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
	}
	writeEPUB(t, filepath.Join(dir, "b.epub"), files)
	writeEPUB(t, filepath.Join(dir, "a.epub"), files)
	writeEPUB(t, filepath.Join(dir, "nested", "c.epub"), files)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.epub"), []byte("x"), 0o644))

	entries, err := IndexDir(dir, false)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, filepath.Join(dir, "a.epub"), entries[0].Path)
	assert.Equal(t, "Dune", entries[0].Metadata.Title)
	assert.NoError(t, entries[0].Err)
	assert.Equal(t, filepath.Join(dir, "bad.epub"), entries[2].Path)
	assert.Error(t, entries[2].Err)

	entries, err = IndexDir(dir, true)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestIndexDirMissing(t *testing.T) {
	_, err := IndexDir(filepath.Join(t.TempDir(), "nope"), true)
	require.Error(t, err)
}
