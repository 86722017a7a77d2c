package docfmt

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>ESTATUTO SOCIAL</w:t></w:r></w:p>
    <w:p><w:r><w:t>Art. 1 - A entidade tem por </w:t></w:r><w:r><w:t>objetivo a radiodifusão comunitária.</w:t></w:r></w:p>
    <w:p><w:r><w:t>   </w:t></w:r></w:p>
    <w:p><w:r><w:t>Primeira parte</w:t><w:tab/><w:t>segunda parte</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractDOCXParagraphs(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), documentXML)

	paragraphs, err := extractDOCXParagraphs(path)
	require.NoError(t, err)
	require.Len(t, paragraphs, 3, "blank paragraphs are dropped")
	assert.Equal(t, "ESTATUTO SOCIAL", paragraphs[0])
	assert.Equal(t, "Art. 1 - A entidade tem por objetivo a radiodifusão comunitária.",
		paragraphs[1], "split text runs are joined")
	assert.Equal(t, "Primeira parte\tsegunda parte", paragraphs[2])
}

func TestExtractDOCXWithoutDocumentXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("unrelated.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = extractDOCXParagraphs(path)
	require.Error(t, err)
}

func TestExtractContentDOCXSelectsTextPath(t *testing.T) {
	dir := t.TempDir()
	docx := writeDOCX(t, dir, documentXML)

	e := NewExtractor(nil)
	content, err := e.ExtractContent(context.Background(), []string{docx})
	require.NoError(t, err)
	assert.Equal(t, KindText, content.Kind)
	assert.True(t, len(content.Texts) >= 1)
}

func TestExtractContentImagesOnlySelectsImagePath(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "pagina1.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	e := NewExtractor(nil)
	content, err := e.ExtractContent(context.Background(), []string{img})
	require.NoError(t, err)
	assert.Equal(t, KindImages, content.Kind)
	require.Len(t, content.Images, 1)
	assert.Equal(t, "image/png", content.Images[0].MIMEType)
}

func TestExtractContentUnsupportedIsSkipped(t *testing.T) {
	dir := t.TempDir()
	odd := filepath.Join(dir, "planilha.xls")
	require.NoError(t, os.WriteFile(odd, []byte("data"), 0o644))

	e := NewExtractor(nil)
	content, err := e.ExtractContent(context.Background(), []string{odd})
	require.NoError(t, err, "unsupported extensions are logged and skipped, never an error")
	assert.Equal(t, KindEmpty, content.Kind)
}

func TestExtractContentMixedPrefersText(t *testing.T) {
	dir := t.TempDir()
	docx := writeDOCX(t, dir, documentXML)
	img := filepath.Join(dir, "scan.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xFF, 0xD8}, 0o644))

	e := NewExtractor(nil)
	content, err := e.ExtractContent(context.Background(), []string{img, docx})
	require.NoError(t, err)
	assert.Equal(t, KindText, content.Kind,
		"any text anywhere selects the text path for the whole set")
	assert.True(t, strings.Contains(strings.Join(content.Texts, "\n"), "ESTATUTO"))
}
