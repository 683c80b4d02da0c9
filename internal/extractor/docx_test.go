package extractor

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDOCX 在内存中组装一个最小化的 DOCX 包。
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	doc := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Introduction</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Opening </w:t></w:r>
      <w:r><w:t>paragraph.</w:t></w:r>
    </w:p>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading2"/></w:pPr>
      <w:r><w:t>Scope</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Scope details.</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>   </w:t></w:r>
    </w:p>
  </w:body>
</w:document>`)

	e := New()
	units, err := e.Extract("handbook.docx", doc)
	require.NoError(t, err)
	require.Len(t, units, 1)

	want := "# Introduction\n\nOpening paragraph.\n\n## Scope\n\nScope details."
	assert.Equal(t, want, units[0].Text)
	assert.Equal(t, map[string]any{"source": "handbook.docx", "type": "docx"}, units[0].Metadata)
}

func TestExtract_DOCXNotAnArchive(t *testing.T) {
	e := New()

	_, err := e.Extract("broken.docx", []byte("this is not a zip file"))
	require.Error(t, err)
}

func TestExtract_DOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/other.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e := New()
	_, err = e.Extract("odd.docx", buf.Bytes())
	require.Error(t, err)
}
