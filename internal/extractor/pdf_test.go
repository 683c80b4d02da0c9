package extractor

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleLines(t *testing.T) {
	// 两行：标题行（大号、含加粗片段）在上方，正文行在下方
	texts := []pdf.Text{
		{S: "duction", Font: "Helvetica-Bold", FontSize: 18, X: 60, Y: 700},
		{S: "Intro", Font: "Helvetica-Bold", FontSize: 18, X: 40, Y: 700},
		{S: "Body text ", Font: "Helvetica", FontSize: 10, X: 40, Y: 680},
		{S: "continues.", Font: "Helvetica", FontSize: 10, X: 90, Y: 680},
	}

	lines := assembleLines(texts)
	require.Len(t, lines, 2)

	assert.Equal(t, "Introduction", lines[0].text)
	assert.Equal(t, 18.0, lines[0].maxSize)
	assert.True(t, lines[0].bold)

	assert.Equal(t, "Body text continues.", lines[1].text)
	assert.Equal(t, 10.0, lines[1].maxSize)
	assert.False(t, lines[1].bold)
}

func TestAssembleLines_ToleratesSmallYJitter(t *testing.T) {
	texts := []pdf.Text{
		{S: "same ", Font: "Helvetica", FontSize: 10, X: 40, Y: 500.0},
		{S: "line", Font: "Helvetica", FontSize: 10, X: 70, Y: 500.3},
	}

	lines := assembleLines(texts)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0].text, "same")
	assert.Contains(t, lines[0].text, "line")
}

func TestAssembleLines_Empty(t *testing.T) {
	assert.Empty(t, assembleLines(nil))
}

func TestExtract_PDFInvalidBytes(t *testing.T) {
	e := New()

	_, err := e.Extract("broken.pdf", []byte("definitely not a pdf"))
	require.Error(t, err)
}
