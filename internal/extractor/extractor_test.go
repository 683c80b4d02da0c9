package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
)

func TestSupported(t *testing.T) {
	e := New()

	assert.True(t, e.Supported("report.pdf"))
	assert.True(t, e.Supported("Notes.DOCX"))
	assert.True(t, e.Supported("readme.md"))
	assert.False(t, e.Supported("archive.zip"))
	assert.False(t, e.Supported("noextension"))
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := New()

	units, err := e.Extract("data.xyz", []byte("whatever"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFileType)
	assert.Nil(t, units)
}

func TestExtract_Markdown(t *testing.T) {
	e := New()

	input := "# Title   \n\nSome body text.\t\n\nMore text.  \n"
	units, err := e.Extract("dir/notes.md", []byte(input))
	require.NoError(t, err)
	require.Len(t, units, 1)

	assert.Equal(t, "# Title\n\nSome body text.\n\nMore text.", units[0].Text)
	assert.Equal(t, map[string]any{"source": "notes.md", "type": "md"}, units[0].Metadata)
}

func TestExtract_MarkdownEmptyFile(t *testing.T) {
	e := New()

	units, err := e.Extract("empty.md", []byte("   \n\n  \n"))
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Empty(t, units[0].Text)
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		name    string
		maxSize float64
		bold    bool
		length  int
		want    int
	}{
		{"large size is level 1", 18, false, 50, 1},
		{"bold medium short line is level 1", 15, true, 40, 1},
		{"medium size is level 2", 15, false, 200, 2},
		{"bold smaller short line is level 2", 13, true, 40, 2},
		{"slightly large size is level 3", 13, false, 10, 3},
		{"bold short body-size line is level 3", 10, true, 20, 3},
		{"plain body text", 10, false, 20, 0},
		{"size at threshold stays body", 12, false, 50, 0},
		{"bold but long line stays body", 10, true, 150, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, headingLevel(tt.maxSize, tt.bold, tt.length))
		})
	}
}

func TestHeadingStyleLevel(t *testing.T) {
	tests := []struct {
		style string
		level int
		ok    bool
	}{
		{"Heading1", 1, true},
		{"Heading2", 2, true},
		{"Heading 3", 3, true},
		{"Heading", 1, true},
		{"Normal", 0, false},
		{"BodyText", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		level, ok := headingStyleLevel(tt.style)
		assert.Equal(t, tt.ok, ok, "style %q", tt.style)
		assert.Equal(t, tt.level, level, "style %q", tt.style)
	}
}
