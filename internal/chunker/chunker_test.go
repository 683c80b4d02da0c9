package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/extractor"
)

func newTestChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(size, overlap)
	require.NoError(t, err)
	return c
}

func TestChunkUnits_HeadingCapturedAndMarkersStripped(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	units := []extractor.Unit{{
		Text: "# Summary <!--PAGE_1-->\n\nFirst line. <!--PAGE_1-->\n\nSecond line. <!--PAGE_1-->",
		Metadata: map[string]any{
			"source": "report.pdf",
			"type":   "pdf",
		},
	}}

	chunks := c.ChunkUnits(units)
	require.Len(t, chunks, 1)

	assert.Equal(t, "First line.\nSecond line.", chunks[0].Text)
	assert.Equal(t, map[string]any{
		"source":   "report.pdf",
		"type":     "pdf",
		"h1":       "Summary",
		"page":     1,
		"split_id": 0,
	}, chunks[0].Metadata)
}

func TestChunkUnits_PageIsMinimumAcrossChunk(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	units := []extractor.Unit{{
		Text:     "line a <!--PAGE_3-->\nline b <!--PAGE_5-->\nline c <!--PAGE_5-->\nline d <!--PAGE_7-->",
		Metadata: map[string]any{"source": "a.pdf", "type": "pdf"},
	}}

	chunks := c.ChunkUnits(units)
	require.Len(t, chunks, 1)

	assert.Equal(t, 3, chunks[0].Metadata["page"])
	assert.NotContains(t, chunks[0].Text, "<!--PAGE_")
}

func TestChunkUnits_SecondLevelHeadingScopedToFirstLevel(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	units := []extractor.Unit{{
		Text:     "# Alpha\n## Beta\nbody one\n# Gamma\nbody two",
		Metadata: map[string]any{"source": "n.md", "type": "md"},
	}}

	chunks := c.ChunkUnits(units)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Alpha", chunks[0].Metadata["h1"])
	assert.Equal(t, "Beta", chunks[0].Metadata["h2"])
	assert.Equal(t, "body one", chunks[0].Text)

	// 新的一级标题清空已捕获的二级标题
	assert.Equal(t, "Gamma", chunks[1].Metadata["h1"])
	assert.NotContains(t, chunks[1].Metadata, "h2")
	assert.Equal(t, "body two", chunks[1].Text)
}

func TestChunkUnits_DeeperHeadingsTreatedAsBody(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	units := []extractor.Unit{{
		Text:     "# Title\n### Deep heading\nbody",
		Metadata: map[string]any{"source": "n.md", "type": "md"},
	}}

	chunks := c.ChunkUnits(units)
	require.Len(t, chunks, 1)

	assert.Equal(t, "### Deep heading\nbody", chunks[0].Text)
	assert.Equal(t, "Title", chunks[0].Metadata["h1"])
}

func TestChunkUnits_MarkerOnlyChunkDropped(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	units := []extractor.Unit{{
		Text:     "# Title <!--PAGE_1-->\n\n<!--PAGE_2-->",
		Metadata: map[string]any{"source": "a.pdf", "type": "pdf"},
	}}

	chunks := c.ChunkUnits(units)
	assert.Empty(t, chunks)
}

func TestChunkUnits_LongSectionSplitsWithinTokenBudget(t *testing.T) {
	const (
		size    = 20
		overlap = 5
	)
	c := newTestChunker(t, size, overlap)

	units := []extractor.Unit{{
		Text:     "# Log\n" + strings.TrimSpace(strings.Repeat("alpha beta gamma delta ", 30)),
		Metadata: map[string]any{"source": "n.md", "type": "md"},
	}}

	chunks := c.ChunkUnits(units)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, c.CountTokens(chunk.Text), size)
		assert.Equal(t, i, chunk.Metadata["split_id"])
		assert.Equal(t, "Log", chunk.Metadata["h1"])
	}
}

func TestChunkUnits_TwoPageSingleHeadingDocument(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	body := "Lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor."
	units := []extractor.Unit{{
		Text:     "# Summary <!--PAGE_1-->\n\n" + body + " <!--PAGE_1-->\n\nmore body words here <!--PAGE_2-->",
		Metadata: map[string]any{},
	}}

	chunks := c.ChunkUnits(units)
	require.Len(t, chunks, 1)

	assert.Equal(t, map[string]any{
		"h1":       "Summary",
		"page":     1,
		"split_id": 0,
	}, chunks[0].Metadata)
	assert.NotContains(t, chunks[0].Text, "<!--PAGE_")
	assert.Contains(t, chunks[0].Text, "Lorem ipsum")
	assert.Contains(t, chunks[0].Text, "more body words here")
}

func TestChunkUnits_TinyChunkSizeKeepsPositiveStep(t *testing.T) {
	// chunkSize 小于默认重叠时，重叠必须被压到预算之内，否则切分无法前进
	c := newTestChunker(t, 5, 10)

	units := []extractor.Unit{{
		Text:     strings.TrimSpace(strings.Repeat("alpha beta gamma ", 10)),
		Metadata: map[string]any{"source": "n.md", "type": "md"},
	}}

	chunks := c.ChunkUnits(units)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, c.CountTokens(chunk.Text), 5)
	}
}

func TestChunkUnits_EmptyInput(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	assert.Empty(t, c.ChunkUnits(nil))
	assert.Empty(t, c.ChunkUnits([]extractor.Unit{{Text: "", Metadata: map[string]any{}}}))
}

func TestCountTokens(t *testing.T) {
	c := newTestChunker(t, 0, 0)

	assert.Equal(t, 0, c.CountTokens(""))
	assert.Greater(t, c.CountTokens("hello world"), 0)
}
