package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmptyInput(t *testing.T) {
	empty, err := ChunkText("", ChunkConfig{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	blank, err := ChunkText("   ", ChunkConfig{})
	require.NoError(t, err)
	assert.Equal(t, empty, blank)
}

func TestChunkTextSingleChunk(t *testing.T) {
	text := "A short document that fits comfortably inside one window."
	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[0].EndChar)
	assert.Equal(t, text, chunks[0].Content)
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)

	first, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)
	second, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunkTextDefaultStride(t *testing.T) {
	// No sentence terminators or newlines, so no snapping shifts any window:
	// 12000 chars at advance 1700 must give exactly ceil(12000/1700) = 8.
	text := strings.Repeat("a", 12000)

	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)

	require.Len(t, chunks, 8)
	assert.Equal(t, 12000, chunks[len(chunks)-1].EndChar)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, i*1700, c.StartChar)
	}
	// Consecutive windows overlap by the configured 300 chars.
	for i := 0; i < len(chunks)-2; i++ {
		assert.Equal(t, 300, chunks[i].EndChar-chunks[i+1].StartChar)
	}
}

func TestChunkTextCoverage(t *testing.T) {
	text := strings.Repeat("Retrieval systems index documents as overlapping chunks. ", 250)

	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Less(t, c.StartChar, c.EndChar)
		if i > 0 {
			// Every window starts at or before the previous window's end:
			// the union covers the whole text with no gaps.
			assert.LessOrEqual(t, c.StartChar, chunks[i-1].EndChar)
			assert.Greater(t, c.StartChar, chunks[i-1].StartChar)
		}
	}
}

func TestChunkTextSentenceSnapping(t *testing.T) {
	sentence := strings.Repeat("x", 95) + "now. " // ~100 chars per sentence
	text := strings.Repeat(sentence, 120)

	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks[:len(chunks)-1] {
		window := text[c.StartChar:c.EndChar]
		assert.True(t, strings.HasSuffix(window, ". "),
			"chunk %d should end on a sentence boundary, got %q", c.ChunkIndex, window[len(window)-8:])
	}
}

func TestChunkTextBlankWindowsGetNoIndex(t *testing.T) {
	text := "abc" + strings.Repeat(" ", 5000) + "xyz"

	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "abc", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "xyz", chunks[1].Content)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestChunkTextAutoScale(t *testing.T) {
	// Naive estimate ceil(len/1700) exceeds MaxChunks, forcing rescale.
	text := strings.Repeat("b", MaxChunks*1700+1)

	chunks, err := ChunkText(text, ChunkConfig{})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(chunks), MaxChunks)
	assert.Greater(t, len(chunks), MaxChunks/2)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
}

func TestChunkTextInvalidConfig(t *testing.T) {
	var chunkErr *ChunkingError

	_, err := ChunkText("some text", ChunkConfig{ChunkSize: 100, Overlap: 100})
	require.Error(t, err)
	assert.ErrorAs(t, err, &chunkErr)

	_, err = ChunkText("some text", ChunkConfig{ChunkSize: 100, Overlap: 150})
	require.Error(t, err)

	_, err = ChunkText("some text", ChunkConfig{ChunkSize: 100, Overlap: -1})
	require.Error(t, err)
}
