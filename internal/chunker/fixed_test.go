package chunker

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/profscope/backend/internal/model/document"
)

func TestSplitRoundTrip(t *testing.T) {
	property := func(text string, n uint8) bool {
		size := int(n%64) + 1
		return strings.Join(Split(text, size), "") == text
	}
	require.NoError(t, quick.Check(property, nil))
}

func TestSplitWidths(t *testing.T) {
	chunks := Split(strings.Repeat("a", 4500), 2000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 2000)
	assert.Len(t, chunks[2], 500)
}

func TestSplitKeepsMultibyteRunesWhole(t *testing.T) {
	chunks := Split("héllo wörld", 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 3)
	}
	assert.Equal(t, "héllo wörld", strings.Join(chunks, ""))
}

func TestSplitEmptyAndDefaultSize(t *testing.T) {
	assert.Empty(t, Split("", 10))
	assert.Len(t, Split(strings.Repeat("x", DefaultSize+1), 0), 2)
}

func TestChunkPrependsNameChunk(t *testing.T) {
	c := NewFixedChunker(5)

	chunks := c.Chunk("https://example.edu/p/1", "John Smith", "abcdefghij")
	require.Len(t, chunks, 3)

	assert.Equal(t, document.NameChunkIndex, chunks[0].Index)
	assert.Equal(t, "Full name: John Smith", chunks[0].Content)
	assert.Equal(t, 0, chunks[1].Index)
	assert.Equal(t, "abcde", chunks[1].Content)
	assert.Equal(t, 1, chunks[2].Index)
	for _, ch := range chunks {
		assert.Equal(t, "John Smith", ch.Professor)
		assert.Equal(t, "https://example.edu/p/1", ch.URL)
	}
}

func TestChunkWithoutName(t *testing.T) {
	chunks := NewFixedChunker(100).Chunk("u", "", "body text")
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Empty(t, chunks[0].Professor)
}

func TestSplitPreservesInvalidUTF8(t *testing.T) {
	text := "ab\xffcd\xfe"
	assert.Equal(t, text, strings.Join(Split(text, 2), ""))
}
