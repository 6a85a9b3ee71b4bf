package chunker

import "github.com/zhouzirui/profscope/backend/internal/model/document"

// DefaultSize is the passage width, in runes, used when none is configured.
const DefaultSize = 2000

// Split slices text into consecutive passages of at most size runes. It ignores
// sentence and word boundaries; joining the result reproduces text exactly.
func Split(text string, size int) []string {
	if size < 1 {
		size = DefaultSize
	}
	if text == "" {
		return nil
	}

	var chunks []string
	start, count := 0, 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	chunks = append(chunks, text[start:])
	return chunks
}

// FixedChunker turns page text into indexable chunks.
type FixedChunker struct {
	size int
}

func NewFixedChunker(size int) *FixedChunker {
	if size < 1 {
		size = DefaultSize
	}
	return &FixedChunker{size: size}
}

// Chunk splits body into ordinal chunks for url. When professorName is set the
// synthetic name chunk is prepended with index -1 and every chunk is tagged with it.
func (c *FixedChunker) Chunk(url, professorName, body string) []document.Chunk {
	parts := Split(body, c.size)

	chunks := make([]document.Chunk, 0, len(parts)+1)
	if professorName != "" {
		chunks = append(chunks, document.NameChunk(url, professorName))
	}
	for i, part := range parts {
		chunks = append(chunks, document.Chunk{
			Content:   part,
			URL:       url,
			Index:     i,
			Professor: professorName,
		})
	}
	return chunks
}
