package document

import (
	"regexp"
	"strings"
)

// NameChunkIndex is reserved for the synthetic chunk carrying a professor's full name.
const NameChunkIndex = -1

const fullNamePrefix = "Full name: "

var fullNamePattern = regexp.MustCompile(`Full name: (.+)`)

// Chunk is a passage prepared for similarity indexing.
type Chunk struct {
	Content   string `json:"content"`
	URL       string `json:"url"`
	Index     int    `json:"chunkIndex"`
	Professor string `json:"professor,omitempty"`
}

// Passage is a chunk returned by a similarity search.
type Passage struct {
	Chunk
	Score float32 `json:"score"`
}

// NameChunk builds the synthetic chunk that lets later turns ground a professor name.
func NameChunk(url, professorName string) Chunk {
	return Chunk{
		Content:   fullNamePrefix + professorName,
		URL:       url,
		Index:     NameChunkIndex,
		Professor: professorName,
	}
}

// ParseFullName extracts the value of the first "Full name:" line in a passage.
func ParseFullName(passage string) (string, bool) {
	match := fullNamePattern.FindStringSubmatch(passage)
	if match == nil {
		return "", false
	}
	name := strings.TrimSpace(match[1])
	return name, name != ""
}

// Contents returns the text of each passage joined by newlines.
func Contents(passages []Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n")
}
