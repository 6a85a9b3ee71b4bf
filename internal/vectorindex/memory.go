package vectorindex

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/zhouzirui/profscope/backend/internal/model/document"
)

// Memory is an in-process index using brute-force cosine similarity. It is meant for
// development and tests; contents are lost on restart.
type Memory struct {
	embedder embeddings.Embedder

	mu      sync.RWMutex
	vectors [][]float32
	chunks  []document.Chunk
}

var _ Index = (*Memory)(nil)

func NewMemory(embedder embeddings.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

func (m *Memory) Upsert(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks", ErrEmbeddingMismatch, len(vectors), len(chunks))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *Memory) Search(ctx context.Context, query string, k int, opts ...SearchOption) ([]document.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	vector, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := collectOptions(opts)

	m.mu.RLock()
	passages := make([]document.Passage, 0, len(m.chunks))
	for i, c := range m.chunks {
		if !filter.matches(c) {
			continue
		}
		passages = append(passages, document.Passage{Chunk: c, Score: cosine(m.vectors[i], vector)})
	}
	m.mu.RUnlock()

	slices.SortStableFunc(passages, func(a, b document.Passage) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}

// Len returns the number of stored chunks.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
