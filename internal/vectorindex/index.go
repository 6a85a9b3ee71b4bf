package vectorindex

import (
	"context"
	"errors"

	"github.com/zhouzirui/profscope/backend/internal/model/document"
)

var ErrEmbeddingMismatch = errors.New("embedder returned a different number of vectors than chunks")

// Index stores chunks with their embeddings and answers similarity queries.
type Index interface {
	Upsert(ctx context.Context, chunks []document.Chunk) error
	// Search returns at most k passages, most similar first.
	Search(ctx context.Context, query string, k int, opts ...SearchOption) ([]document.Passage, error)
}

// SearchOptions restricts a similarity search.
type SearchOptions struct {
	Professor      string
	NameChunksOnly bool
}

type SearchOption func(*SearchOptions)

// WithProfessor limits results to chunks tagged with the given professor.
func WithProfessor(name string) SearchOption {
	return func(o *SearchOptions) {
		o.Professor = name
	}
}

// NameChunksOnly limits results to the synthetic "Full name:" chunks.
func NameChunksOnly() SearchOption {
	return func(o *SearchOptions) {
		o.NameChunksOnly = true
	}
}

func collectOptions(opts []SearchOption) SearchOptions {
	var o SearchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o SearchOptions) matches(c document.Chunk) bool {
	if o.Professor != "" && c.Professor != o.Professor {
		return false
	}
	if o.NameChunksOnly && c.Index != document.NameChunkIndex {
		return false
	}
	return true
}
