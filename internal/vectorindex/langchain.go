package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pinecone"
	"github.com/tmc/langchaingo/vectorstores/qdrant"

	"github.com/zhouzirui/profscope/backend/internal/model/document"
)

// Metadata keys written next to every chunk.
const (
	MetaURL        = "url"
	MetaChunkIndex = "chunkIndex"
	MetaProfessor  = "professor"
)

// FilterFunc translates search options into a backend-specific filter. A nil
// return means no filter.
type FilterFunc func(SearchOptions) any

// Store adapts a langchaingo vector store to Index.
type Store struct {
	store  vectorstores.VectorStore
	filter FilterFunc
}

var _ Index = (*Store)(nil)

func NewStore(store vectorstores.VectorStore, filter FilterFunc) *Store {
	return &Store{store: store, filter: filter}
}

// NewPinecone connects to a Pinecone index host.
func NewPinecone(apiKey, host, namespace string, embedder embeddings.Embedder) (*Store, error) {
	opts := []pinecone.Option{
		pinecone.WithAPIKey(apiKey),
		pinecone.WithHost(host),
		pinecone.WithEmbedder(embedder),
	}
	if namespace != "" {
		opts = append(opts, pinecone.WithNameSpace(namespace))
	}

	store, err := pinecone.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone store: %w", err)
	}
	return NewStore(store, PineconeFilter), nil
}

// NewQdrant connects to a Qdrant collection.
func NewQdrant(rawURL, apiKey, collection string, embedder embeddings.Embedder) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url %q: %w", rawURL, err)
	}

	opts := []qdrant.Option{
		qdrant.WithURL(*u),
		qdrant.WithCollectionName(collection),
		qdrant.WithEmbedder(embedder),
	}
	if apiKey != "" {
		opts = append(opts, qdrant.WithAPIKey(apiKey))
	}

	store, err := qdrant.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant store: %w", err)
	}
	return NewStore(store, QdrantFilter), nil
}

func (s *Store) Upsert(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]schema.Document, len(chunks))
	for i, c := range chunks {
		metadata := map[string]any{
			MetaURL:        c.URL,
			MetaChunkIndex: c.Index,
		}
		if c.Professor != "" {
			metadata[MetaProfessor] = c.Professor
		}
		docs[i] = schema.Document{PageContent: c.Content, Metadata: metadata}
	}

	if _, err := s.store.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("failed to upsert %d chunks: %w", len(chunks), err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, k int, opts ...SearchOption) ([]document.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	var storeOpts []vectorstores.Option
	if s.filter != nil {
		if f := s.filter(collectOptions(opts)); f != nil {
			storeOpts = append(storeOpts, vectorstores.WithFilters(f))
		}
	}

	docs, err := s.store.SimilaritySearch(ctx, query, k, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	passages := make([]document.Passage, 0, len(docs))
	for _, d := range docs {
		passages = append(passages, toPassage(d))
	}
	return passages, nil
}

// PineconeFilter builds a Pinecone metadata filter.
func PineconeFilter(o SearchOptions) any {
	filter := map[string]any{}
	if o.Professor != "" {
		filter[MetaProfessor] = map[string]any{"$eq": o.Professor}
	}
	if o.NameChunksOnly {
		filter[MetaChunkIndex] = map[string]any{"$eq": document.NameChunkIndex}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

// QdrantFilter builds a Qdrant payload filter.
func QdrantFilter(o SearchOptions) any {
	var must []map[string]any
	if o.Professor != "" {
		must = append(must, map[string]any{"key": MetaProfessor, "match": map[string]any{"value": o.Professor}})
	}
	if o.NameChunksOnly {
		must = append(must, map[string]any{"key": MetaChunkIndex, "match": map[string]any{"value": document.NameChunkIndex}})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func toPassage(d schema.Document) document.Passage {
	p := document.Passage{
		Chunk: document.Chunk{Content: d.PageContent},
		Score: d.Score,
	}
	if v, ok := d.Metadata[MetaURL].(string); ok {
		p.URL = v
	}
	if v, ok := d.Metadata[MetaProfessor].(string); ok {
		p.Professor = v
	}
	if v, ok := metadataInt(d.Metadata[MetaChunkIndex]); ok {
		p.Index = v
	}
	return p
}

// metadataInt accepts the numeric shapes backends return after a JSON round trip.
func metadataInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
