package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"gorm.io/gorm"

	"github.com/zhouzirui/profscope/backend/internal/analysis/intent"
	"github.com/zhouzirui/profscope/backend/internal/chunker"
	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/database"
	"github.com/zhouzirui/profscope/backend/internal/harvest"
	"github.com/zhouzirui/profscope/backend/internal/repository/records"
	"github.com/zhouzirui/profscope/backend/internal/service/ai"
	"github.com/zhouzirui/profscope/backend/internal/service/chat"
	"github.com/zhouzirui/profscope/backend/internal/service/entity"
	"github.com/zhouzirui/profscope/backend/internal/service/ingest"
	"github.com/zhouzirui/profscope/backend/internal/service/query"
	"github.com/zhouzirui/profscope/backend/internal/service/sentiment"
	"github.com/zhouzirui/profscope/backend/internal/vectorindex"
)

// App holds the wired services shared by the API server and the ingestion CLI.
type App struct {
	Query    *query.Service
	Pipeline *ingest.Pipeline
	Sessions *chat.Service

	db *gorm.DB
}

// Close releases the record store connection.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return database.Close(a.db)
}

// Collaborators are the external dependencies an App is built on. Zero fields are
// built from configuration by New.
type Collaborators struct {
	Completer ai.Completer
	Embedder  embeddings.Embedder
	Index     vectorindex.Index
	Records   records.Store
	Harvester harvest.Harvester
}

// New builds every component from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewWith(ctx, cfg, Collaborators{})
}

// NewWith builds the App, using any collaborators supplied instead of the configured ones.
func NewWith(ctx context.Context, cfg *config.Config, c Collaborators) (*App, error) {
	app := &App{}

	var openAIClient *openai.LLM
	if cfg.AI.OpenAIEnabled() && (c.Completer == nil || (c.Embedder == nil && c.Index == nil)) {
		client, err := ai.NewOpenAIClient(cfg.AI)
		if err != nil {
			return nil, err
		}
		openAIClient = client
	}

	if c.Completer == nil {
		completer, err := newCompleter(ctx, cfg.AI, openAIClient)
		if err != nil {
			return nil, err
		}
		c.Completer = completer
	}

	if c.Index == nil {
		if c.Embedder == nil {
			if openAIClient == nil {
				return nil, fmt.Errorf("embeddings require OPENAI_API_KEY")
			}
			embedder, err := embeddings.NewEmbedder(openAIClient)
			if err != nil {
				return nil, fmt.Errorf("failed to create embedder: %w", err)
			}
			c.Embedder = embedder
		}

		index, err := newIndex(cfg.Index, c.Embedder)
		if err != nil {
			return nil, err
		}
		c.Index = index
	}

	if c.Records == nil {
		db, err := database.Open(cfg.Store)
		if err != nil {
			return nil, err
		}
		store, err := records.NewGormStore(db, cfg.Store.Collection)
		if err != nil {
			_ = database.Close(db)
			return nil, err
		}
		app.db = db
		c.Records = store
	}

	if c.Harvester == nil {
		h, err := harvest.New(cfg.Harvest)
		if err != nil {
			return nil, err
		}
		c.Harvester = h
	}

	classifier := sentiment.NewService(c.Completer, sentiment.Config{
		Temperature: cfg.AI.SentimentTemperature,
		MaxTokens:   cfg.AI.SentimentMaxTokens,
		Concurrency: cfg.Ingest.SentimentConcurrency,
		Timeout:     cfg.ExternalCallTimeout,
	})
	app.Pipeline = ingest.NewPipeline(
		c.Harvester,
		classifier,
		c.Records,
		chunker.NewFixedChunker(cfg.Ingest.ChunkSize),
		c.Index,
		cfg.ExternalCallTimeout,
	)

	app.Sessions = chat.NewService()
	resolver := entity.NewResolver(c.Completer, c.Index, app.Sessions, entity.Config{
		Temperature: cfg.AI.AnswerTemperature,
		MinScore:    cfg.Index.GroundingMinScore,
		Timeout:     cfg.ExternalCallTimeout,
	})
	app.Query = query.NewService(
		app.Sessions,
		resolver,
		intent.NewRouter(cfg.Query.TrendKeywords),
		c.Index,
		c.Records,
		c.Completer,
		query.Config{
			TopK:        cfg.Index.TopK,
			Temperature: cfg.AI.AnswerTemperature,
			Timeout:     cfg.ExternalCallTimeout,
		},
	)

	log.Info().
		Str("provider", cfg.AI.Provider).
		Str("index", cfg.Index.Type).
		Str("store", cfg.Store.Driver).
		Str("harvester", cfg.Harvest.Strategy).
		Msg("application components initialized")
	return app, nil
}

func newCompleter(ctx context.Context, cfg config.AIConfig, client *openai.LLM) (ai.Completer, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		svc, err := ai.NewService(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ark completion service: %w", err)
		}
		return svc, nil
	case config.ProviderOpenAI:
		if client == nil {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return ai.NewLangchainCompleter(client, cfg.AnswerTemperature), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newIndex(cfg config.IndexConfig, embedder embeddings.Embedder) (vectorindex.Index, error) {
	switch cfg.Type {
	case config.IndexPinecone:
		return vectorindex.NewPinecone(cfg.PineconeAPIKey, cfg.PineconeHost, cfg.PineconeNamespace, embedder)
	case config.IndexQdrant:
		return vectorindex.NewQdrant(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, embedder)
	case config.IndexMemory, "":
		return vectorindex.NewMemory(embedder), nil
	default:
		return nil, fmt.Errorf("unknown vector index %q", cfg.Type)
	}
}
