package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Index   IndexConfig
	Store   StoreConfig
	Harvest HarvestConfig
	Ingest  IngestConfig
	Query   QueryConfig
	Log     LogConfig

	// ExternalCallTimeout bounds every call to a collaborator (model, index, store, page fetch).
	ExternalCallTimeout time.Duration
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	index, err := loadIndexConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	harvest, err := loadHarvestConfig()
	if err != nil {
		return nil, err
	}

	ingest, err := loadIngestConfig()
	if err != nil {
		return nil, err
	}

	timeout, err := parseDurationEnv("EXTERNAL_CALL_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:              server,
		AI:                  ai,
		Index:               index,
		Store:               store,
		Harvest:             harvest,
		Ingest:              ingest,
		Query:               loadQueryConfig(),
		Log:                 loadLogConfig(),
		ExternalCallTimeout: timeout,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
	TopP      *float64
	MaxTokens *int

	OpenAIAPIKey         string
	OpenAIModel          string
	OpenAIBaseURL        string
	OpenAIEmbeddingModel string

	// AnswerTemperature applies to name extraction and narrative answers.
	AnswerTemperature float64
	// SentimentTemperature and SentimentMaxTokens apply to per-comment classification.
	SentimentTemperature float64
	SentimentMaxTokens   int
}

// ArkEnabled 表示是否提供了 Ark 所需的密钥。
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OpenAIEnabled reports whether an OpenAI-compatible key is configured.
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	temperature := float32(c.AnswerTemperature)

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	answerTemp, err := parseFloatEnv("AI_TEMPERATURE", 0.2)
	if err != nil {
		return AIConfig{}, err
	}

	sentimentTemp, err := parseFloatEnv("SENTIMENT_TEMPERATURE", 0.7)
	if err != nil {
		return AIConfig{}, err
	}

	sentimentTokens, err := parseIntEnv("SENTIMENT_MAX_TOKENS", 10)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:             strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER"))),
		APIKey:               strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:            strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:            strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:                strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:              getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:               getEnvOrDefault("ARK_REGION", "cn-beijing"),
		TopP:                 topP,
		MaxTokens:            maxTokens,
		OpenAIAPIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:          getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIEmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		AnswerTemperature:    answerTemp,
		SentimentTemperature: sentimentTemp,
		SentimentMaxTokens:   sentimentTokens,
	}

	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
		if cfg.ArkEnabled() {
			cfg.Provider = ProviderArk
		}
	}
	if cfg.Provider != ProviderArk && cfg.Provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", cfg.Provider)
	}
	return cfg, nil
}

const (
	IndexMemory   = "memory"
	IndexPinecone = "pinecone"
	IndexQdrant   = "qdrant"
)

// IndexConfig selects and configures the vector index.
type IndexConfig struct {
	Type string
	TopK int

	// GroundingMinScore is the similarity a name chunk needs before it confirms an extracted name.
	GroundingMinScore float64

	PineconeAPIKey    string
	PineconeHost      string
	PineconeNamespace string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
}

func loadIndexConfig() (IndexConfig, error) {
	topK, err := parseIntEnv("RETRIEVER_TOP_K", 4)
	if err != nil {
		return IndexConfig{}, err
	}
	if topK < 1 {
		return IndexConfig{}, fmt.Errorf("invalid RETRIEVER_TOP_K value %d: must be positive", topK)
	}
	minScore, err := parseFloatEnv("GROUNDING_MIN_SCORE", 0)
	if err != nil {
		return IndexConfig{}, err
	}
	if minScore < -1 || minScore > 1 {
		return IndexConfig{}, fmt.Errorf("invalid GROUNDING_MIN_SCORE value %g: must be between -1 and 1", minScore)
	}

	cfg := IndexConfig{
		Type:              strings.ToLower(getEnvOrDefault("VECTOR_INDEX", IndexMemory)),
		TopK:              topK,
		GroundingMinScore: minScore,
		PineconeAPIKey:    strings.TrimSpace(os.Getenv("PINECONE_API_KEY")),
		PineconeHost:      strings.TrimSpace(os.Getenv("PINECONE_HOST")),
		PineconeNamespace: strings.TrimSpace(os.Getenv("PINECONE_NAMESPACE")),
		QdrantURL:         strings.TrimSpace(os.Getenv("QDRANT_URL")),
		QdrantAPIKey:      strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		QdrantCollection:  getEnvOrDefault("QDRANT_COLLECTION", "professor_reviews"),
	}

	switch cfg.Type {
	case IndexMemory:
	case IndexPinecone:
		if cfg.PineconeAPIKey == "" || cfg.PineconeHost == "" {
			return IndexConfig{}, fmt.Errorf("pinecone index requires PINECONE_API_KEY and PINECONE_HOST")
		}
	case IndexQdrant:
		if cfg.QdrantURL == "" {
			return IndexConfig{}, fmt.Errorf("qdrant index requires QDRANT_URL")
		}
	default:
		return IndexConfig{}, fmt.Errorf("invalid VECTOR_INDEX value %q", cfg.Type)
	}
	return cfg, nil
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// StoreConfig configures the rating record database.
type StoreConfig struct {
	Driver     string
	DSN        string
	Collection string
}

func loadStoreConfig() (StoreConfig, error) {
	cfg := StoreConfig{
		Driver:     strings.ToLower(getEnvOrDefault("RECORD_STORE_DRIVER", DriverSQLite)),
		DSN:        getEnvOrDefault("RECORD_STORE_DSN", "memory"),
		Collection: getEnvOrDefault("RECORD_COLLECTION", "professor_comments"),
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverMySQL {
		return StoreConfig{}, fmt.Errorf("invalid RECORD_STORE_DRIVER value %q", cfg.Driver)
	}
	if cfg.Driver == DriverMySQL && cfg.DSN == "memory" {
		return StoreConfig{}, fmt.Errorf("mysql driver requires RECORD_STORE_DSN")
	}
	return cfg, nil
}

const (
	HarvesterStatic   = "static"
	HarvesterHeadless = "headless"
)

// HarvestConfig configures how professor pages are fetched and parsed.
type HarvestConfig struct {
	Strategy        string
	NameSelector    string
	CommentSelector string
	UserAgent       string
	ChromePath      string
}

func loadHarvestConfig() (HarvestConfig, error) {
	cfg := HarvestConfig{
		Strategy:        strings.ToLower(getEnvOrDefault("HARVESTER", HarvesterStatic)),
		NameSelector:    getEnvOrDefault("HARVEST_NAME_SELECTOR", ".NameTitle__Name-dowf0z-0.cfjPUG"),
		CommentSelector: getEnvOrDefault("HARVEST_COMMENT_SELECTOR", ".Comments__StyledComments-dzzyvm-0"),
		UserAgent:       getEnvOrDefault("HARVEST_USER_AGENT", "Mozilla/5.0 (compatible; profscope/1.0)"),
		ChromePath:      strings.TrimSpace(os.Getenv("CHROME_PATH")),
	}
	if cfg.Strategy != HarvesterStatic && cfg.Strategy != HarvesterHeadless {
		return HarvestConfig{}, fmt.Errorf("invalid HARVESTER value %q", cfg.Strategy)
	}
	return cfg, nil
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	ChunkSize int
	// SentimentConcurrency caps parallel classification calls; 0 classifies all comments at once.
	SentimentConcurrency int
}

func loadIngestConfig() (IngestConfig, error) {
	chunkSize, err := parseIntEnv("INGEST_CHUNK_SIZE", 2000)
	if err != nil {
		return IngestConfig{}, err
	}
	if chunkSize < 1 {
		return IngestConfig{}, fmt.Errorf("invalid INGEST_CHUNK_SIZE value %d: must be positive", chunkSize)
	}

	concurrency, err := parseIntEnv("SENTIMENT_CONCURRENCY", 0)
	if err != nil {
		return IngestConfig{}, err
	}
	if concurrency < 0 {
		concurrency = 0
	}

	return IngestConfig{ChunkSize: chunkSize, SentimentConcurrency: concurrency}, nil
}

// QueryConfig tunes the conversational path.
type QueryConfig struct {
	TrendKeywords []string
}

func loadQueryConfig() QueryConfig {
	raw := strings.TrimSpace(os.Getenv("TREND_KEYWORDS"))
	if raw == "" {
		return QueryConfig{}
	}

	var keywords []string
	for _, part := range strings.Split(raw, ",") {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return QueryConfig{TrendKeywords: keywords}
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	val, err := parseOptionalFloatEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
