package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/model/chat"
)

// NewOpenAIClient creates the OpenAI-compatible client used for both completions
// and embeddings.
func NewOpenAIClient(cfg config.AIConfig) (*openai.LLM, error) {
	if !cfg.OpenAIEnabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
		openai.WithEmbeddingModel(cfg.OpenAIEmbeddingModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return client, nil
}

// LangchainCompleter adapts any langchaingo model to Completer.
type LangchainCompleter struct {
	llm         llms.Model
	temperature float64
}

var _ Completer = (*LangchainCompleter)(nil)

// NewLangchainCompleter wraps llm; defaultTemperature applies when a request sets none.
func NewLangchainCompleter(llm llms.Model, defaultTemperature float64) *LangchainCompleter {
	return &LangchainCompleter{llm: llm, temperature: defaultTemperature}
}

func (c *LangchainCompleter) Complete(ctx context.Context, req Completion) (string, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, msg := range req.Messages {
		content = append(content, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	log.Debug().Str("provider", config.ProviderOpenAI).Int("messages", len(req.Messages)).Int("length", len(text)).Msg("completion generated")
	return text, nil
}

func messageType(role chat.Role) llms.ChatMessageType {
	switch role {
	case chat.RoleAssistant:
		return llms.ChatMessageTypeAI
	case chat.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
