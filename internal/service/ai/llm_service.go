package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/model/chat"
)

// Service runs completions through eino chains on top of a chat model.
type Service struct {
	withSystem compose.Runnable[map[string]any, *schema.Message]
	plain      compose.Runnable[map[string]any, *schema.Message]
}

var _ Completer = (*Service)(nil)

// NewService creates the Ark-backed completion service described by cfg.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel compiles the completion chains around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	withSystem, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	))
	if err != nil {
		return nil, err
	}

	plain, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", false),
	))
	if err != nil {
		return nil, err
	}

	return &Service{
		withSystem: withSystem,
		plain:      plain,
	}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel, template prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}
	return runnable, nil
}

// Complete runs one completion and returns its normalized text.
func (s *Service) Complete(ctx context.Context, req Completion) (string, error) {
	input := map[string]any{
		"history": toSchemaMessages(req.Messages),
	}

	runnable := s.plain
	if req.System != "" {
		input["system"] = req.System
		runnable = s.withSystem
	}

	var modelOpts []model.Option
	if req.Temperature != nil {
		modelOpts = append(modelOpts, model.WithTemperature(float32(*req.Temperature)))
	}
	if req.MaxTokens > 0 {
		modelOpts = append(modelOpts, model.WithMaxTokens(req.MaxTokens))
	}

	var opts []compose.Option
	if len(modelOpts) > 0 {
		opts = append(opts, compose.WithChatModelOption(modelOpts...))
	}

	response, err := runnable.Invoke(ctx, input, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to run completion chain: %w", err)
	}

	text := messageText(response)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	log.Debug().Str("provider", config.ProviderArk).Int("messages", len(req.Messages)).Int("length", len(text)).Msg("completion generated")
	return text, nil
}

func toSchemaMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	out := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		case chat.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		}
	}
	return out
}

// messageText flattens plain or multi-part content into one string.
func messageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if text := strings.TrimSpace(msg.Content); text != "" {
		return text
	}

	parts := make([]string, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText && strings.TrimSpace(part.Text) != "" {
			parts = append(parts, strings.TrimSpace(part.Text))
		}
	}
	return strings.Join(parts, " ")
}
