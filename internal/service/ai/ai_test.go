package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/zhouzirui/profscope/backend/internal/model/chat"
)

type recordingModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	reply    string
}

func (m *recordingModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangchainCompleterMapsRolesAndOptions(t *testing.T) {
	model := &recordingModel{reply: "  Jane Doe \n"}
	completer := NewLangchainCompleter(model, 0.2)

	text, err := completer.Complete(context.Background(), Completion{
		System: "sys",
		Messages: []chat.Message{
			chat.UserMessage("who teaches CS101?"),
			chat.AssistantMessage("Jane Doe"),
		},
		Temperature: Float(0.7),
		MaxTokens:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)

	require.Len(t, model.messages, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.InDelta(t, 0.7, model.options.Temperature, 1e-9)
	assert.Equal(t, 10, model.options.MaxTokens)
}

func TestLangchainCompleterDefaultsAndEmptyReply(t *testing.T) {
	model := &recordingModel{reply: "   "}
	completer := NewLangchainCompleter(model, 0.2)

	_, err := completer.Complete(context.Background(), Completion{Messages: []chat.Message{chat.UserMessage("hi")}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	require.Len(t, model.messages, 1)
	assert.InDelta(t, 0.2, model.options.Temperature, 1e-9)
}

func TestMessageTextNormalizesContent(t *testing.T) {
	assert.Equal(t, "hello", messageText(&schema.Message{Content: " hello "}))
	assert.Equal(t, "", messageText(nil))

	multi := &schema.Message{MultiContent: []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: "Jane"},
		{Type: schema.ChatMessagePartTypeImageURL},
		{Type: schema.ChatMessagePartTypeText, Text: "Doe "},
	}}
	assert.Equal(t, "Jane Doe", messageText(multi))
}

func TestToSchemaMessagesKeepsOrder(t *testing.T) {
	out := toSchemaMessages([]chat.Message{
		chat.UserMessage("q"),
		chat.AssistantMessage("a"),
		chat.SystemMessage("ctx"),
	})
	require.Len(t, out, 3)
	assert.Equal(t, schema.User, out[0].Role)
	assert.Equal(t, schema.Assistant, out[1].Role)
	assert.Equal(t, schema.System, out[2].Role)
}

func TestAdvisorPromptContract(t *testing.T) {
	prompt := AdvisorSystemPrompt
	assert.Contains(t, prompt, "Positive, Negative, or Neutral")
	assert.Contains(t, prompt, "Never invent data")
	assert.Contains(t, prompt, "explicitly requested")
	assert.True(t, strings.HasPrefix(prompt, AdvisorTemplate.Preamble))
}

func TestSentimentPromptQuotesReview(t *testing.T) {
	prompt := SentimentPrompt(`He said "great"`)
	assert.Contains(t, prompt, `"He said \"great\""`)
}

func TestRetrievedContextMessage(t *testing.T) {
	assert.Contains(t, RetrievedContextMessage(""), "none were found")
	assert.Equal(t, "Retrieved reviews:\nA\nB", RetrievedContextMessage("A\nB"))
}
