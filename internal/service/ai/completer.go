package ai

import (
	"context"
	"errors"

	"github.com/zhouzirui/profscope/backend/internal/model/chat"
)

// ErrEmptyCompletion is returned when a provider answers without any text.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completion is a single chat-completion request.
type Completion struct {
	// System is sent as the first message when non-empty.
	System   string
	Messages []chat.Message
	// Temperature overrides the provider default when set.
	Temperature *float64
	// MaxTokens overrides the provider default when positive.
	MaxTokens int
}

// Completer is the boundary to a language model. Implementations normalize whatever
// content shape the provider returns into plain trimmed text.
type Completer interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// Float returns a pointer to v, for Completion.Temperature.
func Float(v float64) *float64 {
	return &v
}
