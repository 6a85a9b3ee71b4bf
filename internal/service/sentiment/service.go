package sentiment

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/profscope/backend/internal/model/chat"
	"github.com/zhouzirui/profscope/backend/internal/model/professor"
	"github.com/zhouzirui/profscope/backend/internal/service/ai"
)

// Config controls classification sampling and fan-out.
type Config struct {
	Temperature float64
	MaxTokens   int
	// Concurrency caps parallel calls in ClassifyAll; 0 means one goroutine per comment.
	Concurrency int
	// Timeout bounds each classification call; 0 disables the per-call bound.
	Timeout time.Duration
}

// Outcome is the classification of one comment. Err is set when the label is Unknown
// because the call failed or its output could not be parsed.
type Outcome struct {
	Comment   string
	Sentiment professor.Sentiment
	Err       error
}

// Service labels review text through one completion call per review.
type Service struct {
	completer ai.Completer
	cfg       Config
}

func NewService(completer ai.Completer, cfg Config) *Service {
	return &Service{completer: completer, cfg: cfg}
}

// Classify returns the label for a single review. On any failure it returns Unknown
// together with the cause.
func (s *Service) Classify(ctx context.Context, review string) (professor.Sentiment, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	req := ai.Completion{
		Messages:  []chat.Message{chat.UserMessage(ai.SentimentPrompt(review))},
		MaxTokens: s.cfg.MaxTokens,
	}
	if s.cfg.Temperature > 0 {
		req.Temperature = ai.Float(s.cfg.Temperature)
	}

	raw, err := s.completer.Complete(ctx, req)
	if err != nil {
		return professor.Unknown, fmt.Errorf("sentiment completion failed: %w", err)
	}

	label, ok := professor.ParseSentiment(raw)
	if !ok {
		return professor.Unknown, fmt.Errorf("unrecognized sentiment label %q", raw)
	}
	return label, nil
}

// ClassifyAll classifies every comment concurrently and returns outcomes in input
// order. A failing comment never affects the others.
func (s *Service) ClassifyAll(ctx context.Context, comments []string) []Outcome {
	outcomes := make([]Outcome, len(comments))
	if len(comments) == 0 {
		return outcomes
	}

	var g errgroup.Group
	if s.cfg.Concurrency > 0 {
		g.SetLimit(s.cfg.Concurrency)
	}

	for i, comment := range comments {
		g.Go(func() error {
			label, err := s.Classify(ctx, comment)
			outcomes[i] = Outcome{Comment: comment, Sentiment: label, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
