package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/profscope/backend/internal/analysis/intent"
	"github.com/zhouzirui/profscope/backend/internal/model/chat"
	"github.com/zhouzirui/profscope/backend/internal/model/document"
	"github.com/zhouzirui/profscope/backend/internal/model/professor"
	"github.com/zhouzirui/profscope/backend/internal/repository/records"
	"github.com/zhouzirui/profscope/backend/internal/service/ai"
	chatsvc "github.com/zhouzirui/profscope/backend/internal/service/chat"
	"github.com/zhouzirui/profscope/backend/internal/service/entity"
	"github.com/zhouzirui/profscope/backend/internal/vectorindex"
)

var ErrQuestionRequired = errors.New("question is required")

// NoDataMessage is returned on the trend path when the professor has no records.
const NoDataMessage = "No ratings data available for the specified professor."

// Resolver identifies the professor a question is about.
type Resolver interface {
	Resolve(ctx context.Context, session chat.Session, question string) (entity.Resolution, error)
}

// Config tunes retrieval and answer generation.
type Config struct {
	TopK        int
	Temperature float64
	// Timeout bounds each collaborator call; 0 disables the per-call bound.
	Timeout time.Duration
}

// Answer is the outcome of one conversational turn.
type Answer struct {
	SessionID string
	Intent    intent.Label
	Professor string
	// Response is the narrative reply, or NoDataMessage on an empty trend.
	Response string
	// Ratings is the flattened comment series on a trend turn with data.
	Ratings []professor.AnalyzedComment
}

// HasRatings reports whether the answer carries a ratings series.
func (a Answer) HasRatings() bool {
	return a.Intent == intent.Trend && len(a.Ratings) > 0
}

// Service owns a conversational turn: session lookup, entity resolution, intent
// routing and either the narrative answer or the ratings series.
type Service struct {
	sessions  chatsvc.Store
	resolver  Resolver
	router    *intent.Router
	index     vectorindex.Index
	records   records.Store
	completer ai.Completer
	cfg       Config
}

func NewService(
	sessions chatsvc.Store,
	resolver Resolver,
	router *intent.Router,
	index vectorindex.Index,
	recordStore records.Store,
	completer ai.Completer,
	cfg Config,
) *Service {
	if cfg.TopK < 1 {
		cfg.TopK = 4
	}
	return &Service{
		sessions:  sessions,
		resolver:  resolver,
		router:    router,
		index:     index,
		records:   recordStore,
		completer: completer,
		cfg:       cfg,
	}
}

// Ask answers question within sessionID, minting a new session id when it is empty.
// Turns of the same session are serialized.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (Answer, error) {
	if question == "" {
		return Answer{}, ErrQuestionRequired
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	session, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to load session: %w", err)
	}

	resolution, err := s.resolver.Resolve(ctx, session, question)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to resolve professor: %w", err)
	}

	decision := s.router.Route(question, resolution.Name != "")
	log.Info().
		Str("session", sessionID).
		Str("professor", resolution.Name).
		Bool("grounded", resolution.Grounded).
		Str("intent", string(decision.Intent)).
		Str("keyword", decision.Keyword).
		Msg("query routed")

	answer := Answer{SessionID: sessionID, Intent: decision.Intent, Professor: resolution.Name}

	if decision.Intent == intent.Trend {
		ratings, err := s.ratings(ctx, resolution.Name)
		if err != nil {
			return Answer{}, err
		}
		if len(ratings) == 0 {
			answer.Response = NoDataMessage
			return answer, nil
		}
		answer.Ratings = ratings
		return answer, nil
	}

	reply, err := s.narrate(ctx, session, resolution.Name, question)
	if err != nil {
		return Answer{}, err
	}
	answer.Response = reply
	return answer, nil
}

// Clear drops the session's history. Unknown ids are not an error.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	existed, err := s.sessions.Clear(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Info().Str("session", sessionID).Bool("existed", existed).Msg("session cleared")
	return nil
}

// ratings never touches the session transcript.
func (s *Service) ratings(ctx context.Context, name string) ([]professor.AnalyzedComment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	found, err := s.records.FindByProfessor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	return professor.Flatten(found), nil
}

func (s *Service) narrate(ctx context.Context, session chat.Session, name, question string) (string, error) {
	passages, err := s.retrieve(ctx, name, question)
	if err != nil {
		return "", err
	}

	userMsg := chat.UserMessage(question)
	messages := append(session.History(), userMsg, chat.SystemMessage(ai.RetrievedContextMessage(document.Contents(passages))))

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, ai.Completion{
		System:      ai.AdvisorSystemPrompt,
		Messages:    messages,
		Temperature: ai.Float(s.cfg.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	if err := s.sessions.Append(ctx, session.ID, userMsg, chat.AssistantMessage(reply)); err != nil {
		return "", fmt.Errorf("failed to record turn: %w", err)
	}
	return reply, nil
}

// retrieve filters by professor when one is known and widens to the whole index
// when the filtered search finds nothing.
func (s *Service) retrieve(ctx context.Context, name, question string) ([]document.Passage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if name != "" {
		passages, err := s.index.Search(ctx, question, s.cfg.TopK, vectorindex.WithProfessor(name))
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve passages: %w", err)
		}
		if len(passages) > 0 {
			return passages, nil
		}
	}

	passages, err := s.index.Search(ctx, question, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve passages: %w", err)
	}
	return passages, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
