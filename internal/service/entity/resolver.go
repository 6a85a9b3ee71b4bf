package entity

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/profscope/backend/internal/model/chat"
	"github.com/zhouzirui/profscope/backend/internal/model/document"
	"github.com/zhouzirui/profscope/backend/internal/service/ai"
	chatsvc "github.com/zhouzirui/profscope/backend/internal/service/chat"
	"github.com/zhouzirui/profscope/backend/internal/vectorindex"
)

// groundingCandidates is how many name chunks are compared against an extracted name.
const groundingCandidates = 3

// Config tunes the extraction call and the grounding lookup.
type Config struct {
	Temperature float64
	// MinScore is the lowest similarity a name chunk may have and still confirm a name.
	MinScore float64
	// Timeout bounds each collaborator call; 0 disables the per-call bound.
	Timeout time.Duration
}

// Resolution is the outcome of resolving the professor a turn is about.
type Resolution struct {
	// Name is the resolved professor; empty when nothing was found and no sticky value exists.
	Name string
	// Extracted is the raw name the model proposed, before grounding.
	Extracted string
	// Grounded reports whether Name was confirmed by a "Full name:" chunk in this turn.
	Grounded bool
}

// Resolver finds the professor a question refers to. The model proposes a name and a
// lookup over the indexed name chunks confirms it. A chunk confirms the name only when it
// scores at least MinScore and its full name shares a word with the extracted one, so
// names absent from the corpus never become the session's subject.
type Resolver struct {
	completer ai.Completer
	index     vectorindex.Index
	sessions  chatsvc.Store
	cfg       Config
}

func NewResolver(completer ai.Completer, index vectorindex.Index, sessions chatsvc.Store, cfg Config) *Resolver {
	return &Resolver{completer: completer, index: index, sessions: sessions, cfg: cfg}
}

// Resolve runs extraction and grounding for question in session. A grounded name
// replaces the session's sticky professor; otherwise the sticky value is returned.
// Extraction failures count as "no name"; index and store failures are returned.
func (r *Resolver) Resolve(ctx context.Context, session chat.Session, question string) (Resolution, error) {
	res := Resolution{Name: session.CurrentProfessor}

	extracted := r.extract(ctx, session, question)
	if extracted == "" {
		return res, nil
	}
	res.Extracted = extracted

	name, err := r.ground(ctx, extracted)
	if err != nil {
		return Resolution{}, err
	}
	if name == "" {
		log.Debug().Str("session", session.ID).Str("extracted", extracted).Msg("extracted professor not found in index")
		return res, nil
	}

	if err := r.sessions.SetCurrentProfessor(ctx, session.ID, name); err != nil {
		return Resolution{}, fmt.Errorf("failed to update current professor: %w", err)
	}

	res.Name = name
	res.Grounded = true
	return res, nil
}

func (r *Resolver) extract(ctx context.Context, session chat.Session, question string) string {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	messages := append(session.History(), chat.UserMessage(question))
	name, err := r.completer.Complete(ctx, ai.Completion{
		System:      ai.NameExtractionPrompt,
		Messages:    messages,
		Temperature: ai.Float(r.cfg.Temperature),
	})
	if err != nil {
		log.Warn().Err(err).Str("session", session.ID).Msg("professor name extraction failed")
		return ""
	}
	return strings.Trim(strings.TrimSpace(name), `"'.`)
}

func (r *Resolver) ground(ctx context.Context, extracted string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	passages, err := r.index.Search(ctx, extracted, groundingCandidates, vectorindex.NameChunksOnly())
	if err != nil {
		return "", fmt.Errorf("failed to look up professor %q: %w", extracted, err)
	}

	wanted := nameTokens(extracted)
	for _, p := range passages {
		if float64(p.Score) < r.cfg.MinScore {
			break
		}
		name, ok := document.ParseFullName(p.Content)
		if !ok {
			continue
		}
		if sharesToken(wanted, nameTokens(name)) {
			return name, nil
		}
	}
	return "", nil
}

// honorifics never count as a shared name token.
var honorifics = map[string]bool{
	"dr": true, "prof": true, "professor": true, "mr": true, "mrs": true, "ms": true,
}

func nameTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(field)) < 2 || honorifics[field] {
			continue
		}
		tokens[field] = true
	}
	return tokens
}

func sharesToken(a, b map[string]bool) bool {
	for token := range a {
		if b[token] {
			return true
		}
	}
	return false
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.Timeout)
}
