package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/profscope/backend/internal/model/chat"
)

var ErrSessionIDRequired = errors.New("session id is required")

// Store holds per-session conversation state. Identifiers are always supplied by the
// caller; a Store never mints them.
type Store interface {
	GetOrCreate(ctx context.Context, sessionID string) (chat.Session, error)
	Append(ctx context.Context, sessionID string, messages ...chat.Message) error
	SetCurrentProfessor(ctx context.Context, sessionID, name string) error
	Clear(ctx context.Context, sessionID string) (bool, error)
	// Lock serializes turns of one session. The returned func releases the lock.
	Lock(sessionID string) (unlock func())
}

// Service is the in-memory Store. Sessions live until Clear or process exit; there is
// no expiry.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

var _ Store = (*Service)(nil)

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*chat.Session),
		locks:    make(map[string]*sessionLock),
	}
}

// GetOrCreate returns a snapshot of the session, creating it on first reference.
func (s *Service) GetOrCreate(_ context.Context, sessionID string) (chat.Session, error) {
	if sessionID == "" {
		return chat.Session{}, ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.getOrCreateLocked(sessionID)), nil
}

// Append adds messages to the end of the session transcript.
func (s *Service) Append(_ context.Context, sessionID string, messages ...chat.Message) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreateLocked(sessionID)
	for _, msg := range messages {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		session.Messages = append(session.Messages, msg)
	}
	return nil
}

// SetCurrentProfessor records the sticky professor for later turns.
func (s *Service) SetCurrentProfessor(_ context.Context, sessionID, name string) error {
	if sessionID == "" {
		return ErrSessionIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(sessionID).CurrentProfessor = name
	return nil
}

// Clear drops the session and reports whether it existed.
func (s *Service) Clear(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	return true, nil
}

// Lock acquires the per-session mutex. Different sessions never contend.
func (s *Service) Lock(sessionID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, sessionID)
			}
			s.locksMu.Unlock()
		})
	}
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) getOrCreateLocked(sessionID string) *chat.Session {
	session, ok := s.sessions[sessionID]
	if !ok {
		session = &chat.Session{
			ID:        sessionID,
			Messages:  make([]chat.Message, 0, 16),
			CreatedAt: time.Now().UTC(),
		}
		s.sessions[sessionID] = session
	}
	return session
}

func snapshot(session *chat.Session) chat.Session {
	copied := *session
	copied.Messages = session.History()
	return copied
}
