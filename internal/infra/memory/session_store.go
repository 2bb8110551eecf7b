package memory

import (
	"sync"
	"time"

	"flag-quiz-service/internal/app"
)

// SessionStore keeps one quiz session per player in process memory.
type SessionStore struct {
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*app.Session
}

// SessionStoreOption customizes a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithSessionClock stamps new sessions and their snapshots with now.
func WithSessionClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSessionStore(opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		now:      time.Now,
		sessions: make(map[string]*app.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the player's session, creating it on first use.
func (s *SessionStore) GetOrCreate(playerID string) *app.Session {
	if session, ok := s.Get(playerID); ok {
		return session
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[playerID]; ok {
		return session
	}
	session := app.NewSessionWithClock(playerID, s.now)
	s.sessions[playerID] = session
	return session
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	return session, ok
}

// DeleteIfEmpty forgets the player's session once nobody is subscribed to it.
func (s *SessionStore) DeleteIfEmpty(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[playerID]; ok && session.IsEmpty() {
		delete(s.sessions, playerID)
	}
}

// Len reports how many players have a live session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
