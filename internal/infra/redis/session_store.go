package redis

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Sessions stay in a local map so the in-process broadcast keeps working;
// Redis only carries a liveness marker holding the session id.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(playerID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[playerID]; ok {
		// best-effort liveness refresh
		_ = s.client.Expire(context.Background(), s.key(playerID), s.ttl).Err()
		return session
	}
	session := app.NewSession(playerID)
	s.sessions[playerID] = session
	_ = s.client.Set(context.Background(), s.key(playerID), session.ID(), s.ttl).Err()
	return session
}

func (s *SessionStore) Get(playerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[playerID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[playerID]
	if !ok {
		return
	}
	if session.IsEmpty() {
		delete(s.sessions, playerID)
		_ = s.client.Del(context.Background(), s.key(playerID)).Err()
	}
}

func (s *SessionStore) key(playerID string) string {
	return "quiz:session:" + playerID
}
