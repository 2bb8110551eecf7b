package memory

import (
	"context"
	"sort"
	"sync"

	"flag-quiz-service/internal/domain"
)

// PreferenceStore keeps preferences in process memory.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]domain.Preferences
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{prefs: make(map[string]domain.Preferences)}
}

func (s *PreferenceStore) GetPreferences(_ context.Context, playerID string) (domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.prefs[playerID]
	if !ok {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}
	prefs.Regions = append([]string(nil), prefs.Regions...)
	return prefs, nil
}

func (s *PreferenceStore) SavePreferences(_ context.Context, playerID string, prefs domain.Preferences) error {
	prefs.Regions = append([]string(nil), prefs.Regions...)
	s.mu.Lock()
	s.prefs[playerID] = prefs
	s.mu.Unlock()
	return nil
}

// ResultStore keeps finished quizzes in process memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string][]domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string][]domain.QuizResult)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	s.results[result.PlayerID] = append(s.results[result.PlayerID], result)
	s.mu.Unlock()
	return nil
}

func (s *ResultStore) ListResults(_ context.Context, playerID string, limit int) ([]domain.QuizResult, error) {
	s.mu.RLock()
	results := append(make([]domain.QuizResult, 0, len(s.results[playerID])), s.results[playerID]...)
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
