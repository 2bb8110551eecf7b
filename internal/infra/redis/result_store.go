package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultResultHistory caps how many results are kept per player.
const DefaultResultHistory = 100

// ResultStore keeps finished quizzes newest first in a list per player:
// LPUSH results:{playerID} {JSON result}, trimmed to the history size.
type ResultStore struct {
	client  *redis.Client
	history int
}

func NewResultStore(client *redis.Client, history int) *ResultStore {
	if history <= 0 {
		history = DefaultResultHistory
	}
	return &ResultStore{client: client, history: history}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.QuizResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	key := s.key(result.PlayerID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.history-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, playerID string, limit int) ([]domain.QuizResult, error) {
	if limit <= 0 || limit > s.history {
		limit = s.history
	}
	values, err := s.client.LRange(ctx, s.key(playerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.QuizResult, 0, len(values))
	for _, v := range values {
		var r domain.QuizResult
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *ResultStore) key(playerID string) string {
	return "results:" + playerID
}
