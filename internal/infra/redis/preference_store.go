package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PreferenceStore keeps preferences in a hash per player:
// HSET prefs:{playerID} choices {n} regions {JSON array}
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func (s *PreferenceStore) GetPreferences(ctx context.Context, playerID string) (domain.Preferences, error) {
	values, err := s.client.HGetAll(ctx, s.key(playerID)).Result()
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if len(values) == 0 {
		return domain.Preferences{}, domain.ErrPreferencesNotFound
	}

	prefs := domain.Preferences{}
	if raw, ok := values["choices"]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			prefs.Choices = n
		}
	}
	if raw := values["regions"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &prefs.Regions); err != nil {
			return domain.Preferences{}, fmt.Errorf("decode regions: %w", err)
		}
	}
	return prefs, nil
}

func (s *PreferenceStore) SavePreferences(ctx context.Context, playerID string, prefs domain.Preferences) error {
	regions, err := json.Marshal(prefs.Regions)
	if err != nil {
		return fmt.Errorf("encode regions: %w", err)
	}
	err = s.client.HSet(ctx, s.key(playerID),
		"choices", prefs.Choices,
		"regions", string(regions),
	).Err()
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *PreferenceStore) key(playerID string) string {
	return "prefs:" + playerID
}
