package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
)

func TestPreferenceStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPreferenceStore()

	if _, err := store.GetPreferences(ctx, "p1"); !errors.Is(err, domain.ErrPreferencesNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	regions := []string{"Europe", "Asia"}
	if err := store.SavePreferences(ctx, "p1", domain.Preferences{Choices: 6, Regions: regions}); err != nil {
		t.Fatalf("save: %v", err)
	}
	regions[0] = "mutated"

	prefs, err := store.GetPreferences(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs.Choices != 6 || prefs.Regions[0] != "Europe" {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
}

func TestResultStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = store.SaveResult(ctx, domain.QuizResult{
			ID:           string(rune('a' + i)),
			PlayerID:     "p1",
			TotalGuesses: 10 + i,
			CompletedAt:  base.Add(time.Duration(i) * time.Hour),
		})
	}

	results, err := store.ListResults(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 || results[0].ID != "c" || results[1].ID != "b" {
		t.Fatalf("unexpected results %+v", results)
	}
}
