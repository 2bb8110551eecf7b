package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
)

func TestPreferencesUpsert(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, err := store.GetPreferences(ctx, "p1"); !errors.Is(err, domain.ErrPreferencesNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := store.SavePreferences(ctx, "p1", domain.Preferences{Choices: 4, Regions: []string{"Europe"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SavePreferences(ctx, "p1", domain.Preferences{Choices: 8, Regions: []string{"Asia", "Africa"}}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	prefs, err := store.GetPreferences(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs.Choices != 8 || len(prefs.Regions) != 2 || prefs.Regions[0] != "Asia" {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
}

func TestResultsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		err := store.SaveResult(ctx, domain.QuizResult{
			ID:             id,
			PlayerID:       "p1",
			TotalGuesses:   10 + i,
			CorrectAnswers: 10,
			Score:          1000 / float64(10+i),
			Choices:        4,
			Regions:        []string{"Europe"},
			CompletedAt:    base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	_ = store.SaveResult(ctx, domain.QuizResult{ID: "other", PlayerID: "p2", CompletedAt: base})

	results, err := store.ListResults(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 || results[0].ID != "r3" || results[1].ID != "r2" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !results[0].CompletedAt.Equal(base.Add(2*time.Minute)) || results[0].Regions[0] != "Europe" {
		t.Fatalf("unexpected decoded result %+v", results[0])
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
