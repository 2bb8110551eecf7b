package memory

import (
	"context"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := store.GetOrCreate("player-1")
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("player-1"); again != session {
		t.Fatalf("expected the same session for the same player")
	}
	if _, ok := store.Get("player-1"); !ok {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one live session, got %d", store.Len())
	}

	store.DeleteIfEmpty("player-1")
	if _, ok := store.Get("player-1"); ok {
		t.Fatalf("expected session removed when empty")
	}
}

func TestSessionStoreKeepsSubscribedSessions(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	store := NewSessionStore(WithSessionClock(func() time.Time { return at }))
	service := app.NewQuizService(store, NewPreferenceStore(), NewResultStore(),
		NewStaticCatalog(map[string][]domain.FlagID{"Europe": europe()}),
		app.WithDefaults(app.Defaults{Choices: 2, Regions: []string{"Europe"}, DefaultRegion: "Europe"}),
	)

	snap, err := service.Start(ctx, "player-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !snap.UpdatedAt.Equal(at) {
		t.Fatalf("expected snapshot stamped by the store clock, got %v", snap.UpdatedAt)
	}

	_, cancel, err := service.Subscribe(ctx, "player-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	store.DeleteIfEmpty("player-1")
	if _, ok := store.Get("player-1"); !ok {
		t.Fatalf("expected subscribed session kept")
	}

	cancel()
	store.DeleteIfEmpty("player-1")
	if store.Len() != 0 {
		t.Fatalf("expected session dropped after the last subscriber left")
	}
}

func europe() []domain.FlagID {
	return []domain.FlagID{
		"Europe-France", "Europe-Germany", "Europe-Czech_Republic", "Europe-Spain",
		"Europe-Italy", "Europe-Poland", "Europe-Norway", "Europe-Ireland",
		"Europe-Austria", "Europe-Greece",
	}
}
