package redis

import (
	"context"
	"errors"
	"testing"

	"flag-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestPreferenceStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewPreferenceStore(newClient(mr))

	if _, err := store.GetPreferences(ctx, "p1"); !errors.Is(err, domain.ErrPreferencesNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	regions := []string{"Europe", "South_America", "Caribbean, Lesser Antilles"}
	if err := store.SavePreferences(ctx, "p1", domain.Preferences{Choices: 6, Regions: regions}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := mr.HGet("prefs:p1", "regions"); got != `["Europe","South_America","Caribbean, Lesser Antilles"]` {
		t.Fatalf("unexpected stored regions %q", got)
	}

	prefs, err := store.GetPreferences(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs.Choices != 6 || len(prefs.Regions) != len(regions) {
		t.Fatalf("unexpected preferences %+v", prefs)
	}
	for i := range regions {
		if prefs.Regions[i] != regions[i] {
			t.Fatalf("region %d: expected %q, got %q", i, regions[i], prefs.Regions[i])
		}
	}
}
