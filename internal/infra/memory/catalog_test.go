package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
)

func TestCachedCatalogCaches(t *testing.T) {
	catalog := &countingCatalog{StaticCatalog: NewStaticCatalog(sampleRegions())}
	cached := NewCachedCatalog(catalog, time.Minute)

	flags, err := cached.ListFlags(context.Background(), "Europe")
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("expected 2 flags, got %v", flags)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected catalog once, got %d", catalog.calls)
	}

	if _, err := cached.ListFlags(context.Background(), "Europe"); err != nil {
		t.Fatalf("list flags 2: %v", err)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected cache hit, catalog calls %d", catalog.calls)
	}
}

func TestCachedCatalogExpires(t *testing.T) {
	catalog := &countingCatalog{StaticCatalog: NewStaticCatalog(sampleRegions())}
	cached := NewCachedCatalog(catalog, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.clock = func() time.Time { return now }

	_, _ = cached.ListFlags(context.Background(), "Asia")
	now = now.Add(2 * time.Minute)
	_, _ = cached.ListFlags(context.Background(), "Asia")
	if catalog.calls != 2 {
		t.Fatalf("expected reload after expiry, catalog calls %d", catalog.calls)
	}
}

func TestCachedCatalogDoesNotCacheErrors(t *testing.T) {
	catalog := &countingCatalog{StaticCatalog: NewStaticCatalog(sampleRegions())}
	cached := NewCachedCatalog(catalog, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.ListFlags(context.Background(), "Antarctica"); !errors.Is(err, domain.ErrRegionNotFound) {
			t.Fatalf("expected region not found, got %v", err)
		}
	}
	if catalog.calls != 2 {
		t.Fatalf("expected errors to bypass the cache, catalog calls %d", catalog.calls)
	}
}

func TestStaticCatalogRegionsSorted(t *testing.T) {
	regions, err := NewStaticCatalog(sampleRegions()).Regions(context.Background())
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	if len(regions) != 2 || regions[0] != "Asia" || regions[1] != "Europe" {
		t.Fatalf("unexpected regions %v", regions)
	}
}

type countingCatalog struct {
	*StaticCatalog
	calls int
}

func (c *countingCatalog) ListFlags(ctx context.Context, region string) ([]domain.FlagID, error) {
	c.calls++
	return c.StaticCatalog.ListFlags(ctx, region)
}

func sampleRegions() map[string][]domain.FlagID {
	return map[string][]domain.FlagID{
		"Europe": {"Europe-France", "Europe-Czech_Republic"},
		"Asia":   {"Asia-South_Korea"},
	}
}
