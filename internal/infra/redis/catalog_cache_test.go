package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCatalogCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	catalog := &countingCatalog{StaticCatalog: memory.NewStaticCatalog(sampleRegions())}
	cache := NewCatalogCache(client, catalog, time.Minute)

	flags, err := cache.ListFlags(context.Background(), "Europe")
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	if len(flags) != 2 || flags[0] != "Europe-France" {
		t.Fatalf("unexpected flags %v", flags)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected catalog called once, got %d", catalog.calls)
	}
	if !mr.Exists("catalog:Europe:flags") {
		t.Fatalf("expected redis list to be written")
	}

	// Second call should hit cache, catalog not incremented.
	again, _ := cache.ListFlags(context.Background(), "Europe")
	if catalog.calls != 1 {
		t.Fatalf("expected cache hit, catalog calls=%d", catalog.calls)
	}
	if len(again) != 2 || again[1] != "Europe-Czech_Republic" {
		t.Fatalf("expected cached order preserved, got %v", again)
	}

	if err := cache.Invalidate(context.Background(), "Europe"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = cache.ListFlags(context.Background(), "Europe")
	if catalog.calls != 2 {
		t.Fatalf("expected reload after invalidate, catalog calls=%d", catalog.calls)
	}
}

func TestCatalogCachePropagatesErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewCatalogCache(newClient(mr), memory.NewStaticCatalog(sampleRegions()), time.Minute)
	if _, err := cache.ListFlags(context.Background(), "Atlantis"); !errors.Is(err, domain.ErrRegionNotFound) {
		t.Fatalf("expected region not found, got %v", err)
	}
}

type countingCatalog struct {
	*memory.StaticCatalog
	calls int
}

func (c *countingCatalog) ListFlags(ctx context.Context, region string) ([]domain.FlagID, error) {
	c.calls++
	return c.StaticCatalog.ListFlags(ctx, region)
}

func sampleRegions() map[string][]domain.FlagID {
	return map[string][]domain.FlagID{
		"Europe": {"Europe-France", "Europe-Czech_Republic"},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
