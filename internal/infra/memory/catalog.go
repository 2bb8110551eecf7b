package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// StaticCatalog is a catalog backed by an in-memory map (useful for tests/demos).
type StaticCatalog struct {
	regions map[string][]domain.FlagID
}

func NewStaticCatalog(regions map[string][]domain.FlagID) *StaticCatalog {
	return &StaticCatalog{regions: regions}
}

func (c *StaticCatalog) ListFlags(_ context.Context, region string) ([]domain.FlagID, error) {
	flags, ok := c.regions[region]
	if !ok {
		return nil, domain.ErrRegionNotFound
	}
	return append([]domain.FlagID(nil), flags...), nil
}

func (c *StaticCatalog) Regions(_ context.Context) ([]string, error) {
	regions := make([]string, 0, len(c.regions))
	for region := range c.regions {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions, nil
}

// CachedCatalog caches region listings with TTL to avoid repeated catalog scans.
type CachedCatalog struct {
	catalog app.Catalog
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedRegion
}

type cachedRegion struct {
	flags     []domain.FlagID
	expiresAt time.Time
}

func NewCachedCatalog(catalog app.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		catalog: catalog,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedRegion),
	}
}

func (c *CachedCatalog) ListFlags(ctx context.Context, region string) ([]domain.FlagID, error) {
	if flags, ok := c.lookup(region); ok {
		return flags, nil
	}

	result, err, _ := c.sf.Do(region, func() (interface{}, error) {
		if flags, ok := c.lookup(region); ok {
			return flags, nil
		}

		flags, err := c.catalog.ListFlags(ctx, region)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[region] = cachedRegion{
			flags:     flags,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return flags, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.FlagID(nil), result.([]domain.FlagID)...), nil
}

func (c *CachedCatalog) Regions(ctx context.Context) ([]string, error) {
	return c.catalog.Regions(ctx)
}

func (c *CachedCatalog) lookup(region string) ([]domain.FlagID, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[region]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return append([]domain.FlagID(nil), entry.flags...), true
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
