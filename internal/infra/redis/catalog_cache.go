package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogCache caches region listings in Redis (list per region) and falls back
// to the wrapped catalog on cache miss.
// Flags are stored as: RPUSH catalog:{region}:flags {flagID}...
type CatalogCache struct {
	client  *redis.Client
	catalog app.Catalog
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
	rndMu   sync.Mutex
}

func NewCatalogCache(client *redis.Client, catalog app.Catalog, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client:  client,
		catalog: catalog,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) ListFlags(ctx context.Context, region string) ([]domain.FlagID, error) {
	key := c.flagsKey(region)

	cached, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err == nil && len(cached) > 0 {
		return toFlagIDs(cached), nil
	}

	result, err, _ := c.sf.Do(region, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.LRange(ctx, key, 0, -1).Result()
		if err == nil && len(cached) > 0 {
			return toFlagIDs(cached), nil
		}

		flags, err := c.catalog.ListFlags(ctx, region)
		if err != nil {
			return nil, err
		}
		if len(flags) == 0 {
			return flags, nil
		}

		values := make([]interface{}, len(flags))
		for i, f := range flags {
			values[i] = string(f)
		}
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return flags, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.FlagID(nil), result.([]domain.FlagID)...), nil
}

func (c *CatalogCache) Regions(ctx context.Context) ([]string, error) {
	return c.catalog.Regions(ctx)
}

// Invalidate drops the cached listing of region.
func (c *CatalogCache) Invalidate(ctx context.Context, region string) error {
	return c.client.Del(ctx, c.flagsKey(region)).Err()
}

func (c *CatalogCache) flagsKey(region string) string {
	return "catalog:" + region + ":flags"
}

func toFlagIDs(values []string) []domain.FlagID {
	flags := make([]domain.FlagID, len(values))
	for i, v := range values {
		flags[i] = domain.FlagID(v)
	}
	return flags
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
