package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/assets"
	"flag-quiz-service/internal/infra/memory"
	pgstore "flag-quiz-service/internal/infra/postgres"
	redisinfra "flag-quiz-service/internal/infra/redis"
	sqlitestore "flag-quiz-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type dependencies struct {
	service *app.QuizService
	images  fs.FS
	closers []func()
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// newCatalog returns the directory catalog when assets.dir is set and the
// bundled sample catalog otherwise, plus the tree images are served from.
func newCatalog(cfg config.Config, log *zap.Logger) (app.Catalog, fs.FS) {
	if cfg.Assets.Dir == "" {
		return memory.NewStaticCatalog(sampleCatalog()), nil
	}
	images := os.DirFS(cfg.Assets.Dir)
	return assets.NewDirCatalog(images, cfg.Assets.Extension, log), images
}

func buildDependencies(ctx context.Context, cfg config.Config, log *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	baseCatalog, images := newCatalog(cfg, log)
	deps.images = images
	catalogTTL := config.TTLDuration(cfg.Quiz.CatalogTTL, 10*time.Minute)
	var catalog app.Catalog
	if redisClient != nil {
		catalog = redisinfra.NewCatalogCache(redisClient, baseCatalog, catalogTTL)
	} else {
		catalog = memory.NewCachedCatalog(baseCatalog, catalogTTL)
	}

	var (
		prefs   app.PreferenceStore
		results app.ResultStore
	)
	switch cfg.Storage.Driver {
	case "", "memory":
		prefs = memory.NewPreferenceStore()
		results = memory.NewResultStore()
	case "redis":
		if redisClient == nil {
			deps.Close()
			return nil, fmt.Errorf("storage driver redis requires redis.addr")
		}
		prefs = redisinfra.NewPreferenceStore(redisClient)
		results = redisinfra.NewResultStore(redisClient, redisinfra.DefaultResultHistory)
	case "sqlite":
		store, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, func() { _ = store.Close() })
		prefs, results = store, store
	case "postgres":
		if cfg.Postgres.URL == "" {
			deps.Close()
			return nil, fmt.Errorf("storage driver postgres requires postgres.url")
		}
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			deps.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, pool.Close)
		store := pgstore.NewStore(pool)
		prefs, results = store, store
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	ext := cfg.Assets.Extension
	if ext == "" {
		ext = ".png"
	}
	deps.service = app.NewQuizService(sessions, prefs, results, catalog,
		app.WithDefaults(app.Defaults{
			Choices:       cfg.Quiz.Choices,
			Regions:       cfg.Quiz.Regions,
			DefaultRegion: cfg.Quiz.DefaultRegion,
		}),
		app.WithServiceLogger(log),
		app.WithImagePath(func(id domain.FlagID) string {
			return "/flags/" + id.Region() + "/" + string(id) + ext
		}),
	)
	log.Info("dependencies ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("redis", redisClient != nil),
		zap.String("assets", cfg.Assets.Dir),
	)
	return deps, nil
}

// sampleCatalog provides a small flag set for running without an assets directory.
func sampleCatalog() map[string][]domain.FlagID {
	return map[string][]domain.FlagID{
		"Africa": {
			"Africa-Egypt", "Africa-Kenya", "Africa-Nigeria", "Africa-Ghana",
			"Africa-South_Africa", "Africa-Morocco", "Africa-Ethiopia", "Africa-Senegal",
		},
		"Asia": {
			"Asia-Japan", "Asia-South_Korea", "Asia-India", "Asia-Nepal",
			"Asia-Vietnam", "Asia-Thailand", "Asia-Mongolia", "Asia-Sri_Lanka",
		},
		"Europe": {
			"Europe-France", "Europe-Germany", "Europe-Czech_Republic", "Europe-Italy",
			"Europe-Spain", "Europe-Poland", "Europe-Ireland", "Europe-United_Kingdom",
		},
		"North_America": {
			"North_America-Canada", "North_America-Mexico", "North_America-United_States",
			"North_America-Cuba", "North_America-Jamaica", "North_America-Panama",
			"North_America-Costa_Rica", "North_America-Honduras", "North_America-Bahamas",
			"North_America-Haiti",
		},
		"Oceania": {
			"Oceania-Australia", "Oceania-New_Zealand", "Oceania-Fiji", "Oceania-Samoa",
			"Oceania-Tonga", "Oceania-Papua_New_Guinea",
		},
		"South_America": {
			"South_America-Brazil", "South_America-Argentina", "South_America-Chile",
			"South_America-Peru", "South_America-Colombia", "South_America-Uruguay",
			"South_America-Bolivia", "South_America-Ecuador",
		},
	}
}
