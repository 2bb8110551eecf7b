package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		// Driver selects the preference and result store: memory, redis, sqlite or postgres.
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Assets struct {
		Dir       string `yaml:"dir"`
		Extension string `yaml:"extension"`
	} `yaml:"assets"`
	Quiz struct {
		Choices       int      `yaml:"choices"`
		Regions       []string `yaml:"regions"`
		DefaultRegion string   `yaml:"default_region"`
		AdvanceDelay  string   `yaml:"advance_delay"`
		CatalogTTL    string   `yaml:"catalog_ttl"`
	} `yaml:"quiz"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{Env: "local"}
	cfg.Server.Port = "8080"
	cfg.Storage.Driver = "memory"
	cfg.Redis.TTL = "10m"
	cfg.SQLite.Path = "data/flagquiz.db"
	cfg.Assets.Extension = ".png"
	cfg.Quiz.Choices = 4
	cfg.Quiz.Regions = []string{"Africa", "Asia", "Europe", "North_America", "Oceania", "South_America"}
	cfg.Quiz.DefaultRegion = "North_America"
	cfg.Quiz.AdvanceDelay = "2s"
	cfg.Quiz.CatalogTTL = "10m"
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file
// leaves the defaults in place. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ASSETS_DIR"); v != "" {
		cfg.Assets.Dir = v
	}
	if v := os.Getenv("QUIZ_CHOICES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quiz.Choices = n
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
