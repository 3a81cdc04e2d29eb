package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"matchsync/internal/collector"
	"matchsync/internal/ranks"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first .env found wins
var envPaths = []string{".env", "../.env", "../../.env"}

// Config holds everything the binaries read from the environment
type Config struct {
	RiotAPIKey string

	DatabaseURL    string // Postgres; takes precedence over StoreDriver
	StoreDriver    string // sqlite or libsql
	StoreDSN       string
	TursoAuthToken string

	RedisURL          string
	DiscordWebhookURL string

	Port            string
	DefaultPlatform string
	CORSOrigins     []string

	RequestDelay          time.Duration
	RankCacheTTL          time.Duration
	BackfillBatchSize     int
	MaxBackfillIterations int
	SyncTimeout           time.Duration
}

// LoadEnv loads the first .env file found and returns its path, or "" when
// none exists
func LoadEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("[Config] Loaded .env from: %s", path)
			return path
		}
	}
	log.Println("[Config] No .env file found, using environment variables")
	return ""
}

// Load loads .env and reads the configuration from the environment
func Load() (*Config, error) {
	LoadEnv()
	return FromEnv()
}

// FromEnv reads the configuration from the environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		RiotAPIKey:        firstEnv("RIOT_API_KEY", "RIOT-DEV-KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StoreDriver:       strings.ToLower(os.Getenv("STORE_DRIVER")),
		StoreDSN:          os.Getenv("STORE_DSN"),
		TursoAuthToken:    os.Getenv("TURSO_AUTH_TOKEN"),
		RedisURL:          os.Getenv("REDIS_URL"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		Port:              envOr("PORT", "8080"),
		DefaultPlatform:   strings.ToLower(envOr("DEFAULT_PLATFORM", "na1")),
		CORSOrigins:       splitList(envOr("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.RequestDelay, err = durationEnv("REQUEST_DELAY", collector.DefaultRequestDelay); err != nil {
		return nil, err
	}
	if cfg.RankCacheTTL, err = durationEnv("RANK_CACHE_TTL", ranks.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.SyncTimeout, err = durationEnv("SYNC_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BackfillBatchSize, err = intEnv("BACKFILL_BATCH_SIZE", collector.DefaultBackfillBatchSize); err != nil {
		return nil, err
	}
	if cfg.MaxBackfillIterations, err = intEnv("BACKFILL_MAX_ITERATIONS", collector.DefaultMaxBackfillIterations); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" && cfg.StoreDriver == "" {
		cfg.StoreDriver = "sqlite"
	}
	if cfg.StoreDriver == "sqlite" && cfg.StoreDSN == "" {
		cfg.StoreDSN = "matchsync.db"
	}
	return cfg, nil
}

// SyncConfig returns the sync engine settings
func (c *Config) SyncConfig() collector.Config {
	return collector.Config{
		RequestDelay:          c.RequestDelay,
		BackfillBatchSize:     c.BackfillBatchSize,
		MaxBackfillIterations: c.MaxBackfillIterations,
	}
}

// StoreName describes the configured store for logs, without credentials
func (c *Config) StoreName() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return c.StoreDriver
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// durationEnv accepts Go durations ("250ms") or plain milliseconds ("250")
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
