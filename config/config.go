package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wordgame-economy/store"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	CatalogSourceFile = "file"
	CatalogSourceR2   = "r2"
)

type Config struct {
	Port           int    `env:"PORT" env-default:"5200"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`

	// Empty DatabaseURL runs on the in-memory store.
	DatabaseURL   string        `env:"DATABASE_URL"`
	LockTimeout   time.Duration `env:"LOCK_TIMEOUT" env-default:"5s"`
	WatchInterval time.Duration `env:"WATCH_INTERVAL" env-default:"1s"`

	GatewayToken   string        `env:"ECONOMY_SERVICE_TOKEN" env-required:"true"`
	AuthServiceURL string        `env:"AUTH_SERVICE_URL" env-default:"http://localhost:5100"`
	AuthServiceKey string        `env:"AUTH_SERVICE_TOKEN"`
	AuthTimeout    time.Duration `env:"AUTH_SERVICE_TIMEOUT" env-default:"5s"`

	Catalog Catalog
	Economy Economy
	Retry   Retry
}

type Catalog struct {
	Source          string        `env:"CATALOG_SOURCE" env-default:"file" env-description:"file or r2"`
	Path            string        `env:"CATALOG_PATH" env-default:"catalog.yaml"`
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" env-default:"1m"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `env:"R2_BUCKET"`
	R2Key             string `env:"R2_CATALOG_KEY" env-default:"economy/catalog.yaml"`
}

type Economy struct {
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" env-default:"100ms"`
	ReindexInterval time.Duration `env:"REINDEX_INTERVAL" env-default:"1m"`
	DefaultCooldown time.Duration `env:"DEFAULT_COOLDOWN" env-default:"3s"`
	Timezone        string        `env:"TIMEZONE" env-default:"UTC"`
	RandomSeed      int64         `env:"RANDOM_SEED" env-default:"0"`
}

type Retry struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	BaseDelay   time.Duration `env:"RETRY_BASE_DELAY" env-default:"1s"`
	Multiplier  float64       `env:"RETRY_MULTIPLIER" env-default:"2"`
}

// Load reads .env (when present) and the process environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.GatewayToken == "" {
		errs = append(errs, errors.New("ECONOMY_SERVICE_TOKEN is required"))
	}
	if c.Economy.SweepInterval <= 0 || c.Economy.ReindexInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL and REINDEX_INTERVAL must be positive"))
	}
	if c.Economy.DefaultCooldown < 0 {
		errs = append(errs, errors.New("DEFAULT_COOLDOWN must not be negative"))
	}
	if _, err := time.LoadLocation(c.Economy.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.BaseDelay < 0 || c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry policy needs at least 1 attempt, a non-negative delay and a multiplier >= 1"))
	}
	if c.Catalog.RefreshInterval <= 0 {
		errs = append(errs, errors.New("CATALOG_REFRESH_INTERVAL must be positive"))
	}

	switch c.Catalog.Source {
	case CatalogSourceFile:
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("CATALOG_PATH is required for the file source"))
		}
	case CatalogSourceR2:
		if c.Catalog.R2AccountID == "" || c.Catalog.R2AccessKeyID == "" || c.Catalog.R2AccessKeySecret == "" || c.Catalog.R2Bucket == "" {
			errs = append(errs, errors.New("R2 catalog source needs R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_ACCESS_KEY_SECRET and R2_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE %q: want file or r2", c.Catalog.Source))
	}
	return errors.Join(errs...)
}

// Location is the zone calendar days are counted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Economy.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

func (c *Config) RetryPolicy() store.RetryPolicy {
	return store.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		Multiplier:  c.Retry.Multiplier,
	}
}
