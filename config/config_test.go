package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ECONOMY_SERVICE_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5200, cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.Economy.SweepInterval)
	assert.Equal(t, time.Minute, cfg.Economy.ReindexInterval)
	assert.Equal(t, 3*time.Second, cfg.Economy.DefaultCooldown)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ECONOMY_SERVICE_TOKEN", "secret")
	t.Setenv("PORT", "8088")
	t.Setenv("SWEEP_INTERVAL", "250ms")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Economy.SweepInterval)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, "https://a.example,https://b.example", cfg.Origins())
}

func TestLoad_MissingGatewayToken(t *testing.T) {
	t.Setenv("ECONOMY_SERVICE_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:         5200,
			GatewayToken: "secret",
			Catalog:      Catalog{Source: CatalogSourceFile, Path: "catalog.yaml", RefreshInterval: time.Minute},
			Economy:      Economy{SweepInterval: 100 * time.Millisecond, ReindexInterval: time.Minute, Timezone: "UTC"},
			Retry:        Retry{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"zero sweep", func(c *Config) { c.Economy.SweepInterval = 0 }},
		{"unknown zone", func(c *Config) { c.Economy.Timezone = "Mars/Olympus" }},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"shrinking backoff", func(c *Config) { c.Retry.Multiplier = 0.5 }},
		{"unknown source", func(c *Config) { c.Catalog.Source = "ftp" }},
		{"r2 without creds", func(c *Config) { c.Catalog.Source = CatalogSourceR2 }},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
