package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  mode: release
database:
  type: sqlx
  path: /tmp/snatch.db
probe:
  backend: http
  workers: 8
  domain:
    api_url: https://whois.example.com
    timeout: 3s
quota:
  free_searches: 5
analytics:
  webhook:
    enabled: true
    url: https://collect.example.com
    secret: shh
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlx", cfg.Database.Type)
	assert.Equal(t, "http", cfg.Probe.Backend)
	assert.Equal(t, 8, cfg.Probe.Workers)
	assert.Equal(t, "https://whois.example.com", cfg.Probe.Domain.APIURL)
	assert.Equal(t, "com", cfg.Probe.Domain.TLD)
	assert.Equal(t, 5, cfg.Quota.FreeSearches)
	assert.Equal(t, "@hourly", cfg.Scheduler.QuotaSweep)
	assert.True(t, cfg.Analytics.Webhook.Enabled)
	assert.Equal(t, "shh", cfg.Analytics.Webhook.Secret)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gorm", cfg.Database.Type)
	assert.Equal(t, "simulated", cfg.Probe.Backend)
	assert.Equal(t, 4, cfg.Probe.Workers)
	assert.Equal(t, 3, cfg.Quota.FreeSearches)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad database", func(c *Config) { c.Database.Type = "mysql" }, "unsupported database type"},
		{"bad backend", func(c *Config) { c.Probe.Backend = "dns" }, "unsupported probe backend"},
		{"http without whois", func(c *Config) { c.Probe.Backend = "http" }, "api_url is required"},
		{"webhook without url", func(c *Config) { c.Analytics.Webhook.Enabled = true }, "webhook.url is required"},
		{"bad duration", func(c *Config) { c.Probe.Timeout = "soon" }, "probe.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("3s", time.Second))
	assert.Equal(t, time.Second, ParseDuration("", time.Second))
	assert.Equal(t, time.Second, ParseDuration("nope", time.Second))
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "simulated", cfg.Probe.Backend)
	assert.True(t, cfg.Analytics.Log.Enabled)
}
