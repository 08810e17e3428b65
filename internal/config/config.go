package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Probe     ProbeConfig     `yaml:"probe"`
	Quota     QuotaConfig     `yaml:"quota"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug/release
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Type string `yaml:"type"` // gorm/sqlx/memory
	Path string `yaml:"path"`
}

// AuthConfig represents session token configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
}

// ProbeConfig represents availability probe configuration
type ProbeConfig struct {
	Backend          string       `yaml:"backend"` // simulated/http
	Workers          int          `yaml:"workers"`
	Timeout          string       `yaml:"timeout"`
	SimulatedLatency string       `yaml:"simulated_latency"`
	SOCKS5           string       `yaml:"socks5"`     // host:port, empty for direct
	RateLimit        float64      `yaml:"rate_limit"` // requests per second per backend, 0 for none
	Burst            int          `yaml:"burst"`
	Domain           WhoisConfig  `yaml:"domain"`
	Trademark        LookupConfig `yaml:"trademark"`
	Business         LookupConfig `yaml:"business"`
	Social           LookupConfig `yaml:"social"`
}

// WhoisConfig represents WHOIS API configuration
type WhoisConfig struct {
	APIURL  string `yaml:"api_url"`
	TLD     string `yaml:"tld"`
	Timeout string `yaml:"timeout"`
}

// LookupConfig represents a registry lookup endpoint
type LookupConfig struct {
	URL     string `yaml:"url"`
	Param   string `yaml:"param"`
	Timeout string `yaml:"timeout"`
}

// QuotaConfig represents free plan limits
type QuotaConfig struct {
	FreeSearches int `yaml:"free_searches"`
}

// SchedulerConfig represents scheduled jobs
type SchedulerConfig struct {
	QuotaSweep string `yaml:"quota_sweep"` // Cron expression
}

// AnalyticsConfig represents analytics sinks
type AnalyticsConfig struct {
	Log     LogSinkConfig `yaml:"log"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// LogSinkConfig represents the log analytics sink
type LogSinkConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WebhookConfig represents webhook analytics configuration
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Database.Type == "" {
		c.Database.Type = "gorm"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/snatch.db"
	}
	if c.Auth.TokenTTL == "" {
		c.Auth.TokenTTL = "168h"
	}
	if c.Probe.Backend == "" {
		c.Probe.Backend = "simulated"
	}
	if c.Probe.Workers <= 0 {
		c.Probe.Workers = 4
	}
	if c.Probe.Timeout == "" {
		c.Probe.Timeout = "2s"
	}
	if c.Probe.SimulatedLatency == "" {
		c.Probe.SimulatedLatency = "100ms"
	}
	if c.Probe.Domain.TLD == "" {
		c.Probe.Domain.TLD = "com"
	}
	if c.Quota.FreeSearches <= 0 {
		c.Quota.FreeSearches = 3
	}
	if c.Scheduler.QuotaSweep == "" {
		c.Scheduler.QuotaSweep = "@hourly"
	}
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Type {
	case "gorm", "sqlx", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported database type: %s", c.Database.Type))
	}

	switch c.Probe.Backend {
	case "simulated":
	case "http":
		if c.Probe.Domain.APIURL == "" {
			errs = append(errs, errors.New("probe.domain.api_url is required for the http backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported probe backend: %s", c.Probe.Backend))
	}

	if c.Analytics.Webhook.Enabled && c.Analytics.Webhook.URL == "" {
		errs = append(errs, errors.New("analytics.webhook.url is required when the webhook is enabled"))
	}

	for name, value := range map[string]string{
		"auth.token_ttl":          c.Auth.TokenTTL,
		"probe.timeout":           c.Probe.Timeout,
		"probe.simulated_latency": c.Probe.SimulatedLatency,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// ParseDuration parses value, returning fallback when it is empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
