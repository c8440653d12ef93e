package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sync      SyncConfig
	Storage   StorageConfig
	Install   InstallConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SyncConfig holds sync engine client configuration.
type SyncConfig struct {
	Address    string        `envconfig:"SYNC_ADDR" default:"http://localhost:8041"`
	Timeout    time.Duration `envconfig:"SYNC_TIMEOUT" default:"10s"`
	ServeStale bool          `envconfig:"SYNC_SERVE_STALE" default:"true"`
	FixtureDir string        `envconfig:"SYNC_FIXTURES" default:""`
}

// StorageConfig holds local persistence configuration.
type StorageConfig struct {
	Path string `envconfig:"STORAGE_PATH" default:"/tmp/tabmirror"`
}

// InstallConfig holds install-flow configuration.
type InstallConfig struct {
	ApprovalTTL time.Duration `envconfig:"INSTALL_APPROVAL_TTL" default:"15m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Sync: SyncConfig{
			Address:    "http://localhost:8041",
			Timeout:    10 * time.Second,
			ServeStale: true,
		},
		Storage: StorageConfig{
			Path: "/tmp/tabmirror",
		},
		Install: InstallConfig{
			ApprovalTTL: 15 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
