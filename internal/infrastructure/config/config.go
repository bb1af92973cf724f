package config

import (
	"fmt"
	"net"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/providers/filesystem"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Files     FilesConfig
	Instances InstancesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"23333"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
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

// CORSConfig holds cross-origin settings for the panel frontend.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// FilesConfig holds file operation limits.
type FilesConfig struct {
	// MaxTasks is the per-instance ceiling on concurrent archive tasks
	MaxTasks    int    `envconfig:"MAX_FILE_TASK" default:"3"`
	PageSize    int    `envconfig:"FILE_PAGE_SIZE" default:"40"`
	MaxEditSize int64  `envconfig:"FILE_MAX_EDIT_SIZE" default:"4194304"`
	DefaultCode string `envconfig:"FILE_DEFAULT_CODE" default:"utf-8"`
}

// SessionOptions converts the file limits into session options
func (f FilesConfig) SessionOptions() filesystem.Options {
	return filesystem.Options{
		DefaultPageSize: f.PageSize,
		MaxEditSize:     f.MaxEditSize,
		DefaultCode:     f.DefaultCode,
	}
}

// InstancesConfig holds instance registry configuration.
type InstancesConfig struct {
	// File is a YAML or TOML seed file; empty starts with no instances
	File string `envconfig:"INSTANCES_FILE" default:""`
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
	opts := filesystem.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port: "23333",
			Host: "0.0.0.0",
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
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Files: FilesConfig{
			MaxTasks:    3,
			PageSize:    opts.DefaultPageSize,
			MaxEditSize: opts.MaxEditSize,
			DefaultCode: opts.DefaultCode,
		},
	}
}
