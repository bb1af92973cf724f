package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "23333", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "0.0.0.0:23333", cfg.Server.Addr())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.Equal(t, 3, cfg.Files.MaxTasks)
	assert.Equal(t, 40, cfg.Files.PageSize)
	assert.Equal(t, int64(4<<20), cfg.Files.MaxEditSize)
	assert.Equal(t, "utf-8", cfg.Files.DefaultCode)
	assert.Empty(t, cfg.Instances.File)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	env := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
		"MAX_FILE_TASK":      "5",
		"FILE_PAGE_SIZE":     "25",
		"FILE_MAX_EDIT_SIZE": "1024",
		"FILE_DEFAULT_CODE":  "gbk",
		"INSTANCES_FILE":     "/etc/filegate/instances.yaml",
		"CORS_ORIGINS":       "http://panel.local,https://panel.example.com",
	}
	for key, value := range env {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Files.MaxTasks)
	assert.Equal(t, "/etc/filegate/instances.yaml", cfg.Instances.File)
	assert.Equal(t, []string{"http://panel.local", "https://panel.example.com"}, cfg.CORS.Origins)

	opts := cfg.Files.SessionOptions()
	assert.Equal(t, 25, opts.DefaultPageSize)
	assert.Equal(t, int64(1024), opts.MaxEditSize)
	assert.Equal(t, "gbk", opts.DefaultCode)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MAX_FILE_TASK", "many")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 3, cfg.Files.MaxTasks)
}
