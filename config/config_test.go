package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.PollInterval)
	assert.Equal(t, "development", cfg.App.Environment)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KELP_API_URL", "https://api.example.com")
	t.Setenv("KELP_POLL_INTERVAL_SECONDS", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.PollInterval)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoad_InvalidIntervalFallsBack(t *testing.T) {
	t.Setenv("KELP_POLL_INTERVAL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Backend.PollInterval)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Backend: BackendConfig{URL: "", PollInterval: 3 * time.Second}}
	assert.Error(t, cfg.Validate())

	cfg.Backend.URL = "http://localhost:8000"
	cfg.Backend.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg.Backend.PollInterval = time.Second
	assert.NoError(t, cfg.Validate())
}
