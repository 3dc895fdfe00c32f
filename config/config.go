package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend BackendConfig
	App     AppConfig
}

type BackendConfig struct {
	// URL is the backend server root, without the /api/v1 suffix.
	URL string
	// PollInterval is the dashboard refresh period.
	PollInterval time.Duration
	// TokenPath overrides where the session credential is persisted.
	// Empty means the default location under the user config dir.
	TokenPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Backend: BackendConfig{
			URL:          getEnv("KELP_API_URL", "http://localhost:8000"),
			PollInterval: time.Duration(getEnvAsInt("KELP_POLL_INTERVAL_SECONDS", 3)) * time.Second,
			TokenPath:    getEnv("KELP_TOKEN_PATH", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("KELP_API_URL is required")
	}

	if c.Backend.PollInterval <= 0 {
		return fmt.Errorf("KELP_POLL_INTERVAL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
