// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	// TokenSecret signs bearer tokens; TokenTTL bounds their lifetime.
	TokenSecret string
	TokenTTL    time.Duration

	// SweepInterval is the expiration sweeper cadence.
	SweepInterval time.Duration

	// MaxSubscribersPerPoll caps one poll's realtime broadcast group.
	MaxSubscribersPerPoll int

	// APIRatePerSecond and APIRateBurst shape the per-client rate limiter
	// on /api routes.
	APIRatePerSecond float64
	APIRateBurst     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		TokenSecret: getEnv("TOKEN_SECRET", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	if len(cfg.TokenSecret) < 32 {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters, got %d", len(cfg.TokenSecret))
	}

	var err error
	if cfg.TokenTTL, err = getDurationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDurationEnv("SWEEP_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if cfg.MaxSubscribersPerPoll, err = getIntEnv("MAX_SUBSCRIBERS_PER_POLL", 500); err != nil {
		return nil, err
	}
	if cfg.MaxSubscribersPerPoll < 1 {
		return nil, fmt.Errorf("MAX_SUBSCRIBERS_PER_POLL must be at least 1")
	}
	if cfg.APIRatePerSecond, err = getFloatEnv("API_RATE_PER_SECOND", 20); err != nil {
		return nil, err
	}
	if cfg.APIRatePerSecond <= 0 {
		return nil, fmt.Errorf("API_RATE_PER_SECOND must be positive")
	}
	if cfg.APIRateBurst, err = getIntEnv("API_RATE_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.APIRateBurst < 1 {
		return nil, fmt.Errorf("API_RATE_BURST must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 60s or 5m: %w", key, err)
	}
	return d, nil
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
