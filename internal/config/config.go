// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	JWTExpiry     time.Duration // Access token lifetime
	RefreshExpiry time.Duration // Refresh token lifetime

	// Bootstrap admin account (created at startup if missing)
	AdminEmail    string
	AdminUsername string
	AdminPassword string

	// External advisor (OpenAI-compatible chat completion API)
	AdvisorAPIURL      string
	AdvisorAPIKey      string
	AdvisorModel       string
	AdvisorMaxTokens   int
	AdvisorTemperature float64
	AdvisorTimeout     time.Duration

	// Usage ledger
	UsageDailyLimit int // Default daily ceiling for new ledger records

	// Catalog
	CourseListLimit int // Max courses returned by list/recommendation queries

	// CORS
	CORSOrigins []string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars always win
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:courseloop.db?_journal=WAL&_timeout=5000"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiry:     getEnvDuration("JWT_EXPIRY", 1*time.Hour),
		RefreshExpiry: getEnvDuration("REFRESH_EXPIRY", 24*time.Hour),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AdvisorAPIURL:      getEnv("ADVISOR_API_URL", "https://api.openai.com/v1/chat/completions"),
		AdvisorAPIKey:      getEnv("ADVISOR_API_KEY", os.Getenv("OPENAI_API_KEY")),
		AdvisorModel:       getEnv("ADVISOR_MODEL", "gpt-3.5-turbo"),
		AdvisorMaxTokens:   getEnvInt("ADVISOR_MAX_TOKENS", 200),
		AdvisorTemperature: getEnvFloat("ADVISOR_TEMPERATURE", 0.7),
		AdvisorTimeout:     getEnvDuration("ADVISOR_TIMEOUT", 30*time.Second),

		UsageDailyLimit: getEnvInt("USAGE_DAILY_LIMIT", 250),
		CourseListLimit: getEnvInt("COURSE_LIST_LIMIT", 100),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.UsageDailyLimit < 1 {
		return nil, fmt.Errorf("USAGE_DAILY_LIMIT must be at least 1")
	}

	return cfg, nil
}

// AdvisorEnabled returns true if the external advisor is configured.
func (c *Config) AdvisorEnabled() bool {
	return c.AdvisorAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
