// Package config provides configuration management for namematch.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPort is the default HTTP port for the API server.
	DefaultPort = 8080

	// DefaultProfilePath is where the canonical profile YAML lives.
	DefaultProfilePath = "data/profile.yaml"
)

// Config holds the application configuration. Values come from the
// environment; a .env file is honored in development.
type Config struct {
	// Server settings
	Port           int
	AllowedOrigins []string

	// Database settings
	DatabaseURL string
	DBMaxConns  int

	// Optional integrations. Empty values degrade the relevant feature
	// instead of failing startup.
	RedisAddr    string
	GeminiAPIKey string

	// Chatbot settings
	IPSalt      string
	AdminToken  string
	ProfilePath string

	// Logging
	LogLevel string
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		AllowedOrigins: []string{"http://localhost:3000"},
		DBMaxConns:     10,
		ProfilePath:    DefaultProfilePath,
		LogLevel:       "info",
	}
}

// Load reads configuration from the environment, merging over defaults.
// DATABASE_URL is the only required value.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitTrim(v)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", v)
		}
		cfg.DBMaxConns = n
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.IPSalt = os.Getenv("IP_SALT")
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")

	if v := os.Getenv("PROFILE_PATH"); v != "" {
		cfg.ProfilePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg, nil
}

// splitTrim splits a comma-separated string and trims whitespace.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
