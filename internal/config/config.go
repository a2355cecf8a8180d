package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read before the process environment when present.
const DefaultEnvFile = "config/local.env"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Session  SessionConfig
	Logging  LoggingConfig
}

// DatabaseConfig selects the store driver and its data source.
type DatabaseConfig struct {
	Driver string // sqlite, pgx, postgres
	URL    string
}

// SessionConfig holds the token signing settings
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load reads configuration from the env file (if any) and the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	cfg.loadDatabase()
	if err := cfg.loadSession(); err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() {
	c.Database.Driver = strings.ToLower(getEnvOrDefault("MUSICCRATE_DB_DRIVER", "sqlite"))
	c.Database.URL = getEnvOrDefault("DATABASE_URL", "data/musiccrate.db")
}

func (c *Config) loadSession() error {
	c.Session.Secret = os.Getenv("SESSION_SECRET")

	ttl, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	c.Session.TTL = ttl
	return nil
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "text")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	validDrivers := map[string]bool{"sqlite": true, "pgx": true, "postgres": true}
	if !validDrivers[c.Database.Driver] {
		errors = append(errors, "MUSICCRATE_DB_DRIVER must be one of: sqlite, pgx, postgres")
	}
	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required")
	}

	if c.Session.TTL <= 0 {
		errors = append(errors, "SESSION_TTL must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks the settings needed to issue and verify session tokens.
// Commands that never touch sessions do not require them.
func (s SessionConfig) Validate() error {
	if len(s.Secret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}
	if s.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// IsPostgres reports whether the configured driver talks to Postgres.
func (c *Config) IsPostgres() bool {
	return c.Database.Driver == "pgx" || c.Database.Driver == "postgres"
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
