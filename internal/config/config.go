// Package config loads and validates application configuration from environment variables.
// A .env file in the working directory, if present, is loaded first; real
// environment variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	// The same list is checked on WebSocket upgrades.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// DiscordBotToken and DiscordChannelID enable finalize announcements.
	// Both must be set; otherwise announcements are off.
	DiscordBotToken  string
	DiscordChannelID string

	// WSActionsPerSecond limits votes and finalizes per live connection.
	// Defaults to 5.
	WSActionsPerSecond float64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config.Load: read .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("WS_ACTIONS_PER_SECOND", 5.0)
	// Empty variables count as unset, so defaults still apply.
	v.AutomaticEnv()

	cfg := Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSOrigins:        splitCSV(v.GetString("CORS_ORIGINS")),
		MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
		DiscordBotToken:    v.GetString("DISCORD_BOT_TOKEN"),
		DiscordChannelID:   v.GetString("DISCORD_CHANNEL_ID"),
		WSActionsPerSecond: v.GetFloat64("WS_ACTIONS_PER_SECOND"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be a positive integer, got %q", v.GetString("MAX_BODY_BYTES"))
	}
	if cfg.WSActionsPerSecond <= 0 {
		return Config{}, fmt.Errorf("WS_ACTIONS_PER_SECOND must be positive, got %v", cfg.WSActionsPerSecond)
	}

	return cfg, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
