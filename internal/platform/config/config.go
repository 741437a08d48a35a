package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minSessionSecretLen = 32

// Storage backends selectable via STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `env:"DISCORD_REDIRECT_URI"`
	DiscordBotToken     string `env:"DISCORD_BOT_TOKEN"`
	SessionSecret       string `env:"SESSION_SECRET"`

	StorageBackend string `env:"STORAGE_BACKEND" default:"file"`
	SettingsDir    string `env:"SETTINGS_DIR" default:"data/guilds"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"1"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"5"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	// Checked in a fixed order so the first missing variable is reported deterministically.
	required := []struct{ name, value string }{
		{"DISCORD_CLIENT_ID", cfg.DiscordClientID},
		{"DISCORD_CLIENT_SECRET", cfg.DiscordClientSecret},
		{"DISCORD_REDIRECT_URI", cfg.DiscordRedirectURI},
		{"DISCORD_BOT_TOKEN", cfg.DiscordBotToken},
		{"SESSION_SECRET", cfg.SessionSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if len(cfg.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretLen)
	}

	u, err := url.Parse(cfg.DiscordRedirectURI)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("DISCORD_REDIRECT_URI must be an absolute http(s) URL")
	}

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	switch cfg.StorageBackend {
	case BackendFile:
		if cfg.SettingsDir == "" {
			return errors.New("SETTINGS_DIR is required for the file storage backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
