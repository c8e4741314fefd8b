package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the environment-tunable application settings. Poll cadences
// are deliberately absent: the 1s monitor and 2s list refresh are fixed
// behavior, not configuration.
type Config struct {
	// ServerURL is the default extractor endpoint, used until the user saves
	// one in settings.
	ServerURL string `env:"SERVER_URL, default=http://localhost:8000"`

	// DatabaseURL selects the local store. sqlite:// paths default into the
	// user config directory; postgres:// DSNs are accepted for shared setups.
	DatabaseURL string `env:"DATABASE_URL, default=sqlite://./docxtract.db"`

	LogLevel string `env:"LOG_LEVEL, default=INFO"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=5m"`
}

// Load reads the configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := envconfig.Process(c, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if _, err := url.Parse(cfg.ServerURL); err != nil {
		return nil, fmt.Errorf("invalid SERVER_URL: %w", err)
	}

	return &cfg, nil
}
