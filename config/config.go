// Package config loads service configuration from the environment.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the server needs at startup. All fields come from
// environment variables with sensible development defaults.
type Config struct {
	// HTTP
	ListenAddr string `env:"LISTEN_ADDR, default=:8080"`

	// Storage
	DBPath string `env:"DB_PATH, default=./data/agency.db"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"` // text or json

	// Email notifications. Disabled by default so local development never
	// needs AWS credentials.
	EmailEnabled bool   `env:"EMAIL_ENABLED, default=false"`
	EmailSender  string `env:"EMAIL_SENDER"`
	AWSRegion    string `env:"AWS_REGION, default=eu-central-1"`
}

// Load reads configuration from the environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if cfg.EmailEnabled && cfg.EmailSender == "" {
		return nil, fmt.Errorf("EMAIL_SENDER is required when EMAIL_ENABLED is set")
	}
	return &cfg, nil
}
