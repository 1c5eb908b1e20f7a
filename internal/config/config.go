package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, sourced from the environment (a
// local .env file is honored when present).
type Config struct {
	Token       string   `env:"SLASHD_TOKEN"`
	AppID       string   `env:"SLASHD_APP_ID"`
	DebugGuilds []string `env:"SLASHD_DEBUG_GUILDS" envSeparator:","`
	OwnerID     string   `env:"SLASHD_OWNER_ID"`
	LogLevel    string   `env:"SLASHD_LOG_LEVEL" envDefault:"info"`
	StateDir    string   `env:"SLASHD_STATE_DIR"`
	MetricsAddr string   `env:"SLASHD_METRICS_ADDR"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
