package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load reads an optional .env file into the environment and parses Config.
// The boolean reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, found, fmt.Errorf("parse config: %w", err)
	}
	return cfg, found, nil
}
