// Package config loads server configuration from the environment.
// Commands parse flags on top, so flags win over environment values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Server holds the settings shared by the serve and mcp commands.
type Server struct {
	Addr  string `env:"STRATA_ADDR" envDefault:":8080"`
	Chart string `env:"STRATA_CHART"`

	// Store selects the snapshot backend: memory, bolt, sqlite, or
	// redis. File-backed stores read their location from StorePath.
	Store     string `env:"STRATA_STORE" envDefault:"memory"`
	StorePath string `env:"STRATA_STORE_PATH" envDefault:"strata.db"`

	RedisAddr     string `env:"STRATA_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"STRATA_REDIS_PASSWORD"`
	RedisDB       int    `env:"STRATA_REDIS_DB" envDefault:"0"`

	// RedisLock guards instances with a distributed lock so several
	// server processes can share one redis store.
	RedisLock bool `env:"STRATA_REDIS_LOCK"`

	LogLevel string `env:"STRATA_LOG_LEVEL" envDefault:"info"`
}

// FromEnv fills target from environment variables.
func FromEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
