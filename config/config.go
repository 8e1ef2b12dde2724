package config

import (
	"fmt"
	"strings"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - store.go: Job store backend selection
//   - database.go: Postgres and Redis connection configuration
//   - sweeper.go: Retention policy and sweep scheduling
//   - observability.go: Metrics and failure notifications
type AppConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is json or text.
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Store StoreConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	Sweeper SweeperConfig `envPrefix:"SWEEPER_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat != "text" {
		c.LogFormat = "json"
	}

	c.Store.Sanitize()
	c.Sweeper.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports configuration that cannot be repaired by Sanitize.
func (c *AppConfig) Validate() error {
	if !c.Store.Backend.Valid() {
		return fmt.Errorf("invalid store backend: %q (valid options: redis, postgres, memory)", c.Store.Backend)
	}
	if _, err := c.Sweeper.EnabledOperations(); err != nil {
		return err
	}
	for _, op := range model.ValidOperations() {
		if c.Sweeper.Schedule(op) == "" {
			return fmt.Errorf("no schedule configured for %s", op)
		}
	}
	return nil
}
