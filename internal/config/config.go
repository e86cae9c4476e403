// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/KirkDiggler/combat-api/internal/errors"
)

// Config is the full service configuration, populated from COMBAT_API_*
// environment variables.
type Config struct {
	// Redis connection
	RedisAddress    string        `env:"COMBAT_API_REDIS_ADDR"            envDefault:"localhost:6379"`
	RedisPoolSize   int           `env:"COMBAT_API_REDIS_POOL_SIZE"       envDefault:"10"`
	RedisUseTLS     bool          `env:"COMBAT_API_REDIS_TLS"             envDefault:"false"`
	SentinelMaster  string        `env:"COMBAT_API_REDIS_SENTINEL_MASTER"`
	SentinelAddrs   []string      `env:"COMBAT_API_REDIS_SENTINEL_ADDRS"`
	SessionTTL      time.Duration `env:"COMBAT_API_SESSION_TTL"           envDefault:"24h"`

	// Distributed lock tuning
	LockTTL       time.Duration `env:"COMBAT_API_LOCK_TTL"        envDefault:"10s"`
	LockRetries   int           `env:"COMBAT_API_LOCK_RETRIES"    envDefault:"3"`
	LockBaseDelay time.Duration `env:"COMBAT_API_LOCK_BASE_DELAY" envDefault:"50ms"`

	// Per-actor action throttle
	ActionRateWindow  time.Duration `env:"COMBAT_API_ACTION_RATE_WINDOW" envDefault:"60s"`
	ActionRateMax     int           `env:"COMBAT_API_ACTION_RATE_MAX"    envDefault:"10"`
	RateLimitFailOpen bool          `env:"COMBAT_API_RATE_FAIL_OPEN"     envDefault:"false"`

	// Logging
	LogLevel string `env:"COMBAT_API_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values for internal consistency
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.RedisAddress == "" && c.SentinelMaster == "" {
		vb.Field("RedisAddress", "either a Redis address or a Sentinel master is required")
	}
	if c.SentinelMaster != "" && len(c.SentinelAddrs) == 0 {
		vb.Field("SentinelAddrs", "required when a Sentinel master is set")
	}
	if c.LockTTL <= 0 {
		vb.PositiveField("LockTTL")
	}
	if c.ActionRateWindow <= 0 {
		vb.PositiveField("ActionRateWindow")
	}
	if c.ActionRateMax <= 0 {
		vb.PositiveField("ActionRateMax")
	}

	return vb.Build()
}

// UseSentinel reports whether this deployment connects through Sentinel
func (c *Config) UseSentinel() bool {
	return c.SentinelMaster != ""
}
