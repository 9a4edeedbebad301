package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

const minSecretLength = 32

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Port            string        `env:"PORT" envDefault:"5000"`
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	StoreDriver     string        `env:"STORE_DRIVER" envDefault:"memory"`
	MySQLDSN        string        `env:"MYSQL_DSN"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPass       string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	SeedFixtureUser bool          `env:"SEED_FIXTURE_USER" envDefault:"true"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load builds Config from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var err error

	if len(c.JWTSecret) < minSecretLength {
		err = multierr.Append(err, fmt.Errorf("JWT_SECRET must be set and at least %d characters", minSecretLength))
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			err = multierr.Append(err, errors.New("MYSQL_DSN is required when STORE_DRIVER=mysql"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	if c.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("TOKEN_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		err = multierr.Append(err, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RateLimitRPS < 0 {
		err = multierr.Append(err, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	if c.Port == "" {
		err = multierr.Append(err, errors.New("PORT must not be empty"))
	}

	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
