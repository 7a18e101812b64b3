// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the complete runtime configuration of the service.
type Config struct {
	Port   string `envconfig:"PORT" default:"8080"`
	WebDir string `envconfig:"WEB_DIR" default:"./web"`

	Store string   `envconfig:"STORE" default:"postgres"`
	DB    DBConfig `ignored:"true"`

	BcryptCost int `envconfig:"BCRYPT_COST" default:"12"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	RabbitURL     string `envconfig:"RABBIT_URL"`
	EventExchange string `envconfig:"EVENT_EXCHANGE" default:"eventure.events"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"Local"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"eventure"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxConns int32 `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns int32 `envconfig:"DB_MIN_CONNS" default:"2"`
}

// DSN builds a libpq-compatible connection string. DATABASE_URL wins when set.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := envconfig.Process("", &c.DB); err != nil {
		return Config{}, fmt.Errorf("process db env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values envconfig cannot check on its own.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive, got rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE, used to read zone-less event times.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
