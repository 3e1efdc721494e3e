// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Policy   PolicyConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `env:"SERVER_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"ticketing"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// PolicyConfig holds access-control settings.
type PolicyConfig struct {
	// CacheFreshness bounds how stale the permission cache may be before
	// the next read reloads it.
	CacheFreshness time.Duration `env:"PERMISSION_CACHE_FRESHNESS" envDefault:"5m"`
}

// DSN builds a libpq-compatible connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
