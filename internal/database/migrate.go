package database

import (
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/communityos/ticketing/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending schema migrations. Runs before the pool is
// opened, over a short-lived database/sql connection.
func Migrate(cfg config.PostgresConfig) error {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	db := stdlib.OpenDB(*connCfg)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
