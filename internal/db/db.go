// Package db establishes the Postgres pool and applies schema migrations.
package db

import (
	"context"
	"errors"
	"fmt"

	"campus-auction/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool against the configured conn string and verifies it
// with a ping.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.PostgresConn == "" {
		return nil, fmt.Errorf("postgres conn string is empty")
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// Migrate applies pending migrations. Up-to-date is not an error.
func Migrate(cfg config.Config) error {
	m, err := migrate.New(cfg.MigrationURL, cfg.PostgresConn)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
