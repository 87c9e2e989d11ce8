// Package db manages the Postgres connection pool and schema migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	apperrors "golang-imputation-service/pkg/errors"
	"golang-imputation-service/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connect opens a connection pool against the given database URL and
// verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig,
			"database_url", "", fmt.Errorf("database URL not set"))
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig,
			"database_url", databaseURL, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeConnectionError, "pool create", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.StorageError(apperrors.CodeConnectionError, "ping", err)
	}

	logger.WithComponent("db").Debug("database connection established")
	return pool, nil
}

// RunMigrations applies the embedded schema migrations. Goose drives a
// database/sql connection, so the pool is wrapped with the pgx stdlib
// driver for the duration of the migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := sql.OpenDB(stdlib.GetPoolConnector(pool))
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return apperrors.StorageError(apperrors.CodeMigrationError, "set dialect", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return apperrors.StorageError(apperrors.CodeMigrationError, "migrate up", err)
	}

	logger.WithComponent("db").Debug("schema migrations applied")
	return nil
}
