package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Migrate creates the statistics schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE SCHEMA IF NOT EXISTS mg`,
		`CREATE TABLE IF NOT EXISTS mg.batch_summaries (
			id         UUID PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			games      INTEGER NOT NULL,
			failed     INTEGER NOT NULL,
			payload    JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_summaries_created_at ON mg.batch_summaries (created_at DESC)`,
	}
	for _, q := range statements {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
