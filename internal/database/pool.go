package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/mt-bridge/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// SchemaSQL creates the latest_quotes table if it does not exist.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS latest_quotes (
	quote_key     TEXT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	bid           DOUBLE PRECISION NOT NULL,
	ask           DOUBLE PRECISION NOT NULL,
	spread        DOUBLE PRECISION NOT NULL,
	spread_points BIGINT NOT NULL,
	captured_at   TIMESTAMPTZ NOT NULL,
	tick_time     BIGINT NOT NULL,
	run_id        UUID NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the tables the bridge writes to.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("create latest_quotes: %w", err)
	}
	return nil
}
