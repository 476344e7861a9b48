package writer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/mt-bridge/internal/model"
)

// Execer is the subset of pgxpool.Pool used by PostgresWriter.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// upsertQuoteSQL keeps exactly one row per quote_key.
const upsertQuoteSQL = `
	INSERT INTO latest_quotes (quote_key, symbol, bid, ask, spread, spread_points, captured_at, tick_time, run_id, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	ON CONFLICT (quote_key) DO UPDATE SET
		symbol        = EXCLUDED.symbol,
		bid           = EXCLUDED.bid,
		ask           = EXCLUDED.ask,
		spread        = EXCLUDED.spread,
		spread_points = EXCLUDED.spread_points,
		captured_at   = EXCLUDED.captured_at,
		tick_time     = EXCLUDED.tick_time,
		run_id        = EXCLUDED.run_id,
		updated_at    = now()
`

// PostgresWriter upserts the latest snapshot into the latest_quotes table.
type PostgresWriter struct {
	db    Execer
	key   string
	runID uuid.UUID
	close func()
}

// NewPostgresWriter creates a PostgresWriter. closeFn (may be nil) runs on Close,
// typically pool.Close.
func NewPostgresWriter(db Execer, key string, runID uuid.UUID, closeFn func()) *PostgresWriter {
	return &PostgresWriter{
		db:    db,
		key:   key,
		runID: runID,
		close: closeFn,
	}
}

// Name implements Writer.
func (w *PostgresWriter) Name() string { return "postgres" }

// Write implements Writer.
func (w *PostgresWriter) Write(ctx context.Context, snap model.Snapshot) error {
	ct, err := w.db.Exec(ctx, upsertQuoteSQL,
		w.key,
		snap.Symbol,
		snap.Bid,
		snap.Ask,
		snap.Spread,
		snap.SpreadPoints,
		snap.CapturedAt,
		snap.Time,
		w.runID.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert latest quote: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("upsert latest quote: %d rows affected, want 1", ct.RowsAffected())
	}
	return nil
}

// Close implements Writer.
func (w *PostgresWriter) Close() error {
	if w.close != nil {
		w.close()
	}
	return nil
}
