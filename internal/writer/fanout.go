package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/mt-bridge/internal/model"
)

// Fanout writes each snapshot to every writer in order.
// A failing writer does not stop the others; all failures are joined.
type Fanout struct {
	writers []Writer
	logger  *slog.Logger

	mu      sync.Mutex
	metrics map[string]*WriterMetrics
}

// NewFanout creates a Fanout over writers.
func NewFanout(logger *slog.Logger, writers ...Writer) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := make(map[string]*WriterMetrics, len(writers))
	for _, w := range writers {
		metrics[w.Name()] = &WriterMetrics{}
	}
	return &Fanout{
		writers: writers,
		logger:  logger,
		metrics: metrics,
	}
}

// Name implements Writer.
func (f *Fanout) Name() string { return "fanout" }

// Write implements Writer.
func (f *Fanout) Write(ctx context.Context, snap model.Snapshot) error {
	var errs []error

	for _, w := range f.writers {
		start := time.Now()
		err := w.Write(ctx, snap)

		f.mu.Lock()
		m := f.metrics[w.Name()]
		if err != nil {
			m.Errors++
			m.LastError = err.Error()
		} else {
			m.Writes++
			m.LastWrite = start
		}
		f.mu.Unlock()

		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}

		f.logger.Debug("snapshot written",
			"writer", w.Name(),
			"duration", time.Since(start),
		)
	}

	return errors.Join(errs...)
}

// Stats returns a copy of per-writer metrics keyed by writer name.
func (f *Fanout) Stats() map[string]WriterMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]WriterMetrics, len(f.metrics))
	for name, m := range f.metrics {
		out[name] = *m
	}
	return out
}

// Close closes every writer and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, w := range f.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}
