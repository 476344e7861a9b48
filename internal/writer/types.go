package writer

import (
	"context"
	"time"

	"github.com/rickgao/mt-bridge/internal/model"
)

// Writer persists the latest snapshot somewhere.
type Writer interface {
	// Name identifies the writer in logs and metrics.
	Name() string
	Write(ctx context.Context, snap model.Snapshot) error
	Close() error
}

// WriterMetrics holds metrics for a writer.
type WriterMetrics struct {
	Writes    int64
	Errors    int64
	LastWrite time.Time
	LastError string
}
