package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rickgao/mt-bridge/internal/model"
	"github.com/rickgao/mt-bridge/internal/terminal"
)

// Terminal is the trading terminal session the bridge polls.
type Terminal interface {
	Initialize(ctx context.Context) error
	SymbolInfo(ctx context.Context, symbol string) (*terminal.SymbolInfo, error)
	SelectSymbol(ctx context.Context, symbol string, enable bool) error
	SymbolTick(ctx context.Context, symbol string) (*terminal.Tick, error)
	Shutdown(ctx context.Context) error
}

// SnapshotWriter persists snapshots.
type SnapshotWriter interface {
	Write(ctx context.Context, snap model.Snapshot) error
}

// SnapshotWriterFunc is a function adapter for SnapshotWriter.
type SnapshotWriterFunc func(context.Context, model.Snapshot) error

func (f SnapshotWriterFunc) Write(ctx context.Context, s model.Snapshot) error {
	return f(ctx, s)
}

// Config holds bridge configuration.
type Config struct {
	Symbol          string        // Instrument to quote (default: XAUUSD)
	Interval        time.Duration // Poll interval (default: 5s)
	StartupCooldown time.Duration // Wait after a failed initialize (default: 60s)
	FailureCooldown time.Duration // Wait after an unexpected failure (default: 10s)
	CallTimeout     time.Duration // Bound on a single terminal call (default: 15s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:          "XAUUSD",
		Interval:        5 * time.Second,
		StartupCooldown: 60 * time.Second,
		FailureCooldown: 10 * time.Second,
		CallTimeout:     15 * time.Second,
	}
}

// Stats counts loop outcomes.
type Stats struct {
	Cycles          int64
	Snapshots       int64
	Skipped         int64 // instrument or quote unavailable
	PersistFailures int64
	LastSnapshot    time.Time
}

// Bridge polls one instrument and persists its latest quote.
type Bridge struct {
	cfg    Config
	term   Terminal
	out    SnapshotWriter
	logger *slog.Logger
	now    func() time.Time

	connected    bool
	shutdownOnce sync.Once

	mu    sync.Mutex
	stats Stats
}

// New creates a new Bridge.
func New(cfg Config, term Terminal, out SnapshotWriter, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:    cfg,
		term:   term,
		out:    out,
		logger: logger.With("symbol", cfg.Symbol),
		now:    time.Now,
	}
}

// Run opens the terminal session and polls until ctx is cancelled.
//
// It returns nil on a requested stop, ErrConnectionFailed when the session
// could not be opened, and an error matching ErrUnexpectedFailure when the
// loop hit an unclassified failure. Both failures are returned after their
// cooldown has elapsed. The session is shut down before Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.shutdown()

	if ctx.Err() != nil {
		return nil
	}

	if err := b.connect(ctx); err != nil {
		b.logger.Error("failed to connect to terminal",
			"error", err,
			"cooldown", b.cfg.StartupCooldown,
		)
		b.sleep(ctx, b.cfg.StartupCooldown)
		return err
	}

	b.logger.Info("bridge started",
		"interval", b.cfg.Interval,
	)

	for {
		err := b.safePoll(ctx)
		switch {
		case err == nil, skippable(err):
		case errors.Is(err, errStopped):
			b.logger.Info("stop requested, leaving poll loop")
			return nil
		default:
			attrs := []any{"error", err, "cooldown", b.cfg.FailureCooldown}
			var pe *PanicError
			if errors.As(err, &pe) {
				attrs = append(attrs, "stack", string(pe.Stack))
			}
			b.logger.Error("unexpected failure in poll loop", attrs...)
			b.sleep(ctx, b.cfg.FailureCooldown)
			if !errors.Is(err, ErrUnexpectedFailure) {
				err = fmt.Errorf("%w: %w", ErrUnexpectedFailure, err)
			}
			return err
		}

		if !b.sleep(ctx, b.cfg.Interval) {
			b.logger.Info("stop requested, leaving poll loop")
			return nil
		}
	}
}

// Fetch reads the current quote and builds a snapshot without persisting it.
func (b *Bridge) Fetch(ctx context.Context) (model.Snapshot, error) {
	symbol := b.cfg.Symbol

	if ctx.Err() != nil {
		return model.Snapshot{}, errStopped
	}
	callCtx, cancel := b.callContext(ctx)
	info, err := b.term.SymbolInfo(callCtx, symbol)
	cancel()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrInstrumentUnavailable, err)
	}
	if info == nil {
		return model.Snapshot{}, errors.New("terminal returned no symbol info")
	}

	if !info.Visible {
		b.logger.Info("symbol not visible, selecting")
		if ctx.Err() != nil {
			return model.Snapshot{}, errStopped
		}
		callCtx, cancel := b.callContext(ctx)
		err := b.term.SelectSymbol(callCtx, symbol, true)
		cancel()
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("%w: %w", ErrInstrumentUnavailable, err)
		}
	}

	if ctx.Err() != nil {
		return model.Snapshot{}, errStopped
	}
	callCtx, cancel = b.callContext(ctx)
	tick, err := b.term.SymbolTick(callCtx, symbol)
	cancel()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", ErrQuoteUnavailable, err)
	}
	if tick == nil {
		return model.Snapshot{}, errors.New("terminal returned no tick")
	}
	b.logger.Debug("tick received",
		"bid", tick.Bid,
		"ask", tick.Ask,
		"tick_at", tick.Timestamp(),
	)

	return model.NewSnapshot(model.Quote{
		Symbol:       symbol,
		Bid:          tick.Bid,
		Ask:          tick.Ask,
		SpreadPoints: info.Spread,
		TickTime:     tick.Time,
	}, b.now()), nil
}

// Stats returns a copy of the loop counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *Bridge) connect(ctx context.Context) error {
	callCtx, cancel := b.callContext(ctx)
	defer cancel()

	if err := b.term.Initialize(callCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	b.connected = true

	b.logger.Info("connected to terminal")
	return nil
}

// safePoll runs one cycle, converting a panic into a PanicError.
func (b *Bridge) safePoll(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return b.poll(ctx)
}

// poll fetches, persists and records the outcome of one cycle.
func (b *Bridge) poll(ctx context.Context) error {
	b.count(func(s *Stats) { s.Cycles++ })

	snap, err := b.Fetch(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrInstrumentUnavailable):
		b.count(func(s *Stats) { s.Skipped++ })
		b.logger.Error("instrument unavailable, skipping cycle", "error", err)
		return err
	case errors.Is(err, ErrQuoteUnavailable):
		b.count(func(s *Stats) { s.Skipped++ })
		b.logger.Error("quote unavailable, skipping cycle", "error", err)
		return err
	default:
		return err
	}

	if err := b.out.Write(ctx, snap); err != nil {
		b.count(func(s *Stats) { s.PersistFailures++ })
		b.logger.Error("failed to persist snapshot", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	b.count(func(s *Stats) {
		s.Snapshots++
		s.LastSnapshot = snap.CapturedAt
	})
	b.logger.Info("quote written",
		"bid", snap.Bid,
		"ask", snap.Ask,
		"spread", snap.Spread,
		"spread_points", snap.SpreadPoints,
		"tick_time", snap.Time,
	)
	return nil
}

// shutdown closes the terminal session once, and only if it was opened.
func (b *Bridge) shutdown() {
	b.shutdownOnce.Do(func() {
		if !b.connected {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CallTimeout)
		defer cancel()

		if err := b.term.Shutdown(ctx); err != nil {
			b.logger.Warn("terminal shutdown failed", "error", err)
			return
		}
		b.logger.Info("terminal session closed")
	})
}

// callContext detaches ctx from cancellation so a stop request never aborts a
// terminal call mid-flight; the call is bounded by CallTimeout instead.
func (b *Bridge) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.cfg.CallTimeout <= 0 {
		return context.WithCancel(context.WithoutCancel(ctx))
	}
	return context.WithTimeout(context.WithoutCancel(ctx), b.cfg.CallTimeout)
}

// sleep waits for d or until ctx is cancelled. It reports whether the full
// duration elapsed.
func (b *Bridge) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (b *Bridge) count(f func(*Stats)) {
	b.mu.Lock()
	f(&b.stats)
	b.mu.Unlock()
}
