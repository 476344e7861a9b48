// Package logging builds the process logger: structured slog records written to
// the console and, optionally, an append-only log file. Rotation is left to the
// host (logrotate, pm2).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DisabledFile turns the file sink off when used as Config.File.
const DisabledFile = "-"

// Config selects level, format and sinks.
type Config struct {
	Level  string    // debug | info | warn | error
	Format string    // text | json
	File   string    // log file path, "" or DisabledFile for console only
	Stdout io.Writer // console sink, os.Stdout when nil
}

// ParseLevel converts a string to slog.Level. Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to the console and the configured file.
// The returned closer releases the file and must be called on exit.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	console := cfg.Stdout
	if console == nil {
		console = os.Stdout
	}

	var (
		out    = console
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" && cfg.File != DisabledFile {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(console, f)
		closer = f
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
