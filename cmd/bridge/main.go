// bridge polls the trading terminal for one instrument and keeps its latest
// quote in a JSON file (plus optional Redis and PostgreSQL mirrors).
// Usage: go run ./cmd/bridge --config configs/bridge.yaml [--env .env]
//
// Exit codes:
//
//	0 - stopped by SIGINT/SIGTERM
//	1 - configuration or setup error
//	2 - terminal connection failed (after the startup cooldown)
//	3 - unexpected failure in the poll loop (after the failure cooldown)
//	4 - forced exit, shutdown did not finish within bridge.shutdown_timeout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rickgao/mt-bridge/internal/auth"
	"github.com/rickgao/mt-bridge/internal/bridge"
	"github.com/rickgao/mt-bridge/internal/config"
	"github.com/rickgao/mt-bridge/internal/database"
	"github.com/rickgao/mt-bridge/internal/logging"
	"github.com/rickgao/mt-bridge/internal/terminal"
	"github.com/rickgao/mt-bridge/internal/version"
	"github.com/rickgao/mt-bridge/internal/writer"
)

const (
	exitOK = iota
	exitSetup
	exitConnectionFailed
	exitUnexpected
	exitForced
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/bridge.yaml", "path to config file")
	envPath := flag.String("env", "", "optional .env file loaded before the config")
	flag.Parse()

	// Console-only logger until the configured one exists
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *envPath != "" {
		if err := config.LoadEnvFile(*envPath); err != nil {
			logger.Error("failed to load env file", "error", err)
			return exitSetup
		}
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitSetup
	}

	appLogger, logCloser, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		logger.Error("failed to set up logging", "error", err)
		return exitSetup
	}
	defer logCloser.Close()

	runID := uuid.New()
	logger = appLogger.With("run_id", runID.String())
	slog.SetDefault(logger)

	logger.Info("starting bridge",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"symbol", cfg.Instrument.Symbol,
		"output", cfg.Output.Path,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals. After a signal the loop gets
	// shutdown_timeout to close the session before the process is killed.
	// A second signal gets the default handling and kills the process.
	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			signal.Stop(sigCh)
			cancel()
		case <-done:
			return
		}

		select {
		case <-done:
		case <-time.After(cfg.Bridge.ShutdownTimeout):
			logger.Error("shutdown timed out, forcing exit",
				"timeout", cfg.Bridge.ShutdownTimeout,
			)
			os.Exit(exitForced)
		}
	}()

	client, err := newTerminalClient(cfg, runID, logger)
	if err != nil {
		logger.Error("failed to create terminal client", "error", err)
		return exitSetup
	}

	writers, err := newWriters(ctx, cfg, runID, logger)
	if err != nil {
		logger.Error("failed to set up writers", "error", err)
		return exitSetup
	}
	fanout := writer.NewFanout(logger, writers...)
	defer func() {
		if err := fanout.Close(); err != nil {
			logger.Warn("failed to close writers", "error", err)
		}
	}()

	b := bridge.New(bridge.Config{
		Symbol:          cfg.Instrument.Symbol,
		Interval:        cfg.Bridge.PollInterval,
		StartupCooldown: cfg.Bridge.StartupCooldown,
		FailureCooldown: cfg.Bridge.FailureCooldown,
		CallTimeout:     cfg.Bridge.CallTimeout(),
	}, client, fanout, logger)

	runErr := b.Run(ctx)

	stats := b.Stats()
	logger.Info("bridge stopped",
		"cycles", stats.Cycles,
		"snapshots", stats.Snapshots,
		"skipped", stats.Skipped,
		"persist_failures", stats.PersistFailures,
	)
	for name, m := range fanout.Stats() {
		logger.Debug("writer stats",
			"writer", name,
			"writes", m.Writes,
			"errors", m.Errors,
		)
	}

	code := exitCode(runErr)
	switch code {
	case exitConnectionFailed:
		logger.Error("exiting: terminal connection failed", "error", runErr)
	case exitUnexpected:
		logger.Error("exiting: unexpected failure", "error", runErr)
	}
	return code
}

// exitCode maps the loop result to the process exit code.
func exitCode(runErr error) int {
	switch {
	case runErr == nil:
		return exitOK
	case errors.Is(runErr, bridge.ErrConnectionFailed):
		return exitConnectionFailed
	default:
		return exitUnexpected
	}
}

// newTerminalClient creates the gateway client, signing requests when a
// private key is configured.
func newTerminalClient(cfg *config.BridgeConfig, runID uuid.UUID, logger *slog.Logger) (*terminal.Client, error) {
	opts := []terminal.ClientOption{
		terminal.WithLogger(logger),
		terminal.WithTimeout(cfg.Terminal.Timeout),
		terminal.WithRetries(cfg.Terminal.Retries(), 500*time.Millisecond),
		terminal.WithSessionID(runID.String()),
		terminal.WithAccount(cfg.Terminal.Login, cfg.Terminal.Password, cfg.Terminal.Server),
	}

	if cfg.Terminal.PrivateKeyPath != "" {
		creds, err := auth.LoadCredentials(cfg.Terminal.APIKey, cfg.Terminal.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		opts = append(opts, terminal.WithSigner(creds))
	}

	return terminal.NewClient(cfg.Terminal.URL, cfg.Terminal.APIKey, opts...), nil
}

// newWriters builds the file writer and any enabled mirrors, in write order.
func newWriters(ctx context.Context, cfg *config.BridgeConfig, runID uuid.UUID, logger *slog.Logger) ([]writer.Writer, error) {
	file := writer.NewFileWriter(cfg.Output.Path, cfg.Output.Key, cfg.Output.AtomicWrites())
	logger.Info("file output enabled",
		"path", file.Path(),
		"atomic", cfg.Output.AtomicWrites(),
	)
	writers := []writer.Writer{file}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			rdb.Close()
			closeAll(writers)
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}

		logger.Info("redis mirror enabled", "addr", cfg.Redis.Addr)
		writers = append(writers, writer.NewRedisWriter(rdb, writer.RedisOptions{
			Key:           cfg.Output.Key,
			KeyPrefix:     cfg.Redis.KeyPrefix,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
			TTL:           cfg.Redis.TTL,
		}))
	}

	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			closeAll(writers)
			return nil, err
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			closeAll(writers)
			return nil, err
		}

		logger.Info("database mirror enabled")
		writers = append(writers, writer.NewPostgresWriter(pool, cfg.Output.Key, runID, pool.Close))
	}

	return writers, nil
}

func closeAll(writers []writer.Writer) {
	for _, w := range writers {
		w.Close()
	}
}
