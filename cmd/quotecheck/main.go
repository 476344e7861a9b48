// quotecheck connects to the trading terminal, reads one quote and prints the
// document the bridge would write. Nothing is persisted.
// Usage: go run ./cmd/quotecheck --config configs/bridge.yaml [--symbol XAUUSD]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/mt-bridge/internal/auth"
	"github.com/rickgao/mt-bridge/internal/bridge"
	"github.com/rickgao/mt-bridge/internal/config"
	"github.com/rickgao/mt-bridge/internal/logging"
	"github.com/rickgao/mt-bridge/internal/model"
	"github.com/rickgao/mt-bridge/internal/terminal"
)

func main() {
	configPath := flag.String("config", "configs/bridge.yaml", "path to config file")
	envPath := flag.String("env", "", "optional .env file loaded before the config")
	symbol := flag.String("symbol", "", "override instrument.symbol")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	if *envPath != "" {
		if err := config.LoadEnvFile(*envPath); err != nil {
			fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *symbol != "" {
		cfg.Instrument.Symbol = *symbol
	}

	// Logs go to stderr so stdout carries only the document
	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	logger, _, err := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   logging.DisabledFile,
		Stdout: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "set up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := check(ctx, cfg, logger); err != nil {
		logger.Error("quote check failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func check(ctx context.Context, cfg *config.BridgeConfig, logger *slog.Logger) error {
	opts := []terminal.ClientOption{
		terminal.WithLogger(logger),
		terminal.WithTimeout(cfg.Terminal.Timeout),
		terminal.WithRetries(cfg.Terminal.Retries(), 500*time.Millisecond),
		terminal.WithAccount(cfg.Terminal.Login, cfg.Terminal.Password, cfg.Terminal.Server),
	}
	if cfg.Terminal.PrivateKeyPath != "" {
		creds, err := auth.LoadCredentials(cfg.Terminal.APIKey, cfg.Terminal.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		opts = append(opts, terminal.WithSigner(creds))
	}
	client := terminal.NewClient(cfg.Terminal.URL, cfg.Terminal.APIKey, opts...)

	if err := client.Initialize(ctx); err != nil {
		return fmt.Errorf("%w: %w", bridge.ErrConnectionFailed, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Terminal.Timeout)
		defer cancel()
		if err := client.Shutdown(shutdownCtx); err != nil {
			logger.Warn("terminal shutdown failed", "error", err)
		}
	}()

	info := client.Info()
	logger.Info("connected to terminal",
		"terminal", info.Name,
		"company", info.Company,
		"build", info.Build,
		"server", info.Server,
	)

	b := bridge.New(bridge.Config{
		Symbol:      cfg.Instrument.Symbol,
		CallTimeout: cfg.Terminal.Timeout * time.Duration(cfg.Terminal.Retries()+1),
	}, client, nil, logger)

	snap, err := b.Fetch(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(model.Document(cfg.Output.Key, snap))
}
