package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *BridgeConfig) Validate() error {
	if strings.TrimSpace(c.Instrument.Symbol) == "" {
		return errors.New("instrument.symbol is required")
	}

	if c.Output.Path == "" {
		return errors.New("output.path is required")
	}
	if c.Output.Key == "" {
		return errors.New("output.key is required")
	}

	if c.Bridge.PollInterval <= 0 {
		return errors.New("bridge.poll_interval must be > 0")
	}
	if c.Bridge.StartupCooldown <= c.Bridge.PollInterval {
		return fmt.Errorf("bridge.startup_cooldown (%s) must exceed bridge.poll_interval (%s)",
			c.Bridge.StartupCooldown, c.Bridge.PollInterval)
	}
	if c.Bridge.FailureCooldown <= 0 {
		return errors.New("bridge.failure_cooldown must be > 0")
	}
	if c.Bridge.ShutdownTimeout <= 0 {
		return errors.New("bridge.shutdown_timeout must be > 0")
	}

	if err := c.Terminal.validate(); err != nil {
		return err
	}
	if c.Bridge.CallTimeout() < c.Terminal.Timeout {
		return fmt.Errorf("bridge.shutdown_timeout (%s) must be at least 2.5x terminal.timeout (%s)",
			c.Bridge.ShutdownTimeout, c.Terminal.Timeout)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	return nil
}

func (t *TerminalConfig) validate() error {
	u, err := url.Parse(t.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("terminal.url must be an absolute URL, got %q", t.URL)
	}
	if t.Timeout <= 0 {
		return errors.New("terminal.timeout must be > 0")
	}
	if t.MaxRetries != nil && *t.MaxRetries < 0 {
		return errors.New("terminal.max_retries must be >= 0")
	}
	if t.PrivateKeyPath != "" && t.APIKey == "" {
		return errors.New("terminal.api_key is required when terminal.private_key_path is set")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
