package config

import "time"

// BridgeConfig is the root configuration for a bridge instance.
type BridgeConfig struct {
	Instrument InstrumentConfig `yaml:"instrument"`
	Output     OutputConfig     `yaml:"output"`
	Bridge     LoopConfig       `yaml:"bridge"`
	Terminal   TerminalConfig   `yaml:"terminal"`
	Logging    LoggingConfig    `yaml:"logging"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DBConfig         `yaml:"database"`
}

// InstrumentConfig names the quoted instrument.
type InstrumentConfig struct {
	Symbol string `yaml:"symbol"`
}

// OutputConfig controls the snapshot file.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`    // Document key the snapshot is wrapped under
	Atomic *bool  `yaml:"atomic"` // Write via temp file + rename (default true)
}

// AtomicWrites reports whether the file writer should replace via rename.
func (o OutputConfig) AtomicWrites() bool {
	return o.Atomic == nil || *o.Atomic
}

// LoopConfig holds polling and cooldown timings.
type LoopConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	StartupCooldown time.Duration `yaml:"startup_cooldown"` // Wait before exiting when initialize fails
	FailureCooldown time.Duration `yaml:"failure_cooldown"` // Wait before exiting on an unexpected failure, > 0
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Bound on waiting for the current cycle after a signal
}

// CallTimeout bounds a single terminal call made by the loop. An in-flight
// call and the closing Shutdown call together take at most 4/5 of
// ShutdownTimeout, leaving the rest for writer teardown.
func (l LoopConfig) CallTimeout() time.Duration {
	return l.ShutdownTimeout * 2 / 5
}

// TerminalConfig holds trading terminal gateway settings.
type TerminalConfig struct {
	URL            string        `yaml:"url"`
	APIKey         string        `yaml:"api_key"`          // Bearer token / signing key ID
	PrivateKeyPath string        `yaml:"private_key_path"` // Optional RSA key for request signing
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     *int          `yaml:"max_retries"` // 0 disables retries (default 2)

	// Terminal account, forwarded on initialize. Empty means use the terminal's current login.
	Login    int64  `yaml:"login"`
	Password string `yaml:"password"`
	Server   string `yaml:"server"`
}

// Retries returns the configured retry count for idempotent gateway reads.
func (t TerminalConfig) Retries() int {
	if t.MaxRetries == nil {
		return DefaultTerminalMaxRetries
	}
	return *t.MaxRetries
}

// LoggingConfig holds log sink settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // "-" disables the file sink
	Format string `yaml:"format"` // text or json
}

// RedisConfig holds the optional Redis mirror of the latest snapshot.
type RedisConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	TTL           time.Duration `yaml:"ttl"`
	KeyPrefix     string        `yaml:"key_prefix"`
	ChannelPrefix string        `yaml:"channel_prefix"`
}

// DBConfig holds the optional PostgreSQL mirror of the latest snapshot.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
