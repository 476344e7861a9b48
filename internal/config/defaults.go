package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSymbol             = "XAUUSD"
	DefaultOutputPath         = "data/mt_prices.json"
	DefaultOutputKey          = "broker_xau_usd"
	DefaultPollInterval       = 5 * time.Second
	DefaultStartupCooldown    = 60 * time.Second
	DefaultFailureCooldown    = 10 * time.Second
	DefaultShutdownTimeout    = 15 * time.Second
	DefaultTerminalURL        = "http://127.0.0.1:8228"
	DefaultTerminalTimeout    = 5 * time.Second
	DefaultTerminalMaxRetries = 2
	DefaultLogLevel           = "info"
	DefaultLogFile            = "logs/mt_bridge.log"
	DefaultLogFormat          = "text"
	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisTTL           = time.Minute
	DefaultRedisKeyPrefix     = "quote:"
	DefaultRedisChannelPrefix = "quotes."
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 2
	DefaultMinConns           = 1
)

// ApplyDefaults fills every unset optional field.
func (c *BridgeConfig) ApplyDefaults() {
	if c.Instrument.Symbol == "" {
		c.Instrument.Symbol = DefaultSymbol
	}

	// Output defaults
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutputPath
	}
	if c.Output.Key == "" {
		c.Output.Key = DefaultOutputKey
	}

	// Loop defaults
	if c.Bridge.PollInterval == 0 {
		c.Bridge.PollInterval = DefaultPollInterval
	}
	if c.Bridge.StartupCooldown == 0 {
		c.Bridge.StartupCooldown = DefaultStartupCooldown
	}
	if c.Bridge.FailureCooldown == 0 {
		c.Bridge.FailureCooldown = DefaultFailureCooldown
	}
	if c.Bridge.ShutdownTimeout == 0 {
		c.Bridge.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Terminal defaults
	if c.Terminal.URL == "" {
		c.Terminal.URL = DefaultTerminalURL
	}
	if c.Terminal.Timeout == 0 {
		c.Terminal.Timeout = DefaultTerminalTimeout
	}
	if c.Terminal.MaxRetries == nil {
		retries := DefaultTerminalMaxRetries
		c.Terminal.MaxRetries = &retries
	}

	// Logging defaults. The file sink is on unless explicitly set to "-".
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			c.Redis.Addr = DefaultRedisAddr
		}
		if c.Redis.TTL == 0 {
			c.Redis.TTL = DefaultRedisTTL
		}
		if c.Redis.KeyPrefix == "" {
			c.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
		if c.Redis.ChannelPrefix == "" {
			c.Redis.ChannelPrefix = DefaultRedisChannelPrefix
		}
	}

	if c.Database.Enabled {
		applyDBDefaults(&c.Database)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
