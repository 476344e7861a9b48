package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/mt-bridge/internal/model"
)

// RedisOptions configures a RedisWriter.
type RedisOptions struct {
	Key           string        // document key, also the suffix of the Redis key
	KeyPrefix     string        // e.g. "quote:"
	ChannelPrefix string        // e.g. "quotes."; channel is prefix + symbol
	TTL           time.Duration // expiry of the cached document, 0 = no expiry
}

// RedisWriter mirrors the latest document into Redis and notifies subscribers.
type RedisWriter struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisWriter creates a RedisWriter. The writer owns client and closes it.
func NewRedisWriter(client *redis.Client, opts RedisOptions) *RedisWriter {
	return &RedisWriter{client: client, opts: opts}
}

// Name implements Writer.
func (w *RedisWriter) Name() string { return "redis" }

// RedisKey returns the key the document is stored under.
func (w *RedisWriter) RedisKey() string { return w.opts.KeyPrefix + w.opts.Key }

// Channel returns the pub/sub channel for symbol.
func (w *RedisWriter) Channel(symbol string) string { return w.opts.ChannelPrefix + symbol }

// Write implements Writer. SET and PUBLISH go out in one MULTI/EXEC.
func (w *RedisWriter) Write(ctx context.Context, snap model.Snapshot) error {
	payload, err := json.Marshal(model.Document(w.opts.Key, snap))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, w.RedisKey(), payload, w.opts.TTL)
	pipe.Publish(ctx, w.Channel(snap.Symbol), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis exec: %w", err)
	}
	return nil
}

// Close implements Writer.
func (w *RedisWriter) Close() error {
	return w.client.Close()
}
