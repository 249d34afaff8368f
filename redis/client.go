package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/audiopen/logger"
)

// Client is the small slice of go-redis the URL cache needs.
type Client struct {
	rdb       *goredis.Client
	log       *logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and opens a client. No connection is made until the
// first command.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if !cfg.Enabled {
		return nil, errors.New("redis: disabled")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Debug("redis client created", logger.Fields("addr", opts.Addr, "db", opts.DB, "tls", opts.TLSConfig != nil))
	return &Client{rdb: goredis.NewClient(opts), log: log}, nil
}

// Addr is the server address in use.
func (c *Client) Addr() string { return c.rdb.Options().Addr }

// Ping round-trips a PING.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping %s: %w", c.Addr(), err)
	}
	return nil
}

// IsNil reports whether err means the key was missing.
func IsNil(err error) bool { return errors.Is(err, goredis.Nil) }

// Get returns the string at key. Check a missing key with IsNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value at key. A zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Exists counts how many of keys are present.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Exists(ctx, keys...).Result()
}

// Close releases the pool. Later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() { c.closeErr = c.rdb.Close() })
	return c.closeErr
}
