package artifact

import (
	"fmt"
	"time"

	"github.com/kbukum/audiopen/validation"
)

// Cache kinds for signed playback URLs.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// DefaultSignedURLTTL is the lifetime of issued URLs.
const DefaultSignedURLTTL = time.Hour

// Config configures the artifact gateway.
type Config struct {
	// SignedURLTTL is the lifetime of issued signed URLs (e.g. "1h").
	SignedURLTTL string `yaml:"signed_url_ttl" mapstructure:"signed_url_ttl" validate:"duration"`

	// CacheMargin is subtracted from a URL's expiry before a cached URL
	// is considered stale.
	CacheMargin string `yaml:"cache_margin" mapstructure:"cache_margin" validate:"duration"`

	// Cache selects where playback URLs are cached: none, memory or redis.
	Cache string `yaml:"cache" mapstructure:"cache" validate:"oneof=none memory redis"`

	// CachePrefix namespaces redis keys.
	CachePrefix string `yaml:"cache_prefix" mapstructure:"cache_prefix"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SignedURLTTL == "" {
		c.SignedURLTTL = "1h"
	}
	if c.CacheMargin == "" {
		c.CacheMargin = "5m"
	}
	if c.Cache == "" {
		c.Cache = CacheMemory
	}
	if c.CachePrefix == "" {
		c.CachePrefix = "audiopen:signed-url"
	}
}

// Validate checks durations and the cache kind.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if c.ttl() <= c.margin() {
		return fmt.Errorf("artifact: cache_margin (%s) must be shorter than signed_url_ttl (%s)", c.CacheMargin, c.SignedURLTTL)
	}
	return nil
}

func (c *Config) ttl() time.Duration {
	d, err := time.ParseDuration(c.SignedURLTTL)
	if err != nil || d <= 0 {
		return DefaultSignedURLTTL
	}
	return d
}

func (c *Config) margin() time.Duration {
	d, err := time.ParseDuration(c.CacheMargin)
	if err != nil || d < 0 {
		return 5 * time.Minute
	}
	return d
}
