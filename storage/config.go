package storage

import (
	"fmt"
)

// Provider constants for supported storage backends.
const (
	ProviderMemory   = "memory"
	ProviderLocal    = "local"
	ProviderS3       = "s3"
	ProviderSupabase = "supabase"
)

// Default configuration values.
const (
	DefaultProvider    = ProviderSupabase
	DefaultBucket      = "audio-recordings"
	DefaultMaxFileSize = int64(100 * 1024 * 1024) // 100 MB
)

// Config holds the backend-independent storage settings. Provider specific
// settings live in each backend's own Config and are passed alongside.
type Config struct {
	// Provider selects the storage backend.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Bucket is the bucket recordings are written to.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`

	// MaxFileSize rejects larger uploads before any bytes leave the process.
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"`

	// Enabled controls whether the storage component is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory, ProviderLocal, ProviderS3, ProviderSupabase:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.Bucket == "" {
		return fmt.Errorf("storage: bucket is required")
	}
	return nil
}
