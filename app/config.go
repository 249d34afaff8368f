package app

import (
	"fmt"
	"strings"

	"github.com/kbukum/audiopen/artifact"
	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/config"
	"github.com/kbukum/audiopen/database"
	"github.com/kbukum/audiopen/diagnostics"
	"github.com/kbukum/audiopen/observability"
	"github.com/kbukum/audiopen/redis"
	"github.com/kbukum/audiopen/storage"
	"github.com/kbukum/audiopen/storage/local"
	"github.com/kbukum/audiopen/storage/s3"
	"github.com/kbukum/audiopen/storage/supabase"
	"github.com/kbukum/audiopen/transcription"
	"github.com/kbukum/audiopen/validation"
)

// Catalog and prompt backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config is the complete application configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Supabase      supabase.Config      `yaml:"supabase" mapstructure:"supabase"`
	Storage       StorageConfig        `yaml:"storage" mapstructure:"storage"`
	Catalog       CatalogConfig        `yaml:"catalog" mapstructure:"catalog"`
	Database      database.Config      `yaml:"database" mapstructure:"database"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Capture       capture.Config       `yaml:"capture" mapstructure:"capture"`
	Artifact      artifact.Config      `yaml:"artifact" mapstructure:"artifact"`
	Diagnostics   diagnostics.Config   `yaml:"diagnostics" mapstructure:"diagnostics"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// StorageConfig selects the object store and carries each provider's settings.
// The supabase provider reads the top-level supabase section.
type StorageConfig struct {
	storage.Config `yaml:",inline" mapstructure:",squash"`

	S3    s3.Config    `yaml:"s3" mapstructure:"s3"`
	Local local.Config `yaml:"local" mapstructure:"local"`
}

// CatalogConfig selects where recordings and user prompts are kept.
type CatalogConfig struct {
	// Backend is memory, sqlite or supabase. It defaults to supabase when
	// a project URL is configured and to sqlite otherwise.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory sqlite supabase"`
}

// ApplyDefaults fills every section. Derived settings follow the selected
// backends: the sqlite catalog enables the database with migrations, and
// the transcription endpoint defaults to the project's functions URL.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Supabase.ApplyDefaults()
	c.Storage.Config.ApplyDefaults()
	c.Storage.Enabled = true

	if c.Catalog.Backend == "" {
		c.Catalog.Backend = BackendSQLite
		if c.Supabase.URL != "" {
			c.Catalog.Backend = BackendSupabase
		}
	}
	if c.Catalog.Backend == BackendSQLite {
		c.Database.Enabled = true
		c.Database.AutoMigrate = true
	}
	c.Database.ApplyDefaults()

	if c.Artifact.Cache == artifact.CacheRedis {
		c.Redis.Enabled = true
	}
	c.Redis.ApplyDefaults()

	if c.Transcription.FunctionsURL == "" && c.Supabase.URL != "" {
		c.Transcription.FunctionsURL = strings.TrimRight(c.Supabase.URL, "/") + "/functions/v1"
		if !c.Transcription.TLS.IsEnabled() {
			c.Transcription.TLS = c.Supabase.TLS
		}
	}
	c.Transcription.ApplyDefaults()
	c.Capture.ApplyDefaults()
	c.Artifact.ApplyDefaults()
	c.Diagnostics.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section that the selected backends use.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Catalog); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Config.Validate(); err != nil {
		return err
	}
	switch c.Storage.Provider {
	case storage.ProviderS3:
		if err := c.Storage.S3.Validate(); err != nil {
			return err
		}
	case storage.ProviderLocal:
		if err := c.Storage.Local.Validate(); err != nil {
			return err
		}
	}
	if c.usesSupabase() {
		if err := c.Supabase.Validate(); err != nil {
			return err
		}
	}
	if c.Database.Enabled {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.Redis.Enabled {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.Transcription.FunctionsURL != "" {
		if err := c.Transcription.Validate(); err != nil {
			return err
		}
	}
	if err := c.Capture.Validate(); err != nil {
		return err
	}
	if err := c.Artifact.Validate(); err != nil {
		return err
	}
	if err := c.Diagnostics.Validate(); err != nil {
		return fmt.Errorf("diagnostics: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

func (c *Config) usesSupabase() bool {
	return c.Storage.Provider == storage.ProviderSupabase || c.Catalog.Backend == BackendSupabase
}
