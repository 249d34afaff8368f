package supabase

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/audiopen/security"
)

// Config holds Supabase Storage settings.
type Config struct {
	// URL is the Supabase project URL (e.g., https://xyz.supabase.co).
	URL string `yaml:"url" mapstructure:"url"`

	// AnonKey is the project's public anon key, sent as the apikey header.
	AnonKey string `yaml:"anon_key" mapstructure:"anon_key"`

	// ServiceKey, when set, replaces the user token. Only for trusted tooling.
	ServiceKey string `yaml:"service_key" mapstructure:"service_key"`

	// Timeout bounds each storage request. Audio uploads can be large.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS customizes certificate verification for self-hosted projects.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Token returns the signed-in user's access token for row-level security.
	Token func() string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}

// Validate checks that the Supabase configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("supabase: url is required"))
	} else if u, err := url.Parse(c.URL); err != nil || u.Scheme != "https" && u.Scheme != "http" {
		errs = append(errs, fmt.Errorf("supabase: invalid url %q", c.URL))
	}
	if c.AnonKey == "" && c.ServiceKey == "" {
		errs = append(errs, errors.New("supabase: anon_key or service_key is required"))
	}
	if err := c.TLS.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("supabase: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
