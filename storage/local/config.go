package local

import (
	"errors"
	"fmt"
	"net/url"
)

// DefaultBasePath is where objects land when no path is configured.
const DefaultBasePath = "./data/storage"

// Config holds filesystem storage settings.
type Config struct {
	// BasePath is the root directory objects are written under.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// PublicURL is the externally reachable origin that serves Handler,
	// e.g. https://files.dev.example.com.
	PublicURL string `yaml:"public_url" mapstructure:"public_url"`

	// SigningKey keys the HMAC over signed URLs.
	SigningKey string `yaml:"signing_key" mapstructure:"signing_key"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath == "" {
		return errors.New("local: base_path is required")
	}
	if c.PublicURL == "" {
		return errors.New("local: public_url is required")
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Host == "" {
		return fmt.Errorf("local: invalid public_url %q", c.PublicURL)
	}
	if len(c.SigningKey) < 16 {
		return errors.New("local: signing_key must be at least 16 bytes")
	}
	return nil
}
