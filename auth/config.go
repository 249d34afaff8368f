package auth

import (
	"fmt"

	"github.com/kbukum/audiopen/auth/jwt"
)

// Config holds the session configuration.
type Config struct {
	// AccessToken is the user's backend access token (a JWT).
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`

	// TokenFile is read when AccessToken is empty.
	TokenFile string `yaml:"token_file" mapstructure:"token_file"`

	// JWT configures token decoding. Without a secret tokens are decoded
	// but not verified, which is how the client side of the backend works.
	JWT jwt.Config `yaml:"jwt" mapstructure:"jwt"`
}

// ApplyDefaults sets sensible defaults.
func (c *Config) ApplyDefaults() {
	c.JWT.ApplyDefaults()
}

// Validate checks the JWT configuration.
func (c *Config) Validate() error {
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("auth.jwt: %w", err)
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
func (c *Config) Describe() string {
	mode := "unverified"
	if c.JWT.Verifying() {
		mode = "verified " + string(c.JWT.Method)
	}
	switch {
	case c.AccessToken != "":
		return "token=config " + mode
	case c.TokenFile != "":
		return "token=" + c.TokenFile + " " + mode
	default:
		return "anonymous"
	}
}
