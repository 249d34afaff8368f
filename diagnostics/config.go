package diagnostics

import "github.com/kbukum/audiopen/server"

// Config is the diagnostics section of the application config.
type Config struct {
	// Enabled swaps the Nop sink for a Recorder.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// BufferSize is the number of events retained.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
	// Server configures the debug panel listener.
	Server server.Config `yaml:"server" mapstructure:"server"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	c.Server.ApplyDefaults()
}

// Validate checks the server section.
func (c *Config) Validate() error {
	return c.Server.Validate()
}
