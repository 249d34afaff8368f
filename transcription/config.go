package transcription

import (
	"fmt"
	"time"

	"github.com/kbukum/audiopen/security"
	"github.com/kbukum/audiopen/validation"
)

// DefaultFunction is the name of the hosted transcription function.
const DefaultFunction = "gemini-transcribe"

// DefaultRetryAfter is suggested to callers when an overloaded backend
// does not say how long to wait.
const DefaultRetryAfter = 60 * time.Second

// Config configures the transcription RPC client.
type Config struct {
	// FunctionsURL is the functions endpoint, e.g. https://xyz.supabase.co/functions/v1.
	FunctionsURL string `yaml:"functions_url" mapstructure:"functions_url" validate:"required,url"`

	// Function is the function name appended to FunctionsURL.
	Function string `yaml:"function" mapstructure:"function" validate:"required"`

	// Timeout bounds one call. The backend uploads the audio to the model
	// before answering, so this is generous.
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"duration"`

	// RetryAfter is the wait suggested on a 503 without a hint.
	RetryAfter string `yaml:"retry_after" mapstructure:"retry_after" validate:"duration"`

	// CircuitMaxFailures is the number of consecutive 5xx or transport
	// failures that open the circuit.
	CircuitMaxFailures int `yaml:"circuit_max_failures" mapstructure:"circuit_max_failures" validate:"gte=0"`

	// CircuitOpenTimeout is how long an open circuit rejects calls.
	CircuitOpenTimeout string `yaml:"circuit_open_timeout" mapstructure:"circuit_open_timeout" validate:"duration"`

	// TLS customizes certificate verification for the functions endpoint.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Function == "" {
		c.Function = DefaultFunction
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
	if c.RetryAfter == "" {
		c.RetryAfter = "60s"
	}
	if c.CircuitMaxFailures <= 0 {
		c.CircuitMaxFailures = 3
	}
	if c.CircuitOpenTimeout == "" {
		c.CircuitOpenTimeout = "30s"
	}
}

// Validate checks the endpoint and durations.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	return nil
}

func (c *Config) timeout() time.Duration    { return parseOr(c.Timeout, 5*time.Minute) }
func (c *Config) retryAfter() time.Duration { return parseOr(c.RetryAfter, DefaultRetryAfter) }
func (c *Config) openTimeout() time.Duration {
	return parseOr(c.CircuitOpenTimeout, 30*time.Second)
}

func parseOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
