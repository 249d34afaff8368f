package capture

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kbukum/audiopen/validation"
)

// Device kinds.
const (
	DeviceFFmpeg    = "ffmpeg"
	DeviceSynthetic = "synthetic"
)

// Config configures the capture engine and its device.
type Config struct {
	// Device selects the audio source: ffmpeg or synthetic.
	Device string `yaml:"device" mapstructure:"device" validate:"oneof=ffmpeg synthetic"`

	// FFmpegPath is the ffmpeg binary.
	FFmpegPath string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`

	// InputFormat is the ffmpeg demuxer (avfoundation, pulse, alsa, dshow).
	InputFormat string `yaml:"input_format" mapstructure:"input_format"`

	// InputDevice is the device name passed to -i.
	InputDevice string `yaml:"input_device" mapstructure:"input_device"`

	// Bitrate is the opus bitrate passed to -b:a.
	Bitrate string `yaml:"bitrate" mapstructure:"bitrate"`

	// TickInterval is the period of the advisory elapsed-time tick (e.g. "100ms").
	TickInterval string `yaml:"tick_interval" mapstructure:"tick_interval" validate:"duration"`

	// StartupTimeout bounds how long Start waits for the first audio bytes.
	StartupTimeout string `yaml:"startup_timeout" mapstructure:"startup_timeout" validate:"duration"`

	// StopTimeout bounds how long Stop waits for the device to flush.
	StopTimeout string `yaml:"stop_timeout" mapstructure:"stop_timeout" validate:"duration"`

	// ChunkSize is the read size for device output in bytes.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
}

// ApplyDefaults sets platform defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Device == "" {
		c.Device = DeviceFFmpeg
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if c.InputFormat == "" || c.InputDevice == "" {
		format, device := defaultInput(runtime.GOOS)
		if c.InputFormat == "" {
			c.InputFormat = format
		}
		if c.InputDevice == "" {
			c.InputDevice = device
		}
	}
	if c.Bitrate == "" {
		c.Bitrate = "64k"
	}
	if c.TickInterval == "" {
		c.TickInterval = "100ms"
	}
	if c.StartupTimeout == "" {
		c.StartupTimeout = "5s"
	}
	if c.StopTimeout == "" {
		c.StopTimeout = "5s"
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 16 * 1024
	}
}

// Validate checks the device kind and durations.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	return nil
}

func (c *Config) tickInterval() time.Duration   { return parseOr(c.TickInterval, 100*time.Millisecond) }
func (c *Config) startupTimeout() time.Duration { return parseOr(c.StartupTimeout, 5*time.Second) }
func (c *Config) stopTimeout() time.Duration    { return parseOr(c.StopTimeout, 5*time.Second) }

func parseOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func defaultInput(goos string) (format, device string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":default"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}
