package capture

import (
	"context"
	"errors"

	"github.com/kbukum/audiopen/logger"
)

var (
	// ErrPermissionDenied is returned by Device.Open when the platform
	// refuses microphone access.
	ErrPermissionDenied = errors.New("capture: microphone permission denied")
	// ErrDeviceUnavailable is returned by Device.Open when no input can be opened.
	ErrDeviceUnavailable = errors.New("capture: audio device unavailable")
)

// Device opens exclusive audio input streams.
type Device interface {
	// Open starts capturing. It returns once audio is flowing or fails with
	// an error wrapping ErrPermissionDenied or ErrDeviceUnavailable.
	Open(ctx context.Context) (Stream, error)
}

// Stream is one open capture. Fragments arrive on Chunks in container
// order; the channel is closed after Close or when the source ends.
type Stream interface {
	Chunks() <-chan []byte
	// MediaType is the container type of the concatenated fragments.
	MediaType() string
	// Pause suspends emission at the source.
	Pause() error
	// Resume continues emission after Pause.
	Resume() error
	// Close flushes and releases the device. It is safe to call twice.
	Close() error
}

// DeviceFunc adapts a function to Device.
type DeviceFunc func(ctx context.Context) (Stream, error)

// Open implements Device.
func (f DeviceFunc) Open(ctx context.Context) (Stream, error) { return f(ctx) }

// NewDevice builds the device selected by cfg.Device.
func NewDevice(cfg Config, log *logger.Logger) Device {
	cfg.ApplyDefaults()
	if cfg.Device == DeviceSynthetic {
		return &SyntheticDevice{Interval: cfg.tickInterval()}
	}
	return NewFFmpegDevice(cfg, log)
}
