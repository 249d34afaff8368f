package app

import (
	"time"

	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	session         auth.Provider
	device          capture.Device
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. If not set, the logger is built from
// the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithSession replaces the session built from the auth section.
func WithSession(p auth.Provider) Option {
	return func(o *appOptions) { o.session = p }
}

// WithDevice replaces the capture device selected by the capture section.
func WithDevice(d capture.Device) Option {
	return func(o *appOptions) { o.device = d }
}

// WithGracefulTimeout sets the maximum duration for shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}
