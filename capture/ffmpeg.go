package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/process"
)

// FFmpegDevice captures the microphone by running ffmpeg and reading
// opus-in-webm from its stdout.
type FFmpegDevice struct {
	cfg Config
	log *logger.Logger
}

// NewFFmpegDevice creates a device from cfg.
func NewFFmpegDevice(cfg Config, log *logger.Logger) *FFmpegDevice {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &FFmpegDevice{cfg: cfg, log: log.WithComponent("capture.ffmpeg")}
}

// Args returns the ffmpeg arguments for a capture.
func (d *FFmpegDevice) Args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", d.cfg.InputFormat,
		"-i", d.cfg.InputDevice,
		"-ac", "1",
		"-c:a", "libopus", "-b:a", d.cfg.Bitrate,
		"-f", "webm",
		"pipe:1",
	}
}

// Open starts ffmpeg and returns once the first encoded bytes arrive.
func (d *FFmpegDevice) Open(ctx context.Context) (Stream, error) {
	h, err := process.Start(process.Command{
		Binary:      d.cfg.FFmpegPath,
		Args:        d.Args(),
		GracePeriod: d.cfg.stopTimeout(),
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrDeviceUnavailable, d.cfg.FFmpegPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s := &ffmpegStream{
		h:        h,
		chunks:   make(chan []byte, 64),
		ready:    make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go s.read(d.cfg.ChunkSize)

	timer := time.NewTimer(d.cfg.startupTimeout())
	defer timer.Stop()

	select {
	case <-s.ready:
		d.log.Debug("ffmpeg capture running", logger.Fields("pid", h.Pid(), "input", d.cfg.InputFormat+":"+d.cfg.InputDevice))
		return s, nil
	case <-h.Done():
		<-s.readDone
		select {
		case <-s.ready:
			// produced audio and exited; the stream holds what it wrote
			return s, nil
		default:
		}
		return nil, classifyStartup(h.Stderr(), h.Err())
	case <-timer.C:
		_ = s.Close()
		return nil, fmt.Errorf("%w: no audio within %s", ErrDeviceUnavailable, d.cfg.startupTimeout())
	case <-ctx.Done():
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, ctx.Err())
	}
}

// Probe runs "ffmpeg -version" and returns its first line.
func (d *FFmpegDevice) Probe(ctx context.Context) (string, error) {
	res, err := process.Run(ctx, process.Command{Binary: d.cfg.FFmpegPath, Args: []string{"-hide_banner", "-version"}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return res.FirstLine(), nil
}

var permissionMarkers = []string{"permission denied", "not authorized", "operation not permitted", "access denied"}

func classifyStartup(stderr string, exitErr error) error {
	msg := strings.TrimSpace(stderr)
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	if msg == "" && exitErr != nil {
		msg = exitErr.Error()
	}
	lower := strings.ToLower(stderr)
	for _, m := range permissionMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		}
	}
	return fmt.Errorf("%w: %s", ErrDeviceUnavailable, msg)
}

type ffmpegStream struct {
	h        *process.Handle
	chunks   chan []byte
	ready    chan struct{}
	readDone chan struct{}
	once     sync.Once
}

func (s *ffmpegStream) read(size int) {
	defer close(s.readDone)
	defer close(s.chunks)

	var readyOnce sync.Once
	buf := make([]byte, size)
	for {
		n, err := s.h.Stdout().Read(buf)
		if n > 0 {
			s.chunks <- bytes.Clone(buf[:n])
			readyOnce.Do(func() { close(s.ready) })
		}
		if err != nil {
			// io.EOF once ffmpeg exits
			return
		}
	}
}

func (s *ffmpegStream) Chunks() <-chan []byte { return s.chunks }
func (s *ffmpegStream) MediaType() string     { return DefaultMediaType }
func (s *ffmpegStream) Pause() error          { return s.h.Suspend() }
func (s *ffmpegStream) Resume() error         { return s.h.Continue() }

func (s *ffmpegStream) Close() error {
	var err error
	s.once.Do(func() {
		err = s.h.Stop()
	})
	return err
}
