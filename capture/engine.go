package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
)

// State is the capture session status.
type State string

// Capture states.
const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Session is a point-in-time view of the current recording session.
type Session struct {
	ID        string        `json:"id,omitempty"`
	State     State         `json:"state"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	Chunks    int           `json:"chunks"`
	Bytes     int           `json:"bytes"`
	Ref       string        `json:"ref,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for duration accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDiagnostics sets the introspection sink.
func WithDiagnostics(d diagnostics.Diagnostics) Option {
	return func(e *Engine) { e.diag = diagnostics.OrNop(d) }
}

// WithRefs shares a transient reference registry.
func WithRefs(r *Refs) Option {
	return func(e *Engine) { e.refs = r }
}

// OnTick registers fn to receive the elapsed time on every display tick.
// fn runs on the tick goroutine and may call Pause, Stop or Reset; a tick
// already being delivered can finish after one of those returns.
func OnTick(fn func(elapsed time.Duration)) Option {
	return func(e *Engine) { e.onTick = fn }
}

// Engine drives one microphone session at a time through
// idle -> recording <-> paused -> stopped.
type Engine struct {
	device Device
	cfg    Config
	log    *logger.Logger
	diag   diagnostics.Diagnostics
	now    func() time.Time
	refs   *Refs
	onTick func(time.Duration)

	// opMu serializes the public operations; mu guards the fields below,
	// which the collector and ticker goroutines also touch.
	opMu sync.Mutex
	mu   sync.Mutex

	state       State
	sessionID   string
	stream      Stream
	chunks      [][]byte
	size        int
	startedAt   time.Time
	resumedAt   time.Time
	accumulated time.Duration
	blob        *Blob

	collectorDone chan struct{}
	tickStop      chan struct{}
}

// NewEngine creates an idle engine reading from device.
func NewEngine(device Device, cfg Config, log *logger.Logger, opts ...Option) *Engine {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{
		device: device,
		cfg:    cfg,
		log:    log.WithComponent("capture"),
		diag:   diagnostics.Nop{},
		now:    time.Now,
		refs:   NewRefs(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Refs returns the registry holding the engine's transient references.
func (e *Engine) Refs() *Refs { return e.refs }

// Start opens the device and begins a new session. It is allowed from
// idle and stopped; a stopped session and its reference are discarded only
// once the device has opened.
func (e *Engine) Start(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if st := e.State(); st == StateRecording || st == StatePaused {
		return e.rejected("start", st)
	}

	stream, err := e.device.Open(ctx)
	if err != nil {
		appErr := deviceError(err)
		e.log.Warn("microphone unavailable", logger.Fields(logger.FieldError, err.Error(), "code", string(appErr.Code)))
		e.diag.Record("capture", "start_failed", map[string]any{"code": string(appErr.Code)})
		return appErr
	}

	now := e.now()
	e.mu.Lock()
	if e.blob != nil && e.blob.ref != "" {
		e.refs.Revoke(e.blob.ref)
	}
	e.state = StateRecording
	e.sessionID = uuid.NewString()
	e.stream = stream
	e.chunks = nil
	e.size = 0
	e.startedAt = now
	e.resumedAt = now
	e.accumulated = 0
	e.blob = nil
	e.collectorDone = make(chan struct{})
	e.mu.Unlock()

	go e.collect(stream, e.collectorDone)
	e.startTicker()

	e.log.Info("recording started", logger.Fields("session_id", e.sessionID, "media_type", stream.MediaType()))
	e.diag.Record("capture", "transition", map[string]any{"to": string(StateRecording), "session_id": e.sessionID})
	return nil
}

// Pause suspends the device and the tick. Only valid while recording.
func (e *Engine) Pause() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if st := e.State(); st != StateRecording {
		return e.rejected("pause", st)
	}
	if err := e.stream.Pause(); err != nil {
		e.log.Warn("device pause failed", logger.ErrorFields("pause", err))
		return apperrors.DeviceUnavailable(err)
	}
	e.stopTicker()

	e.mu.Lock()
	e.accumulated += e.now().Sub(e.resumedAt)
	e.state = StatePaused
	e.mu.Unlock()

	e.diag.Record("capture", "transition", map[string]any{"to": string(StatePaused)})
	return nil
}

// Resume continues a paused session.
func (e *Engine) Resume() error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if st := e.State(); st != StatePaused {
		return e.rejected("resume", st)
	}
	if err := e.stream.Resume(); err != nil {
		e.log.Warn("device resume failed", logger.ErrorFields("resume", err))
		return apperrors.DeviceUnavailable(err)
	}

	e.mu.Lock()
	e.resumedAt = e.now()
	e.state = StateRecording
	e.mu.Unlock()
	e.startTicker()

	e.diag.Record("capture", "transition", map[string]any{"to": string(StateRecording)})
	return nil
}

// Stop finalizes the session into one immutable Blob, releases the device
// and registers a transient reference for the blob.
func (e *Engine) Stop() (*Blob, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	st := e.State()
	if st != StateRecording && st != StatePaused {
		return nil, e.rejected("stop", st)
	}
	e.stopTicker()

	stoppedAt := e.now()
	e.mu.Lock()
	if e.state == StateRecording {
		e.accumulated += stoppedAt.Sub(e.resumedAt)
	}
	e.mu.Unlock()

	e.release()

	e.mu.Lock()
	data := make([]byte, 0, e.size)
	for _, c := range e.chunks {
		data = append(data, c...)
	}
	blob := &Blob{
		data:      data,
		mediaType: e.stream.MediaType(),
		duration:  e.accumulated,
		startedAt: e.startedAt,
		stoppedAt: stoppedAt,
	}
	blob.ref = e.refs.Register(blob)
	e.blob = blob
	e.state = StateStopped
	chunks := len(e.chunks)
	e.mu.Unlock()

	e.log.Info("recording stopped", logger.Fields(
		"session_id", e.sessionID,
		"chunks", chunks,
		"bytes", blob.Size(),
		logger.FieldDuration, blob.duration.Milliseconds(),
	))
	e.diag.Record("capture", "transition", map[string]any{
		"to": string(StateStopped), "bytes": blob.Size(), "duration_ms": blob.duration.Milliseconds(),
	})
	return blob, nil
}

// Reset discards the session from any state, releasing the device and the
// transient reference. It is idempotent.
func (e *Engine) Reset() {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if st := e.State(); st == StateRecording || st == StatePaused {
		e.stopTicker()
		e.release()
	}

	e.mu.Lock()
	if e.blob != nil && e.blob.ref != "" {
		e.refs.Revoke(e.blob.ref)
	}
	prev := e.state
	e.state = StateIdle
	e.sessionID = ""
	e.stream = nil
	e.chunks = nil
	e.size = 0
	e.startedAt = time.Time{}
	e.resumedAt = time.Time{}
	e.accumulated = 0
	e.blob = nil
	e.mu.Unlock()

	if prev != StateIdle {
		e.diag.Record("capture", "transition", map[string]any{"to": string(StateIdle), "from": string(prev)})
	}
}

// Close resets the engine; it exists so the engine can be deferred like
// any other resource.
func (e *Engine) Close() error {
	e.Reset()
	return nil
}

// State returns the current status.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Elapsed is the recorded time so far, excluding pauses.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	if e.state == StateRecording {
		return e.accumulated + e.now().Sub(e.resumedAt)
	}
	return e.accumulated
}

// Blob returns the finalized blob while the engine is stopped.
func (e *Engine) Blob() (*Blob, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateStopped || e.blob == nil {
		return nil, false
	}
	return e.blob, true
}

// Session returns a snapshot of the current session.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Session{
		ID:        e.sessionID,
		State:     e.state,
		StartedAt: e.startedAt,
		Elapsed:   e.elapsedLocked(),
		Chunks:    len(e.chunks),
		Bytes:     e.size,
	}
	if e.blob != nil {
		s.Ref = e.blob.ref
	}
	return s
}

// collect appends every fragment the stream delivers until its channel closes.
func (e *Engine) collect(stream Stream, done chan struct{}) {
	defer close(done)
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		e.mu.Lock()
		// a finalized or replaced session no longer accepts fragments
		if e.stream == stream && e.state != StateStopped {
			e.chunks = append(e.chunks, chunk)
			e.size += len(chunk)
		}
		e.mu.Unlock()
	}
}

// release closes the stream and waits for the collector to drain it.
func (e *Engine) release() {
	e.mu.Lock()
	stream, done := e.stream, e.collectorDone
	e.mu.Unlock()

	if err := stream.Close(); err != nil {
		e.log.Debug("device close reported an error", logger.ErrorFields("close", err))
	}

	timer := time.NewTimer(e.cfg.stopTimeout())
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		e.log.Warn("device did not flush before timeout; finalizing with received audio",
			logger.Fields(logger.FieldDuration, e.cfg.stopTimeout().Milliseconds()))
	}
}

func (e *Engine) startTicker() {
	if e.onTick == nil {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop

	go func() {
		ticker := time.NewTicker(e.cfg.tickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			select {
			case <-stop:
				return
			default:
				e.onTick(e.Elapsed())
			}
		}
	}()
}

// stopTicker does not wait for the tick goroutine, which may itself be
// inside onTick waiting for opMu.
func (e *Engine) stopTicker() {
	if e.tickStop == nil {
		return
	}
	close(e.tickStop)
	e.tickStop = nil
}

func (e *Engine) rejected(op string, st State) error {
	e.diag.Record("capture", "rejected", map[string]any{"operation": op, "state": string(st)})
	return apperrors.InvalidTransition(op, string(st))
}

func deviceError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, ErrPermissionDenied) {
		return apperrors.DevicePermissionDenied(err)
	}
	return apperrors.DeviceUnavailable(err)
}
