package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kbukum/audiopen/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type scriptedStream struct {
	chunks    chan []byte
	mediaType string

	mu      sync.Mutex
	paused  bool
	pauses  int
	resumes int
	closed  bool
	once    sync.Once
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{chunks: make(chan []byte, 32), mediaType: DefaultMediaType}
}

func (s *scriptedStream) Chunks() <-chan []byte { return s.chunks }
func (s *scriptedStream) MediaType() string     { return s.mediaType }

func (s *scriptedStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.pauses++
	return nil
}

func (s *scriptedStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.resumes++
	return nil
}

func (s *scriptedStream) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.chunks)
	})
	return nil
}

func (s *scriptedStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// scriptedDevice hands out the queued streams or errors in order.
type scriptedDevice struct {
	mu      sync.Mutex
	results []any
	opens   int
}

func (d *scriptedDevice) Open(context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if len(d.results) == 0 {
		return nil, ErrDeviceUnavailable
	}
	next := d.results[0]
	d.results = d.results[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next.(*scriptedStream), nil
}

func newTestEngine(t *testing.T, results ...any) (*Engine, *fakeClock, *scriptedDevice) {
	t.Helper()
	clock := newFakeClock()
	dev := &scriptedDevice{results: results}
	return NewEngine(dev, Config{StopTimeout: "1s"}, nil, WithClock(clock.Now)), clock, dev
}

func TestEngineDurationExcludesPauses(t *testing.T) {
	stream := newScriptedStream()
	eng, clock, _ := newTestEngine(t, stream)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream.chunks <- []byte("head")
	clock.Advance(3 * time.Second)

	if err := eng.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(10 * time.Second)
	if got := eng.Elapsed(); got != 3*time.Second {
		t.Errorf("expected elapsed frozen at 3s while paused, got %v", got)
	}

	if err := eng.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	stream.chunks <- []byte("-tail")
	clock.Advance(2 * time.Second)

	blob, err := eng.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if blob.Duration() != 5*time.Second {
		t.Errorf("expected duration 5s, got %v", blob.Duration())
	}
	if !bytes.Equal(blob.Bytes(), []byte("head-tail")) {
		t.Errorf("expected concatenated fragments, got %q", blob.Bytes())
	}
	if blob.MediaType() != DefaultMediaType {
		t.Errorf("expected %q, got %q", DefaultMediaType, blob.MediaType())
	}
	if !stream.isClosed() {
		t.Error("expected stream released on stop")
	}
	if stream.pauses != 1 || stream.resumes != 1 {
		t.Errorf("expected device paused and resumed once, got %d/%d", stream.pauses, stream.resumes)
	}
	if eng.State() != StateStopped {
		t.Errorf("expected stopped, got %s", eng.State())
	}
	if _, ok := eng.Refs().Resolve(blob.Ref()); !ok {
		t.Error("expected transient reference to resolve")
	}
}

func TestEngineStopWhilePaused(t *testing.T) {
	stream := newScriptedStream()
	eng, clock, _ := newTestEngine(t, stream)

	_ = eng.Start(context.Background())
	clock.Advance(4 * time.Second)
	_ = eng.Pause()
	clock.Advance(time.Minute)

	blob, err := eng.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if blob.Duration() != 4*time.Second {
		t.Errorf("expected 4s, got %v", blob.Duration())
	}
}

func TestEngineRejectsInvalidTransitions(t *testing.T) {
	stream := newScriptedStream()
	eng, _, _ := newTestEngine(t, stream)

	if err := eng.Pause(); !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION for pause while idle, got %v", err)
	}
	if _, err := eng.Stop(); !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION for stop while idle, got %v", err)
	}

	_ = eng.Start(context.Background())
	if err := eng.Resume(); !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION for resume while recording, got %v", err)
	}
	if err := eng.Start(context.Background()); !apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION for start while recording, got %v", err)
	}
	if eng.State() != StateRecording {
		t.Errorf("expected state unchanged, got %s", eng.State())
	}
}

func TestEngineDeviceFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"permission", ErrPermissionDenied, apperrors.ErrCodeDevicePermissionDenied},
		{"wrapped permission", errors.Join(errors.New("avfoundation"), ErrPermissionDenied), apperrors.ErrCodeDevicePermissionDenied},
		{"unavailable", ErrDeviceUnavailable, apperrors.ErrCodeDeviceUnavailable},
		{"unknown", errors.New("boom"), apperrors.ErrCodeDeviceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng, _, _ := newTestEngine(t, tc.err)
			err := eng.Start(context.Background())
			if !apperrors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
			if eng.State() != StateIdle {
				t.Errorf("expected idle after failed start, got %s", eng.State())
			}
		})
	}
}

func TestEngineFailedStartKeepsStoppedSession(t *testing.T) {
	stream := newScriptedStream()
	eng, _, _ := newTestEngine(t, stream, ErrPermissionDenied)

	_ = eng.Start(context.Background())
	stream.chunks <- []byte("audio")
	blob, _ := eng.Stop()

	if err := eng.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
	if eng.State() != StateStopped {
		t.Errorf("expected stopped, got %s", eng.State())
	}
	got, ok := eng.Blob()
	if !ok || got != blob {
		t.Error("expected previous blob to survive a failed start")
	}
	if _, ok := eng.Refs().Resolve(blob.Ref()); !ok {
		t.Error("expected previous reference to stay live")
	}
}

func TestEngineNewStartRevokesPreviousRef(t *testing.T) {
	first, second := newScriptedStream(), newScriptedStream()
	eng, _, _ := newTestEngine(t, first, second)

	_ = eng.Start(context.Background())
	blob, _ := eng.Stop()
	if eng.Refs().Len() != 1 {
		t.Fatalf("expected one live ref, got %d", eng.Refs().Len())
	}

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, ok := eng.Refs().Resolve(blob.Ref()); ok {
		t.Error("expected previous reference revoked")
	}
	if s := eng.Session(); s.Chunks != 0 || s.Elapsed != 0 {
		t.Errorf("expected fresh session, got %+v", s)
	}
}

func TestEngineResetIsIdempotent(t *testing.T) {
	stream := newScriptedStream()
	eng, _, _ := newTestEngine(t, stream)

	eng.Reset()
	if eng.State() != StateIdle {
		t.Fatalf("expected idle, got %s", eng.State())
	}

	_ = eng.Start(context.Background())
	stream.chunks <- []byte("x")
	eng.Reset()
	eng.Reset()

	if !stream.isClosed() {
		t.Error("expected reset to release the device")
	}
	if eng.State() != StateIdle {
		t.Errorf("expected idle, got %s", eng.State())
	}
	if eng.Refs().Len() != 0 {
		t.Errorf("expected no live refs, got %d", eng.Refs().Len())
	}
	if _, ok := eng.Blob(); ok {
		t.Error("expected no blob after reset")
	}
}

func TestEngineResetAfterStopRevokesRef(t *testing.T) {
	stream := newScriptedStream()
	eng, _, _ := newTestEngine(t, stream)

	_ = eng.Start(context.Background())
	blob, _ := eng.Stop()
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := eng.Refs().Resolve(blob.Ref()); ok {
		t.Error("expected reference revoked by reset")
	}
	// the blob itself stays usable by whoever holds it
	if blob.Size() != 0 || blob.Ref() == "" {
		t.Errorf("unexpected blob state size=%d ref=%q", blob.Size(), blob.Ref())
	}
}

func TestEngineTicks(t *testing.T) {
	stream := newScriptedStream()
	ticks := make(chan time.Duration, 16)
	eng := NewEngine(&scriptedDevice{results: []any{stream}}, Config{TickInterval: "5ms"}, nil,
		OnTick(func(d time.Duration) {
			select {
			case ticks <- d:
			default:
			}
		}))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer eng.Reset()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected a display tick")
	}

	_ = eng.Pause()
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)
	if n := len(ticks); n != 0 {
		t.Errorf("expected no ticks while paused, got %d", n)
	}
}

func TestEngineTickCallbackCanPauseAndStop(t *testing.T) {
	stream := newScriptedStream()
	var eng *Engine
	var once sync.Once
	paused := make(chan error, 1)
	eng = NewEngine(&scriptedDevice{results: []any{stream}}, Config{TickInterval: "5ms"}, nil,
		OnTick(func(time.Duration) {
			once.Do(func() { paused <- eng.Pause() })
		}))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer eng.Reset()

	select {
	case err := <-paused:
		if err != nil {
			t.Fatalf("pause from tick: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("pause from tick callback did not return")
	}
	if st := eng.State(); st != StatePaused {
		t.Errorf("expected paused, got %s", st)
	}

	stopped := make(chan error, 1)
	go func() {
		_, err := eng.Stop()
		stopped <- err
	}()
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("stop: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}

func TestEngineWithSyntheticDevice(t *testing.T) {
	eng := NewEngine(&SyntheticDevice{Interval: 5 * time.Millisecond}, Config{}, nil)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	blob, err := eng.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	data := blob.Bytes()
	if len(data) <= 44 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("expected a WAV stream, got %d bytes", len(data))
	}
	if blob.MediaType() != "audio/wav" {
		t.Errorf("expected audio/wav, got %q", blob.MediaType())
	}
	if (len(data)-44)%2 != 0 {
		t.Errorf("expected whole 16-bit samples, got %d data bytes", len(data)-44)
	}
}
