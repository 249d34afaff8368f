package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/audiopen/artifact"
	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/storage/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// pushStream delivers whatever the test sends on chunks.
type pushStream struct {
	chunks chan []byte
	once   sync.Once
}

func (s *pushStream) Chunks() <-chan []byte { return s.chunks }
func (s *pushStream) MediaType() string     { return capture.DefaultMediaType }
func (s *pushStream) Pause() error          { return nil }
func (s *pushStream) Resume() error         { return nil }
func (s *pushStream) Close() error {
	s.once.Do(func() { close(s.chunks) })
	return nil
}

type fixture struct {
	clock   *clock
	store   *memory.Storage
	backend *catalog.MemoryBackend
	catalog *catalog.Catalog
	diag    *diagnostics.Recorder
	saver   *Saver
}

var owner = auth.Static{User: auth.User{ID: "user-1"}, AccessToken: "token"}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:   &clock{now: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
		store:   memory.New("audio-recordings"),
		backend: catalog.NewMemoryBackend(),
		diag:    diagnostics.NewRecorder(64),
	}
	gateway := artifact.NewGateway(f.store, artifact.Config{}, nil, artifact.WithClock(f.clock.Now))
	f.catalog = catalog.New(f.backend, owner, nil, catalog.WithClock(f.clock.Now))
	t.Cleanup(f.catalog.Close)
	opts = append([]Option{WithClock(f.clock.Now), WithDiagnostics(f.diag)}, opts...)
	f.saver = New(gateway, f.catalog, owner, nil, opts...)
	return f
}

func testBlob(d time.Duration) *capture.Blob {
	return capture.NewBlob([]byte("opus-frames"), capture.DefaultMediaType, time.Date(2026, 3, 14, 9, 29, 0, 0, time.UTC), d)
}

func TestRecordStopAndSave(t *testing.T) {
	f := newFixture(t)
	stream := &pushStream{chunks: make(chan []byte, 8)}
	engine := capture.NewEngine(capture.DeviceFunc(func(context.Context) (capture.Stream, error) {
		return stream, nil
	}), capture.Config{}, nil, capture.WithClock(f.clock.Now))
	f.saver = New(artifact.NewGateway(f.store, artifact.Config{}, nil), f.catalog, owner, nil,
		WithClock(f.clock.Now), WithRefs(engine.Refs()))

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	stream.chunks <- []byte("header")
	stream.chunks <- []byte("frames")
	f.clock.Advance(3000 * time.Millisecond)

	rec, err := f.saver.StopAndSave(context.Background(), engine, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.DurationMs != 3000 {
		t.Errorf("expected 3000ms, got %d", rec.DurationMs)
	}
	if !catalog.IsFetchable(rec.AudioURL) {
		t.Errorf("expected a fetchable url, got %q", rec.AudioURL)
	}
	if rec.Title != "Recording Mar 14, 2026 9:30 AM" {
		t.Errorf("unexpected default title %q", rec.Title)
	}

	items := f.catalog.Recordings()
	if len(items) != 1 || items[0].ID != rec.ID {
		t.Fatalf("expected the new entry in the catalog, got %+v", items)
	}
	if f.store.Len() != 1 {
		t.Errorf("expected 1 stored object, got %d", f.store.Len())
	}
	if engine.Refs().Len() != 0 {
		t.Error("expected the transient reference to be revoked once saved")
	}
	if _, ok := f.saver.Pending(); ok {
		t.Error("expected nothing pending")
	}
}

func TestSaveKeepsBlobAfterUploadFailure(t *testing.T) {
	f := newFixture(t)
	var uploads atomic.Int32
	f.store.Fail = func(op, _ string) error {
		if op == "upload" && uploads.Add(1) == 1 {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err := f.saver.Save(context.Background(), testBlob(2*time.Second), "Standup")
	if !apperrors.HasCode(err, apperrors.ErrCodeUploadFailed) {
		t.Fatalf("expected UPLOAD_FAILED, got %v", err)
	}
	p, ok := f.saver.Pending()
	if !ok || p.Step != StepUpload || p.Title != "Standup" || p.Duration != 2*time.Second {
		t.Fatalf("expected the blob kept for upload, got %+v (%v)", p, ok)
	}
	if len(f.catalog.Recordings()) != 0 {
		t.Error("expected no catalog entry")
	}

	rec, err := f.saver.Retry(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if rec.Title != "Standup" {
		t.Errorf("unexpected title %q", rec.Title)
	}
	if uploads.Load() != 2 {
		t.Errorf("expected 2 upload attempts, got %d", uploads.Load())
	}
}

func TestRetryAfterSignFailureDoesNotUploadAgain(t *testing.T) {
	f := newFixture(t)
	var uploads, signs atomic.Int32
	f.store.Fail = func(op, _ string) error {
		switch op {
		case "upload":
			uploads.Add(1)
		case "sign":
			if signs.Add(1) == 1 {
				return errors.New("signing service down")
			}
		}
		return nil
	}

	_, err := f.saver.Save(context.Background(), testBlob(time.Second), "")
	if !apperrors.HasCode(err, apperrors.ErrCodeSignedURLFailed) {
		t.Fatalf("expected SIGNED_URL_FAILED, got %v", err)
	}
	p, ok := f.saver.Pending()
	if !ok || p.Step != StepSign || p.StoragePath == "" {
		t.Fatalf("expected a stored path waiting for a signature, got %+v", p)
	}

	rec, err := f.saver.Retry(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if uploads.Load() != 1 {
		t.Errorf("expected a single upload, got %d", uploads.Load())
	}
	if rec.StoragePath != p.StoragePath {
		t.Errorf("expected path %q, got %q", p.StoragePath, rec.StoragePath)
	}
	if f.store.Len() != 1 {
		t.Errorf("expected 1 stored object, got %d", f.store.Len())
	}
}

func TestRetryAfterCatalogFailureSignsAgain(t *testing.T) {
	f := newFixture(t)
	var inserts atomic.Int32
	f.backend.Fail = func(op, _ string) error {
		if op == "insert" && inserts.Add(1) == 1 {
			return errors.New("database unavailable")
		}
		return nil
	}

	_, err := f.saver.Save(context.Background(), testBlob(time.Second), "Notes")
	if !apperrors.HasCode(err, apperrors.ErrCodeCatalogSync) {
		t.Fatalf("expected CATALOG_SYNC_FAILED, got %v", err)
	}
	p, _ := f.saver.Pending()
	if p.Step != StepCatalog {
		t.Fatalf("expected catalog step, got %q", p.Step)
	}

	if _, err := f.saver.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.store.Len() != 1 {
		t.Errorf("expected the upload to be reused, got %d objects", f.store.Len())
	}
	if n := f.store.SignCount(p.StoragePath); n != 2 {
		t.Errorf("expected 2 signatures, got %d", n)
	}
	if f.backend.Len() != 1 {
		t.Errorf("expected 1 row, got %d", f.backend.Len())
	}
}

func TestSaveRequiresSignedInUser(t *testing.T) {
	f := newFixture(t)
	f.saver.owner = auth.Static{}
	_, err := f.saver.Save(context.Background(), testBlob(time.Second), "")
	if !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Error("expected nothing uploaded")
	}
}

func TestSaveRejectsEmptyBlob(t *testing.T) {
	f := newFixture(t)
	_, err := f.saver.Save(context.Background(), capture.NewBlob(nil, "", time.Now(), 0), "")
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRetryWithoutPending(t *testing.T) {
	f := newFixture(t)
	if _, err := f.saver.Retry(context.Background()); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestDiscardDropsPendingSave(t *testing.T) {
	f := newFixture(t)
	f.store.Fail = func(op, _ string) error {
		if op == "upload" {
			return errors.New("offline")
		}
		return nil
	}

	if _, err := f.saver.Save(context.Background(), testBlob(time.Second), ""); err == nil {
		t.Fatal("expected upload failure")
	}
	f.saver.Discard()
	if _, ok := f.saver.Pending(); ok {
		t.Error("expected nothing pending after discard")
	}
	events := f.diag.Filter("autosave")
	if len(events) != 1 || events[0].Name != "failed" {
		t.Errorf("expected one failed event, got %+v", events)
	}
}
