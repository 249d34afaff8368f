package artifact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/audiopen/capture"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/storage/memory"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *memory.Storage, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC)}
	store := memory.New("audio-recordings")
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewGateway(store, Config{}, nil, opts...), store, clock
}

func testBlob() *capture.Blob {
	return capture.NewBlob([]byte("opus-frames"), capture.DefaultMediaType, time.Now(), 3*time.Second)
}

func TestUploadNamesAndSigns(t *testing.T) {
	g, store, clock := newTestGateway(t)

	a, err := g.Upload(context.Background(), testBlob(), "user-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if a.StoragePath != "user-1/recording_20260314_093005.webm" {
		t.Errorf("unexpected path %q", a.StoragePath)
	}
	if !strings.HasPrefix(a.SignedURL, memory.DefaultOrigin) {
		t.Errorf("expected signed url on %s, got %q", memory.DefaultOrigin, a.SignedURL)
	}
	if !a.ExpiresAt.Equal(clock.Now().Add(time.Hour)) {
		t.Errorf("expected one hour expiry, got %v", a.ExpiresAt)
	}
	if got := store.ContentType(a.StoragePath); got != capture.DefaultMediaType {
		t.Errorf("expected stored media type %q, got %q", capture.DefaultMediaType, got)
	}
}

func TestUploadSameSecondCollides(t *testing.T) {
	g, store, _ := newTestGateway(t)

	if _, err := g.Upload(context.Background(), testBlob(), "user-1"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	a, err := g.Upload(context.Background(), testBlob(), "user-1")
	if !apperrors.HasCode(err, apperrors.ErrCodeUploadFailed) {
		t.Fatalf("expected UPLOAD_FAILED on collision, got %v", err)
	}
	if a != nil {
		t.Errorf("expected no artifact, got %+v", a)
	}
	if store.Len() != 1 {
		t.Errorf("expected the first object untouched, got %d objects", store.Len())
	}
}

func TestUploadFailure(t *testing.T) {
	g, store, _ := newTestGateway(t)
	store.Fail = func(op, _ string) error {
		if op == "upload" {
			return errors.New("connection reset")
		}
		return nil
	}

	a, err := g.Upload(context.Background(), testBlob(), "user-1")
	if !apperrors.HasCode(err, apperrors.ErrCodeUploadFailed) {
		t.Fatalf("expected UPLOAD_FAILED, got %v", err)
	}
	if a != nil || store.Len() != 0 {
		t.Errorf("expected nothing stored, got artifact=%v objects=%d", a, store.Len())
	}
}

func TestUploadSignFailureReturnsPath(t *testing.T) {
	g, store, _ := newTestGateway(t)
	store.Fail = func(op, _ string) error {
		if op == "sign" {
			return errors.New("signing service down")
		}
		return nil
	}

	a, err := g.Upload(context.Background(), testBlob(), "user-1")
	if !apperrors.HasCode(err, apperrors.ErrCodeSignedURLFailed) {
		t.Fatalf("expected SIGNED_URL_FAILED, got %v", err)
	}
	if a == nil || a.StoragePath == "" || a.SignedURL != "" {
		t.Fatalf("expected artifact with path only, got %+v", a)
	}
	if store.Len() != 1 {
		t.Fatalf("expected object stored, got %d", store.Len())
	}

	store.Fail = nil
	signed, err := g.Sign(context.Background(), a.StoragePath, 0)
	if err != nil {
		t.Fatalf("re-sign: %v", err)
	}
	if signed.URL == "" {
		t.Error("expected url after re-sign")
	}
	if store.Len() != 1 {
		t.Errorf("expected no second upload, got %d objects", store.Len())
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	g, _, _ := newTestGateway(t)
	if _, err := g.Upload(context.Background(), testBlob(), ""); !apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED without owner, got %v", err)
	}
	empty := capture.NewBlob(nil, "", time.Now(), 0)
	if _, err := g.Upload(context.Background(), empty, "user-1"); !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty audio, got %v", err)
	}
}

func TestRefreshSignedURL(t *testing.T) {
	g, store, _ := newTestGateway(t)
	a, _ := g.Upload(context.Background(), testBlob(), "user-1")

	first, ok := g.RefreshSignedURL(context.Background(), a.StoragePath, time.Hour)
	if !ok {
		t.Fatal("expected refresh to succeed")
	}
	second, ok := g.RefreshSignedURL(context.Background(), a.StoragePath, 0)
	if !ok {
		t.Fatal("expected second refresh to succeed")
	}
	if first == second || first == a.SignedURL {
		t.Error("expected a new url on every refresh")
	}
	if store.SignCount(a.StoragePath) != 3 {
		t.Errorf("expected 3 signatures, got %d", store.SignCount(a.StoragePath))
	}

	if url, ok := g.RefreshSignedURL(context.Background(), "user-1/missing.webm", time.Hour); ok || url != "" {
		t.Errorf("expected missing object to be unusable, got %q %v", url, ok)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	g, store, _ := newTestGateway(t)
	a, _ := g.Upload(context.Background(), testBlob(), "user-1")

	store.Fail = func(op, _ string) error {
		if op == "delete" {
			return errors.New("denied")
		}
		return nil
	}
	if g.Delete(context.Background(), a.StoragePath) {
		t.Error("expected false on failed delete")
	}

	store.Fail = nil
	if !g.Delete(context.Background(), a.StoragePath) {
		t.Error("expected true on delete")
	}
	if store.Len() != 0 {
		t.Errorf("expected object removed, got %d", store.Len())
	}
}

func TestPlaybackURLCachesUntilMargin(t *testing.T) {
	cache := NewMemoryURLCache()
	g, store, clock := newTestGateway(t, WithCache(cache))
	cache.now = clock.Now

	a, _ := g.Upload(context.Background(), testBlob(), "user-1")

	url, err := g.PlaybackURL(context.Background(), a.StoragePath)
	if err != nil {
		t.Fatalf("playback: %v", err)
	}
	if url != a.SignedURL {
		t.Errorf("expected cached upload url, got %q", url)
	}
	if store.SignCount(a.StoragePath) != 1 {
		t.Errorf("expected cache hit, got %d signatures", store.SignCount(a.StoragePath))
	}

	// inside the 5 minute safety margin the cached url is not reused
	clock.Advance(56 * time.Minute)
	url2, err := g.PlaybackURL(context.Background(), a.StoragePath)
	if err != nil {
		t.Fatalf("playback: %v", err)
	}
	if url2 == url || store.SignCount(a.StoragePath) != 2 {
		t.Errorf("expected a fresh url near expiry, signatures=%d", store.SignCount(a.StoragePath))
	}

	g.Delete(context.Background(), a.StoragePath)
	if _, ok := cache.Get(context.Background(), a.StoragePath); ok {
		t.Error("expected delete to invalidate the cache")
	}
	if _, err := g.PlaybackURL(context.Background(), a.StoragePath); !apperrors.HasCode(err, apperrors.ErrCodeSignedURLFailed) {
		t.Errorf("expected SIGNED_URL_FAILED for deleted object, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := cfg
	bad.CacheMargin = "2h"
	if err := bad.Validate(); err == nil {
		t.Error("expected error when margin exceeds ttl")
	}
	bad = cfg
	bad.Cache = "memcached"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown cache")
	}
}
