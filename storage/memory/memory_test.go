package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/audiopen/storage"
)

func TestMemoryStorage(t *testing.T) {
	s := New("audio-recordings")
	ctx := context.Background()

	if err := s.Upload(ctx, "u/a.webm", strings.NewReader("x"), storage.WithContentType("audio/webm")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := s.Upload(ctx, "u/a.webm", strings.NewReader("y")); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if s.ContentType("u/a.webm") != "audio/webm" {
		t.Errorf("expected content type kept, got %q", s.ContentType("u/a.webm"))
	}

	u1, err := s.SignedURL(ctx, "u/a.webm", time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	u2, _ := s.SignedURL(ctx, "u/a.webm", time.Hour)
	if u1 == u2 || !strings.HasPrefix(u1, "https://") {
		t.Errorf("expected distinct https urls, got %q %q", u1, u2)
	}
	if s.SignCount("u/a.webm") != 2 {
		t.Errorf("expected 2 signs, got %d", s.SignCount("u/a.webm"))
	}

	_ = s.Delete(ctx, "u/a.webm")
	if _, err := s.SignedURL(ctx, "u/a.webm", time.Hour); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFailInjection(t *testing.T) {
	s := New("b")
	boom := errors.New("boom")
	s.Fail = func(op, _ string) error {
		if op == "upload" {
			return boom
		}
		return nil
	}
	if err := s.Upload(context.Background(), "p", strings.NewReader("x")); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", s.Len())
	}
}
