// Package memory is an in-process storage backend for tests and offline
// runs. Signed URLs point at a non-routable https origin and carry a
// per-call token, so they pass URL validity checks without being fetchable.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/storage"
)

// DefaultOrigin prefixes signed URLs.
const DefaultOrigin = "https://memory.storage.invalid"

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(cfg storage.Config, _ any, _ *logger.Logger) (storage.Storage, error) {
		return New(cfg.Bucket), nil
	})
}

type object struct {
	data        []byte
	contentType string
}

// Storage keeps objects in a map guarded by a mutex.
type Storage struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]object
	signs   map[string]int

	// Fail, when set, is consulted before every operation; a non-nil result
	// is returned instead of performing it. Tests use it to inject faults.
	Fail func(op, path string) error
}

// New creates an empty store.
func New(bucket string) *Storage {
	return &Storage{bucket: bucket, objects: make(map[string]object), signs: make(map[string]int)}
}

func (s *Storage) fail(op, path string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, path)
}

// Upload stores the object.
func (s *Storage) Upload(_ context.Context, path string, reader io.Reader, opts ...storage.UploadOption) error {
	if err := s.fail("upload", path); err != nil {
		return err
	}
	o := storage.ApplyUploadOptions(opts...)
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: memory read: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; ok && !o.Overwrite {
		return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, path)
	}
	s.objects[path] = object{data: data, contentType: o.ContentType}
	return nil
}

// Download returns a copy of the object.
func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	if err := s.fail("download", path); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

// Delete removes the object.
func (s *Storage) Delete(_ context.Context, path string) error {
	if err := s.fail("delete", path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

// Exists reports whether the object is stored.
func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	if err := s.fail("exists", path); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok, nil
}

// SignedURL returns a fresh URL for a stored object.
func (s *Storage) SignedURL(_ context.Context, path string, expiry time.Duration) (string, error) {
	if err := s.fail("sign", path); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	s.signs[path]++

	q := url.Values{}
	q.Set("token", uuid.NewString())
	q.Set("expires", fmt.Sprintf("%d", time.Now().Add(expiry).Unix()))
	return fmt.Sprintf("%s/%s/%s?%s", DefaultOrigin, s.bucket, path, q.Encode()), nil
}

// Len returns the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// ContentType returns the stored media type of path.
func (s *Storage) ContentType(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[path].contentType
}

// SignCount returns how many URLs were issued for path.
func (s *Storage) SignCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signs[path]
}

var _ storage.Storage = (*Storage)(nil)
