package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/audiopen/httpclient"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderSupabase, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		pc, ok := providerCfg.(*Config)
		if !ok || pc == nil {
			return nil, fmt.Errorf("supabase: expected *supabase.Config, got %T", providerCfg)
		}
		return NewStorage(*pc, cfg.Bucket, log)
	})
}

// Storage implements storage.Storage on the Supabase Storage REST API.
type Storage struct {
	client *httpclient.Client
	bucket string
	cfg    Config
	log    *logger.Logger
}

// NewStorage creates a Supabase storage client for bucket.
func NewStorage(cfg Config, bucket string, log *logger.Logger) (*Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.URL, "/") + "/storage/v1",
		Timeout: cfg.Timeout,
		TLS:     &cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Storage{client: client, bucket: bucket, cfg: cfg, log: log.WithComponent("storage.supabase")}, nil
}

func (s *Storage) auth() *httpclient.AuthConfig {
	return s.cfg.RequestAuth()
}

func (s *Storage) objectPath(kind, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	escaped := strings.Join(segments, "/")
	if kind == "" {
		return fmt.Sprintf("/object/%s/%s", s.bucket, escaped)
	}
	return fmt.Sprintf("/object/%s/%s/%s", kind, s.bucket, escaped)
}

// Upload writes the object. Supabase answers an occupied path with 409 (or a
// 400 whose body says "Duplicate") when x-upsert is false.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader, opts ...storage.UploadOption) error {
	o := storage.ApplyUploadOptions(opts...)
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: supabase read upload body: %w", err)
	}

	_, err = s.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   s.objectPath("", path),
		Body:   bytes.NewReader(data),
		Auth:   s.auth(),
		Header: http.Header{
			"Content-Type":  {o.ContentType},
			"X-Upsert":      {strconv.FormatBool(o.Overwrite)},
			"Cache-Control": {"max-age=3600"},
		},
	})
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, path)
		}
		return fmt.Errorf("storage: supabase upload: %w", err)
	}
	return nil
}

// Download returns a reader for the object at path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   s.objectPath("authenticated", path),
		Auth:   s.auth(),
	})
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: supabase download: %w", err)
	}
	return io.NopCloser(bytes.NewReader(resp.Body)), nil
}

// Delete removes an object. Returns nil if the object does not exist.
func (s *Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/object/%s", s.bucket),
		Body:   map[string][]string{"prefixes": {path}},
		Auth:   s.auth(),
	})
	if err != nil && !isMissing(err) {
		return fmt.Errorf("storage: supabase delete: %w", err)
	}
	return nil
}

// Exists checks whether an object exists.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodHead,
		Path:   s.objectPath("authenticated", path),
		Auth:   s.auth(),
	})
	if err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: supabase exists: %w", err)
	}
	return true, nil
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL asks Supabase to sign path for expiry. The returned URL is
// relative to /storage/v1 and gets the project prefix here.
func (s *Storage) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	resp, err := httpclient.Post[signResponse](s.client, ctx, s.objectPath("sign", path),
		map[string]int{"expiresIn": int(expiry.Seconds())},
		httpclient.WithRequestAuth(s.auth()))
	if err != nil {
		if isMissing(err) {
			return "", fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return "", fmt.Errorf("storage: supabase sign: %w", err)
	}
	signed := resp.Data.SignedURL
	if signed == "" {
		return "", fmt.Errorf("storage: supabase sign returned empty URL")
	}
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed, nil
	}
	return s.client.ResolveURL(signed), nil
}

// isMissing covers 404 and the 400 "Object not found" Supabase returns for
// paths outside the caller's policy.
func isMissing(err error) bool {
	if httpclient.IsNotFound(err) {
		return true
	}
	if httpclient.StatusCode(err) == http.StatusBadRequest {
		return bodyContains(err, "not found")
	}
	return false
}

func isDuplicate(err error) bool {
	if httpclient.IsConflict(err) {
		return true
	}
	if httpclient.StatusCode(err) == http.StatusBadRequest {
		return bodyContains(err, "duplicate") || bodyContains(err, "already exists")
	}
	return false
}

func bodyContains(err error, needle string) bool {
	var e *httpclient.Error
	if !errors.As(err, &e) {
		return false
	}
	return strings.Contains(strings.ToLower(string(e.Body)), needle)
}

var _ storage.Storage = (*Storage)(nil)
