package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrAlreadyExists is returned by Upload when the path is taken and
	// overwrite was not requested.
	ErrAlreadyExists = errors.New("storage: object already exists")
	// ErrNotFound is returned when no object lives at the path.
	ErrNotFound = errors.New("storage: object not found")
)

// Storage is the object store the artifact gateway writes recordings to.
// Objects are private; readers reach them through time-limited signed URLs.
type Storage interface {
	// Upload writes data from reader to path. Without WithOverwrite an
	// existing object yields ErrAlreadyExists.
	Upload(ctx context.Context, path string, reader io.Reader, opts ...UploadOption) error

	// Download returns a reader for the object at path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Returns nil if it does not exist.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// SignedURL issues a URL granting read access for expiry. Every call
	// returns a fresh URL. A missing object yields ErrNotFound.
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// UploadOptions holds per-upload settings.
type UploadOptions struct {
	ContentType string
	Overwrite   bool
}

// UploadOption configures an upload.
type UploadOption func(*UploadOptions)

// WithContentType sets the stored media type.
func WithContentType(ct string) UploadOption {
	return func(o *UploadOptions) { o.ContentType = ct }
}

// WithOverwrite allows replacing an existing object.
func WithOverwrite() UploadOption {
	return func(o *UploadOptions) { o.Overwrite = true }
}

// ApplyUploadOptions resolves opts with an application/octet-stream default.
func ApplyUploadOptions(opts ...UploadOption) UploadOptions {
	o := UploadOptions{ContentType: "application/octet-stream"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
