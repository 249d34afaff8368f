package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrTooLarge is returned when an upload exceeds Config.MaxFileSize.
var ErrTooLarge = errors.New("storage: object exceeds max file size")

// limited enforces the configured size cap on every backend.
type limited struct {
	Storage
	max int64
}

func (l *limited) Upload(ctx context.Context, path string, reader io.Reader, opts ...UploadOption) error {
	if l.max <= 0 {
		return l.Storage.Upload(ctx, path, reader, opts...)
	}
	if sized, ok := reader.(interface{ Len() int }); ok {
		if int64(sized.Len()) > l.max {
			return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, sized.Len(), l.max)
		}
		return l.Storage.Upload(ctx, path, reader, opts...)
	}
	return l.Storage.Upload(ctx, path, &capReader{r: reader, left: l.max}, opts...)
}

type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

// Unwrap returns the backend behind the size cap New applies.
func Unwrap(s Storage) Storage {
	if l, ok := s.(*limited); ok {
		return l.Storage
	}
	return s
}
