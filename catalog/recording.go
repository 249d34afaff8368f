package catalog

import (
	"context"
	"time"
)

// DefaultTitle names recordings created without a title.
const DefaultTitle = "Untitled Recording"

// Recording is one saved recording. AudioURL is the most recently issued
// signed URL; StoragePath is what survives its expiry.
type Recording struct {
	ID          string    `json:"id,omitempty"`
	OwnerID     string    `json:"user_id"`
	Title       string    `json:"title"`
	DurationMs  int64     `json:"duration"`
	StoragePath string    `json:"storage_path,omitempty"`
	AudioURL    string    `json:"audio_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Duration returns the recorded length.
func (r Recording) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// NewRecording is the input to Catalog.Create.
type NewRecording struct {
	Title       string
	DurationMs  int64
	StoragePath string
	AudioURL    string
}

// Fields are the mutable columns of a recording.
type Fields struct {
	Title     string
	UpdatedAt time.Time
}

// Backend persists recordings. Delete of a missing id is not an error.
type Backend interface {
	List(ctx context.Context, ownerID string) ([]Recording, error)
	Insert(ctx context.Context, r Recording) (Recording, error)
	Update(ctx context.Context, id string, f Fields) (Recording, error)
	Delete(ctx context.Context, id string) error
}
