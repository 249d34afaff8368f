package capture

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMediaType is the container produced by the ffmpeg device.
const DefaultMediaType = "audio/webm;codecs=opus"

// Blob is a finalized, immutable recording.
type Blob struct {
	data      []byte
	mediaType string
	duration  time.Duration
	startedAt time.Time
	stoppedAt time.Time
	ref       string
}

// NewBlob wraps recorded bytes, for audio that did not come from an Engine.
func NewBlob(data []byte, mediaType string, startedAt time.Time, duration time.Duration) *Blob {
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return &Blob{
		data:      bytes.Clone(data),
		mediaType: mediaType,
		duration:  duration,
		startedAt: startedAt,
		stoppedAt: startedAt.Add(duration),
	}
}

// Bytes returns a copy of the audio.
func (b *Blob) Bytes() []byte { return bytes.Clone(b.data) }

// Reader returns a fresh reader over the audio.
func (b *Blob) Reader() io.Reader { return bytes.NewReader(b.data) }

// Size is the length of the audio in bytes.
func (b *Blob) Size() int { return len(b.data) }

// MediaType is the container type, e.g. "audio/webm;codecs=opus".
func (b *Blob) MediaType() string { return b.mediaType }

// Duration is the recorded time excluding pauses.
func (b *Blob) Duration() time.Duration { return b.duration }

// StartedAt is when recording began.
func (b *Blob) StartedAt() time.Time { return b.startedAt }

// StoppedAt is when recording was finalized.
func (b *Blob) StoppedAt() time.Time { return b.stoppedAt }

// Ref is the transient reference registered for this blob, if any.
func (b *Blob) Ref() string { return b.ref }

// RefScheme prefixes transient references. URLs with this scheme are only
// meaningful inside this process.
const RefScheme = "blob:"

// Refs maps transient blob: references to in-memory blobs.
type Refs struct {
	mu    sync.RWMutex
	blobs map[string]*Blob
}

// NewRefs creates an empty registry.
func NewRefs() *Refs {
	return &Refs{blobs: make(map[string]*Blob)}
}

// Register issues a new reference for b.
func (r *Refs) Register(b *Blob) string {
	ref := RefScheme + "audiopen/" + uuid.NewString()
	r.mu.Lock()
	r.blobs[ref] = b
	r.mu.Unlock()
	return ref
}

// Resolve returns the blob behind ref while it has not been revoked.
func (r *Refs) Resolve(ref string) (*Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[ref]
	return b, ok
}

// Revoke releases ref. Unknown references are ignored.
func (r *Refs) Revoke(ref string) {
	r.mu.Lock()
	delete(r.blobs, ref)
	r.mu.Unlock()
}

// Len returns the number of live references.
func (r *Refs) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
