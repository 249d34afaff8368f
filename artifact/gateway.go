package artifact

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/observability"
	"github.com/kbukum/audiopen/storage"
)

// Audio is a finalized recording ready for upload. *capture.Blob implements it.
type Audio interface {
	Reader() io.Reader
	MediaType() string
	Size() int
}

// Artifact is an uploaded recording. StoragePath is permanent; SignedURL
// is a time-limited read link that can be reissued for the same path.
type Artifact struct {
	StoragePath string    `json:"storage_path"`
	SignedURL   string    `json:"signed_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces time.Now for naming and expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithCache caches playback URLs.
func WithCache(c URLCache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithDiagnostics sets the introspection sink.
func WithDiagnostics(d diagnostics.Diagnostics) Option {
	return func(g *Gateway) { g.diag = diagnostics.OrNop(d) }
}

// WithMetrics records upload outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// Gateway writes recordings to object storage and issues signed URLs.
type Gateway struct {
	store   storage.Storage
	cfg     Config
	log     *logger.Logger
	diag    diagnostics.Diagnostics
	metrics *observability.Metrics
	cache   URLCache
	now     func() time.Time
}

// NewGateway creates a gateway over store.
func NewGateway(store storage.Storage, cfg Config, log *logger.Logger, opts ...Option) *Gateway {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	g := &Gateway{
		store: store,
		cfg:   cfg,
		log:   log.WithComponent("artifact"),
		diag:  diagnostics.Nop{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Upload stores audio under a new owner-scoped path without overwriting
// and then signs it. A failed upload returns UPLOAD_FAILED and no
// artifact. A failed signature returns SIGNED_URL_FAILED together with an
// Artifact carrying only StoragePath; the caller re-signs instead of
// uploading again.
func (g *Gateway) Upload(ctx context.Context, audio Audio, ownerID string) (_ *Artifact, err error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("sign in to save recordings")
	}
	if audio == nil || audio.Size() == 0 {
		return nil, apperrors.InvalidInput("recording", "the recording is empty")
	}

	path := ObjectPath(ownerID, g.now(), audio.MediaType())
	log := g.log.WithFields(logger.Fields(logger.FieldStoragePath, path, logger.FieldUserID, ownerID))

	ctx, span := observability.StartSpan(ctx, observability.SpanArtifactUpload)
	defer func() { observability.EndSpan(span, err) }()
	observability.SetSpanAttribute(ctx, observability.AttrStoragePath, path)
	observability.SetSpanAttribute(ctx, observability.AttrUserID, ownerID)

	start := g.now()
	if err := g.store.Upload(ctx, path, audio.Reader(), storage.WithContentType(audio.MediaType())); err != nil {
		g.metrics.RecordUpload(ctx, observability.OutcomeFailed)
		cause := storage.ToAppError(err)
		appErr := apperrors.UploadFailed(cause)
		if errors.Is(err, storage.ErrAlreadyExists) {
			appErr.WithDetail("reason", "a recording with this name already exists")
		}
		log.Error("upload failed", logger.ErrorFields("upload", err))
		g.diag.Record("artifact", "upload_failed", map[string]any{"path": path, "code": string(cause.Code)})
		return nil, appErr
	}

	signed, err := g.sign(ctx, path, g.cfg.ttl())
	if err != nil {
		g.metrics.RecordUpload(ctx, observability.OutcomeFailed)
		log.Error("signing uploaded recording failed", logger.ErrorFields("sign", err))
		g.diag.Record("artifact", "sign_failed", map[string]any{"path": path})
		return &Artifact{StoragePath: path}, apperrors.SignedURLFailed(path, storage.ToAppError(err))
	}

	g.metrics.RecordUpload(ctx, observability.OutcomeSuccess)
	log.Info("recording uploaded", logger.Fields("bytes", audio.Size(), logger.FieldDuration, g.now().Sub(start).Milliseconds()))
	g.diag.Record("artifact", "uploaded", map[string]any{"path": path, "bytes": audio.Size()})
	return &Artifact{StoragePath: path, SignedURL: signed.URL, ExpiresAt: signed.ExpiresAt}, nil
}

// Sign issues a new signed URL for storagePath and returns it as a typed
// error on failure. ttl <= 0 uses the configured lifetime.
func (g *Gateway) Sign(ctx context.Context, storagePath string, ttl time.Duration) (CachedURL, error) {
	if ttl <= 0 {
		ttl = g.cfg.ttl()
	}
	signed, err := g.sign(ctx, storagePath, ttl)
	if err != nil {
		return CachedURL{}, apperrors.SignedURLFailed(storagePath, storage.ToAppError(err))
	}
	return signed, nil
}

// RefreshSignedURL issues a fresh URL for storagePath. ok is false when the
// object is missing or access is refused; the recording is then no longer
// usable. Every successful call returns a new URL with a new expiry.
func (g *Gateway) RefreshSignedURL(ctx context.Context, storagePath string, ttl time.Duration) (url string, ok bool) {
	signed, err := g.Sign(ctx, storagePath, ttl)
	if err != nil {
		g.log.Warn("recording no longer usable", logger.Fields(
			logger.FieldStoragePath, storagePath,
			logger.FieldReason, err.Error(),
		))
		g.diag.Record("artifact", "refresh_failed", map[string]any{"path": storagePath})
		return "", false
	}
	g.diag.Record("artifact", "refreshed", map[string]any{"path": storagePath, "expires_at": signed.ExpiresAt})
	return signed.URL, true
}

// PlaybackURL returns a URL for listening to storagePath, reusing a cached
// one while it has more than the configured margin left.
func (g *Gateway) PlaybackURL(ctx context.Context, storagePath string) (string, error) {
	if g.cache != nil {
		if u, ok := g.cache.Get(ctx, storagePath); ok && g.now().Before(u.ExpiresAt.Add(-g.cfg.margin())) {
			return u.URL, nil
		}
	}
	signed, err := g.Sign(ctx, storagePath, 0)
	if err != nil {
		return "", err
	}
	return signed.URL, nil
}

// Delete removes the object at storagePath. It is best effort: failures
// are logged and reported as false.
func (g *Gateway) Delete(ctx context.Context, storagePath string) bool {
	if g.cache != nil {
		g.cache.Invalidate(ctx, storagePath)
	}
	if err := g.store.Delete(ctx, storagePath); err != nil {
		g.log.Warn("deleting recording audio failed", logger.Fields(
			logger.FieldStoragePath, storagePath,
			logger.FieldError, err.Error(),
		))
		return false
	}
	g.diag.Record("artifact", "deleted", map[string]any{"path": storagePath})
	return true
}

func (g *Gateway) sign(ctx context.Context, storagePath string, ttl time.Duration) (_ CachedURL, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanArtifactSign)
	defer func() { observability.EndSpan(span, err) }()
	observability.SetSpanAttribute(ctx, observability.AttrStoragePath, storagePath)

	issuedAt := g.now()
	url, err := g.store.SignedURL(ctx, storagePath, ttl)
	if err != nil {
		return CachedURL{}, err
	}
	signed := CachedURL{URL: url, ExpiresAt: issuedAt.Add(ttl)}
	if g.cache != nil {
		g.cache.Put(ctx, storagePath, signed)
	}
	return signed, nil
}
