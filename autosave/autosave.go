package autosave

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/audiopen/artifact"
	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/capture"
	"github.com/kbukum/audiopen/catalog"
	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
)

// TitleLayout formats the time in default titles.
const TitleLayout = "Jan 2, 2006 3:04 PM"

// Uploader stores audio and signs stored objects. *artifact.Gateway implements it.
type Uploader interface {
	Upload(ctx context.Context, audio artifact.Audio, ownerID string) (*artifact.Artifact, error)
	Sign(ctx context.Context, storagePath string, ttl time.Duration) (artifact.CachedURL, error)
}

// Cataloger records uploaded audio. *catalog.Catalog implements it.
type Cataloger interface {
	Create(ctx context.Context, in catalog.NewRecording) (catalog.Recording, error)
}

// Stopper finalizes a capture. *capture.Engine implements it.
type Stopper interface {
	Stop() (*capture.Blob, error)
}

// Step is the stage a pending save stopped at.
type Step string

const (
	StepUpload  Step = "upload"
	StepSign    Step = "sign"
	StepCatalog Step = "catalog"
)

// Pending describes a save that did not complete.
type Pending struct {
	Title       string
	Step        Step
	StoragePath string
	Duration    time.Duration
	Err         error
}

type pending struct {
	blob     *capture.Blob
	title    string
	artifact *artifact.Artifact
	step     Step
	err      error
}

// Option configures a Saver.
type Option func(*Saver)

// WithClock replaces time.Now for default titles.
func WithClock(now func() time.Time) Option {
	return func(s *Saver) { s.now = now }
}

// WithDiagnostics sets the introspection sink.
func WithDiagnostics(d diagnostics.Diagnostics) Option {
	return func(s *Saver) { s.diag = diagnostics.OrNop(d) }
}

// WithRefs revokes a blob's transient reference once it is saved.
func WithRefs(r *capture.Refs) Option {
	return func(s *Saver) { s.refs = r }
}

// Saver runs the save pipeline. It holds at most one pending save; a new
// Save replaces it.
type Saver struct {
	uploader Uploader
	catalog  Cataloger
	owner    auth.Provider
	log      *logger.Logger
	diag     diagnostics.Diagnostics
	refs     *capture.Refs
	now      func() time.Time

	mu      sync.Mutex
	pending *pending
}

// New creates a Saver.
func New(uploader Uploader, catalog Cataloger, owner auth.Provider, log *logger.Logger, opts ...Option) *Saver {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Saver{
		uploader: uploader,
		catalog:  catalog,
		owner:    owner,
		log:      log.WithComponent("autosave"),
		diag:     diagnostics.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultTitle is the title given to recordings saved without one.
func DefaultTitle(at time.Time) string {
	return "Recording " + at.Format(TitleLayout)
}

// StopAndSave stops the capture and saves the resulting blob.
func (s *Saver) StopAndSave(ctx context.Context, stopper Stopper, title string) (catalog.Recording, error) {
	blob, err := stopper.Stop()
	if err != nil {
		return catalog.Recording{}, err
	}
	return s.Save(ctx, blob, title)
}

// Save uploads blob and creates its catalog entry. An empty title becomes
// DefaultTitle of the current time.
func (s *Saver) Save(ctx context.Context, blob *capture.Blob, title string) (catalog.Recording, error) {
	if blob == nil || blob.Size() == 0 {
		return catalog.Recording{}, apperrors.InvalidInput("recording", "the recording is empty")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle(s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil && s.pending.blob != blob {
		s.revoke(s.pending.blob)
	}
	s.pending = &pending{blob: blob, title: title, step: StepUpload}
	return s.run(ctx)
}

// Retry resumes the pending save from the step that failed.
func (s *Saver) Retry(ctx context.Context) (catalog.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return catalog.Recording{}, apperrors.NotFound("pending recording", "")
	}
	return s.run(ctx)
}

// Pending reports the save waiting for Retry, if any.
func (s *Saver) Pending() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Pending{}, false
	}
	p := Pending{Title: s.pending.title, Step: s.pending.step, Duration: s.pending.blob.Duration(), Err: s.pending.err}
	if s.pending.artifact != nil {
		p.StoragePath = s.pending.artifact.StoragePath
	}
	return p, true
}

// Discard drops the pending save and its audio.
func (s *Saver) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.revoke(s.pending.blob)
		s.pending = nil
	}
}

// run advances s.pending. Callers hold s.mu.
func (s *Saver) run(ctx context.Context) (catalog.Recording, error) {
	p := s.pending
	log := s.log.WithFields(logger.Fields("title", p.title, logger.FieldDuration, p.blob.Duration().Milliseconds()))

	user, ok := s.owner.CurrentUser()
	if !ok {
		p.err = apperrors.Unauthorized("sign in to save recordings")
		return catalog.Recording{}, p.err
	}

	switch {
	case p.artifact == nil:
		a, err := s.uploader.Upload(ctx, p.blob, user.ID)
		if err != nil {
			return catalog.Recording{}, s.fail(log, p, a, err)
		}
		p.artifact = a
	case p.artifact.SignedURL == "" || p.step == StepCatalog:
		// The object is stored; only a fresh URL is needed.
		signed, err := s.uploader.Sign(ctx, p.artifact.StoragePath, 0)
		if err != nil {
			return catalog.Recording{}, s.fail(log, p, p.artifact, err)
		}
		p.artifact.SignedURL = signed.URL
		p.artifact.ExpiresAt = signed.ExpiresAt
	}

	rec, err := s.catalog.Create(ctx, catalog.NewRecording{
		Title:       p.title,
		DurationMs:  p.blob.Duration().Milliseconds(),
		StoragePath: p.artifact.StoragePath,
		AudioURL:    p.artifact.SignedURL,
	})
	if err != nil {
		p.step = StepCatalog
		p.err = err
		log.Error("recording not added to the catalog", logger.ErrorFields("catalog", err))
		s.diag.Record("autosave", "failed", map[string]any{"step": string(StepCatalog)})
		return catalog.Recording{}, err
	}

	s.revoke(p.blob)
	s.pending = nil
	log.Info("recording saved", logger.Fields(logger.FieldRecordingID, rec.ID, logger.FieldStoragePath, rec.StoragePath))
	s.diag.Record("autosave", "saved", map[string]any{"recording_id": rec.ID, "storage_path": rec.StoragePath})
	return rec, nil
}

// fail records where the pipeline stopped. A signing failure after a
// successful upload keeps the path-only artifact so the upload is not repeated.
func (s *Saver) fail(log *logger.Logger, p *pending, a *artifact.Artifact, err error) error {
	p.err = err
	if apperrors.HasCode(err, apperrors.ErrCodeSignedURLFailed) && a != nil && a.StoragePath != "" {
		p.artifact = &artifact.Artifact{StoragePath: a.StoragePath}
		p.step = StepSign
	} else if p.artifact == nil {
		p.step = StepUpload
	}
	log.Warn("recording kept for retry", logger.Fields("step", string(p.step), logger.FieldError, err.Error()))
	s.diag.Record("autosave", "failed", map[string]any{"step": string(p.step)})
	return err
}

func (s *Saver) revoke(b *capture.Blob) {
	if s.refs != nil && b.Ref() != "" {
		s.refs.Revoke(b.Ref())
	}
}
