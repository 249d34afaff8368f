package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/audiopen/auth"
	"github.com/kbukum/audiopen/diagnostics"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/observability"
)

var errEmptyRepresentation = errors.New("catalog: insert returned no row")

// provisionalPrefix marks ids of rows not yet confirmed by the backend.
const provisionalPrefix = "pending-"

// ArtifactDeleter removes stored audio. *artifact.Gateway implements it.
type ArtifactDeleter interface {
	Delete(ctx context.Context, storagePath string) bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithDiagnostics sets the introspection sink.
func WithDiagnostics(d diagnostics.Diagnostics) Option {
	return func(c *Catalog) { c.diag = diagnostics.OrNop(d) }
}

// WithMetrics records rollbacks and sweeps.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// WithArtifacts deletes stored audio along with deleted recordings.
func WithArtifacts(a ArtifactDeleter) Option {
	return func(c *Catalog) { c.artifacts = a }
}

// Catalog is the signed-in user's view of their recordings.
type Catalog struct {
	backend   Backend
	owner     auth.Provider
	artifacts ArtifactDeleter
	log       *logger.Logger
	diag      diagnostics.Diagnostics
	metrics   *observability.Metrics
	now       func() time.Time

	mu     sync.Mutex
	items  []Recording
	gen    uint64
	swept  map[string]struct{}
	closed bool
}

// New creates a catalog over backend for the user owner reports.
func New(backend Backend, owner auth.Provider, log *logger.Logger, opts ...Option) *Catalog {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Catalog{
		backend: backend,
		owner:   owner,
		log:     log.WithComponent("catalog"),
		diag:    diagnostics.Nop{},
		now:     time.Now,
		swept:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recordings returns a copy of the current view, newest first.
func (c *Catalog) Recordings() []Recording {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Get returns the recording with id from the current view.
func (c *Catalog) Get(id string) (Recording, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return Recording{}, false
	}
	return c.items[i], true
}

// Close detaches the catalog. Responses that arrive afterwards are dropped.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.items = nil
}

// Load fetches the owner's recordings, removes the ones that fail
// Fetchable from the backend, and replaces the view with the rest.
// A recording is deleted by at most one sweep, however many loads overlap.
func (c *Catalog) Load(ctx context.Context) ([]Recording, error) {
	if _, err := c.refresh(ctx, true); err != nil {
		return nil, err
	}
	return c.Recordings(), nil
}

// Sweep reloads and returns how many invalid recordings were removed.
func (c *Catalog) Sweep(ctx context.Context) (int, error) {
	return c.refresh(ctx, true)
}

type invalidRecording struct {
	rec    Recording
	reason string
}

// refresh re-lists the owner's recordings. Invalid rows never reach the
// view; they are deleted from the backend only when sweep is set.
func (c *Catalog) refresh(ctx context.Context, sweep bool) (int, error) {
	user, ok := c.owner.CurrentUser()
	if !ok {
		return 0, apperrors.Unauthorized("sign in to see your recordings")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, apperrors.CatalogClosed()
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	rows, err := c.backend.List(ctx, user.ID)
	if err != nil {
		c.log.Error("loading recordings failed", logger.ErrorFields("list", err))
		return 0, err
	}

	valid := make([]Recording, 0, len(rows))
	var invalid []invalidRecording
	for _, r := range rows {
		if err := Fetchable(r.AudioURL); err != nil {
			invalid = append(invalid, invalidRecording{rec: r, reason: err.Error()})
			continue
		}
		valid = append(valid, r)
	}
	sortNewestFirst(valid)
	var removed int
	if sweep {
		removed = c.sweep(ctx, invalid)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return removed, apperrors.CatalogClosed()
	}
	// A later refresh already started; its result wins.
	if gen == c.gen {
		c.items = valid
	}
	return removed, nil
}

func (c *Catalog) sweep(ctx context.Context, invalid []invalidRecording) (removed int) {
	if len(invalid) == 0 {
		return 0
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanCatalogSweep)
	defer func() { observability.EndSpan(span, nil) }()

	for _, inv := range invalid {
		id := inv.rec.ID
		if !c.claim(id) {
			continue
		}
		err := c.backend.Delete(ctx, id)

		fields := logger.Fields(logger.FieldRecordingID, id, logger.FieldReason, inv.reason)
		if err != nil {
			c.unclaim(id)
			c.log.WithFields(fields).Warn("could not remove invalid recording", logger.Fields(logger.FieldError, err.Error()))
			continue
		}
		removed++
		c.log.Info("removed invalid recording", fields)
		c.diag.Record("catalog", "swept", map[string]any{"id": id, "reason": inv.reason})
	}
	c.metrics.RecordSwept(ctx, removed)
	observability.SetSpanAttribute(ctx, "catalog.swept", removed)
	return removed
}

// claim reserves id for deletion. It stays reserved once deleted, so a
// load that listed the row before the delete landed skips it.
func (c *Catalog) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.swept[id]; taken {
		return false
	}
	c.swept[id] = struct{}{}
	return true
}

// unclaim releases id after a failed delete so a later load can retry it.
func (c *Catalog) unclaim(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.swept, id)
}

// Create adds a recording whose audio is already uploaded. URLs that fail
// Fetchable are refused, so device-local audio never reaches the backend.
func (c *Catalog) Create(ctx context.Context, in NewRecording) (Recording, error) {
	user, ok := c.owner.CurrentUser()
	if !ok {
		return Recording{}, apperrors.Unauthorized("sign in to save recordings")
	}
	if err := Fetchable(in.AudioURL); err != nil {
		return Recording{}, apperrors.InvalidArtifact(in.AudioURL, err.Error())
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultTitle
	}
	now := c.now()
	pending := Recording{
		ID:          provisionalPrefix + uuid.NewString(),
		OwnerID:     user.ID,
		Title:       title,
		DurationMs:  in.DurationMs,
		StoragePath: in.StoragePath,
		AudioURL:    in.AudioURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created Recording
	err := c.mutate(ctx, "create", pending.ID,
		func(items []Recording) []Recording {
			return append([]Recording{pending}, items...)
		},
		func(ctx context.Context) error {
			row := pending
			row.ID = ""
			inserted, err := c.backend.Insert(ctx, row)
			if err != nil {
				return err
			}
			created = inserted
			c.replace(pending.ID, inserted)
			return nil
		})
	if err != nil {
		return Recording{}, err
	}
	return created, nil
}

// Rename sets the title of recording id. Surrounding space is trimmed and
// the result must not be empty.
func (c *Catalog) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.InvalidInput("title", "must not be empty")
	}
	if _, ok := c.Get(id); !ok {
		return apperrors.NotFound("recording", id)
	}

	fields := Fields{Title: title, UpdatedAt: c.now()}
	return c.mutate(ctx, "rename", id,
		func(items []Recording) []Recording {
			for i := range items {
				if items[i].ID == id {
					items[i].Title = fields.Title
					items[i].UpdatedAt = fields.UpdatedAt
				}
			}
			return items
		},
		func(ctx context.Context) error {
			_, err := c.backend.Update(ctx, id, fields)
			return err
		})
}

// Delete removes recording id and then, best effort, its stored audio.
// A failure to remove the audio is logged and does not fail the call.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	rec, ok := c.Get(id)
	if !ok {
		return apperrors.NotFound("recording", id)
	}

	err := c.mutate(ctx, "delete", id,
		func(items []Recording) []Recording {
			return slices.DeleteFunc(items, func(r Recording) bool { return r.ID == id })
		},
		func(ctx context.Context) error {
			return c.backend.Delete(ctx, id)
		})
	if err != nil {
		return err
	}

	if rec.StoragePath != "" && c.artifacts != nil {
		if !c.artifacts.Delete(ctx, rec.StoragePath) {
			c.log.Warn("stored audio was not removed", logger.Fields(
				logger.FieldRecordingID, id, logger.FieldStoragePath, rec.StoragePath))
		}
	}
	return nil
}

// mutate applies change to the view, runs remote, restores the previous
// view when remote fails, and re-fetches once remote has returned.
func (c *Catalog) mutate(ctx context.Context, op, id string, change func([]Recording) []Recording, remote func(context.Context) error) (err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.CatalogClosed()
	}
	snapshot := slices.Clone(c.items)
	c.items = change(slices.Clone(c.items))
	c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanCatalogMutate)
	defer func() { observability.EndSpan(span, err) }()
	observability.SetSpanAttribute(ctx, observability.AttrRecordingID, id)
	observability.SetSpanAttribute(ctx, "catalog.operation", op)

	log := c.log.WithFields(logger.Fields(logger.FieldOperation, op, logger.FieldRecordingID, id))
	if remoteErr := remote(ctx); remoteErr != nil {
		c.mu.Lock()
		if !c.closed {
			c.items = snapshot
		}
		c.mu.Unlock()

		c.metrics.RecordRollback(ctx, op)
		log.Error("catalog change rolled back", logger.Fields(logger.FieldError, remoteErr.Error()))
		c.diag.Record("catalog", "rollback", map[string]any{"operation": op, "id": id, "error": remoteErr.Error()})
		c.reconcile(ctx, log)
		return apperrors.CatalogSync(op, remoteErr)
	}

	log.Debug("catalog change applied")
	c.diag.Record("catalog", op, map[string]any{"id": id})
	c.reconcile(ctx, log)
	return nil
}

// reconcile re-fetches after a mutation without sweeping. Its failure
// leaves the local view.
func (c *Catalog) reconcile(ctx context.Context, log *logger.Logger) {
	if _, err := c.refresh(ctx, false); err != nil && !apperrors.HasCode(err, apperrors.ErrCodeCatalogClosed) {
		log.Warn("re-fetch after change failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

// replace swaps the row with id old for r, keeping its position.
func (c *Catalog) replace(old string, r Recording) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(old); i >= 0 {
		c.items[i] = r
	}
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.items, func(r Recording) bool { return r.ID == id })
}
