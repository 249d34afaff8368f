package prompt

import (
	"context"
	"strings"
	"time"

	"github.com/kbukum/audiopen/auth"
	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/util"
	"github.com/kbukum/audiopen/validation"
)

const (
	maxNameLength     = 100
	maxCategoryLength = 50
)

// Option configures a Library.
type Option func(*Library)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// Library combines the built-in templates with the signed-in user's prompts.
type Library struct {
	store Store
	owner auth.Provider
	log   *logger.Logger
	now   func() time.Time
}

// NewLibrary creates a library on store for the user owner reports.
func NewLibrary(store Store, owner auth.Provider, log *logger.Logger, opts ...Option) *Library {
	if log == nil {
		log = logger.NewNop()
	}
	l := &Library{store: store, owner: owner, log: log.WithComponent("prompt"), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Library) user() (auth.User, error) {
	u, ok := l.owner.CurrentUser()
	if !ok {
		return auth.User{}, apperrors.Unauthorized("sign in to manage prompts")
	}
	return u, nil
}

// owned fetches prompt id and hides prompts of other users as not found.
func (l *Library) owned(ctx context.Context, id string) (UserPrompt, error) {
	u, err := l.user()
	if err != nil {
		return UserPrompt{}, err
	}
	p, err := l.store.Get(ctx, id)
	if err != nil {
		return UserPrompt{}, err
	}
	if p.OwnerID != u.ID {
		return UserPrompt{}, apperrors.NotFound("prompt", id)
	}
	return p, nil
}

func (d Draft) normalize() (Draft, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Text = strings.TrimSpace(d.Text)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	err := validation.New().
		Required("name", d.Name).
		MaxLength("name", d.Name, maxNameLength).
		Required("prompt", d.Text).
		MaxLength("category", d.Category, maxCategoryLength).
		Err()
	return d, err
}

// Builtins returns the shipped templates.
func (l *Library) Builtins() []Builtin {
	return Builtins()
}

// List returns the user's prompts, favorites first, then most recently updated.
func (l *Library) List(ctx context.Context) ([]UserPrompt, error) {
	u, err := l.user()
	if err != nil {
		return nil, err
	}
	ps, err := l.store.List(ctx, u.ID)
	if err != nil {
		l.log.Error("listing prompts failed", logger.ErrorFields("list", err))
		return nil, err
	}
	sortForDisplay(ps)
	return ps, nil
}

// Create saves a new user prompt.
func (l *Library) Create(ctx context.Context, d Draft) (UserPrompt, error) {
	u, err := l.user()
	if err != nil {
		return UserPrompt{}, err
	}
	d, err = d.normalize()
	if err != nil {
		return UserPrompt{}, err
	}
	now := l.now()
	p, err := l.store.Insert(ctx, UserPrompt{
		OwnerID:   u.ID,
		Name:      d.Name,
		Text:      d.Text,
		Category:  d.Category,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		l.log.Error("saving prompt failed", logger.ErrorFields("create", err))
		return UserPrompt{}, err
	}
	l.log.Info("prompt saved", logger.Fields(logger.FieldPromptID, p.ID))
	return p, nil
}

// Update replaces the name, text and category of prompt id.
func (l *Library) Update(ctx context.Context, id string, d Draft) (UserPrompt, error) {
	if _, err := l.owned(ctx, id); err != nil {
		return UserPrompt{}, err
	}
	d, err := d.normalize()
	if err != nil {
		return UserPrompt{}, err
	}
	return l.store.Update(ctx, id, Changes{Name: &d.Name, Text: &d.Text, Category: &d.Category, UpdatedAt: util.Ptr(l.now())})
}

// ToggleFavorite flips the favorite flag of prompt id. UpdatedAt is kept so
// favoriting does not reorder prompts within their group.
func (l *Library) ToggleFavorite(ctx context.Context, id string) (UserPrompt, error) {
	p, err := l.owned(ctx, id)
	if err != nil {
		return UserPrompt{}, err
	}
	return l.store.Update(ctx, id, Changes{IsFavorite: util.Ptr(!p.IsFavorite)})
}

// Delete removes prompt id.
func (l *Library) Delete(ctx context.Context, id string) error {
	if _, err := l.owned(ctx, id); err != nil {
		return err
	}
	if err := l.store.Delete(ctx, id); err != nil {
		l.log.Error("deleting prompt failed", logger.ErrorFields("delete", err))
		return err
	}
	return nil
}

// IncrementUsage records one successful transcription with prompt id.
// Built-in prompts have no counter and are ignored.
func (l *Library) IncrementUsage(ctx context.Context, id string) error {
	if _, ok := BuiltinByID(id); ok {
		return nil
	}
	p, err := l.store.IncrementUsage(ctx, id, l.now())
	if err != nil {
		l.log.Warn("could not record prompt usage", logger.Fields(logger.FieldPromptID, id, logger.FieldError, err.Error()))
		return err
	}
	l.log.Debug("prompt usage recorded", logger.Fields(logger.FieldPromptID, id, "usage_count", p.UsageCount))
	return nil
}

// Resolve returns the prompt with id. For CustomPromptID the text is the
// caller's custom instructions, which must not be blank.
func (l *Library) Resolve(ctx context.Context, id, custom string) (Prompt, error) {
	if id == CustomPromptID {
		custom = strings.TrimSpace(custom)
		if custom == "" {
			return Prompt{}, apperrors.InvalidInput("prompt", "custom instructions are required")
		}
		b, _ := BuiltinByID(CustomPromptID)
		b.Text = custom
		return FromBuiltin(b), nil
	}
	if b, ok := BuiltinByID(id); ok {
		return FromBuiltin(b), nil
	}
	if id == "" {
		return Prompt{}, apperrors.InvalidInput("prompt", "choose a prompt")
	}
	p, err := l.owned(ctx, id)
	if err != nil {
		return Prompt{}, err
	}
	return FromUser(p), nil
}
