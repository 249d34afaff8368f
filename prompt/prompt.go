package prompt

import (
	"slices"
	"time"
)

// Kind tags the variant a Prompt carries.
type Kind int

const (
	// KindBuiltin is a template shipped with the application.
	KindBuiltin Kind = iota + 1
	// KindUser is a prompt a user saved.
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindUser:
		return "user"
	default:
		return "unknown"
	}
}

// DefaultCategory is assigned to user prompts saved without one.
const DefaultCategory = "custom"

// Builtin is a static prompt template.
type Builtin struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	Category         string `json:"category"`
	Text             string `json:"prompt"`
}

// UserPrompt is a prompt saved by a user. UsageCount only grows through
// successful transcriptions.
type UserPrompt struct {
	ID         string    `json:"id,omitempty"`
	OwnerID    string    `json:"user_id"`
	Name       string    `json:"name"`
	Text       string    `json:"prompt"`
	Category   string    `json:"category"`
	IsFavorite bool      `json:"is_favorite"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Prompt is the tagged union of Builtin and UserPrompt. Exactly the field
// matching Kind is meaningful.
type Prompt struct {
	Kind    Kind
	Builtin Builtin
	User    UserPrompt
}

// FromBuiltin wraps b.
func FromBuiltin(b Builtin) Prompt { return Prompt{Kind: KindBuiltin, Builtin: b} }

// FromUser wraps u.
func FromUser(u UserPrompt) Prompt { return Prompt{Kind: KindUser, User: u} }

// ID returns the variant's id.
func (p Prompt) ID() string {
	if p.Kind == KindUser {
		return p.User.ID
	}
	return p.Builtin.ID
}

// Name returns the variant's display name.
func (p Prompt) Name() string {
	if p.Kind == KindUser {
		return p.User.Name
	}
	return p.Builtin.Name
}

// Text returns the instruction text sent with the audio.
func (p Prompt) Text() string {
	if p.Kind == KindUser {
		return p.User.Text
	}
	return p.Builtin.Text
}

// Category returns the variant's category.
func (p Prompt) Category() string {
	if p.Kind == KindUser {
		return p.User.Category
	}
	return p.Builtin.Category
}

// Draft is the editable part of a user prompt.
type Draft struct {
	Name     string
	Text     string
	Category string
}

// Changes lists the columns an update writes. Nil fields are left alone.
type Changes struct {
	Name       *string
	Text       *string
	Category   *string
	IsFavorite *bool
	UpdatedAt  *time.Time
}

func (c Changes) apply(p *UserPrompt) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Text != nil {
		p.Text = *c.Text
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.IsFavorite != nil {
		p.IsFavorite = *c.IsFavorite
	}
	if c.UpdatedAt != nil {
		p.UpdatedAt = *c.UpdatedAt
	}
}

func (c Changes) columns() map[string]any {
	cols := make(map[string]any, 5)
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Text != nil {
		cols["prompt"] = *c.Text
	}
	if c.Category != nil {
		cols["category"] = *c.Category
	}
	if c.IsFavorite != nil {
		cols["is_favorite"] = *c.IsFavorite
	}
	if c.UpdatedAt != nil {
		cols["updated_at"] = *c.UpdatedAt
	}
	return cols
}

// sortForDisplay orders favorites first, then most recently updated.
func sortForDisplay(ps []UserPrompt) {
	slices.SortStableFunc(ps, func(a, b UserPrompt) int {
		if a.IsFavorite != b.IsFavorite {
			if a.IsFavorite {
				return -1
			}
			return 1
		}
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
