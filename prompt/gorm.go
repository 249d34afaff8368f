package prompt

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kbukum/audiopen/database"
	apperrors "github.com/kbukum/audiopen/errors"
)

type userPromptRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	UserID     string `gorm:"index;not null"`
	Name       string `gorm:"not null"`
	Prompt     string `gorm:"not null"`
	Category   string `gorm:"not null;default:'custom'"`
	IsFavorite bool   `gorm:"not null;default:false"`
	UsageCount int    `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false"`
}

func (userPromptRow) TableName() string { return "user_prompts" }

func (r userPromptRow) toPrompt() UserPrompt {
	return UserPrompt{
		ID:         r.ID,
		OwnerID:    r.UserID,
		Name:       r.Name,
		Text:       r.Prompt,
		Category:   r.Category,
		IsFavorite: r.IsFavorite,
		UsageCount: r.UsageCount,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// GormModels returns the models GormStore needs migrated.
func GormModels() []interface{} {
	return []interface{}{&userPromptRow{}}
}

// GormStore keeps user prompts in a SQL database through GORM.
type GormStore struct {
	db *database.DB
}

// NewGormStore creates a store on db.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

// List returns the owner's prompts in display order.
func (s *GormStore) List(ctx context.Context, ownerID string) ([]UserPrompt, error) {
	var rows []userPromptRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("is_favorite desc").
		Order("updated_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, database.FromDatabase(err, "prompt")
	}
	out := make([]UserPrompt, len(rows))
	for i, row := range rows {
		out[i] = row.toPrompt()
	}
	return out, nil
}

// Get returns prompt id.
func (s *GormStore) Get(ctx context.Context, id string) (UserPrompt, error) {
	var row userPromptRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return UserPrompt{}, database.FromDatabase(err, "prompt")
	}
	return row.toPrompt(), nil
}

// Insert stores p, assigning an id when it has none.
func (s *GormStore) Insert(ctx context.Context, p UserPrompt) (UserPrompt, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := userPromptRow{
		ID:         p.ID,
		UserID:     p.OwnerID,
		Name:       p.Name,
		Prompt:     p.Text,
		Category:   p.Category,
		IsFavorite: p.IsFavorite,
		UsageCount: p.UsageCount,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return UserPrompt{}, database.FromDatabase(err, "prompt")
	}
	return s.Get(ctx, row.ID)
}

// Update writes c to prompt id.
func (s *GormStore) Update(ctx context.Context, id string, c Changes) (UserPrompt, error) {
	return s.update(ctx, id, c.columns())
}

// IncrementUsage adds one to the usage count of prompt id in a single statement.
func (s *GormStore) IncrementUsage(ctx context.Context, id string, at time.Time) (UserPrompt, error) {
	return s.update(ctx, id, map[string]any{
		"usage_count": gorm.Expr("usage_count + ?", 1),
		"updated_at":  at,
	})
}

func (s *GormStore) update(ctx context.Context, id string, cols map[string]any) (UserPrompt, error) {
	if len(cols) > 0 {
		res := s.db.WithContext(ctx).Model(&userPromptRow{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return UserPrompt{}, database.FromDatabase(res.Error, "prompt")
		}
		if res.RowsAffected == 0 {
			return UserPrompt{}, apperrors.NotFound("prompt", id)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes prompt id.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&userPromptRow{}).Error; err != nil {
		return database.FromDatabase(err, "prompt")
	}
	return nil
}
