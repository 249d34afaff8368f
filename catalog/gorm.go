package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/audiopen/database"
	apperrors "github.com/kbukum/audiopen/errors"
)

// recordingRow mirrors the hosted recordings table.
type recordingRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"index;not null"`
	Title       string `gorm:"not null;default:'Untitled Recording'"`
	AudioURL    string `gorm:"not null"`
	Duration    int64  `gorm:"not null;default:0"`
	StoragePath string
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (recordingRow) TableName() string { return "recordings" }

func (r recordingRow) toRecording() Recording {
	return Recording{
		ID:          r.ID,
		OwnerID:     r.UserID,
		Title:       r.Title,
		DurationMs:  r.Duration,
		StoragePath: r.StoragePath,
		AudioURL:    r.AudioURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// GormModels returns the models GormBackend needs migrated.
func GormModels() []interface{} {
	return []interface{}{&recordingRow{}}
}

// GormBackend stores recordings in a SQL database through GORM.
type GormBackend struct {
	db *database.DB
}

// NewGormBackend creates a backend on db. The recordings table must exist;
// see GormModels.
func NewGormBackend(db *database.DB) *GormBackend {
	return &GormBackend{db: db}
}

// List returns the owner's recordings, newest first.
func (b *GormBackend) List(ctx context.Context, ownerID string) ([]Recording, error) {
	var rows []recordingRow
	err := b.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, database.FromDatabase(err, "recording")
	}
	out := make([]Recording, len(rows))
	for i, row := range rows {
		out[i] = row.toRecording()
	}
	return out, nil
}

// Insert stores r, assigning an id when it has none.
func (b *GormBackend) Insert(ctx context.Context, r Recording) (Recording, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	row := recordingRow{
		ID:          r.ID,
		UserID:      r.OwnerID,
		Title:       r.Title,
		AudioURL:    r.AudioURL,
		Duration:    r.DurationMs,
		StoragePath: r.StoragePath,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := b.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Recording{}, database.FromDatabase(err, "recording")
	}
	return row.toRecording(), nil
}

// Update sets the mutable fields of row id.
func (b *GormBackend) Update(ctx context.Context, id string, f Fields) (Recording, error) {
	res := b.db.WithContext(ctx).
		Model(&recordingRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": f.Title, "updated_at": f.UpdatedAt})
	if res.Error != nil {
		return Recording{}, database.FromDatabase(res.Error, "recording")
	}
	if res.RowsAffected == 0 {
		return Recording{}, apperrors.NotFound("recording", id)
	}

	var row recordingRow
	if err := b.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return Recording{}, database.FromDatabase(err, "recording")
	}
	return row.toRecording(), nil
}

// Delete removes row id.
func (b *GormBackend) Delete(ctx context.Context, id string) error {
	if err := b.db.WithContext(ctx).Where("id = ?", id).Delete(&recordingRow{}).Error; err != nil {
		return database.FromDatabase(err, "recording")
	}
	return nil
}
