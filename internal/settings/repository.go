package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
)

// Repository persists site settings.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) All(ctx context.Context) ([]models.SiteSetting, error) {
	var rows []models.SiteSetting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes every value, replacing existing keys.
func (r *Repository) Upsert(ctx context.Context, values map[string]string, updatedBy uuid.UUID, now time.Time) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]models.SiteSetting, 0, len(values))
	for key, value := range values {
		by := updatedBy
		rows = append(rows, models.SiteSetting{Key: key, Value: value, UpdatedBy: &by, UpdatedAt: now})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).
		Create(&rows).Error
}
