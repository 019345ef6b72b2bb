package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
)

// Repository persists listing reports.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// HasOpenReport reports whether the reporter already has an open report on the listing.
func (r *Repository) HasOpenReport(ctx context.Context, reporterID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("reporter_id = ? AND listing_id = ? AND status = ?", reporterID, listingID, enums.ReportStatusOpen).
		Count(&count).Error
	return count > 0, err
}

// Close moves an open report into a terminal status. Reports that are already
// closed are left untouched and report zero rows.
func (r *Repository) Close(ctx context.Context, id, adminID uuid.UUID, status enums.ReportStatus, resolution *string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, enums.ReportStatusOpen).
		Updates(map[string]any{
			"status":      status,
			"resolved_by": adminID,
			"resolved_at": at,
			"resolution":  resolution,
		})
	return res.RowsAffected, res.Error
}

// ListFilter narrows the admin report queue.
type ListFilter struct {
	Status    *enums.ReportStatus
	ListingID *uuid.UUID
}

func (r *Repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Report, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ListingID != nil {
		query = query.Where("listing_id = ?", *filter.ListingID)
	}
	query = query.Scopes(pagination.After(cursor, ""))

	var rows []models.Report
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
