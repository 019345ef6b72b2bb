package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// Report is a user complaint about a listing, reviewed by admins.
type Report struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID          `gorm:"column:listing_id;type:uuid;not null"`
	ReporterID uuid.UUID          `gorm:"column:reporter_id;type:uuid;not null"`
	Reason     enums.ReportReason `gorm:"column:reason;type:report_reason;not null"`
	Details    *string            `gorm:"column:details"`
	Status     enums.ReportStatus `gorm:"column:status;type:report_status;not null"`
	ResolvedBy *uuid.UUID         `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at"`
	Resolution *string            `gorm:"column:resolution"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = enums.ReportStatusOpen
	}
	return nil
}
