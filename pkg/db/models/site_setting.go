package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteSetting is a single admin-editable key/value pair.
type SiteSetting struct {
	Key       string     `gorm:"column:key;primaryKey"`
	Value     string     `gorm:"column:value;not null"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
