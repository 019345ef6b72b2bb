package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// ActivityLog is an append-only record of a moderation or lifecycle event.
type ActivityLog struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID   *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	ActorRole *enums.UserRole    `gorm:"column:actor_role;type:user_role"`
	Kind      enums.ActivityKind `gorm:"column:kind;type:activity_kind;not null"`
	ListingID *uuid.UUID         `gorm:"column:listing_id;type:uuid"`
	OwnerID   *uuid.UUID         `gorm:"column:owner_id;type:uuid"`
	Details   json.RawMessage    `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
