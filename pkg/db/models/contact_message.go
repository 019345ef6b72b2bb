package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// ContactMessage is an inbound message from the public contact form.
type ContactMessage struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string       `gorm:"column:name;not null"`
	Email     string       `gorm:"column:email;not null"`
	Phone     *string      `gorm:"column:phone"`
	Subject   string       `gorm:"column:subject;not null"`
	Message   string       `gorm:"column:message;not null"`
	ListingID *uuid.UUID   `gorm:"column:listing_id;type:uuid"`
	Locale    enums.Locale `gorm:"column:locale;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (m *ContactMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
