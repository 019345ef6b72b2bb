package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// Listing is a property advertisement. Status and HiddenByAdmin together
// decide public visibility: a listing is public only when it is available
// and not hidden by an administrator.
type Listing struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID            `gorm:"column:owner_id;type:uuid;not null"`
	Title         string               `gorm:"column:title;not null"`
	Description   *string              `gorm:"column:description"`
	PropertyType  enums.PropertyType   `gorm:"column:property_type;type:property_type;not null"`
	Purpose       enums.ListingPurpose `gorm:"column:purpose;type:listing_purpose;not null"`
	Price         decimal.Decimal      `gorm:"column:price;type:numeric(14,2);not null"`
	Currency      enums.Currency       `gorm:"column:currency;not null"`
	City          string               `gorm:"column:city;not null"`
	District      *string              `gorm:"column:district"`
	Address       *string              `gorm:"column:address"`
	Bedrooms      int                  `gorm:"column:bedrooms;not null;default:0"`
	Bathrooms     int                  `gorm:"column:bathrooms;not null;default:0"`
	AreaSqm       int                  `gorm:"column:area_sqm;not null;default:0"`
	ImageKeys     pq.StringArray       `gorm:"column:image_keys;type:text[];not null"`
	IsFeatured    bool                 `gorm:"column:is_featured;not null;default:false"`
	Status        enums.ListingStatus  `gorm:"column:status;type:listing_status;not null"`
	HiddenByAdmin bool                 `gorm:"column:hidden_by_admin;not null;default:false"`
	ViewCount     int64                `gorm:"column:view_count;not null;default:0"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key client-side so sqlite and postgres behave alike.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.ImageKeys == nil {
		l.ImageKeys = pq.StringArray{}
	}
	return nil
}

// PubliclyVisible reports whether anonymous users may see the listing.
func (l Listing) PubliclyVisible() bool {
	return l.Status == enums.ListingStatusAvailable && !l.HiddenByAdmin
}
