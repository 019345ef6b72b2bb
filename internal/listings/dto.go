package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// ListingDTO is the API representation of a listing.
type ListingDTO struct {
	ID            uuid.UUID            `json:"id"`
	OwnerID       uuid.UUID            `json:"owner_id"`
	Title         string               `json:"title"`
	Description   *string              `json:"description,omitempty"`
	PropertyType  enums.PropertyType   `json:"property_type"`
	Purpose       enums.ListingPurpose `json:"purpose"`
	Price         decimal.Decimal      `json:"price"`
	Currency      enums.Currency       `json:"currency"`
	City          string               `json:"city"`
	District      *string              `json:"district,omitempty"`
	Address       *string              `json:"address,omitempty"`
	Bedrooms      int                  `json:"bedrooms"`
	Bathrooms     int                  `json:"bathrooms"`
	AreaSqm       int                  `json:"area_sqm"`
	ImageKeys     []string             `json:"image_keys"`
	IsFeatured    bool                 `json:"is_featured"`
	Status        enums.ListingStatus  `json:"status"`
	HiddenByAdmin bool                 `json:"hidden_by_admin"`
	ViewCount     int64                `json:"view_count"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewListingDTO maps the model to its API shape.
func NewListingDTO(listing *models.Listing) *ListingDTO {
	if listing == nil {
		return nil
	}
	keys := make([]string, len(listing.ImageKeys))
	copy(keys, listing.ImageKeys)
	return &ListingDTO{
		ID:            listing.ID,
		OwnerID:       listing.OwnerID,
		Title:         listing.Title,
		Description:   listing.Description,
		PropertyType:  listing.PropertyType,
		Purpose:       listing.Purpose,
		Price:         listing.Price,
		Currency:      listing.Currency,
		City:          listing.City,
		District:      listing.District,
		Address:       listing.Address,
		Bedrooms:      listing.Bedrooms,
		Bathrooms:     listing.Bathrooms,
		AreaSqm:       listing.AreaSqm,
		ImageKeys:     keys,
		IsFeatured:    listing.IsFeatured,
		Status:        listing.Status,
		HiddenByAdmin: listing.HiddenByAdmin,
		ViewCount:     listing.ViewCount,
		CreatedAt:     listing.CreatedAt,
		UpdatedAt:     listing.UpdatedAt,
	}
}

func newListingDTOs(rows []models.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewListingDTO(&rows[i]))
	}
	return out
}

// ListingListResult is one page of a listing feed.
type ListingListResult struct {
	Listings   []ListingDTO `json:"listings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateListingInput holds the validated payload to create a listing.
type CreateListingInput struct {
	Title        string
	Description  *string
	PropertyType enums.PropertyType
	Purpose      enums.ListingPurpose
	Price        decimal.Decimal
	Currency     enums.Currency
	City         string
	District     *string
	Address      *string
	Bedrooms     int
	Bathrooms    int
	AreaSqm      int
	ImageKeys    []string
}

// UpdateListingInput holds optional content changes. Status, hidden_by_admin,
// and is_featured change only through the transition operations.
type UpdateListingInput struct {
	Title        *string
	Description  *string
	PropertyType *enums.PropertyType
	Purpose      *enums.ListingPurpose
	Price        *decimal.Decimal
	Currency     *enums.Currency
	City         *string
	District     *string
	Address      *string
	Bedrooms     *int
	Bathrooms    *int
	AreaSqm      *int
	ImageKeys    *[]string
}

// SearchFilters describe the supported filter knobs for listing feeds. They
// narrow the audience predicate and can never widen it.
type SearchFilters struct {
	City          *string               `json:"city,omitempty"`
	District      *string               `json:"district,omitempty"`
	PropertyType  *enums.PropertyType   `json:"property_type,omitempty"`
	Purpose       *enums.ListingPurpose `json:"purpose,omitempty"`
	PriceMin      *decimal.Decimal      `json:"price_min,omitempty"`
	PriceMax      *decimal.Decimal      `json:"price_max,omitempty"`
	BedroomsMin   *int                  `json:"bedrooms_min,omitempty"`
	Query         string                `json:"q,omitempty"`
	Status        *enums.ListingStatus  `json:"status,omitempty"`
	HiddenByAdmin *bool                 `json:"hidden_by_admin,omitempty"`
	OwnerID       *uuid.UUID            `json:"owner_id,omitempty"`
	Featured      *bool                 `json:"featured,omitempty"`
}

// ListInput selects a feed and page.
type ListInput struct {
	Feed       visibility.Feed
	Filters    SearchFilters
	Pagination pagination.Params
}
