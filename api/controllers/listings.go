package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/emlakhub/emlakhub-backend/api/middleware"
	"github.com/emlakhub/emlakhub-backend/api/responses"
	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

type createListingRequest struct {
	Title        string               `json:"title" validate:"required,max=200"`
	Description  *string              `json:"description" validate:"omitempty,max=5000"`
	PropertyType enums.PropertyType   `json:"property_type" validate:"required"`
	Purpose      enums.ListingPurpose `json:"purpose" validate:"required"`
	Price        decimal.Decimal      `json:"price"`
	Currency     string               `json:"currency" validate:"required"`
	City         string               `json:"city" validate:"required,max=120"`
	District     *string              `json:"district" validate:"omitempty,max=120"`
	Address      *string              `json:"address" validate:"omitempty,max=300"`
	Bedrooms     int                  `json:"bedrooms" validate:"min=0,max=100"`
	Bathrooms    int                  `json:"bathrooms" validate:"min=0,max=100"`
	AreaSqm      int                  `json:"area_sqm" validate:"min=0"`
	ImageKeys    []string             `json:"image_keys" validate:"max=30,dive,required,max=512"`
}

// updateListingRequest carries content fields only; visibility fields are
// rejected by the decoder as unknown.
type updateListingRequest struct {
	Title        *string               `json:"title" validate:"omitempty,max=200"`
	Description  *string               `json:"description" validate:"omitempty,max=5000"`
	PropertyType *enums.PropertyType   `json:"property_type"`
	Purpose      *enums.ListingPurpose `json:"purpose"`
	Price        *decimal.Decimal      `json:"price"`
	Currency     *enums.Currency       `json:"currency"`
	City         *string               `json:"city" validate:"omitempty,max=120"`
	District     *string               `json:"district" validate:"omitempty,max=120"`
	Address      *string               `json:"address" validate:"omitempty,max=300"`
	Bedrooms     *int                  `json:"bedrooms" validate:"omitempty,min=0,max=100"`
	Bathrooms    *int                  `json:"bathrooms" validate:"omitempty,min=0,max=100"`
	AreaSqm      *int                  `json:"area_sqm" validate:"omitempty,min=0"`
	ImageKeys    *[]string             `json:"image_keys" validate:"omitempty,max=30,dive,required,max=512"`
}

type listingStatusRequest struct {
	Status enums.ListingStatus `json:"status" validate:"required"`
}

type listingFeaturedRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

// SearchListings serves the public search feed.
func SearchListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listListings(svc, logg, visibility.FeedSearch)
}

// SellerListings serves the caller's own listings, hidden ones included.
func SellerListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listListings(svc, logg, visibility.FeedSellerDashboard)
}

// AdminListings serves every listing with the moderation filters enabled.
func AdminListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return listListings(svc, logg, visibility.FeedAdminDashboard)
}

func listListings(svc listings.Service, logg *logger.Logger, feed visibility.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseSearchFilters(r, feed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), listings.ListInput{
			Feed:       feed,
			Filters:    filters,
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseSearchFilters(r *http.Request, feed visibility.Feed) (listings.SearchFilters, error) {
	query := r.URL.Query()
	filters := listings.SearchFilters{
		City:     validators.OptionalString(r, "city", 120),
		District: validators.OptionalString(r, "district", 120),
		Query:    validators.SanitizeString(query.Get("q"), 200),
	}

	if raw := strings.TrimSpace(query.Get("property_type")); raw != "" {
		value, err := enums.ParsePropertyType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property_type")
		}
		filters.PropertyType = &value
	}
	if raw := strings.TrimSpace(query.Get("purpose")); raw != "" {
		value, err := enums.ParseListingPurpose(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purpose")
		}
		filters.Purpose = &value
	}

	var err error
	if filters.PriceMin, err = validators.ParseOptionalDecimal(r, "price_min"); err != nil {
		return filters, err
	}
	if filters.PriceMax, err = validators.ParseOptionalDecimal(r, "price_max"); err != nil {
		return filters, err
	}
	if filters.BedroomsMin, err = validators.ParseOptionalInt(r, "bedrooms_min", 0, 100); err != nil {
		return filters, err
	}

	// The public feed has a fixed status predicate, so moderation filters only
	// apply to the dashboards.
	if feed == visibility.FeedSearch {
		return filters, nil
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		value, err := enums.ParseListingStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &value
	}
	if filters.HiddenByAdmin, err = validators.ParseOptionalBool(r, "hidden_by_admin"); err != nil {
		return filters, err
	}
	if feed == visibility.FeedAdminDashboard {
		if filters.OwnerID, err = validators.ParseOptionalUUID(r, "owner_id"); err != nil {
			return filters, err
		}
		if filters.Featured, err = validators.ParseOptionalBool(r, "featured"); err != nil {
			return filters, err
		}
	}
	return filters, nil
}

// FeaturedListings serves the home page featured feed.
func FeaturedListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Featured(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"listings": items})
	}
}

// SuggestedListings serves listings similar to the one in the path.
func SuggestedListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Suggested(r.Context(), middleware.ActorFromContext(r.Context()), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"listings": items})
	}
}

// GetListing returns listing detail. Hidden listings read as not found unless
// the caller owns the listing or is an admin.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.GetListing(r.Context(), middleware.ActorFromContext(r.Context()), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// RecordListingView counts a detail page visit.
func RecordListingView(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counted, err := svc.RecordView(r.Context(), middleware.ActorFromContext(r.Context()), listingID, visitorID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"counted": counted})
	}
}

func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		dto, err := svc.CreateListing(r.Context(), middleware.ActorFromContext(r.Context()), listings.CreateListingInput{
			Title:        validators.SanitizeString(req.Title, 200),
			Description:  req.Description,
			PropertyType: req.PropertyType,
			Purpose:      req.Purpose,
			Price:        req.Price,
			Currency:     currency,
			City:         validators.SanitizeString(req.City, 120),
			District:     req.District,
			Address:      req.Address,
			Bedrooms:     req.Bedrooms,
			Bathrooms:    req.Bathrooms,
			AreaSqm:      req.AreaSqm,
			ImageKeys:    req.ImageKeys,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func UpdateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateListing(r.Context(), middleware.ActorFromContext(r.Context()), listingID, listings.UpdateListingInput{
			Title:        req.Title,
			Description:  req.Description,
			PropertyType: req.PropertyType,
			Purpose:      req.Purpose,
			Price:        req.Price,
			Currency:     req.Currency,
			City:         req.City,
			District:     req.District,
			Address:      req.Address,
			Bedrooms:     req.Bedrooms,
			Bathrooms:    req.Bathrooms,
			AreaSqm:      req.AreaSqm,
			ImageKeys:    req.ImageKeys,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DeleteListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteListing(r.Context(), middleware.ActorFromContext(r.Context()), listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SetListingStatus is the seller visibility toggle. Admin-hidden listings
// answer 423 with the admin lock code.
func SetListingStatus(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req listingStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SellerToggleVisibility(r.Context(), middleware.ActorFromContext(r.Context()), listingID, req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminSetListingHidden backs both the hide and show admin actions.
func AdminSetListingHidden(svc listings.Service, logg *logger.Logger, hide bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.AdminSetHidden(r.Context(), middleware.ActorFromContext(r.Context()), listingID, hide)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminSetListingFeatured(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := validators.ParseUUIDParam(r, "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req listingFeaturedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.AdminSetFeatured(r.Context(), middleware.ActorFromContext(r.Context()), listingID, *req.Featured)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
