package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/policy"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// Service exposes listing management, visibility transitions, and feeds.
type Service interface {
	CreateListing(ctx context.Context, actor visibility.Actor, input CreateListingInput) (*ListingDTO, error)
	UpdateListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, input UpdateListingInput) (*ListingDTO, error)
	DeleteListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error
	GetListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) (*ListingDTO, error)
	List(ctx context.Context, actor visibility.Actor, input ListInput) (*ListingListResult, error)
	Featured(ctx context.Context, actor visibility.Actor) ([]ListingDTO, error)
	Suggested(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) ([]ListingDTO, error)

	AdminSetHidden(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, hide bool) (*ListingDTO, error)
	SellerToggleVisibility(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, requested enums.ListingStatus) (*ListingDTO, error)
	AdminSetFeatured(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, featured bool) (*ListingDTO, error)

	RecordView(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, visitor string) (bool, error)
}

type viewDeduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ListingViewKey(listingID, visitor string) string
}

type transitionObserver interface {
	ObserveTransition(action, outcome string)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	activity activity.Emitter
	views    viewDeduper
	cfg      config.ListingsConfig
	logg     *logger.Logger
	metrics  transitionObserver
}

// NewService constructs a listing service instance.
func NewService(repo *Repository, dbClient *db.Client, emitter activity.Emitter, views viewDeduper, cfg config.ListingsConfig, logg *logger.Logger, metrics transitionObserver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("activity emitter required")
	}
	if views == nil {
		return nil, fmt.Errorf("view deduper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		activity: emitter,
		views:    views,
		cfg:      cfg,
		logg:     logg,
		metrics:  metrics,
	}, nil
}

func actorSession(actor visibility.Actor) db.ActorSession {
	if !actor.IsAuthenticated() {
		return db.ActorSession{}
	}
	return db.ActorSession{UserID: actor.ID.String(), Role: string(actor.Role)}
}

// CreateListing stores a new listing owned by the caller. With review enabled
// the listing starts admin-hidden and waits for an administrator to show it.
func (s *service) CreateListing(ctx context.Context, actor visibility.Actor, input CreateListingInput) (*ListingDTO, error) {
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.UserRoleSeller && actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers may create listings")
	}
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		OwnerID:      actor.ID,
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		PropertyType: input.PropertyType,
		Purpose:      input.Purpose,
		Price:        input.Price,
		Currency:     input.Currency,
		City:         strings.TrimSpace(input.City),
		District:     input.District,
		Address:      input.Address,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		AreaSqm:      input.AreaSqm,
		ImageKeys:    pq.StringArray(input.ImageKeys),
		Status:       enums.ListingStatusAvailable,
	}
	if s.cfg.RequireReview {
		listing.Status = enums.AdminHiddenStatus()
		listing.HiddenByAdmin = true
	}

	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, listing)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert listing")
	}

	s.activity.Emit(ctx, activity.ListingEntry(actor, enums.ActivityPropertyCreated, listing, map[string]any{
		"title":  listing.Title,
		"status": listing.Status,
	}))
	s.logg.Info(s.logg.WithListingID(ctx, listing.ID.String()), "listing created")
	return NewListingDTO(listing), nil
}

func (s *service) validateCreate(input CreateListingInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if !input.PropertyType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid property_type")
	}
	if !input.Purpose.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid purpose")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Bedrooms < 0 || input.Bathrooms < 0 || input.AreaSqm < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "room counts and area cannot be negative")
	}
	return s.validateImages(input.ImageKeys)
}

func (s *service) validateImages(keys []string) error {
	if s.cfg.MaxImagesPerListing > 0 && len(keys) > s.cfg.MaxImagesPerListing {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images are allowed", s.cfg.MaxImagesPerListing))
	}
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "image keys cannot be blank")
		}
	}
	return nil
}

// UpdateListing applies content edits. Owners may edit their own listing,
// including while it is admin-hidden; visibility is untouched.
func (s *service) UpdateListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, input UpdateListingInput) (*ListingDTO, error) {
	updates, err := s.contentUpdates(input)
	if err != nil {
		return nil, err
	}

	current, err := s.load(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckOwnerOrAdmin(actor, current); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return NewListingDTO(current), nil
	}

	var updated *models.Listing
	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.UpdateContent(ctx, actor, listingID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update listing")
		}
		reloaded, err := findOptional(ctx, txRepo, listingID)
		if err != nil {
			return err
		}
		if rows == 0 {
			if err := policy.CheckOwnerOrAdmin(actor, reloaded); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing changed concurrently")
		}
		updated = reloaded
		return nil
	}); err != nil {
		return nil, asServiceError(err, "update listing")
	}

	fields := make([]string, 0, len(updates))
	for column := range updates {
		fields = append(fields, column)
	}
	s.activity.Emit(ctx, activity.ListingEntry(actor, enums.ActivityPropertyUpdated, updated, map[string]any{"fields": fields}))
	return NewListingDTO(updated), nil
}

func (s *service) contentUpdates(input UpdateListingInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PropertyType != nil {
		if !input.PropertyType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property_type")
		}
		updates["property_type"] = *input.PropertyType
	}
	if input.Purpose != nil {
		if !input.Purpose.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purpose")
		}
		updates["purpose"] = *input.Purpose
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		updates["currency"] = *input.Currency
	}
	if input.City != nil {
		city := strings.TrimSpace(*input.City)
		if city == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "city cannot be blank")
		}
		updates["city"] = city
	}
	if input.District != nil {
		updates["district"] = *input.District
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	for column, value := range map[string]*int{"bedrooms": input.Bedrooms, "bathrooms": input.Bathrooms, "area_sqm": input.AreaSqm} {
		if value == nil {
			continue
		}
		if *value < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be negative")
		}
		updates[column] = *value
	}
	if input.ImageKeys != nil {
		if err := s.validateImages(*input.ImageKeys); err != nil {
			return nil, err
		}
		keys := pq.StringArray{}
		keys = append(keys, *input.ImageKeys...)
		updates["image_keys"] = keys
	}
	return updates, nil
}

// DeleteListing hard-deletes a listing owned by the caller, or any listing for admins.
func (s *service) DeleteListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error {
	current, err := s.load(ctx, listingID)
	if err != nil {
		return err
	}
	if err := policy.CheckOwnerOrAdmin(actor, current); err != nil {
		return err
	}

	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).Delete(ctx, actor, listingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete listing")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil
	}); err != nil {
		return asServiceError(err, "delete listing")
	}

	// The row is gone, so the entry carries the id in its details only.
	ownerID := current.OwnerID
	s.activity.Emit(ctx, activity.Entry{
		Actor:   actor,
		Kind:    enums.ActivityPropertyDeleted,
		OwnerID: &ownerID,
		Details: map[string]any{"listing_id": current.ID.String(), "title": current.Title},
	})
	s.logg.Info(s.logg.WithListingID(ctx, listingID.String()), "listing deleted")
	return nil
}

// GetListing returns the listing if the caller may see it. Hidden listings
// look missing to everyone but their owner and admins.
func (s *service) GetListing(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) (*ListingDTO, error) {
	listing, err := s.load(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureListingVisible(listing, actor); err != nil {
		return nil, err
	}
	return NewListingDTO(listing), nil
}

// List serves the search, seller dashboard, and admin dashboard feeds.
func (s *service) List(ctx context.Context, actor visibility.Actor, input ListInput) (*ListingListResult, error) {
	switch input.Feed {
	case visibility.FeedSearch, visibility.FeedSellerDashboard, visibility.FeedAdminDashboard:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "feed is not pageable: "+string(input.Feed))
	}
	scope, err := visibility.ScopeForFeed(input.Feed, actor)
	if err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, listQuery{
		Scope:   scope,
		Filters: input.Filters,
		Cursor:  cursor,
		Limit:   pagination.LimitWithBuffer(input.Pagination.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list listings")
	}

	rows, next := pagination.Trim(rows, input.Pagination.Limit, listingCursor)
	return &ListingListResult{Listings: newListingDTOs(rows), NextCursor: next}, nil
}

// Featured returns the featured feed under the public predicate.
func (s *service) Featured(ctx context.Context, actor visibility.Actor) ([]ListingDTO, error) {
	scope, err := visibility.ScopeForFeed(visibility.FeedFeatured, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListFeatured(ctx, scope, positiveOr(s.cfg.FeaturedLimit, 12))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list featured listings")
	}
	return newListingDTOs(rows), nil
}

// Suggested returns public listings similar to the given one. The base listing
// itself must be visible to the caller.
func (s *service) Suggested(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) ([]ListingDTO, error) {
	base, err := s.load(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureListingVisible(base, actor); err != nil {
		return nil, err
	}
	scope, err := visibility.ScopeForFeed(visibility.FeedSuggested, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSuggested(ctx, scope, base, positiveOr(s.cfg.SuggestedLimit, 6))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list suggested listings")
	}
	return newListingDTOs(rows), nil
}

func (s *service) load(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	return listing, nil
}

// findOptional reloads a listing, returning nil when it no longer exists.
func findOptional(ctx context.Context, repo *Repository, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload listing")
	}
	return listing, nil
}

// asServiceError maps database policy and constraint failures onto the error
// taxonomy and passes typed errors through.
func asServiceError(err error, op string) error {
	if err == nil {
		return nil
	}
	if msg, ok := db.PolicyViolation(err); ok {
		if strings.Contains(msg, "locked") {
			return policy.AdminLockError()
		}
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, err, msg)
	}
	if db.IsCheckViolation(err, "listings_admin_hide_status_chk") || db.IsCheckViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "listing state rejected by database")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func listingCursor(row models.Listing) pagination.Cursor {
	return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
}
