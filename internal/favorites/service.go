package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// Service manages a user's saved listings.
type Service interface {
	Add(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error
	Remove(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error
	List(ctx context.Context, actor visibility.Actor, params pagination.Params) (*ListResult, error)
}

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// ListResult is one page of favorites. Listings that stopped being public are
// left out rather than returned in their hidden state.
type ListResult struct {
	Listings   []listings.ListingDTO `json:"listings"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type service struct {
	repo     *Repository
	listings listingFinder
	logg     *logger.Logger
}

// NewService wires the favorites dependencies.
func NewService(repo *Repository, finder listingFinder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if finder == nil {
		return nil, fmt.Errorf("listing finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, listings: finder, logg: logg}, nil
}

func (s *service) Add(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load listing")
	}
	// Only public listings can be saved, the owner's own hidden ones included.
	if !listing.PubliclyVisible() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if err := s.repo.Add(ctx, actor.ID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add favorite")
	}
	s.logg.Debug(s.logg.WithListingID(ctx, listingID.String()), "favorite added")
	return nil
}

// Remove is idempotent; removing a favorite that does not exist succeeds.
func (s *service) Remove(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if _, err := s.repo.Remove(ctx, actor.ID, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove favorite")
	}
	return nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, params pagination.Params) (*ListResult, error) {
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	scope, err := visibility.ScopeForFeed(visibility.FeedFavorites, actor)
	if err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, actor.ID, scope, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list favorites")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row favoriteRow) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.FavoritedAt, ID: row.ID}
	})
	result := &ListResult{Listings: make([]listings.ListingDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Listings = append(result.Listings, *listings.NewListingDTO(&rows[i].Listing))
	}
	return result, nil
}
