package visibility

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
)

// Audience selects which listings a read may return.
type Audience string

const (
	// AudiencePublic sees only available listings that are not admin-hidden.
	AudiencePublic Audience = "public"
	// AudienceOwner sees every listing the actor owns, in any state.
	AudienceOwner Audience = "owner"
	// AudienceAdmin sees everything.
	AudienceAdmin Audience = "admin"
)

// Feed names a listing surface served by the API.
type Feed string

const (
	FeedSearch          Feed = "search"
	FeedFeatured        Feed = "featured"
	FeedSuggested       Feed = "suggested"
	FeedFavorites       Feed = "favorites"
	FeedSellerDashboard Feed = "seller_dashboard"
	FeedAdminDashboard  Feed = "admin_dashboard"
)

var feedAudiences = map[Feed]Audience{
	FeedSearch:          AudiencePublic,
	FeedFeatured:        AudiencePublic,
	FeedSuggested:       AudiencePublic,
	FeedFavorites:       AudiencePublic,
	FeedSellerDashboard: AudienceOwner,
	FeedAdminDashboard:  AudienceAdmin,
}

// FeedAudience returns the audience a feed is served with.
func FeedAudience(feed Feed) (Audience, error) {
	audience, ok := feedAudiences[feed]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown feed "+string(feed))
	}
	return audience, nil
}

// Scope returns the query predicate for the audience. The predicate references
// the listings table by name so it composes with joins.
func Scope(audience Audience, actor Actor) (func(*gorm.DB) *gorm.DB, error) {
	switch audience {
	case AudiencePublic:
		return publicScope, nil
	case AudienceOwner:
		if !actor.IsAuthenticated() {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required for owner listings")
		}
		ownerID := actor.ID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("listings.owner_id = ?", ownerID)
		}, nil
	case AudienceAdmin:
		if !actor.IsAdmin() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
		}
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown audience "+string(audience))
	}
}

// ScopeForFeed resolves the feed's audience and returns its predicate.
func ScopeForFeed(feed Feed, actor Actor) (func(*gorm.DB) *gorm.DB, error) {
	audience, err := FeedAudience(feed)
	if err != nil {
		return nil, err
	}
	return Scope(audience, actor)
}

func publicScope(db *gorm.DB) *gorm.DB {
	return db.Where("listings.status = ? AND listings.hidden_by_admin = ?", enums.ListingStatusAvailable, false)
}

// DetailAudience picks the audience for a single-listing read: admins and
// owners see the listing in any state, everyone else gets the public view.
func DetailAudience(actor Actor, ownerID uuid.UUID) Audience {
	switch {
	case actor.IsAdmin():
		return AudienceAdmin
	case actor.Owns(ownerID):
		return AudienceOwner
	default:
		return AudiencePublic
	}
}

// CanView evaluates the same rules as Scope against a loaded listing.
func CanView(listing *models.Listing, actor Actor) bool {
	if listing == nil {
		return false
	}
	switch DetailAudience(actor, listing.OwnerID) {
	case AudienceAdmin, AudienceOwner:
		return true
	default:
		return listing.PubliclyVisible()
	}
}

// EnsureListingVisible returns NotFound when the actor may not see the listing,
// so hidden listings are indistinguishable from missing ones.
func EnsureListingVisible(listing *models.Listing, actor Actor) error {
	if !CanView(listing, actor) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return nil
}
