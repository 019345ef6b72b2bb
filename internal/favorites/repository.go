package favorites

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
)

// Repository encapsulates favorites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts a favorite and ignores duplicates.
func (r *Repository) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	if userID == uuid.Nil || listingID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favorite{UserID: userID, ListingID: listingID}).
		Error
}

// Remove deletes the favorite if it exists.
func (r *Repository) Remove(ctx context.Context, userID, listingID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Favorite{})
	return res.RowsAffected, res.Error
}

type favoriteRow struct {
	models.Listing
	FavoritedAt time.Time `gorm:"column:favorited_at"`
}

// List returns the user's favorited listings that pass scope, newest favorite first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, scope func(*gorm.DB) *gorm.DB, cursor *pagination.Cursor, limit int) ([]favoriteRow, error) {
	query := r.db.WithContext(ctx).
		Table("favorites").
		Select("listings.*, favorites.created_at AS favorited_at").
		Joins("JOIN listings ON listings.id = favorites.listing_id").
		Scopes(scope).
		Where("favorites.user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(favorites.created_at < ?) OR (favorites.created_at = ? AND favorites.listing_id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []favoriteRow
	err := query.
		Order("favorites.created_at DESC").
		Order("favorites.listing_id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
