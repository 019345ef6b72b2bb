package listings

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/policy"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// Repository persists listings. Every status, hidden_by_admin, content, and
// delete write takes the actor and folds the matching policy scope into the
// statement; there is no unguarded write path.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a listing regardless of visibility.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *Repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

// SetAdminHidden writes hidden_by_admin and the paired status in one statement.
func (r *Repository) SetAdminHidden(ctx context.Context, actor visibility.Actor, id uuid.UUID, hide bool) (int64, error) {
	status := enums.ListingStatusAvailable
	if hide {
		status = enums.AdminHiddenStatus()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(policy.HiddenFlagWriteScope(actor)).
		Where("id = ?", id).
		Updates(map[string]any{
			"hidden_by_admin": hide,
			"status":          status,
		})
	return res.RowsAffected, res.Error
}

// SetSellerStatus writes status only while the actor owns the row, it is not
// admin-hidden and its current status has an owner edge into status.
func (r *Repository) SetSellerStatus(ctx context.Context, actor visibility.Actor, id uuid.UUID, status enums.ListingStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(policy.SellerTransitionScope(actor, status)).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// SetFeatured toggles is_featured for admins.
func (r *Repository) SetFeatured(ctx context.Context, actor visibility.Actor, id uuid.UUID, featured bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(policy.FeaturedWriteScope(actor)).
		Where("id = ?", id).
		Update("is_featured", featured)
	return res.RowsAffected, res.Error
}

// contentColumns are the only columns UpdateContent accepts.
var contentColumns = map[string]struct{}{
	"title":         {},
	"description":   {},
	"property_type": {},
	"purpose":       {},
	"price":         {},
	"currency":      {},
	"city":          {},
	"district":      {},
	"address":       {},
	"bedrooms":      {},
	"bathrooms":     {},
	"area_sqm":      {},
	"image_keys":    {},
}

func errUnsupportedColumn(column string) error {
	return fmt.Errorf("column %q is not editable", column)
}

// UpdateContent applies descriptive field changes. Visibility columns are
// rejected before the statement is built.
func (r *Repository) UpdateContent(ctx context.Context, actor visibility.Actor, id uuid.UUID, updates map[string]any) (int64, error) {
	for column := range updates {
		if _, ok := contentColumns[column]; !ok {
			return 0, errUnsupportedColumn(column)
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(policy.ContentWriteScope(actor)).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Delete removes the listing and its favorites and reports.
func (r *Repository) Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(policy.DeleteScope(actor)).
		Where("id = ?", id).
		Delete(&models.Listing{})
	if res.Error != nil || res.RowsAffected == 0 {
		return res.RowsAffected, res.Error
	}
	if err := r.db.WithContext(ctx).Where("listing_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Where("listing_id = ?", id).Delete(&models.Report{}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// IncrementViewCount bumps view_count for publicly visible listings only.
func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND status = ? AND hidden_by_admin = ?", id, enums.ListingStatusAvailable, false).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	return res.RowsAffected, res.Error
}

type listQuery struct {
	Scope   func(*gorm.DB) *gorm.DB
	Filters SearchFilters
	Cursor  *pagination.Cursor
	Limit   int
}

// List returns newest-first listings matching the audience scope and filters.
func (r *Repository) List(ctx context.Context, q listQuery) ([]models.Listing, error) {
	qb := r.db.WithContext(ctx).Model(&models.Listing{}).Scopes(q.Scope)
	qb = applyFilters(qb, q.Filters)
	qb = qb.Scopes(pagination.After(q.Cursor, "listings"))

	var rows []models.Listing
	err := qb.
		Order("listings.created_at DESC").
		Order("listings.id DESC").
		Limit(q.Limit).
		Find(&rows).Error
	return rows, err
}

// ListFeatured returns featured listings visible under scope.
func (r *Repository) ListFeatured(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(scope).
		Where("listings.is_featured = ?", true).
		Order("listings.updated_at DESC").
		Order("listings.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListSuggested returns listings in the same city as base, excluding base.
func (r *Repository) ListSuggested(ctx context.Context, scope func(*gorm.DB) *gorm.DB, base *models.Listing, limit int) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Scopes(scope).
		Where("listings.city = ? AND listings.id <> ?", base.City, base.ID).
		Order("listings.created_at DESC").
		Order("listings.id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func applyFilters(qb *gorm.DB, f SearchFilters) *gorm.DB {
	if f.City != nil {
		qb = qb.Where("LOWER(listings.city) = ?", strings.ToLower(*f.City))
	}
	if f.District != nil {
		qb = qb.Where("LOWER(listings.district) = ?", strings.ToLower(*f.District))
	}
	if f.PropertyType != nil {
		qb = qb.Where("listings.property_type = ?", *f.PropertyType)
	}
	if f.Purpose != nil {
		qb = qb.Where("listings.purpose = ?", *f.Purpose)
	}
	if f.PriceMin != nil {
		qb = qb.Where("listings.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		qb = qb.Where("listings.price <= ?", *f.PriceMax)
	}
	if f.BedroomsMin != nil {
		qb = qb.Where("listings.bedrooms >= ?", *f.BedroomsMin)
	}
	if f.Status != nil {
		qb = qb.Where("listings.status = ?", *f.Status)
	}
	if f.HiddenByAdmin != nil {
		qb = qb.Where("listings.hidden_by_admin = ?", *f.HiddenByAdmin)
	}
	if f.OwnerID != nil {
		qb = qb.Where("listings.owner_id = ?", *f.OwnerID)
	}
	if f.Featured != nil {
		qb = qb.Where("listings.is_featured = ?", *f.Featured)
	}
	if search := strings.TrimSpace(f.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(listings.title) LIKE ? OR LOWER(COALESCE(listings.description, '')) LIKE ?)", pattern, pattern)
	}
	return qb
}
