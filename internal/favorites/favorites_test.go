package favorites

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/db/dbtest"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "favorites-test", Output: &bytes.Buffer{}})
	svc, err := NewService(NewRepository(conn), listings.NewRepository(conn), logg)
	require.NoError(t, err)
	return svc, conn
}

func seedListing(t *testing.T, conn *gorm.DB, status enums.ListingStatus, hidden bool) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		OwnerID:       uuid.New(),
		Title:         "Garden flat",
		PropertyType:  enums.PropertyTypeApartment,
		Purpose:       enums.ListingPurposeRent,
		Price:         decimal.NewFromInt(700),
		Currency:      enums.CurrencyEUR,
		City:          "Bursa",
		Status:        status,
		HiddenByAdmin: hidden,
	}
	require.NoError(t, conn.Create(listing).Error)
	return listing
}

func TestAddRequiresPublicListing(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := visibility.Actor{ID: uuid.New(), Role: enums.UserRoleClient}

	public := seedListing(t, conn, enums.ListingStatusAvailable, false)
	require.NoError(t, svc.Add(ctx, user, public.ID))
	require.NoError(t, svc.Add(ctx, user, public.ID), "adding twice is a no-op")

	hidden := seedListing(t, conn, enums.ListingStatusPending, true)
	err := svc.Add(ctx, user, hidden.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Add(ctx, user, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Add(ctx, visibility.Anonymous(), public.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	var count int64
	require.NoError(t, conn.Model(&models.Favorite{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListDropsListingsHiddenAfterSaving(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := visibility.Actor{ID: uuid.New(), Role: enums.UserRoleClient}

	stays := seedListing(t, conn, enums.ListingStatusAvailable, false)
	hiddenLater := seedListing(t, conn, enums.ListingStatusAvailable, false)
	require.NoError(t, svc.Add(ctx, user, stays.ID))
	require.NoError(t, svc.Add(ctx, user, hiddenLater.ID))

	require.NoError(t, conn.Model(&models.Listing{}).
		Where("id = ?", hiddenLater.ID).
		Updates(map[string]any{"hidden_by_admin": true, "status": enums.ListingStatusPending}).Error)

	result, err := svc.List(ctx, user, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	assert.Equal(t, stays.ID, result.Listings[0].ID)
	assert.Empty(t, result.NextCursor)

	// Showing the listing again brings the favorite back.
	require.NoError(t, conn.Model(&models.Listing{}).
		Where("id = ?", hiddenLater.ID).
		Updates(map[string]any{"hidden_by_admin": false, "status": enums.ListingStatusAvailable}).Error)
	result, err = svc.List(ctx, user, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, result.Listings, 2)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := visibility.Actor{ID: uuid.New(), Role: enums.UserRoleSeller}
	listing := seedListing(t, conn, enums.ListingStatusAvailable, false)

	require.NoError(t, svc.Add(ctx, user, listing.ID))
	require.NoError(t, svc.Remove(ctx, user, listing.ID))
	require.NoError(t, svc.Remove(ctx, user, listing.ID))

	result, err := svc.List(ctx, user, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, result.Listings)

	_, err = svc.List(ctx, visibility.Anonymous(), pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
