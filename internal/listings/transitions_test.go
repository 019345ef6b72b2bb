package listings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/internal/policy"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/metrics"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

func TestAdminSetHiddenHidesAndShows(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	admin := newActor(enums.UserRoleAdmin)
	listing := f.seed(t, uuid.New(), enums.ListingStatusAvailable, false)

	dto, err := f.svc.AdminSetHidden(ctx, admin, listing.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusPending, dto.Status)
	assert.True(t, dto.HiddenByAdmin)

	reloaded := f.reload(t, listing.ID)
	assert.Equal(t, enums.ListingStatusPending, reloaded.Status)
	assert.True(t, reloaded.HiddenByAdmin)
	assert.False(t, reloaded.PubliclyVisible())

	dto, err = f.svc.AdminSetHidden(ctx, admin, listing.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusAvailable, dto.Status)
	assert.False(t, dto.HiddenByAdmin)

	assert.Equal(t, []enums.ActivityKind{enums.ActivityPropertyHidden, enums.ActivityPropertyShown}, f.activity.kinds())
	assert.Equal(t, 2, f.observed.counts[actionAdminSetHidden+"/"+metrics.OutcomeApplied])
}

func TestAdminSetHiddenIsIdempotent(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	admin := newActor(enums.UserRoleAdmin)
	listing := f.seed(t, uuid.New(), enums.ListingStatusSold, false)

	for i := 0; i < 2; i++ {
		_, err := f.svc.AdminSetHidden(context.Background(), admin, listing.ID, true)
		require.NoError(t, err)
	}
	reloaded := f.reload(t, listing.ID)
	assert.Equal(t, enums.ListingStatusPending, reloaded.Status)
	assert.True(t, reloaded.HiddenByAdmin)
}

func TestAdminSetHiddenRejectsNonAdmins(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ownerID := uuid.New()
	listing := f.seed(t, ownerID, enums.ListingStatusAvailable, false)

	cases := []struct {
		name  string
		actor visibility.Actor
		code  pkgerrors.Code
	}{
		{"owner", visibility.Actor{ID: ownerID, Role: enums.UserRoleSeller}, pkgerrors.CodeForbidden},
		{"client", newActor(enums.UserRoleClient), pkgerrors.CodeForbidden},
		{"anonymous", visibility.Anonymous(), pkgerrors.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.AdminSetHidden(context.Background(), tc.actor, listing.ID, true)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)

			reloaded := f.reload(t, listing.ID)
			assert.Equal(t, enums.ListingStatusAvailable, reloaded.Status)
			assert.False(t, reloaded.HiddenByAdmin)
		})
	}
	assert.Empty(t, f.activity.kinds())
}

func TestAdminSetHiddenMissingListing(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	_, err := f.svc.AdminSetHidden(context.Background(), newActor(enums.UserRoleAdmin), uuid.New(), true)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 1, f.observed.counts[actionAdminSetHidden+"/"+metrics.OutcomeNotFound])
}

func TestSellerCannotClearAdminLock(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ownerID := uuid.New()
	owner := visibility.Actor{ID: ownerID, Role: enums.UserRoleSeller}
	listing := f.seed(t, ownerID, enums.ListingStatusPending, true)
	before := f.reload(t, listing.ID)

	for _, requested := range []enums.ListingStatus{enums.ListingStatusAvailable, enums.ListingStatusHidden, enums.ListingStatusSold} {
		_, err := f.svc.SellerToggleVisibility(context.Background(), owner, listing.ID, requested)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAdminLock), "requested %s: %v", requested, err)
	}

	after := f.reload(t, listing.ID)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.HiddenByAdmin, after.HiddenByAdmin)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	assert.Empty(t, f.activity.kinds())
	assert.Equal(t, 3, f.observed.counts[actionSellerToggle+"/"+metrics.OutcomeAdminLock])
}

func TestSellerToggleVisibilityTransitions(t *testing.T) {
	cases := []struct {
		from      enums.ListingStatus
		requested enums.ListingStatus
		kind      enums.ActivityKind
	}{
		{enums.ListingStatusAvailable, enums.ListingStatusHidden, enums.ActivityStatusChanged},
		{enums.ListingStatusHidden, enums.ListingStatusAvailable, enums.ActivityStatusChanged},
		{enums.ListingStatusAvailable, enums.ListingStatusSold, enums.ActivityPropertySold},
		{enums.ListingStatusAvailable, enums.ListingStatusRented, enums.ActivityPropertyRented},
		{enums.ListingStatusSold, enums.ListingStatusAvailable, enums.ActivityStatusChanged},
		{enums.ListingStatusPending, enums.ListingStatusAvailable, enums.ActivityStatusChanged},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.requested), func(t *testing.T) {
			f := newFixture(t, config.ListingsConfig{})
			owner := newActor(enums.UserRoleSeller)
			listing := f.seed(t, owner.ID, tc.from, false)

			dto, err := f.svc.SellerToggleVisibility(context.Background(), owner, listing.ID, tc.requested)
			require.NoError(t, err)
			assert.Equal(t, tc.requested, dto.Status)
			assert.False(t, dto.HiddenByAdmin)
			assert.Equal(t, []enums.ActivityKind{tc.kind}, f.activity.kinds())
		})
	}
}

func TestSellerToggleVisibilityFollowsStatusGraph(t *testing.T) {
	cases := []struct {
		from      enums.ListingStatus
		requested enums.ListingStatus
	}{
		{enums.ListingStatusSold, enums.ListingStatusRented},
		{enums.ListingStatusRented, enums.ListingStatusSold},
		{enums.ListingStatusHidden, enums.ListingStatusSold},
		{enums.ListingStatusRented, enums.ListingStatusHidden},
		{enums.ListingStatusPending, enums.ListingStatusSold},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.requested), func(t *testing.T) {
			f := newFixture(t, config.ListingsConfig{})
			owner := newActor(enums.UserRoleSeller)
			listing := f.seed(t, owner.ID, tc.from, false)

			_, err := f.svc.SellerToggleVisibility(context.Background(), owner, listing.ID, tc.requested)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
			assert.Equal(t, tc.from, f.reload(t, listing.ID).Status)
			assert.Empty(t, f.activity.kinds())
			assert.Equal(t, 1, f.observed.counts[actionSellerToggle+"/"+metrics.OutcomeConflict])
		})
	}
}

func TestSellerToggleVisibilitySameStatusIsNoop(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)
	before := f.reload(t, listing.ID)

	dto, err := f.svc.SellerToggleVisibility(context.Background(), owner, listing.ID, enums.ListingStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, enums.ListingStatusAvailable, dto.Status)

	after := f.reload(t, listing.ID)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	assert.Empty(t, f.activity.kinds())
	assert.Equal(t, 1, f.observed.counts[actionSellerToggle+"/"+metrics.OutcomeUnchanged])

	locked := f.seed(t, owner.ID, enums.ListingStatusPending, true)
	_, err = f.svc.SellerToggleVisibility(context.Background(), owner, locked.ID, enums.ListingStatusHidden)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAdminLock))
}

func TestSellerToggleVisibilityRejectsNonSellerStatus(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)

	for _, requested := range []enums.ListingStatus{enums.ListingStatusPending, "archived"} {
		_, err := f.svc.SellerToggleVisibility(context.Background(), owner, listing.ID, requested)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}
	assert.Equal(t, enums.ListingStatusAvailable, f.reload(t, listing.ID).Status)
}

func TestSellerToggleVisibilityOwnership(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ownerID := uuid.New()
	listing := f.seed(t, ownerID, enums.ListingStatusAvailable, false)

	_, err := f.svc.SellerToggleVisibility(context.Background(), newActor(enums.UserRoleSeller), listing.ID, enums.ListingStatusSold)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	// Admins hide through AdminSetHidden; the seller operation is owner-only.
	_, err = f.svc.SellerToggleVisibility(context.Background(), newActor(enums.UserRoleAdmin), listing.ID, enums.ListingStatusSold)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.SellerToggleVisibility(context.Background(), visibility.Actor{ID: ownerID, Role: enums.UserRoleSeller}, uuid.New(), enums.ListingStatusSold)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.Equal(t, enums.ListingStatusAvailable, f.reload(t, listing.ID).Status)
}

// The seller read the listing before the admin hide committed; the guarded
// write must then fail with the admin lock rather than overwrite it.
func TestSellerWriteAfterConcurrentAdminHide(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)

	stale := f.reload(t, listing.ID)
	require.NoError(t, policy.CheckSellerStatusWrite(owner, stale))

	_, err := f.svc.AdminSetHidden(ctx, newActor(enums.UserRoleAdmin), listing.ID, true)
	require.NoError(t, err)

	_, err = f.svc.applySellerStatus(ctx, owner, stale, enums.ListingStatusSold)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAdminLock), "got %v", err)

	final := f.reload(t, listing.ID)
	assert.Equal(t, enums.ListingStatusPending, final.Status)
	assert.True(t, final.HiddenByAdmin)
}

// Opposite interleaving: the seller write lands first and the admin hide
// overrides it.
func TestAdminHideAfterSellerWrite(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)

	_, err := f.svc.SellerToggleVisibility(ctx, owner, listing.ID, enums.ListingStatusSold)
	require.NoError(t, err)
	_, err = f.svc.AdminSetHidden(ctx, newActor(enums.UserRoleAdmin), listing.ID, true)
	require.NoError(t, err)

	final := f.reload(t, listing.ID)
	assert.Equal(t, enums.ListingStatusPending, final.Status)
	assert.True(t, final.HiddenByAdmin)
}

// A second owner request moved the row off the edge the first one read.
func TestSellerWriteAfterConcurrentStatusChange(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)
	stale := f.reload(t, listing.ID)

	_, err := f.svc.SellerToggleVisibility(ctx, owner, listing.ID, enums.ListingStatusSold)
	require.NoError(t, err)

	_, err = f.svc.applySellerStatus(ctx, owner, stale, enums.ListingStatusRented)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)
	assert.Equal(t, enums.ListingStatusSold, f.reload(t, listing.ID).Status)
}

func TestSellerWriteAfterConcurrentDelete(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)
	stale := f.reload(t, listing.ID)

	require.NoError(t, f.svc.DeleteListing(ctx, newActor(enums.UserRoleAdmin), listing.ID))

	_, err := f.svc.applySellerStatus(ctx, owner, stale, enums.ListingStatusHidden)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestRepositoryWritesCannotBypassPolicy(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	locked := f.seed(t, owner.ID, enums.ListingStatusPending, true)
	repo := NewRepository(f.conn)

	rows, err := repo.SetSellerStatus(ctx, owner, locked.ID, enums.ListingStatusAvailable)
	require.NoError(t, err)
	assert.Zero(t, rows)

	sold := f.seed(t, owner.ID, enums.ListingStatusSold, false)
	rows, err = repo.SetSellerStatus(ctx, owner, sold.ID, enums.ListingStatusRented)
	require.NoError(t, err)
	assert.Zero(t, rows, "sold has no owner edge to rented")
	assert.Equal(t, enums.ListingStatusSold, f.reload(t, sold.ID).Status)

	rows, err = repo.SetAdminHidden(ctx, owner, locked.ID, false)
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.SetFeatured(ctx, owner, locked.ID, true)
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = repo.UpdateContent(ctx, owner, locked.ID, map[string]any{"hidden_by_admin": false})
	require.Error(t, err)

	rows, err = repo.Delete(ctx, newActor(enums.UserRoleSeller), locked.ID)
	require.NoError(t, err)
	assert.Zero(t, rows)

	final := f.reload(t, locked.ID)
	assert.Equal(t, enums.ListingStatusPending, final.Status)
	assert.True(t, final.HiddenByAdmin)
	assert.False(t, final.IsFeatured)
}

func TestDeleteThenHideReturnsNotFound(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)

	require.NoError(t, f.svc.DeleteListing(ctx, owner, listing.ID))
	assert.False(t, f.exists(t, listing.ID))

	dashboard, err := f.svc.List(ctx, owner, ListInput{Feed: visibility.FeedSellerDashboard})
	require.NoError(t, err)
	assert.Empty(t, dashboard.Listings)

	public, err := f.svc.List(ctx, visibility.Anonymous(), ListInput{Feed: visibility.FeedSearch})
	require.NoError(t, err)
	assert.Empty(t, public.Listings)

	_, err = f.svc.AdminSetHidden(ctx, newActor(enums.UserRoleAdmin), listing.ID, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, f.activity.kinds(), enums.ActivityPropertyDeleted)
}

func TestAdminSetFeatured(t *testing.T) {
	f := newFixture(t, config.ListingsConfig{})
	ctx := context.Background()
	owner := newActor(enums.UserRoleSeller)
	listing := f.seed(t, owner.ID, enums.ListingStatusAvailable, false)

	_, err := f.svc.AdminSetFeatured(ctx, owner, listing.ID, true)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	dto, err := f.svc.AdminSetFeatured(ctx, newActor(enums.UserRoleAdmin), listing.ID, true)
	require.NoError(t, err)
	assert.True(t, dto.IsFeatured)
	assert.Equal(t, enums.ListingStatusAvailable, dto.Status)

	featured, err := f.svc.Featured(ctx, visibility.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{listing.ID}, listingIDs(featured))

	_, err = f.svc.AdminSetHidden(ctx, newActor(enums.UserRoleAdmin), listing.ID, true)
	require.NoError(t, err)
	featured, err = f.svc.Featured(ctx, visibility.Anonymous())
	require.NoError(t, err)
	assert.Empty(t, featured, "hidden listings never appear in the featured feed")
}
