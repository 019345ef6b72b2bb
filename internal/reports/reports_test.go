package reports

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db/dbtest"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

type recordingEmitter struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *recordingEmitter) Emit(_ context.Context, entry activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

type noViews struct{}

func (noViews) SetNX(context.Context, string, any, time.Duration) (bool, error) { return false, nil }
func (noViews) ListingViewKey(listingID, visitor string) string              { return listingID + visitor }

type fixture struct {
	svc      Service
	conn     *gorm.DB
	activity *recordingEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	logg := logger.New(logger.Options{ServiceName: "reports-test", Output: &bytes.Buffer{}})
	listingRepo := listings.NewRepository(client.DB())
	listingSvc, err := listings.NewService(listingRepo, client, activity.NopEmitter{}, noViews{}, config.ListingsConfig{}, logg, nil)
	require.NoError(t, err)

	emitter := &recordingEmitter{}
	svc, err := NewService(NewRepository(client.DB()), listingRepo, listingSvc, emitter, logg)
	require.NoError(t, err)
	return &fixture{svc: svc, conn: client.DB(), activity: emitter}
}

func (f *fixture) seedListing(t *testing.T, ownerID uuid.UUID, status enums.ListingStatus, hidden bool) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		OwnerID:       ownerID,
		Title:         "Office near the port",
		PropertyType:  enums.PropertyTypeOffice,
		Purpose:       enums.ListingPurposeRent,
		Price:         decimal.NewFromInt(2500),
		Currency:      enums.CurrencyUSD,
		City:          "Mersin",
		Status:        status,
		HiddenByAdmin: hidden,
	}
	require.NoError(t, f.conn.Create(listing).Error)
	return listing
}

func actor(role enums.UserRole) visibility.Actor {
	return visibility.Actor{ID: uuid.New(), Role: role}
}

func TestSubmitReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actor(enums.UserRoleSeller)
	reporter := actor(enums.UserRoleClient)
	listing := f.seedListing(t, owner.ID, enums.ListingStatusAvailable, false)

	dto, err := f.svc.Submit(ctx, reporter, listing.ID, SubmitInput{Reason: enums.ReportReasonFraud})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusOpen, dto.Status)
	assert.Equal(t, reporter.ID, dto.ReporterID)

	_, err = f.svc.Submit(ctx, reporter, listing.ID, SubmitInput{Reason: enums.ReportReasonSpam})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "one open report per reporter and listing")

	require.Len(t, f.activity.entries, 1)
	entry := f.activity.entries[0]
	assert.Equal(t, enums.ActivityReportSubmitted, entry.Kind)
	require.NotNil(t, entry.SubjectID)
	assert.Equal(t, dto.ID, *entry.SubjectID)
	require.NotNil(t, entry.OwnerID)
	assert.Equal(t, owner.ID, *entry.OwnerID)
}

func TestSubmitReportRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actor(enums.UserRoleSeller)
	public := f.seedListing(t, owner.ID, enums.ListingStatusAvailable, false)
	hidden := f.seedListing(t, owner.ID, enums.ListingStatusPending, true)

	cases := []struct {
		name    string
		actor   visibility.Actor
		listing uuid.UUID
		input   SubmitInput
		code    pkgerrors.Code
	}{
		{"anonymous", visibility.Anonymous(), public.ID, SubmitInput{Reason: enums.ReportReasonSpam}, pkgerrors.CodeUnauthorized},
		{"bad reason", actor(enums.UserRoleClient), public.ID, SubmitInput{Reason: "boring"}, pkgerrors.CodeValidation},
		{"other without details", actor(enums.UserRoleClient), public.ID, SubmitInput{Reason: enums.ReportReasonOther}, pkgerrors.CodeValidation},
		{"hidden listing", actor(enums.UserRoleClient), hidden.ID, SubmitInput{Reason: enums.ReportReasonSpam}, pkgerrors.CodeNotFound},
		{"missing listing", actor(enums.UserRoleClient), uuid.New(), SubmitInput{Reason: enums.ReportReasonSpam}, pkgerrors.CodeNotFound},
		{"own listing", owner, public.ID, SubmitInput{Reason: enums.ReportReasonSpam}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tc.actor, tc.listing, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestResolveReportHidesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := actor(enums.UserRoleAdmin)
	listing := f.seedListing(t, uuid.New(), enums.ListingStatusAvailable, false)
	report, err := f.svc.Submit(ctx, actor(enums.UserRoleClient), listing.ID, SubmitInput{Reason: enums.ReportReasonFraud})
	require.NoError(t, err)

	note := "  confirmed scam  "
	closed, err := f.svc.Resolve(ctx, admin, report.ID, ResolveInput{
		Status:      enums.ReportStatusResolved,
		Resolution:  &note,
		HideListing: true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusResolved, closed.Status)
	require.NotNil(t, closed.Resolution)
	assert.Equal(t, "confirmed scam", *closed.Resolution)
	require.NotNil(t, closed.ResolvedBy)
	assert.Equal(t, admin.ID, *closed.ResolvedBy)

	var stored models.Listing
	require.NoError(t, f.conn.Where("id = ?", listing.ID).First(&stored).Error)
	assert.True(t, stored.HiddenByAdmin)
	assert.Equal(t, enums.ListingStatusPending, stored.Status)

	_, err = f.svc.Resolve(ctx, admin, report.ID, ResolveInput{Status: enums.ReportStatusDismissed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestResolveReportValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, uuid.New(), enums.ListingStatusAvailable, false)
	report, err := f.svc.Submit(ctx, actor(enums.UserRoleClient), listing.ID, SubmitInput{Reason: enums.ReportReasonDuplicate})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, actor(enums.UserRoleSeller), report.ID, ResolveInput{Status: enums.ReportStatusResolved})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	admin := actor(enums.UserRoleAdmin)
	_, err = f.svc.Resolve(ctx, admin, report.ID, ResolveInput{Status: enums.ReportStatusOpen})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Resolve(ctx, admin, report.ID, ResolveInput{Status: enums.ReportStatusDismissed, HideListing: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Resolve(ctx, admin, uuid.New(), ResolveInput{Status: enums.ReportStatusDismissed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dismissed, err := f.svc.Resolve(ctx, admin, report.ID, ResolveInput{Status: enums.ReportStatusDismissed})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusDismissed, dismissed.Status)

	var stored models.Listing
	require.NoError(t, f.conn.Where("id = ?", listing.ID).First(&stored).Error)
	assert.False(t, stored.HiddenByAdmin, "dismissing leaves the listing alone")
}

func TestListReportsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing := f.seedListing(t, uuid.New(), enums.ListingStatusAvailable, false)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Submit(ctx, actor(enums.UserRoleClient), listing.ID, SubmitInput{Reason: enums.ReportReasonWrongInfo})
		require.NoError(t, err)
	}

	_, err := f.svc.List(ctx, actor(enums.UserRoleClient), ListFilter{}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	open := enums.ReportStatusOpen
	result, err := f.svc.List(ctx, actor(enums.UserRoleAdmin), ListFilter{Status: &open, ListingID: &listing.ID}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)

	resolved := enums.ReportStatusResolved
	result, err = f.svc.List(ctx, actor(enums.UserRoleAdmin), ListFilter{Status: &resolved}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}
