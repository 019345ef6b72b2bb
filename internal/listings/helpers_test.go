package listings

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db"
	"github.com/emlakhub/emlakhub-backend/pkg/db/dbtest"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
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

func (r *recordingEmitter) kinds() []enums.ActivityKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.ActivityKind, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Kind)
	}
	return out
}

type fakeViews struct {
	seen map[string]bool
	err  error
}

func (f *fakeViews) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeViews) ListingViewKey(listingID, visitor string) string {
	return "view:" + listingID + ":" + visitor
}

type countingObserver struct {
	counts map[string]int
}

func (c *countingObserver) ObserveTransition(action, outcome string) {
	c.counts[action+"/"+outcome]++
}

type fixture struct {
	svc      *service
	client   *db.Client
	conn     *gorm.DB
	activity *recordingEmitter
	views    *fakeViews
	observed *countingObserver
	logs     *bytes.Buffer
}

func newFixture(t *testing.T, cfg config.ListingsConfig) *fixture {
	t.Helper()
	client := dbtest.OpenClient(t)
	emitter := &recordingEmitter{}
	views := &fakeViews{seen: map[string]bool{}}
	observed := &countingObserver{counts: map[string]int{}}
	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "listings-test", Output: logs})

	svc, err := NewService(NewRepository(client.DB()), client, emitter, views, cfg, logg, observed)
	require.NoError(t, err)
	return &fixture{
		svc:      svc.(*service),
		client:   client,
		conn:     client.DB(),
		activity: emitter,
		views:    views,
		observed: observed,
		logs:     logs,
	}
}

func (f *fixture) seed(t *testing.T, ownerID uuid.UUID, status enums.ListingStatus, hidden bool, mutate ...func(*models.Listing)) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		OwnerID:       ownerID,
		Title:         "Sea view apartment",
		PropertyType:  enums.PropertyTypeApartment,
		Purpose:       enums.ListingPurposeSale,
		Price:         decimal.NewFromInt(120000),
		Currency:      enums.CurrencyUSD,
		City:          "Istanbul",
		Bedrooms:      3,
		Status:        status,
		HiddenByAdmin: hidden,
	}
	for _, fn := range mutate {
		fn(listing)
	}
	require.NoError(t, f.conn.Create(listing).Error)
	return listing
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Listing {
	t.Helper()
	var listing models.Listing
	require.NoError(t, f.conn.Where("id = ?", id).First(&listing).Error)
	return &listing
}

func (f *fixture) exists(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var listing models.Listing
	err := f.conn.Where("id = ?", id).First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func newActor(role enums.UserRole) visibility.Actor {
	return visibility.Actor{ID: uuid.New(), Role: role}
}

func listingIDs(dtos []ListingDTO) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.ID)
	}
	return ids
}
