package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/internal/listings"
	"github.com/emlakhub/emlakhub-backend/pkg/db"
	"github.com/emlakhub/emlakhub-backend/pkg/db/dbtest"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.OpenClient(t)
	logg := logger.New(logger.Options{ServiceName: "contact-test", Output: &bytes.Buffer{}})
	svc, err := NewService(client, listings.NewRepository(client.DB()), outbox.NewService(outbox.NewRepository(client.DB()), logg), logg)
	require.NoError(t, err)
	return svc, client
}

func validInput() SubmitInput {
	return SubmitInput{
		Name:    " Leyla ",
		Email:   " Leyla@Example.com ",
		Subject: "Viewing request",
		Message: "Is the flat still available next week?",
		Locale:  enums.LocaleTurkish,
	}
}

func TestSubmitStoresMessageAndQueuesEvent(t *testing.T) {
	svc, client := newTestService(t)
	listing := &models.Listing{
		OwnerID:      uuid.New(),
		Title:        "Flat",
		PropertyType: enums.PropertyTypeApartment,
		Purpose:      enums.ListingPurposeSale,
		Price:        decimal.NewFromInt(1),
		Currency:     enums.CurrencyTRY,
		City:         "Izmir",
		Status:       enums.ListingStatusAvailable,
	}
	require.NoError(t, client.DB().Create(listing).Error)

	input := validInput()
	input.ListingID = &listing.ID
	dto, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.LocaleTurkish, dto.Locale)

	var stored models.ContactMessage
	require.NoError(t, client.DB().Where("id = ?", dto.ID).First(&stored).Error)
	assert.Equal(t, "Leyla", stored.Name)
	assert.Equal(t, "leyla@example.com", stored.Email)

	events, err := outbox.NewRepository(client.DB()).FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventContactMessageReceived, events[0].EventType)
	assert.Equal(t, dto.ID, events[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload payloads.ContactMessageReceivedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "leyla@example.com", payload.Email)
	require.NotNil(t, payload.ListingID)
	assert.Equal(t, listing.ID, *payload.ListingID)
}

func TestSubmitDefaultsLocale(t *testing.T) {
	svc, _ := newTestService(t)
	input := validInput()
	input.Locale = "fr"
	dto, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.DefaultLocale, dto.Locale)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	svc, client := newTestService(t)
	hidden := &models.Listing{
		OwnerID:       uuid.New(),
		Title:         "Hidden",
		PropertyType:  enums.PropertyTypeLand,
		Purpose:       enums.ListingPurposeSale,
		Price:         decimal.NewFromInt(1),
		Currency:      enums.CurrencyUSD,
		City:          "Hatay",
		Status:        enums.ListingStatusPending,
		HiddenByAdmin: true,
	}
	require.NoError(t, client.DB().Create(hidden).Error)

	cases := map[string]struct {
		mutate func(*SubmitInput)
		code   pkgerrors.Code
	}{
		"missing name":   {func(in *SubmitInput) { in.Name = "  " }, pkgerrors.CodeValidation},
		"bad email":      {func(in *SubmitInput) { in.Email = "not-an-email" }, pkgerrors.CodeValidation},
		"empty message":  {func(in *SubmitInput) { in.Message = "" }, pkgerrors.CodeValidation},
		"hidden listing": {func(in *SubmitInput) { in.ListingID = &hidden.ID }, pkgerrors.CodeNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Submit(context.Background(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}
