package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(config.PubSubConfig{DomainTopic: " domain-topic "})
	require.NoError(t, err)
	return r
}

func sealed(t *testing.T, data any) json.RawMessage {
	t.Helper()
	_, raw, err := outbox.Seal(1, time.Now(), &outbox.ActorRef{UserID: uuid.New(), Role: "admin"}, data)
	require.NoError(t, err)
	return raw
}

func TestRouterResolvesModerationActivity(t *testing.T) {
	listingID, ownerID := uuid.New(), uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventActivityRecorded,
		AggregateType: enums.AggregateListing,
		AggregateID:   listingID,
		Payload: sealed(t, payloads.ActivityRecordedEvent{
			ActivityID: uuid.New(),
			Kind:       enums.ActivityPropertyHidden,
			ListingID:  &listingID,
			OwnerID:    &ownerID,
		}),
	}

	resolved, err := newRouter(t).Resolve(event)
	require.NoError(t, err)
	assert.Equal(t, "domain-topic", resolved.Route.Topic)
	payload, ok := resolved.Payload.(payloads.ActivityRecordedEvent)
	require.True(t, ok, "got %T", resolved.Payload)
	assert.Equal(t, ownerID, *payload.OwnerID)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	require.NotNil(t, resolved.Envelope.Actor)
	assert.Equal(t, "admin", resolved.Envelope.Actor.Role)
}

func TestRouterAcceptsEveryActivityAggregate(t *testing.T) {
	r := newRouter(t)
	body := sealed(t, payloads.ActivityRecordedEvent{ActivityID: uuid.New(), Kind: enums.ActivitySettingsUpdated})
	for _, aggregate := range []enums.OutboxAggregateType{enums.AggregateReport, enums.AggregateUser, enums.AggregateSiteSetting} {
		_, err := r.Resolve(models.OutboxEvent{
			EventType:     enums.EventActivityRecorded,
			AggregateType: aggregate,
			AggregateID:   uuid.New(),
			Payload:       body,
		})
		assert.NoError(t, err, aggregate)
	}
}

func TestRouterFailuresArePermanent(t *testing.T) {
	r := newRouter(t)
	contact := sealed(t, payloads.ContactMessageReceivedEvent{MessageID: uuid.New()})

	cases := map[string]models.OutboxEvent{
		"unknown type":         {EventType: "listing_exploded", AggregateType: enums.AggregateListing, AggregateID: uuid.New(), Payload: contact},
		"wrong aggregate":      {EventType: enums.EventContactMessageReceived, AggregateType: enums.AggregateListing, AggregateID: uuid.New(), Payload: contact},
		"missing aggregate id": {EventType: enums.EventContactMessageReceived, AggregateType: enums.AggregateContactMessage, Payload: contact},
		"null data":            {EventType: enums.EventActivityRecorded, AggregateType: enums.AggregateListing, AggregateID: uuid.New(), Payload: sealed(t, nil)},
		"bad data":             {EventType: enums.EventActivityRecorded, AggregateType: enums.AggregateListing, AggregateID: uuid.New(), Payload: sealed(t, map[string]int{"kind": 3})},
	}
	for name, event := range cases {
		_, err := r.Resolve(event)
		require.Error(t, err, name)
		assert.True(t, IsPermanent(err), name)
	}
}

func TestNewRouterRequiresTopic(t *testing.T) {
	_, err := NewRouter(config.PubSubConfig{DomainTopic: "  "})
	assert.Error(t, err)
}
