package registry

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
)

func TestDomainDecodersReturnValues(t *testing.T) {
	listingID := uuid.New()
	raw := json.RawMessage(`{"activity_id":"` + uuid.NewString() + `","kind":"property_hidden","listing_id":"` + listingID.String() + `"}`)

	out, err := Domain().Decode(enums.EventActivityRecorded, 1, raw)
	require.NoError(t, err)
	event, ok := out.(payloads.ActivityRecordedEvent)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, enums.ActivityPropertyHidden, event.Kind)
	require.NotNil(t, event.ListingID)
	assert.Equal(t, listingID, *event.ListingID)
}

func TestDecodersRejectUnknownVersionAndBadJSON(t *testing.T) {
	d := Domain()
	_, err := d.Decode(enums.EventActivityRecorded, 2, json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "no decoder for activity_recorded@v2")

	_, err = d.Decode(enums.EventContactMessageReceived, 1, json.RawMessage(`{"message_id":7}`))
	assert.Error(t, err)
}
