package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db/dbtest"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

func TestServiceEmitWritesEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	aggregateID := uuid.New()
	actorID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventActivityRecorded,
			AggregateType: enums.AggregateListing,
			AggregateID:   aggregateID,
			Actor:         &ActorRef{UserID: actorID, Role: "admin"},
			Data:          map[string]string{"kind": "property_hidden"},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, aggregateID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.UserID)
	assert.JSONEq(t, `{"kind":"property_hidden"}`, string(envelope.Data))
}

func TestServiceEmitRejectsUnknownTypes(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := svc.Emit(context.Background(), conn, DomainEvent{EventType: "bogus", AggregateType: enums.AggregateListing, AggregateID: uuid.New()})
	require.Error(t, err)
	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: enums.EventActivityRecorded, AggregateType: "planet", AggregateID: uuid.New()})
	require.Error(t, err)
	assert.ErrorIs(t, svc.Emit(context.Background(), nil, DomainEvent{}), errTxRequired)
}

func insertEvent(t *testing.T, repo *Repository, conn *gorm.DB) {
	t.Helper()
	require.NoError(t, repo.Insert(conn, models.OutboxEvent{
		EventType:     enums.EventActivityRecorded,
		AggregateType: enums.AggregateListing,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
	}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	insertEvent(t, repo, conn)

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkPublished(conn, rows[0].ID))
	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	purged, err := repo.DeletePublishedBefore(context.Background(), nil, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestClaimSkipsExhaustedAndDeadLetteredRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	insertEvent(t, repo, conn)
	insertEvent(t, repo, conn)

	rows, err := repo.Claim(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.RecordFailure(conn, rows[0].ID, errors.New("timeout")))
	require.NoError(t, repo.DeadLetter(conn, rows[1], enums.OutboxDLQReasonNonRetryable, errors.New("bad payload"), 3))

	claimed, err := repo.Claim(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].AttemptCount)
	require.NotNil(t, claimed[0].LastError)
	assert.Equal(t, "timeout", *claimed[0].LastError)

	var dlq []models.OutboxDLQ
	require.NoError(t, conn.Find(&dlq).Error)
	require.Len(t, dlq, 1)
	assert.Equal(t, rows[1].ID, dlq[0].EventID)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq[0].ErrorReason)
	require.NotNil(t, dlq[0].ErrorMessage)
	assert.Equal(t, "bad payload", *dlq[0].ErrorMessage)
}

func TestStoredErrorKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("ş", maxStoredErrorLen)
	got := storedError(errors.New(long))
	assert.LessOrEqual(t, len(got), maxStoredErrorLen)
	assert.True(t, utf8.ValidString(got))
	assert.Empty(t, storedError(nil))
}

func TestOpenRejectsBrokenEnvelopes(t *testing.T) {
	_, raw, err := Seal(0, time.Time{}, nil, map[string]string{"kind": "property_shown"})
	require.NoError(t, err)
	envelope, err := Open(raw)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, envelope.Version)
	assert.False(t, envelope.OccurredAt.IsZero())

	for _, broken := range []string{`not json`, `{"eventId":"nope","data":{}}`, `{"eventId":"` + uuid.NewString() + `","data":null}`} {
		_, err := Open([]byte(broken))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, broken)
	}
}
