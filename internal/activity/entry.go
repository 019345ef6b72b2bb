package activity

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	"github.com/emlakhub/emlakhub-backend/pkg/outbox/payloads"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// Entry describes one activity to persist.
type Entry struct {
	Actor     visibility.Actor
	Kind      enums.ActivityKind
	ListingID *uuid.UUID
	OwnerID   *uuid.UUID
	// SubjectID identifies the non-listing aggregate (report, user, setting).
	SubjectID *uuid.UUID
	Details   map[string]any
}

// ListingEntry builds an entry scoped to a listing and its owner.
func ListingEntry(actor visibility.Actor, kind enums.ActivityKind, listing *models.Listing, details map[string]any) Entry {
	entry := Entry{Actor: actor, Kind: kind, Details: details}
	if listing != nil {
		listingID := listing.ID
		ownerID := listing.OwnerID
		entry.ListingID = &listingID
		entry.OwnerID = &ownerID
	}
	return entry
}

func (e Entry) toModel() (*models.ActivityLog, error) {
	row := &models.ActivityLog{
		Kind:      e.Kind,
		ListingID: e.ListingID,
		OwnerID:   e.OwnerID,
	}
	if e.Actor.IsAuthenticated() {
		actorID := e.Actor.ID
		role := e.Actor.Role
		row.ActorID = &actorID
		row.ActorRole = &role
	}
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		row.Details = raw
	}
	return row, nil
}

// aggregate picks the outbox aggregate an activity is published under.
func (e Entry) aggregate() (enums.OutboxAggregateType, uuid.UUID, bool) {
	switch e.Kind {
	case enums.ActivityReportSubmitted, enums.ActivityReportResolved:
		if e.SubjectID != nil {
			return enums.AggregateReport, *e.SubjectID, true
		}
	case enums.ActivityRoleChanged:
		if e.SubjectID != nil {
			return enums.AggregateUser, *e.SubjectID, true
		}
	case enums.ActivitySettingsUpdated:
		if e.SubjectID != nil {
			return enums.AggregateSiteSetting, *e.SubjectID, true
		}
	}
	if e.ListingID != nil {
		return enums.AggregateListing, *e.ListingID, true
	}
	if e.Actor.IsAuthenticated() {
		return enums.AggregateUser, e.Actor.ID, true
	}
	return "", uuid.Nil, false
}

func recordedEvent(row *models.ActivityLog) payloads.ActivityRecordedEvent {
	return payloads.ActivityRecordedEvent{
		ActivityID: row.ID,
		Kind:       row.Kind,
		ActorID:    row.ActorID,
		ActorRole:  row.ActorRole,
		ListingID:  row.ListingID,
		OwnerID:    row.OwnerID,
		Details:    row.Details,
	}
}
