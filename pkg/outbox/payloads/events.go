package payloads

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// ActivityRecordedEvent mirrors an activity_logs row for downstream consumers.
type ActivityRecordedEvent struct {
	ActivityID uuid.UUID          `json:"activity_id"`
	Kind       enums.ActivityKind `json:"kind"`
	ActorID    *uuid.UUID         `json:"actor_id,omitempty"`
	ActorRole  *enums.UserRole    `json:"actor_role,omitempty"`
	ListingID  *uuid.UUID         `json:"listing_id,omitempty"`
	OwnerID    *uuid.UUID         `json:"owner_id,omitempty"`
	SubjectID  *uuid.UUID         `json:"subject_id,omitempty"`
	Details    json.RawMessage    `json:"details,omitempty"`
}

// ContactMessageReceivedEvent announces a new public contact form submission.
type ContactMessageReceivedEvent struct {
	MessageID uuid.UUID    `json:"message_id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Subject   string       `json:"subject"`
	ListingID *uuid.UUID   `json:"listing_id,omitempty"`
	Locale    enums.Locale `json:"locale"`
}
