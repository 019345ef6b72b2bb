package visibility

import (
	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
)

// Actor is the authenticated caller, or the zero value for anonymous visitors.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// Anonymous returns the actor used for unauthenticated requests.
func Anonymous() Actor {
	return Actor{}
}

func (a Actor) IsAuthenticated() bool {
	return a.ID != uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.IsAuthenticated() && a.Role == enums.UserRoleAdmin
}

// Owns reports whether the actor is the owner identified by ownerID.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.IsAuthenticated() && a.ID == ownerID
}
