package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// Service exposes the admin activity feed.
type Service interface {
	List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo}, nil
}

// EntryDTO is the API shape of an activity row.
type EntryDTO struct {
	ID        uuid.UUID          `json:"id"`
	Kind      enums.ActivityKind `json:"kind"`
	ActorID   *uuid.UUID         `json:"actor_id,omitempty"`
	ActorRole *enums.UserRole    `json:"actor_role,omitempty"`
	ListingID *uuid.UUID         `json:"listing_id,omitempty"`
	OwnerID   *uuid.UUID         `json:"owner_id,omitempty"`
	Details   json.RawMessage    `json:"details,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type ListResult struct {
	Items      []EntryDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (s *service) List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "activity log is restricted to administrators")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filter.Kind != nil && !filter.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity kind")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list activity")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row models.ActivityLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	result := &ListResult{Items: make([]EntryDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Items = append(result.Items, newEntryDTO(row))
	}
	return result, nil
}

func newEntryDTO(row models.ActivityLog) EntryDTO {
	return EntryDTO{
		ID:        row.ID,
		Kind:      row.Kind,
		ActorID:   row.ActorID,
		ActorRole: row.ActorRole,
		ListingID: row.ListingID,
		OwnerID:   row.OwnerID,
		Details:   row.Details,
		CreatedAt: row.CreatedAt,
	}
}
