// Package notifications stores in-app notifications and serves the signed-in
// user's inbox. Rows are written by the domain event Consumer.
package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

type Service interface {
	List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, actor visibility.Actor, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, actor visibility.Actor) (int64, error)
}

type inbox interface {
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, after *pagination.Cursor, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
	Unread int64                 `json:"unread"`
}

type service struct {
	store inbox
	now   func() time.Time
}

func NewService(store inbox) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{store: store, now: time.Now}, nil
}

func signedIn(actor visibility.Actor) error {
	if actor.IsAuthenticated() {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

func (s *service) List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error) {
	if err := signedIn(actor); err != nil {
		return nil, err
	}
	after, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.store.ListForUser(ctx, actor.ID, params.UnreadOnly, after, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.store.UnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	page, next := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if page == nil {
		page = []models.Notification{}
	}
	return &ListResult{Items: page, Cursor: next, Unread: unread}, nil
}

func (s *service) MarkRead(ctx context.Context, actor visibility.Actor, notificationID uuid.UUID) error {
	if err := signedIn(actor); err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.store.MarkRead(ctx, actor.ID, notificationID, s.now().UTC())
	switch {
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	case !found:
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor visibility.Actor) (int64, error) {
	if err := signedIn(actor); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllRead(ctx, actor.ID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return n, nil
}
