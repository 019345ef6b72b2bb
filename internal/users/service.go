package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/pkg/auth"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

// lastSeenResolution limits how often a request refreshes last_seen_at.
const lastSeenResolution = 5 * time.Minute

// Service resolves verified identities into actors and manages roles.
type Service interface {
	Resolve(ctx context.Context, claims *auth.AccessTokenClaims) (visibility.Actor, error)
	Me(ctx context.Context, actor visibility.Actor) (*UserDTO, error)
	List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error)
	ChangeRole(ctx context.Context, actor visibility.Actor, userID uuid.UUID, role enums.UserRole) (*UserDTO, error)
}

type service struct {
	repo     *Repository
	activity activity.Emitter
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the users dependencies.
func NewService(repo *Repository, emitter activity.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("activity emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, activity: emitter, logg: logg, now: time.Now}, nil
}

// Resolve maps token claims onto the stored user, creating a client account on
// first sight. The role always comes from the users table.
func (s *service) Resolve(ctx context.Context, claims *auth.AccessTokenClaims) (visibility.Actor, error) {
	if claims == nil || claims.UserID == uuid.Nil {
		return visibility.Anonymous(), pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.register(ctx, claims)
	}
	if err != nil {
		return visibility.Anonymous(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	if !user.IsActive {
		return visibility.Anonymous(), pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}

	now := s.now().UTC()
	if user.LastSeenAt == nil || now.Sub(*user.LastSeenAt) > lastSeenResolution {
		if err := s.repo.TouchLastSeen(ctx, user.ID, now); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "failed to update last seen")
		}
	}
	return visibility.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *service) register(ctx context.Context, claims *auth.AccessTokenClaims) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		email = claims.UserID.String() + "@users.invalid"
	}
	name := strings.TrimSpace(claims.DisplayName)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := &models.User{
		ID:          claims.UserID,
		Email:       email,
		DisplayName: name,
		Role:        enums.UserRoleClient,
		IsActive:    true,
	}
	if err := s.repo.CreateIfMissing(ctx, user); err != nil {
		return nil, err
	}
	// Another request may have won the insert; read back whatever is stored.
	stored, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, stored.ID.String()), "user registered from token")
	return stored, nil
}

func (s *service) Me(ctx context.Context, actor visibility.Actor) (*UserDTO, error) {
	if !actor.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, filter ListFilter, params pagination.Params) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user management is restricted to administrators")
	}
	if filter.Role != nil && !filter.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}

	rows, next := pagination.Trim(rows, params.Limit, func(row models.User) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	result := &ListResult{Items: make([]UserDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Items = append(result.Items, *FromModel(&rows[i]))
	}
	return result, nil
}

// ChangeRole moves a user to a new role. Admins cannot change their own role so
// the last administrator cannot lock everyone out.
func (s *service) ChangeRole(ctx context.Context, actor visibility.Actor, userID uuid.UUID, role enums.UserRole) (*UserDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may change roles")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if actor.ID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "administrators cannot change their own role")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return FromModel(user), nil
	}

	previous := user.Role
	rows, err := s.repo.UpdateRole(ctx, userID, previous, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update role")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "role changed concurrently, reload and retry")
	}

	updated, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.activity.Emit(ctx, activity.Entry{
		Actor:     actor,
		Kind:      enums.ActivityRoleChanged,
		SubjectID: &updated.ID,
		Details: map[string]any{
			"from": previous,
			"to":   updated.Role,
		},
	})
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"target_user_id": userID.String(),
		"from":           previous,
		"to":             updated.Role,
	}), "user role changed")
	return FromModel(updated), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return user, nil
}
