package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/internal/policy"
	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/metrics"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

const (
	actionAdminSetHidden   = "admin_set_hidden"
	actionSellerToggle     = "seller_toggle_visibility"
	actionAdminSetFeatured = "admin_set_featured"
)

// AdminSetHidden hides (status=pending) or shows (status=available) a listing.
// Both columns change in one guarded UPDATE; repeating the call is harmless.
func (s *service) AdminSetHidden(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, hide bool) (*ListingDTO, error) {
	ctx = s.transitionContext(ctx, actor, listingID)
	if err := policy.CheckHiddenFlagWrite(actor); err != nil {
		return nil, s.fail(ctx, actionAdminSetHidden, err)
	}

	var updated *models.Listing
	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.SetAdminHidden(ctx, actor, listingID, hide)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		updated, err = findOptional(ctx, txRepo, listingID)
		if err != nil {
			return err
		}
		if updated == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil
	}); err != nil {
		return nil, s.fail(ctx, actionAdminSetHidden, asServiceError(err, "db: set admin hidden"))
	}

	kind := enums.ActivityPropertyShown
	if hide {
		kind = enums.ActivityPropertyHidden
	}
	s.activity.Emit(ctx, activity.ListingEntry(actor, kind, updated, map[string]any{
		"hidden_by_admin": updated.HiddenByAdmin,
		"status":          updated.Status,
	}))
	s.observe(actionAdminSetHidden, metrics.OutcomeApplied)
	s.logg.Info(s.logg.WithField(ctx, "hidden_by_admin", hide), "listing admin visibility changed")
	return NewListingDTO(updated), nil
}

// SellerToggleVisibility moves an owned listing along one owner edge of the
// status graph. Requesting the current status changes nothing. The pre-read
// gives precise errors; the guarded UPDATE decides when an admin hide commits
// between the read and the write.
func (s *service) SellerToggleVisibility(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, requested enums.ListingStatus) (*ListingDTO, error) {
	ctx = s.transitionContext(ctx, actor, listingID)
	if !requested.SellerSettable() {
		return nil, s.fail(ctx, actionSellerToggle, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of available, hidden, sold, rented"))
	}
	if !actor.IsAuthenticated() {
		return nil, s.fail(ctx, actionSellerToggle, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
	}

	current, err := findOptional(ctx, s.repo, listingID)
	if err != nil {
		return nil, s.fail(ctx, actionSellerToggle, err)
	}
	if err := policy.CheckSellerStatusWrite(actor, current); err != nil {
		return nil, s.fail(ctx, actionSellerToggle, err)
	}
	if current.Status == requested {
		s.observe(actionSellerToggle, metrics.OutcomeUnchanged)
		return NewListingDTO(current), nil
	}
	if err := policy.CheckSellerTransition(actor, current, requested); err != nil {
		return nil, s.fail(ctx, actionSellerToggle, err)
	}

	return s.applySellerStatus(ctx, actor, current, requested)
}

func (s *service) applySellerStatus(ctx context.Context, actor visibility.Actor, current *models.Listing, requested enums.ListingStatus) (*ListingDTO, error) {
	var updated *models.Listing
	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.SetSellerStatus(ctx, actor, current.ID, requested)
		if err != nil {
			return err
		}
		reloaded, err := findOptional(ctx, txRepo, current.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// The row changed after the pre-read; report what it is now.
			if err := policy.CheckSellerTransition(actor, reloaded, requested); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing changed concurrently")
		}
		updated = reloaded
		return nil
	}); err != nil {
		return nil, s.fail(ctx, actionSellerToggle, asServiceError(err, "db: set listing status"))
	}

	s.activity.Emit(ctx, activity.ListingEntry(actor, enums.ActivityKindForStatus(requested), updated, map[string]any{
		"from": current.Status,
		"to":   updated.Status,
	}))
	s.observe(actionSellerToggle, metrics.OutcomeApplied)
	s.logg.Info(s.logg.WithField(ctx, "status", string(requested)), "listing status changed by owner")
	return NewListingDTO(updated), nil
}

// AdminSetFeatured toggles the featured flag. Featuring does not change
// visibility: a featured listing still needs to pass the public predicate.
func (s *service) AdminSetFeatured(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, featured bool) (*ListingDTO, error) {
	ctx = s.transitionContext(ctx, actor, listingID)
	if !actor.IsAuthenticated() {
		return nil, s.fail(ctx, actionAdminSetFeatured, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
	}
	if !actor.IsAdmin() {
		return nil, s.fail(ctx, actionAdminSetFeatured, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may feature listings"))
	}

	var updated *models.Listing
	if err := s.dbClient.WithActor(ctx, actorSession(actor), func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.SetFeatured(ctx, actor, listingID, featured)
		if err != nil {
			return err
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		updated, err = findOptional(ctx, txRepo, listingID)
		if err != nil {
			return err
		}
		if updated == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil
	}); err != nil {
		return nil, s.fail(ctx, actionAdminSetFeatured, asServiceError(err, "db: set featured"))
	}

	s.activity.Emit(ctx, activity.ListingEntry(actor, enums.ActivityPropertyFeatured, updated, map[string]any{"featured": featured}))
	s.observe(actionAdminSetFeatured, metrics.OutcomeApplied)
	return NewListingDTO(updated), nil
}

func (s *service) transitionContext(ctx context.Context, actor visibility.Actor, listingID uuid.UUID) context.Context {
	ctx = s.logg.WithListingID(ctx, listingID.String())
	if actor.IsAuthenticated() {
		ctx = s.logg.WithActor(ctx, actor.ID.String(), string(actor.Role))
	}
	return ctx
}

// fail records the outcome of a rejected transition and returns err unchanged.
func (s *service) fail(ctx context.Context, action string, err error) error {
	outcome := metrics.OutcomeError
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeAdminLock):
		outcome = metrics.OutcomeAdminLock
	case pkgerrors.IsCode(err, pkgerrors.CodeForbidden), pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized):
		outcome = metrics.OutcomeForbidden
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		outcome = metrics.OutcomeNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		outcome = metrics.OutcomeInvalid
	case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
		outcome = metrics.OutcomeConflict
	}
	s.observe(action, outcome)
	if outcome == metrics.OutcomeError {
		s.logg.Error(ctx, action+" failed", err)
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "outcome", outcome), action+" rejected")
	}
	return err
}

func (s *service) observe(action, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(action, outcome)
	}
}
