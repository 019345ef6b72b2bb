// Package policy is the write-authorization rule set for listings. Every scope
// here is folded into the same UPDATE/DELETE statement that performs the
// write, so a concurrent admin change can never be overwritten by a stale
// seller request.
package policy

import (
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db/models"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

func denyAll(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func allowAll(db *gorm.DB) *gorm.DB {
	return db
}

// HiddenFlagWriteScope restricts writes of hidden_by_admin to admins.
func HiddenFlagWriteScope(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	return adminOnly(actor)
}

// FeaturedWriteScope restricts writes of is_featured to admins.
func FeaturedWriteScope(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	return adminOnly(actor)
}

func adminOnly(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	if actor.IsAdmin() {
		return allowAll
	}
	return denyAll
}

// SellerStatusWriteScope applies regardless of role: the row must be owned by
// the actor and not admin-hidden.
func SellerStatusWriteScope(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	if !actor.IsAuthenticated() {
		return denyAll
	}
	ownerID := actor.ID
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ? AND hidden_by_admin = ?", ownerID, false)
	}
}

// SellerTransitionScope narrows SellerStatusWriteScope to rows whose current
// status has an owner edge into to.
func SellerTransitionScope(actor visibility.Actor, to enums.ListingStatus) func(*gorm.DB) *gorm.DB {
	sources := enums.SellerSourceStatuses(to)
	if len(sources) == 0 {
		return denyAll
	}
	owned := SellerStatusWriteScope(actor)
	return func(db *gorm.DB) *gorm.DB {
		return owned(db).Where("status IN ?", sources)
	}
}

// ContentWriteScope restricts edits of descriptive fields to the owner or an admin.
func ContentWriteScope(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	return ownerOrAdmin(actor)
}

// DeleteScope restricts deletes to the owner or an admin.
func DeleteScope(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	return ownerOrAdmin(actor)
}

func ownerOrAdmin(actor visibility.Actor) func(*gorm.DB) *gorm.DB {
	switch {
	case actor.IsAdmin():
		return allowAll
	case actor.IsAuthenticated():
		ownerID := actor.ID
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("owner_id = ?", ownerID)
		}
	default:
		return denyAll
	}
}

// CheckHiddenFlagWrite evaluates HiddenFlagWriteScope in memory.
func CheckHiddenFlagWrite(actor visibility.Actor) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may hide or show listings")
	}
	return nil
}

// CheckSellerStatusWrite evaluates SellerStatusWriteScope against a loaded row.
func CheckSellerStatusWrite(actor visibility.Actor, listing *models.Listing) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if !actor.Owns(listing.OwnerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another user")
	}
	if listing.HiddenByAdmin {
		return AdminLockError()
	}
	return nil
}

// CheckSellerTransition evaluates SellerTransitionScope against a loaded row.
// Lock and ownership failures win over a missing edge.
func CheckSellerTransition(actor visibility.Actor, listing *models.Listing, to enums.ListingStatus) error {
	if err := CheckSellerStatusWrite(actor, listing); err != nil {
		return err
	}
	if !enums.SellerTransitionAllowed(listing.Status, to) {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "listing cannot move from %s to %s", listing.Status, to)
	}
	return nil
}

// CheckOwnerOrAdmin evaluates ContentWriteScope/DeleteScope against a loaded row.
func CheckOwnerOrAdmin(actor visibility.Actor, listing *models.Listing) error {
	if !actor.IsAuthenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if listing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	if actor.IsAdmin() || actor.Owns(listing.OwnerID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another user")
}

// AdminLockError is returned whenever a seller tries to change an admin-hidden listing.
func AdminLockError() error {
	return pkgerrors.New(pkgerrors.CodeAdminLock, "listing was hidden by an administrator and cannot be changed")
}
