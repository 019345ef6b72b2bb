package listings

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

const defaultViewDedupeTTL = 6 * time.Hour

// RecordView counts a visit once per visitor per dedupe window. Owners and
// admins browsing the listing are not counted, and neither are listings that
// are not publicly visible. Redis failures skip the count instead of failing
// the request.
func (s *service) RecordView(ctx context.Context, actor visibility.Actor, listingID uuid.UUID, visitor string) (bool, error) {
	listing, err := s.load(ctx, listingID)
	if err != nil {
		return false, err
	}
	if err := visibility.EnsureListingVisible(listing, actor); err != nil {
		return false, err
	}
	if visibility.DetailAudience(actor, listing.OwnerID) != visibility.AudiencePublic || !listing.PubliclyVisible() {
		return false, nil
	}

	fingerprint := visitorFingerprint(actor, visitor)
	if fingerprint == "" {
		return false, nil
	}
	ttl := s.cfg.ViewDedupeTTL
	if ttl <= 0 {
		ttl = defaultViewDedupeTTL
	}
	first, err := s.views.SetNX(ctx, s.views.ListingViewKey(listingID.String(), fingerprint), 1, ttl)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "view dedupe unavailable; view not counted")
		return false, nil
	}
	if !first {
		return false, nil
	}

	rows, err := s.repo.IncrementViewCount(ctx, listingID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment view count")
	}
	return rows > 0, nil
}

// visitorFingerprint keys authenticated users by id and anonymous visitors by
// a hash of the client identity so raw IPs never reach Redis.
func visitorFingerprint(actor visibility.Actor, visitor string) string {
	if actor.IsAuthenticated() {
		return "u:" + actor.ID.String()
	}
	visitor = strings.TrimSpace(visitor)
	if visitor == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(visitor))
	return "a:" + hex.EncodeToString(sum[:16])
}
