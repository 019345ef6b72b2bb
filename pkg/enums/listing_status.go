package enums

import "fmt"

// ListingStatus maps to the listing_status enum in Postgres.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusHidden    ListingStatus = "hidden"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusRented    ListingStatus = "rented"
)

var validListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusPending,
	ListingStatusHidden,
	ListingStatusSold,
	ListingStatusRented,
}

// adminHiddenStatuses are the only statuses a listing may carry while hidden_by_admin is set.
var adminHiddenStatuses = []ListingStatus{
	ListingStatusPending,
	ListingStatusHidden,
}

// sellerSettableStatuses are the statuses an owner may move their own listing into.
var sellerSettableStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusHidden,
	ListingStatusSold,
	ListingStatusRented,
}

// sellerSources lists, per target status, the statuses an owner may move a
// listing from. pending only leaves through this table when no admin lock is set.
var sellerSources = map[ListingStatus][]ListingStatus{
	ListingStatusAvailable: {ListingStatusHidden, ListingStatusSold, ListingStatusRented, ListingStatusPending},
	ListingStatusHidden:    {ListingStatusAvailable},
	ListingStatusSold:      {ListingStatusAvailable},
	ListingStatusRented:    {ListingStatusAvailable},
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the known listing statuses.
func (s ListingStatus) IsValid() bool {
	return containsStatus(validListingStatuses, s)
}

// AllowedWhileAdminHidden reports whether the status satisfies the admin-hide invariant.
func (s ListingStatus) AllowedWhileAdminHidden() bool {
	return containsStatus(adminHiddenStatuses, s)
}

// SellerSettable reports whether an owner may request this status directly.
func (s ListingStatus) SellerSettable() bool {
	return containsStatus(sellerSettableStatuses, s)
}

// SellerTransitionAllowed reports whether an owner may move a listing from
// one status to another.
func SellerTransitionAllowed(from, to ListingStatus) bool {
	return containsStatus(sellerSources[to], from)
}

// SellerSourceStatuses returns the statuses an owner may move a listing from
// to reach to. It is empty for statuses owners cannot set.
func SellerSourceStatuses(to ListingStatus) []ListingStatus {
	return append([]ListingStatus(nil), sellerSources[to]...)
}

// AdminHiddenStatus is the status written alongside hidden_by_admin=true.
func AdminHiddenStatus() ListingStatus {
	return ListingStatusPending
}

// ListingStatuses returns a copy of every valid status.
func ListingStatuses() []ListingStatus {
	out := make([]ListingStatus, len(validListingStatuses))
	copy(out, validListingStatuses)
	return out
}

// ParseListingStatus converts a raw string into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

func containsStatus(set []ListingStatus, s ListingStatus) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
