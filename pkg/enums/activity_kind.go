package enums

import "fmt"

// ActivityKind maps to the activity_kind enum in Postgres.
type ActivityKind string

const (
	ActivityPropertyHidden   ActivityKind = "property_hidden"
	ActivityPropertyShown    ActivityKind = "property_shown"
	ActivityStatusChanged    ActivityKind = "status_changed"
	ActivityPropertySold     ActivityKind = "property_sold"
	ActivityPropertyRented   ActivityKind = "property_rented"
	ActivityPropertyCreated  ActivityKind = "property_created"
	ActivityPropertyUpdated  ActivityKind = "property_updated"
	ActivityPropertyDeleted  ActivityKind = "property_deleted"
	ActivityPropertyFeatured ActivityKind = "property_featured"
	ActivityReportSubmitted  ActivityKind = "report_submitted"
	ActivityReportResolved   ActivityKind = "report_resolved"
	ActivityRoleChanged      ActivityKind = "role_changed"
	ActivitySettingsUpdated  ActivityKind = "settings_updated"
)

var validActivityKinds = []ActivityKind{
	ActivityPropertyHidden,
	ActivityPropertyShown,
	ActivityStatusChanged,
	ActivityPropertySold,
	ActivityPropertyRented,
	ActivityPropertyCreated,
	ActivityPropertyUpdated,
	ActivityPropertyDeleted,
	ActivityPropertyFeatured,
	ActivityReportSubmitted,
	ActivityReportResolved,
	ActivityRoleChanged,
	ActivitySettingsUpdated,
}

// String implements fmt.Stringer.
func (k ActivityKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k ActivityKind) IsValid() bool {
	for _, candidate := range validActivityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseActivityKind converts a raw string into an ActivityKind.
func ParseActivityKind(value string) (ActivityKind, error) {
	for _, candidate := range validActivityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity kind %q", value)
}

// ActivityKindForStatus returns the activity recorded when a seller moves a listing into status.
func ActivityKindForStatus(status ListingStatus) ActivityKind {
	switch status {
	case ListingStatusSold:
		return ActivityPropertySold
	case ListingStatusRented:
		return ActivityPropertyRented
	default:
		return ActivityStatusChanged
	}
}
