package enums

import "fmt"

// PropertyType maps to the property_type enum in Postgres.
type PropertyType string

const (
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeLand      PropertyType = "land"
	PropertyTypeOffice    PropertyType = "office"
	PropertyTypeShop      PropertyType = "shop"
	PropertyTypeWarehouse PropertyType = "warehouse"
	PropertyTypeBuilding  PropertyType = "building"
)

var validPropertyTypes = []PropertyType{
	PropertyTypeApartment,
	PropertyTypeVilla,
	PropertyTypeHouse,
	PropertyTypeLand,
	PropertyTypeOffice,
	PropertyTypeShop,
	PropertyTypeWarehouse,
	PropertyTypeBuilding,
}

// String implements fmt.Stringer.
func (p PropertyType) String() string {
	return string(p)
}

// IsValid reports whether the property type is recognized.
func (p PropertyType) IsValid() bool {
	for _, candidate := range validPropertyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePropertyType converts a raw string into a PropertyType.
func ParsePropertyType(value string) (PropertyType, error) {
	for _, candidate := range validPropertyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property type %q", value)
}

// ListingPurpose maps to the listing_purpose enum in Postgres.
type ListingPurpose string

const (
	ListingPurposeSale ListingPurpose = "sale"
	ListingPurposeRent ListingPurpose = "rent"
)

var validListingPurposes = []ListingPurpose{
	ListingPurposeSale,
	ListingPurposeRent,
}

// String implements fmt.Stringer.
func (p ListingPurpose) String() string {
	return string(p)
}

// IsValid reports whether the purpose is recognized.
func (p ListingPurpose) IsValid() bool {
	for _, candidate := range validListingPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseListingPurpose converts a raw string into a ListingPurpose.
func ParseListingPurpose(value string) (ListingPurpose, error) {
	for _, candidate := range validListingPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing purpose %q", value)
}
