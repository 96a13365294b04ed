package enums

import "fmt"

// SortOption describes the product listing sort orders the catalog supports.
type SortOption string

const (
	SortOptionOriginal  SortOption = "original"
	SortOptionPriceAsc  SortOption = "price_asc"
	SortOptionPriceDesc SortOption = "price_desc"
	SortOptionRating    SortOption = "rating"
)

var validSortOptions = []SortOption{
	SortOptionOriginal,
	SortOptionPriceAsc,
	SortOptionPriceDesc,
	SortOptionRating,
}

// IsValid reports whether the value matches the canonical sort option enum.
func (s SortOption) IsValid() bool {
	for _, candidate := range validSortOptions {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortOption converts the raw string to SortOption. Empty input maps to
// the original catalog order.
func ParseSortOption(value string) (SortOption, error) {
	if value == "" {
		return SortOptionOriginal, nil
	}
	for _, candidate := range validSortOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort option %q", value)
}
