package domain

import "fmt"

// Category names one of the closed set of ticket queues. The set is fixed
// at compile time; persisted records referencing anything else fail
// ParseCategory and are treated as corrupt.
type Category string

const (
	CategorySupport     Category = "support"
	CategoryRecruitment Category = "recruitment"
	CategoryPartnership Category = "partnership"
	CategoryBooking     Category = "booking"
	CategoryFounders    Category = "founders"
	CategoryHR          Category = "hr"
)

// Categories returns the full set in presentation order.
func Categories() []Category {
	return []Category{
		CategorySupport,
		CategoryRecruitment,
		CategoryPartnership,
		CategoryBooking,
		CategoryFounders,
		CategoryHR,
	}
}

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	switch c {
	case CategorySupport, CategoryRecruitment, CategoryPartnership,
		CategoryBooking, CategoryFounders, CategoryHR:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Label is the human-facing name used in notices and replies.
func (c Category) Label() string {
	switch c {
	case CategorySupport:
		return "Support"
	case CategoryRecruitment:
		return "Recruitment"
	case CategoryPartnership:
		return "Partnership"
	case CategoryBooking:
		return "Booking"
	case CategoryFounders:
		return "Founders"
	case CategoryHR:
		return "HR"
	}
	return string(c)
}

// Color is the accent used on notices for this category.
func (c Category) Color() int {
	switch c {
	case CategorySupport:
		return 0x5865F2
	case CategoryRecruitment:
		return 0x57F287
	case CategoryPartnership:
		return 0xFEE75C
	case CategoryBooking:
		return 0xEB459E
	case CategoryFounders:
		return 0xED4245
	case CategoryHR:
		return 0x9B59B6
	}
	return 0x95A5A6
}
