package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCustomerNotFound indicates the customer does not exist for this business.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrValidation indicates an invalid filter or field value.
	ErrValidation = errors.New("validation failed")
)

// Customer segments, recomputed by the voice platform after each
// interaction.
const (
	SegmentVIP     = "vip"
	SegmentRegular = "regular"
	SegmentAtRisk  = "at_risk"
	SegmentNew     = "new"
	SegmentDormant = "dormant"
)

// Segments lists the valid segment values in display order.
var Segments = []string{SegmentVIP, SegmentRegular, SegmentNew, SegmentAtRisk, SegmentDormant}

// ValidSegment reports whether s is a known segment name.
func ValidSegment(s string) bool {
	for _, seg := range Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// Customer is one caller known to a business. The phone number is stored
// hashed (ANIHash); the dashboard displays names and stats, not raw numbers.
type Customer struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	ANIHash         string     `json:"ani_hash"`
	Email           string     `json:"email,omitempty"`
	Segment         string     `json:"segment"`
	VisitCount      int        `json:"visit_count"`
	TotalSpendCents int64      `json:"total_spend_cents"`
	NoShowCount     int        `json:"no_show_count"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sort columns accepted by ListFilter.
const (
	SortLastInteraction = "lastInteraction"
	SortName            = "name"
	SortVisits          = "visits"
	SortSpend           = "spend"
)

// ListFilter selects and orders a page of customers.
type ListFilter struct {
	Search    string
	Segment   string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Normalize applies defaults and validates bounds.
func (f *ListFilter) Normalize() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = 10
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		return fmt.Errorf("%w: pageSize must be between 1 and 100", ErrValidation)
	}
	if f.SortBy == "" {
		f.SortBy = SortLastInteraction
	}
	switch f.SortBy {
	case SortLastInteraction, SortName, SortVisits, SortSpend:
	default:
		return fmt.Errorf("%w: unknown sortBy %q", ErrValidation, f.SortBy)
	}
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		return fmt.Errorf("%w: sortOrder must be asc or desc", ErrValidation)
	}
	if f.Segment != "" && !ValidSegment(f.Segment) {
		return fmt.Errorf("%w: unknown segment %q", ErrValidation, f.Segment)
	}
	return nil
}

// Offset converts page/pageSize to a row offset.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// CustomerPage is one page of results plus the unpaginated total.
type CustomerPage struct {
	Customers []*Customer `json:"customers"`
	Total     int64       `json:"total"`
}

// SegmentCounts holds per-segment totals for the segment filter chips.
type SegmentCounts struct {
	All     int64 `json:"all"`
	VIP     int64 `json:"vip"`
	Regular int64 `json:"regular"`
	AtRisk  int64 `json:"at_risk"`
	New     int64 `json:"new"`
	Dormant int64 `json:"dormant"`
}
