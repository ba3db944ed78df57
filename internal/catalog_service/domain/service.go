package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrServiceNotFound indicates the catalog item does not exist or is deleted.
	ErrServiceNotFound = errors.New("service not found")
	// ErrAccessDenied indicates the catalog item belongs to another business.
	ErrAccessDenied = errors.New("access denied")
	// ErrDuplicateService indicates a name collision within one business.
	ErrDuplicateService = errors.New("service with this name already exists")
	// ErrValidation indicates a domain invariant violation.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownTemplate indicates an unrecognized industry template name.
	ErrUnknownTemplate = errors.New("unknown industry template")
)

// Service is one bookable offering in a business's catalog. The voice
// receptionist reads this list when taking bookings.
type Service struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	PriceCents      int64      `json:"price_cents"`
	Category        string     `json:"category,omitempty"`
	IsActive        bool       `json:"is_active"`
	DisplayOrder    int        `json:"display_order"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-"`
}

// Validate enforces the catalog item invariants.
func (s *Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(s.Name) > 200 {
		return fmt.Errorf("%w: name must be at most 200 characters", ErrValidation)
	}
	if s.DurationMinutes < 5 || s.DurationMinutes > 480 {
		return fmt.Errorf("%w: duration must be between 5 and 480 minutes", ErrValidation)
	}
	if s.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// ServicePatch is a partial update; nil fields keep their stored value.
type ServicePatch struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	PriceCents      *int64
	Category        *string
	IsActive        *bool
}

// Apply merges the patch into the service.
func (p ServicePatch) Apply(s *Service) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.DurationMinutes != nil {
		s.DurationMinutes = *p.DurationMinutes
	}
	if p.PriceCents != nil {
		s.PriceCents = *p.PriceCents
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}
