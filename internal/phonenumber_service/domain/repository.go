package domain

import "context"

// PhoneNumberRepository persists phone number rows. All lookups are scoped by
// business_id so one tenant can never read or mutate another tenant's numbers.
type PhoneNumberRepository interface {
	Create(ctx context.Context, phone *PhoneNumber) error
	GetByID(ctx context.Context, id string, businessID string) (*PhoneNumber, error)
	ListByBusinessID(ctx context.Context, businessID string) ([]*PhoneNumber, error)
	Update(ctx context.Context, phone *PhoneNumber) error
	CountByStatus(ctx context.Context, businessID string, status string) (int64, error)
	// SetPrimary promotes one number and demotes the business's previous
	// primary in a single transaction.
	SetPrimary(ctx context.Context, id string, businessID string) error
	UpdateAssignedStaff(ctx context.Context, id string, businessID string, staffIDs []string) error
}
