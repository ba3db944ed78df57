package domain

import "context"

// ServiceRepository manages the catalog rows. Every query is scoped by
// business id; a row owned by another business reads as absent.
type ServiceRepository interface {
	Create(ctx context.Context, service *Service) error
	CreateBatch(ctx context.Context, services []*Service) error
	GetByID(ctx context.Context, id string, businessID string) (*Service, error)
	ListByBusinessID(ctx context.Context, businessID string, includeInactive bool) ([]*Service, error)
	CountByBusinessID(ctx context.Context, businessID string) (int, error)
	Update(ctx context.Context, service *Service) error
	SoftDelete(ctx context.Context, id string, businessID string) error
	Reorder(ctx context.Context, businessID string, orderedIDs []string) error
}
