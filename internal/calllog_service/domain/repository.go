package domain

import "context"

// CallRepository reads call history written by the voice platform. Every
// lookup is scoped by business id, including recordings.
type CallRepository interface {
	List(ctx context.Context, businessID string, filter ListFilter) (*CallPage, error)
	GetByID(ctx context.Context, id string, businessID string) (*Call, error)
	Stats(ctx context.Context, businessID string) (*CallStats, error)
	Upsert(ctx context.Context, call *Call) error
}
