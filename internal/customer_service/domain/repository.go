package domain

import "context"

// CustomerRepository reads the customer roster. Rows are written by the
// voice platform's interaction pipeline; the dashboard only reads them.
type CustomerRepository interface {
	List(ctx context.Context, businessID string, filter ListFilter) (*CustomerPage, error)
	GetByID(ctx context.Context, id string, businessID string) (*Customer, error)
	SegmentCounts(ctx context.Context, businessID string, search string) (*SegmentCounts, error)
}
