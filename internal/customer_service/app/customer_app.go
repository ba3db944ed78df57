package app

import (
	"context"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/customer_service/domain"
)

// Application serves the customer roster views.
type Application struct {
	customerRepo domain.CustomerRepository
	logger       *slog.Logger
}

func NewApplication(customerRepo domain.CustomerRepository, logger *slog.Logger) *Application {
	return &Application{customerRepo: customerRepo, logger: logger}
}

// ListCustomers returns one page of the roster after normalizing the filter.
func (a *Application) ListCustomers(ctx context.Context, businessID string, filter domain.ListFilter) (*domain.CustomerPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	page, err := a.customerRepo.List(ctx, businessID, filter)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list customers", "error", err, "business_id", businessID)
		return nil, err
	}
	return page, nil
}

// GetCustomer fetches one customer, scoped to the business.
func (a *Application) GetCustomer(ctx context.Context, id string, businessID string) (*domain.Customer, error) {
	return a.customerRepo.GetByID(ctx, id, businessID)
}

// SegmentCounts returns per-segment totals, with the same optional search
// narrowing as the list view.
func (a *Application) SegmentCounts(ctx context.Context, businessID string, search string) (*domain.SegmentCounts, error) {
	counts, err := a.customerRepo.SegmentCounts(ctx, businessID, search)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to count customer segments", "error", err, "business_id", businessID)
		return nil, err
	}
	return counts, nil
}
