package repository

import (
	"context"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

// SubscriptionRepository persists subscription rows, one per business.
type SubscriptionRepository interface {
	GetByBusinessID(ctx context.Context, businessID string) (*domain.Subscription, error)
	GetByGatewaySubscriptionID(ctx context.Context, gatewayID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, subscription *domain.Subscription) error
}

// InvoiceRepository persists invoice rows.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListByBusinessID(ctx context.Context, businessID string, limit int) ([]*domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

// UsageRepository aggregates the current period's consumption from the call
// and SMS tables.
type UsageRepository interface {
	Usage(ctx context.Context, businessID string, period domain.BillingPeriod) (*domain.Usage, error)
}

// ProcessedEventRepository records handled webhook event ids for idempotency.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, eventID string) (alreadyProcessed bool, err error)
}
