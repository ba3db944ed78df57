package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
	"github.com/replytics/dashboard-api/internal/billing_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgSubscriptionRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgSubscriptionRepository creates a new PostgreSQL implementation of
// repository.SubscriptionRepository.
func NewPgSubscriptionRepository(db database.PGXPool, logger *slog.Logger) repository.SubscriptionRepository {
	return &pgSubscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `id, business_id, plan, status, gateway_subscription_id,
	current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.BusinessID, &s.Plan, &s.Status, &s.GatewaySubscriptionID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgSubscriptionRepository) GetByBusinessID(ctx context.Context, businessID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE business_id = $1`
	subscription, err := scanSubscription(r.db.QueryRow(ctx, query, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting subscription", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return subscription, nil
}

func (r *pgSubscriptionRepository) GetByGatewaySubscriptionID(ctx context.Context, gatewayID string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE gateway_subscription_id = $1`
	subscription, err := scanSubscription(r.db.QueryRow(ctx, query, gatewayID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting subscription by gateway id", "error", err, "gateway_subscription_id", gatewayID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return subscription, nil
}

func (r *pgSubscriptionRepository) Upsert(ctx context.Context, subscription *domain.Subscription) error {
	if subscription.ID == "" {
		subscription.ID = uuid.NewString()
	}
	query := `INSERT INTO subscriptions
		(id, business_id, plan, status, gateway_subscription_id,
		 current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (business_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			gateway_subscription_id = EXCLUDED.gateway_subscription_id,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		subscription.ID, subscription.BusinessID, subscription.Plan, subscription.Status,
		subscription.GatewaySubscriptionID, subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd,
		subscription.CancelAtPeriodEnd,
	).Scan(&subscription.ID, &subscription.CreatedAt, &subscription.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting subscription", "error", err, "business_id", subscription.BusinessID)
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}
