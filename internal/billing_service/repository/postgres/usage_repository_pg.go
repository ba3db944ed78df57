package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
	"github.com/replytics/dashboard-api/internal/billing_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgUsageRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgUsageRepository creates a new PostgreSQL implementation of
// repository.UsageRepository.
func NewPgUsageRepository(db database.PGXPool, logger *slog.Logger) repository.UsageRepository {
	return &pgUsageRepository{db: db, logger: logger}
}

func (r *pgUsageRepository) Usage(ctx context.Context, businessID string, period domain.BillingPeriod) (*domain.Usage, error) {
	callQuery := `SELECT
		COALESCE(SUM(duration_seconds), 0) / 60,
		COUNT(*),
		COUNT(*) FILTER (WHERE recording_url <> '')
		FROM calls
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3`

	var u domain.Usage
	if err := r.db.QueryRow(ctx, callQuery, businessID, period.Start, period.End).
		Scan(&u.Minutes, &u.Calls, &u.Recordings); err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating call usage", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate call usage: %w", err)
	}

	smsQuery := `SELECT COUNT(*) FROM sms_messages
		WHERE business_id = $1 AND direction = 'outbound'
		AND created_at >= $2 AND created_at < $3`
	if err := r.db.QueryRow(ctx, smsQuery, businessID, period.Start, period.End).Scan(&u.SMS); err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating sms usage", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate sms usage: %w", err)
	}
	return &u, nil
}
