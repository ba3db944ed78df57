package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/billing_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgProcessedEventRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgProcessedEventRepository creates a new PostgreSQL implementation of
// repository.ProcessedEventRepository.
func NewPgProcessedEventRepository(db database.PGXPool, logger *slog.Logger) repository.ProcessedEventRepository {
	return &pgProcessedEventRepository{db: db, logger: logger}
}

// MarkProcessed inserts the event id; a conflict means a replay.
func (r *pgProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	cmdTag, err := r.db.Exec(ctx,
		`INSERT INTO processed_webhook_events (event_id, processed_at) VALUES ($1, NOW())
		 ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error recording processed webhook event", "error", err, "event_id", eventID)
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return cmdTag.RowsAffected() == 0, nil
}
