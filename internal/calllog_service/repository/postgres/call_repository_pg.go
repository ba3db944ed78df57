package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/calllog_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgCallRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgCallRepository creates a new PostgreSQL implementation of
// domain.CallRepository.
func NewPgCallRepository(db database.PGXPool, logger *slog.Logger) domain.CallRepository {
	return &pgCallRepository{db: db, logger: logger}
}

const callColumns = `id, business_id, customer_phone, status, outcome,
	duration_seconds, recording_url, transcript, created_at`

func scanCall(row pgx.Row) (*domain.Call, error) {
	var c domain.Call
	err := row.Scan(
		&c.ID, &c.BusinessID, &c.CustomerPhone, &c.Status, &c.Outcome,
		&c.DurationSeconds, &c.RecordingURL, &c.Transcript, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgCallRepository) List(ctx context.Context, businessID string, filter domain.ListFilter) (*domain.CallPage, error) {
	where := `WHERE business_id = $1`
	args := []any{businessID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM calls `+where, args...).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Error counting calls", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM calls %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		callColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing calls", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	defer rows.Close()

	calls := []*domain.Call{}
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call row: %w", err)
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading call rows: %w", err)
	}
	return &domain.CallPage{Calls: calls, Total: total}, nil
}

func (r *pgCallRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE id = $1 AND business_id = $2`
	call, err := scanCall(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCallNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting call", "error", err, "call_id", id, "business_id", businessID)
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return call, nil
}

func (r *pgCallRepository) Upsert(ctx context.Context, call *domain.Call) error {
	query := `INSERT INTO calls (id, business_id, customer_phone, status, outcome,
		duration_seconds, recording_url, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			outcome = EXCLUDED.outcome,
			duration_seconds = EXCLUDED.duration_seconds,
			recording_url = EXCLUDED.recording_url,
			transcript = EXCLUDED.transcript
		WHERE calls.business_id = EXCLUDED.business_id`

	_, err := r.db.Exec(ctx, query,
		call.ID, call.BusinessID, call.CustomerPhone, call.Status, call.Outcome,
		call.DurationSeconds, call.RecordingURL, call.Transcript, call.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting call", "error", err, "call_id", call.ID, "business_id", call.BusinessID)
		return fmt.Errorf("failed to upsert call: %w", err)
	}
	return nil
}

func (r *pgCallRepository) Stats(ctx context.Context, businessID string) (*domain.CallStats, error) {
	query := `SELECT
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW())),
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW()) AND status = 'completed'),
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW()) AND status = 'missed'),
		COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days'),
		COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days' AND status = 'completed'),
		COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days' AND status = 'missed')
		FROM calls WHERE business_id = $1`

	var s domain.CallStats
	err := r.db.QueryRow(ctx, query, businessID).Scan(
		&s.TodayTotal, &s.TodayAnswered, &s.TodayMissed,
		&s.WeekTotal, &s.WeekAnswered, &s.WeekMissed,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating call stats", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate call stats: %w", err)
	}
	return &s, nil
}
