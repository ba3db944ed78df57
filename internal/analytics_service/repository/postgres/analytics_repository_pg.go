package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/analytics_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgAnalyticsRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgAnalyticsRepository creates a new PostgreSQL implementation of
// domain.AnalyticsRepository.
func NewPgAnalyticsRepository(db database.PGXPool, logger *slog.Logger) domain.AnalyticsRepository {
	return &pgAnalyticsRepository{db: db, logger: logger}
}

func (r *pgAnalyticsRepository) Stats(ctx context.Context, businessID string, dr domain.DateRange) (*domain.Stats, error) {
	query := `SELECT
		COUNT(*) FILTER (WHERE created_at BETWEEN $2 AND $3),
		COUNT(*) FILTER (WHERE created_at BETWEEN $2 AND $3 AND status = 'completed'),
		COUNT(*) FILTER (WHERE created_at BETWEEN $2 AND $3 AND status = 'missed'),
		COALESCE(AVG(duration_seconds) FILTER (WHERE created_at BETWEEN $2 AND $3 AND status = 'completed'), 0),
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW()))
		FROM calls WHERE business_id = $1`

	var s domain.Stats
	err := r.db.QueryRow(ctx, query, businessID, dr.Start, dr.End).Scan(
		&s.TotalCalls, &s.AnsweredCalls, &s.MissedCalls, &s.AvgCallDuration, &s.CallsToday,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating call stats", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate call stats: %w", err)
	}

	smsQuery := `SELECT
		COUNT(*) FILTER (WHERE created_at BETWEEN $2 AND $3),
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', NOW()))
		FROM sms_messages WHERE business_id = $1`
	if err := r.db.QueryRow(ctx, smsQuery, businessID, dr.Start, dr.End).Scan(&s.TotalSMS, &s.SMSToday); err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating sms stats", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate sms stats: %w", err)
	}

	bookingsQuery := `SELECT COUNT(*) FROM bookings
		WHERE business_id = $1 AND created_at >= date_trunc('day', NOW())`
	if err := r.db.QueryRow(ctx, bookingsQuery, businessID).Scan(&s.BookingsToday); err != nil {
		r.logger.ErrorContext(ctx, "Error counting today's bookings", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	return &s, nil
}

func (r *pgAnalyticsRepository) CallVolume(ctx context.Context, businessID string, dr domain.DateRange) ([]domain.CallVolumePoint, error) {
	query := `SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM calls
		WHERE business_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY day ORDER BY day`

	rows, err := r.db.Query(ctx, query, businessID, dr.Start, dr.End)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating call volume", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate call volume: %w", err)
	}
	defer rows.Close()

	points := []domain.CallVolumePoint{}
	for rows.Next() {
		var p domain.CallVolumePoint
		if err := rows.Scan(&p.Date, &p.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan call volume row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading call volume rows: %w", err)
	}
	return points, nil
}

func (r *pgAnalyticsRepository) CallOutcomes(ctx context.Context, businessID string, dr domain.DateRange) (*domain.CallOutcomes, error) {
	query := `SELECT
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'missed'),
		COUNT(*) FILTER (WHERE outcome = 'voicemail')
		FROM calls WHERE business_id = $1 AND created_at BETWEEN $2 AND $3`

	var o domain.CallOutcomes
	err := r.db.QueryRow(ctx, query, businessID, dr.Start, dr.End).Scan(&o.Answered, &o.Missed, &o.Voicemail)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating call outcomes", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate call outcomes: %w", err)
	}
	return &o, nil
}

func (r *pgAnalyticsRepository) PeakHours(ctx context.Context, businessID string, dr domain.DateRange) ([]domain.PeakHourPoint, error) {
	query := `SELECT EXTRACT(HOUR FROM created_at)::int AS hour, COUNT(*)
		FROM calls
		WHERE business_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY hour ORDER BY hour`

	rows, err := r.db.Query(ctx, query, businessID, dr.Start, dr.End)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating peak hours", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate peak hours: %w", err)
	}
	defer rows.Close()

	points := []domain.PeakHourPoint{}
	for rows.Next() {
		var p domain.PeakHourPoint
		if err := rows.Scan(&p.Hour, &p.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan peak hour row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading peak hour rows: %w", err)
	}
	return points, nil
}

func (r *pgAnalyticsRepository) TopServices(ctx context.Context, businessID string, dr domain.DateRange, limit int) ([]domain.TopService, error) {
	query := `SELECT s.name, COUNT(b.id) AS bookings
		FROM bookings b JOIN services s ON s.id = b.service_id
		WHERE b.business_id = $1 AND b.created_at BETWEEN $2 AND $3
		GROUP BY s.name ORDER BY bookings DESC LIMIT $4`

	rows, err := r.db.Query(ctx, query, businessID, dr.Start, dr.End, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error aggregating top services", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to aggregate top services: %w", err)
	}
	defer rows.Close()

	top := []domain.TopService{}
	for rows.Next() {
		var t domain.TopService
		if err := rows.Scan(&t.Service, &t.Bookings); err != nil {
			return nil, fmt.Errorf("failed to scan top service row: %w", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading top service rows: %w", err)
	}
	return top, nil
}
