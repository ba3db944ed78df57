package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/replytics/dashboard-api/internal/business_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgHoursRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgHoursRepository creates a new PostgreSQL implementation of
// domain.HoursRepository.
func NewPgHoursRepository(db database.PGXPool, logger *slog.Logger) domain.HoursRepository {
	return &pgHoursRepository{db: db, logger: logger}
}

func (r *pgHoursRepository) GetWeek(ctx context.Context, businessID string) ([]domain.DayHours, error) {
	query := `SELECT day_of_week, is_closed, open_time, close_time
		FROM operating_hours WHERE business_id = $1
		ORDER BY day_of_week, open_time`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying operating hours", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to get operating hours: %w", err)
	}
	defer rows.Close()

	byDay := map[int]*domain.DayHours{}
	var order []int
	for rows.Next() {
		var day int
		var closed bool
		var openTime, closeTime *string
		if err := rows.Scan(&day, &closed, &openTime, &closeTime); err != nil {
			return nil, fmt.Errorf("failed to scan operating hours row: %w", err)
		}
		dh, ok := byDay[day]
		if !ok {
			dh = &domain.DayHours{DayOfWeek: day, IsClosed: closed, TimeSlots: []domain.TimeSlot{}}
			byDay[day] = dh
			order = append(order, day)
		}
		if openTime != nil && closeTime != nil {
			dh.TimeSlots = append(dh.TimeSlots, domain.TimeSlot{OpenTime: *openTime, CloseTime: *closeTime})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading operating hours rows: %w", err)
	}

	week := make([]domain.DayHours, 0, len(order))
	for _, day := range order {
		week = append(week, *byDay[day])
	}
	return week, nil
}

// ReplaceWeek swaps the stored schedule for a full validated week inside one
// transaction.
func (r *pgHoursRepository) ReplaceWeek(ctx context.Context, businessID string, week []domain.DayHours) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM operating_hours WHERE business_id = $1`, businessID); err != nil {
		r.logger.ErrorContext(ctx, "Error clearing operating hours", "error", err, "business_id", businessID)
		return fmt.Errorf("failed to clear operating hours: %w", err)
	}

	insert := `INSERT INTO operating_hours
		(business_id, day_of_week, is_closed, open_time, close_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	for _, dh := range week {
		if dh.IsClosed || len(dh.TimeSlots) == 0 {
			if _, err := tx.Exec(ctx, insert, businessID, dh.DayOfWeek, dh.IsClosed, nil, nil); err != nil {
				return fmt.Errorf("failed to insert operating hours: %w", err)
			}
			continue
		}
		for _, slot := range dh.TimeSlots {
			if _, err := tx.Exec(ctx, insert, businessID, dh.DayOfWeek, false, slot.OpenTime, slot.CloseTime); err != nil {
				return fmt.Errorf("failed to insert operating hours: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit operating hours: %w", err)
	}
	return nil
}

func (r *pgHoursRepository) ListHolidays(ctx context.Context, businessID string) ([]domain.Holiday, error) {
	query := `SELECT business_id, holiday_date, name, created_at
		FROM business_holidays WHERE business_id = $1 ORDER BY holiday_date`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying holidays", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	holidays := []domain.Holiday{}
	for rows.Next() {
		var h domain.Holiday
		if err := rows.Scan(&h.BusinessID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday row: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading holiday rows: %w", err)
	}
	return holidays, nil
}

func (r *pgHoursRepository) AddHoliday(ctx context.Context, holiday *domain.Holiday) error {
	query := `INSERT INTO business_holidays (business_id, holiday_date, name, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING created_at`

	err := r.db.QueryRow(ctx, query, holiday.BusinessID, holiday.Date, holiday.Name).Scan(&holiday.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error adding holiday", "error", err, "business_id", holiday.BusinessID)
		return fmt.Errorf("failed to add holiday: %w", err)
	}
	return nil
}

func (r *pgHoursRepository) RemoveHoliday(ctx context.Context, businessID string, date string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM business_holidays WHERE business_id = $1 AND holiday_date = $2`, businessID, date)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error removing holiday", "error", err, "business_id", businessID)
		return fmt.Errorf("failed to remove holiday: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
