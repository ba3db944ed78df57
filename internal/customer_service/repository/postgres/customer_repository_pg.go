package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/customer_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgCustomerRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgCustomerRepository creates a new PostgreSQL implementation of
// domain.CustomerRepository.
func NewPgCustomerRepository(db database.PGXPool, logger *slog.Logger) domain.CustomerRepository {
	return &pgCustomerRepository{db: db, logger: logger}
}

const customerColumns = `id, business_id, first_name, last_name, ani_hash, email, segment,
	visit_count, total_spend_cents, no_show_count, last_interaction, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.BusinessID, &c.FirstName, &c.LastName, &c.ANIHash, &c.Email, &c.Segment,
		&c.VisitCount, &c.TotalSpendCents, &c.NoShowCount, &c.LastInteraction, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var sortColumns = map[string]string{
	domain.SortLastInteraction: "last_interaction",
	domain.SortName:            "last_name, first_name",
	domain.SortVisits:          "visit_count",
	domain.SortSpend:           "total_spend_cents",
}

// List runs the filtered page query plus a matching COUNT in one round trip
// each. Filter must already be normalized; sort column and order are mapped
// from the fixed whitelist, never interpolated from user input.
func (r *pgCustomerRepository) List(ctx context.Context, businessID string, filter domain.ListFilter) (*domain.CustomerPage, error) {
	where := `WHERE business_id = $1`
	args := []any{businessID}

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR ani_hash ILIKE $%d)`,
			len(args), len(args), len(args))
	}
	if filter.Segment != "" {
		args = append(args, filter.Segment)
		where += fmt.Sprintf(` AND segment = $%d`, len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM customers ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Error counting customers", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	orderCol, ok := sortColumns[filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sortBy %q", domain.ErrValidation, filter.SortBy)
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	args = append(args, filter.PageSize, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY %s %s NULLS LAST LIMIT $%d OFFSET $%d`,
		customerColumns, where, orderCol, direction, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing customers", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*domain.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading customer rows: %w", err)
	}
	return &domain.CustomerPage{Customers: customers, Total: total}, nil
}

func (r *pgCustomerRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND business_id = $2`
	customer, err := scanCustomer(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting customer", "error", err, "customer_id", id, "business_id", businessID)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// SegmentCounts aggregates in a single GROUP BY pass.
func (r *pgCustomerRepository) SegmentCounts(ctx context.Context, businessID string, search string) (*domain.SegmentCounts, error) {
	query := `SELECT segment, COUNT(*) FROM customers WHERE business_id = $1`
	args := []any{businessID}
	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		query += ` AND (first_name ILIKE $2 OR last_name ILIKE $2 OR ani_hash ILIKE $2)`
	}
	query += ` GROUP BY segment`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error counting customer segments", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count segments: %w", err)
	}
	defer rows.Close()

	counts := &domain.SegmentCounts{}
	for rows.Next() {
		var segment string
		var n int64
		if err := rows.Scan(&segment, &n); err != nil {
			return nil, fmt.Errorf("failed to scan segment count row: %w", err)
		}
		counts.All += n
		switch segment {
		case domain.SegmentVIP:
			counts.VIP = n
		case domain.SegmentRegular:
			counts.Regular = n
		case domain.SegmentAtRisk:
			counts.AtRisk = n
		case domain.SegmentNew:
			counts.New = n
		case domain.SegmentDormant:
			counts.Dormant = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading segment count rows: %w", err)
	}
	return counts, nil
}
