package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/replytics/dashboard-api/internal/catalog_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgServiceRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgServiceRepository creates a new PostgreSQL implementation of
// domain.ServiceRepository.
func NewPgServiceRepository(db database.PGXPool, logger *slog.Logger) domain.ServiceRepository {
	return &pgServiceRepository{db: db, logger: logger}
}

const serviceColumns = `id, business_id, name, description, duration_minutes, price_cents,
	category, is_active, display_order, created_at, updated_at, deleted_at`

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	err := row.Scan(
		&s.ID, &s.BusinessID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceCents,
		&s.Category, &s.IsActive, &s.DisplayOrder, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	query := `INSERT INTO services
		(id, business_id, name, description, duration_minutes, price_cents,
		 category, is_active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		service.ID, service.BusinessID, service.Name, service.Description,
		service.DurationMinutes, service.PriceCents, service.Category,
		service.IsActive, service.DisplayOrder,
	).Scan(&service.CreatedAt, &service.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateService
		}
		r.logger.ErrorContext(ctx, "Error creating service", "error", err, "business_id", service.BusinessID)
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *pgServiceRepository) CreateBatch(ctx context.Context, services []*domain.Service) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO services
		(id, business_id, name, description, duration_minutes, price_cents,
		 category, is_active, display_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	for _, service := range services {
		if service.ID == "" {
			service.ID = uuid.NewString()
		}
		if _, err := tx.Exec(ctx, query,
			service.ID, service.BusinessID, service.Name, service.Description,
			service.DurationMinutes, service.PriceCents, service.Category,
			service.IsActive, service.DisplayOrder,
		); err != nil {
			r.logger.ErrorContext(ctx, "Error batch-creating services", "error", err, "business_id", service.BusinessID)
			return fmt.Errorf("failed to create services: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit services: %w", err)
	}
	return nil
}

func (r *pgServiceRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`

	service, err := scanService(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting service", "error", err, "service_id", id, "business_id", businessID)
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return service, nil
}

func (r *pgServiceRepository) ListByBusinessID(ctx context.Context, businessID string, includeInactive bool) ([]*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services
		WHERE business_id = $1 AND deleted_at IS NULL`
	if !includeInactive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY display_order, created_at`

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing services", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*domain.Service{}
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service row: %w", err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading service rows: %w", err)
	}
	return services, nil
}

func (r *pgServiceRepository) CountByBusinessID(ctx context.Context, businessID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM services WHERE business_id = $1 AND deleted_at IS NULL`,
		businessID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

func (r *pgServiceRepository) Update(ctx context.Context, service *domain.Service) error {
	query := `UPDATE services SET
		name = $3, description = $4, duration_minutes = $5, price_cents = $6,
		category = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		service.ID, service.BusinessID, service.Name, service.Description,
		service.DurationMinutes, service.PriceCents, service.Category, service.IsActive,
	).Scan(&service.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrServiceNotFound
		}
		r.logger.ErrorContext(ctx, "Error updating service", "error", err, "service_id", service.ID)
		return fmt.Errorf("failed to update service: %w", err)
	}
	return nil
}

func (r *pgServiceRepository) SoftDelete(ctx context.Context, id string, businessID string) error {
	query := `UPDATE services SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`

	cmdTag, err := r.db.Exec(ctx, query, id, businessID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error soft-deleting service", "error", err, "service_id", id)
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}

// Reorder rewrites display_order for the given ids in one transaction. The
// ordered list must match the business's live catalog exactly, otherwise
// nothing is changed.
func (r *pgServiceRepository) Reorder(ctx context.Context, businessID string, orderedIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM services
		 WHERE business_id = $1 AND deleted_at IS NULL AND id = ANY($2)`,
		businessID, orderedIDs,
	).Scan(&owned)
	if err != nil {
		return fmt.Errorf("failed to verify service ownership: %w", err)
	}
	if owned != len(orderedIDs) {
		return domain.ErrServiceNotFound
	}

	for index, id := range orderedIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE services SET display_order = $3, updated_at = NOW()
			 WHERE id = $1 AND business_id = $2`,
			id, businessID, index,
		); err != nil {
			r.logger.ErrorContext(ctx, "Error reordering services", "error", err, "business_id", businessID)
			return fmt.Errorf("failed to reorder services: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}
