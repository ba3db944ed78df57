package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/audit_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgAuditEntryRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgAuditEntryRepository creates a new PostgreSQL implementation of
// domain.EntryRepository.
func NewPgAuditEntryRepository(db database.PGXPool, logger *slog.Logger) domain.EntryRepository {
	return &pgAuditEntryRepository{db: db, logger: logger}
}

func (r *pgAuditEntryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	var metadataJSON []byte
	if len(entry.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
	}

	query := `INSERT INTO audit_entries
		(id, business_id, actor_id, action, entity_type, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.BusinessID, entry.ActorID, entry.Action,
		entry.EntityType, entry.EntityID, metadataJSON,
	).Scan(&entry.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating audit entry", "error", err, "business_id", entry.BusinessID)
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

func (r *pgAuditEntryRepository) ListByBusinessID(ctx context.Context, businessID string, limit int) ([]*domain.Entry, error) {
	query := `SELECT id, business_id, actor_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_entries
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, businessID, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing audit entries", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		var entry domain.Entry
		var metadataJSON []byte
		if err := rows.Scan(
			&entry.ID, &entry.BusinessID, &entry.ActorID, &entry.Action,
			&entry.EntityType, &entry.EntityID, &metadataJSON, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
