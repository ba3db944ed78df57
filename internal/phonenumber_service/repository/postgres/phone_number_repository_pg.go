package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/phonenumber_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

const phoneNumberColumns = `id, business_id, phone_number, telco_metadata, display_name,
	description, address, timezone, status, is_primary, assigned_staff_ids,
	sms_enabled, sms_reminder_hours, created_at, updated_at, activated_at`

type pgPhoneNumberRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgPhoneNumberRepository creates a new PostgreSQL implementation of
// domain.PhoneNumberRepository.
func NewPgPhoneNumberRepository(db database.PGXPool, logger *slog.Logger) domain.PhoneNumberRepository {
	return &pgPhoneNumberRepository{db: db, logger: logger}
}

func scanPhoneNumber(row pgx.Row) (*domain.PhoneNumber, error) {
	var phone domain.PhoneNumber
	var telcoJSON, addressJSON []byte
	err := row.Scan(
		&phone.ID, &phone.BusinessID, &phone.PhoneNumber, &telcoJSON, &phone.DisplayName,
		&phone.Description, &addressJSON, &phone.Timezone, &phone.Status, &phone.IsPrimary,
		&phone.AssignedStaffIDs, &phone.SMSEnabled, &phone.SMSReminderHours,
		&phone.CreatedAt, &phone.UpdatedAt, &phone.ActivatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(telcoJSON) > 0 {
		if err := json.Unmarshal(telcoJSON, &phone.Telco); err != nil {
			return nil, fmt.Errorf("failed to decode telco metadata: %w", err)
		}
	}
	if len(addressJSON) > 0 {
		phone.Address = &domain.Address{}
		if err := json.Unmarshal(addressJSON, phone.Address); err != nil {
			return nil, fmt.Errorf("failed to decode address: %w", err)
		}
	}
	if phone.AssignedStaffIDs == nil {
		phone.AssignedStaffIDs = []string{}
	}
	return &phone, nil
}

func (r *pgPhoneNumberRepository) Create(ctx context.Context, phone *domain.PhoneNumber) error {
	telcoJSON, err := json.Marshal(phone.Telco)
	if err != nil {
		return fmt.Errorf("failed to encode telco metadata: %w", err)
	}
	var addressJSON []byte
	if phone.Address != nil {
		addressJSON, err = json.Marshal(phone.Address)
		if err != nil {
			return fmt.Errorf("failed to encode address: %w", err)
		}
	}

	query := `INSERT INTO phone_numbers
		(id, business_id, phone_number, telco_metadata, display_name, description,
		 address, timezone, status, is_primary, assigned_staff_ids, sms_enabled,
		 sms_reminder_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		phone.ID, phone.BusinessID, phone.PhoneNumber, telcoJSON, phone.DisplayName,
		phone.Description, addressJSON, phone.Timezone, phone.Status, phone.IsPrimary,
		phone.AssignedStaffIDs, phone.SMSEnabled, phone.SMSReminderHours,
	).Scan(&phone.CreatedAt, &phone.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating phone number", "error", err, "business_id", phone.BusinessID)
		return fmt.Errorf("failed to create phone number: %w", err)
	}
	return nil
}

func (r *pgPhoneNumberRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.PhoneNumber, error) {
	query := fmt.Sprintf(`SELECT %s FROM phone_numbers WHERE id = $1 AND business_id = $2`, phoneNumberColumns)

	phone, err := scanPhoneNumber(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPhoneNumberNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting phone number", "error", err, "phone_number_id", id)
		return nil, fmt.Errorf("failed to get phone number: %w", err)
	}
	return phone, nil
}

func (r *pgPhoneNumberRepository) ListByBusinessID(ctx context.Context, businessID string) ([]*domain.PhoneNumber, error) {
	query := fmt.Sprintf(`SELECT %s FROM phone_numbers
		WHERE business_id = $1
		ORDER BY is_primary DESC, created_at ASC`, phoneNumberColumns)

	rows, err := r.db.Query(ctx, query, businessID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing phone numbers", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list phone numbers: %w", err)
	}
	defer rows.Close()

	phones := make([]*domain.PhoneNumber, 0)
	for rows.Next() {
		phone, err := scanPhoneNumber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phone number row: %w", err)
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}

func (r *pgPhoneNumberRepository) Update(ctx context.Context, phone *domain.PhoneNumber) error {
	var addressJSON []byte
	var err error
	if phone.Address != nil {
		addressJSON, err = json.Marshal(phone.Address)
		if err != nil {
			return fmt.Errorf("failed to encode address: %w", err)
		}
	}

	query := `UPDATE phone_numbers SET
			display_name = $3, description = $4, address = $5, timezone = $6,
			status = $7, is_primary = $8, sms_enabled = $9, sms_reminder_hours = $10,
			activated_at = $11, updated_at = NOW()
		WHERE id = $1 AND business_id = $2`

	cmdTag, err := r.db.Exec(ctx, query,
		phone.ID, phone.BusinessID, phone.DisplayName, phone.Description, addressJSON,
		phone.Timezone, phone.Status, phone.IsPrimary, phone.SMSEnabled,
		phone.SMSReminderHours, phone.ActivatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating phone number", "error", err, "phone_number_id", phone.ID)
		return fmt.Errorf("failed to update phone number: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPhoneNumberNotFound
	}
	return nil
}

func (r *pgPhoneNumberRepository) CountByStatus(ctx context.Context, businessID string, status string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM phone_numbers WHERE business_id = $1 AND status = $2`,
		businessID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count phone numbers: %w", err)
	}
	return count, nil
}

// SetPrimary demotes the current primary and promotes the given number in one
// transaction, keeping exactly one primary per business.
func (r *pgPhoneNumberRepository) SetPrimary(ctx context.Context, id string, businessID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE phone_numbers SET is_primary = FALSE, updated_at = NOW()
		 WHERE business_id = $1 AND is_primary = TRUE`,
		businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to demote current primary: %w", err)
	}

	cmdTag, err := tx.Exec(ctx,
		`UPDATE phone_numbers SET is_primary = TRUE, updated_at = NOW()
		 WHERE id = $1 AND business_id = $2`,
		id, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to promote primary: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPhoneNumberNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Error committing primary change", "error", err, "phone_number_id", id)
		return fmt.Errorf("failed to commit primary change: %w", err)
	}
	return nil
}

func (r *pgPhoneNumberRepository) UpdateAssignedStaff(ctx context.Context, id string, businessID string, staffIDs []string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE phone_numbers SET assigned_staff_ids = $3, updated_at = NOW()
		 WHERE id = $1 AND business_id = $2`,
		id, businessID, staffIDs,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating assigned staff", "error", err, "phone_number_id", id)
		return fmt.Errorf("failed to update assigned staff: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPhoneNumberNotFound
	}
	return nil
}
