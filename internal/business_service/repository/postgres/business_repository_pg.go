package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/replytics/dashboard-api/internal/business_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgBusinessProfileRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgBusinessProfileRepository creates a new PostgreSQL implementation of
// domain.BusinessProfileRepository.
func NewPgBusinessProfileRepository(db database.PGXPool, logger *slog.Logger) domain.BusinessProfileRepository {
	return &pgBusinessProfileRepository{db: db, logger: logger}
}

const businessProfileColumns = `id, user_id, business_name, industry, phone_number, email, website,
	address, city, state, zip_code, country, timezone, description,
	onboarding_step, conversation_rules, created_at, updated_at`

func scanBusinessProfile(row pgx.Row) (*domain.BusinessProfile, error) {
	var p domain.BusinessProfile
	var rulesJSON []byte
	err := row.Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.Industry, &p.PhoneNumber, &p.Email, &p.Website,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.Country, &p.Timezone, &p.Description,
		&p.OnboardingStep, &rulesJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Rules = domain.DefaultConversationRules()
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &p.Rules); err != nil {
			return nil, fmt.Errorf("failed to decode conversation rules: %w", err)
		}
	}
	return &p, nil
}

func (r *pgBusinessProfileRepository) Create(ctx context.Context, profile *domain.BusinessProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	rulesJSON, err := json.Marshal(profile.Rules)
	if err != nil {
		return fmt.Errorf("failed to encode conversation rules: %w", err)
	}

	query := `INSERT INTO business_profiles
		(id, user_id, business_name, industry, phone_number, email, website,
		 address, city, state, zip_code, country, timezone, description,
		 onboarding_step, conversation_rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		profile.ID, profile.UserID, profile.BusinessName, profile.Industry, profile.PhoneNumber,
		profile.Email, profile.Website, profile.Address, profile.City, profile.State,
		profile.ZipCode, profile.Country, profile.Timezone, profile.Description,
		profile.OnboardingStep, rulesJSON,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateEntry
		}
		r.logger.ErrorContext(ctx, "Error creating business profile", "error", err, "user_id", profile.UserID)
		return fmt.Errorf("failed to create business profile: %w", err)
	}
	return nil
}

func (r *pgBusinessProfileRepository) GetByID(ctx context.Context, id string) (*domain.BusinessProfile, error) {
	query := `SELECT ` + businessProfileColumns + ` FROM business_profiles WHERE id = $1`
	profile, err := scanBusinessProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting business profile by ID", "error", err, "business_id", id)
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	return profile, nil
}

func (r *pgBusinessProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.BusinessProfile, error) {
	query := `SELECT ` + businessProfileColumns + ` FROM business_profiles WHERE user_id = $1`
	profile, err := scanBusinessProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting business profile by user ID", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	return profile, nil
}

func (r *pgBusinessProfileRepository) UpdateProfile(ctx context.Context, businessID string, patch domain.ProfilePatch) (*domain.BusinessProfile, error) {
	query := `UPDATE business_profiles SET
		business_name = COALESCE($2, business_name),
		industry      = COALESCE($3, industry),
		phone_number  = COALESCE($4, phone_number),
		email         = COALESCE($5, email),
		website       = COALESCE($6, website),
		address       = COALESCE($7, address),
		city          = COALESCE($8, city),
		state         = COALESCE($9, state),
		zip_code      = COALESCE($10, zip_code),
		country       = COALESCE($11, country),
		timezone      = COALESCE($12, timezone),
		description   = COALESCE($13, description),
		updated_at    = NOW()
		WHERE id = $1
		RETURNING ` + businessProfileColumns

	profile, err := scanBusinessProfile(r.db.QueryRow(ctx, query, businessID,
		patch.BusinessName, patch.Industry, patch.PhoneNumber, patch.Email, patch.Website,
		patch.Address, patch.City, patch.State, patch.ZipCode, patch.Country,
		patch.Timezone, patch.Description,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error updating business profile", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to update business profile: %w", err)
	}
	return profile, nil
}

func (r *pgBusinessProfileRepository) UpdateConversationRules(ctx context.Context, businessID string, rules domain.ConversationRules) error {
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to encode conversation rules: %w", err)
	}

	query := `UPDATE business_profiles SET conversation_rules = $2, updated_at = NOW() WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, businessID, rulesJSON)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating conversation rules", "error", err, "business_id", businessID)
		return fmt.Errorf("failed to update conversation rules: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
