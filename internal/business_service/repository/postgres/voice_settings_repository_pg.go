package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/business_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgVoiceSettingsRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgVoiceSettingsRepository creates a new PostgreSQL implementation of
// domain.VoiceSettingsRepository.
func NewPgVoiceSettingsRepository(db database.PGXPool, logger *slog.Logger) domain.VoiceSettingsRepository {
	return &pgVoiceSettingsRepository{db: db, logger: logger}
}

func (r *pgVoiceSettingsRepository) GetByBusinessID(ctx context.Context, businessID string) (*domain.VoiceSettings, error) {
	query := `SELECT business_id, voice_id, voice_speed, voice_pitch, greeting_message,
		voice_gender, language, transfer_number, enable_transfer, max_call_duration,
		record_calls, transcribe_calls, created_at, updated_at
		FROM voice_settings WHERE business_id = $1`

	var s domain.VoiceSettings
	err := r.db.QueryRow(ctx, query, businessID).Scan(
		&s.BusinessID, &s.VoiceID, &s.VoiceSpeed, &s.VoicePitch, &s.GreetingMessage,
		&s.VoiceGender, &s.Language, &s.TransferNumber, &s.EnableTransfer, &s.MaxCallDuration,
		&s.RecordCalls, &s.TranscribeCalls, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting voice settings", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to get voice settings: %w", err)
	}
	return &s, nil
}

func (r *pgVoiceSettingsRepository) Upsert(ctx context.Context, settings *domain.VoiceSettings) error {
	query := `INSERT INTO voice_settings
		(business_id, voice_id, voice_speed, voice_pitch, greeting_message,
		 voice_gender, language, transfer_number, enable_transfer, max_call_duration,
		 record_calls, transcribe_calls, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (business_id) DO UPDATE SET
			voice_id = EXCLUDED.voice_id,
			voice_speed = EXCLUDED.voice_speed,
			voice_pitch = EXCLUDED.voice_pitch,
			greeting_message = EXCLUDED.greeting_message,
			voice_gender = EXCLUDED.voice_gender,
			language = EXCLUDED.language,
			transfer_number = EXCLUDED.transfer_number,
			enable_transfer = EXCLUDED.enable_transfer,
			max_call_duration = EXCLUDED.max_call_duration,
			record_calls = EXCLUDED.record_calls,
			transcribe_calls = EXCLUDED.transcribe_calls,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		settings.BusinessID, settings.VoiceID, settings.VoiceSpeed, settings.VoicePitch,
		settings.GreetingMessage, settings.VoiceGender, settings.Language, settings.TransferNumber,
		settings.EnableTransfer, settings.MaxCallDuration, settings.RecordCalls, settings.TranscribeCalls,
	).Scan(&settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting voice settings", "error", err, "business_id", settings.BusinessID)
		return fmt.Errorf("failed to upsert voice settings: %w", err)
	}
	return nil
}
