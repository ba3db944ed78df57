package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/platform/database"
	"github.com/replytics/dashboard-api/internal/sms_service/domain"
)

type pgMessageRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgMessageRepository creates a new PostgreSQL implementation of
// domain.MessageRepository.
func NewPgMessageRepository(db database.PGXPool, logger *slog.Logger) domain.MessageRepository {
	return &pgMessageRepository{db: db, logger: logger}
}

const messageColumns = `id, business_id, conversation_id, phone_number, message, direction, status, created_at`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.BusinessID, &m.ConversationID, &m.PhoneNumber, &m.Body, &m.Direction, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	query := `INSERT INTO sms_messages
		(id, business_id, conversation_id, phone_number, message, direction, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		message.ID, message.BusinessID, message.ConversationID, message.PhoneNumber,
		message.Body, message.Direction, message.Status,
	).Scan(&message.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating message", "error", err, "conversation_id", message.ConversationID)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *pgMessageRepository) List(ctx context.Context, businessID string, filter domain.MessageFilter) (*domain.MessagePage, error) {
	where := `WHERE business_id = $1`
	args := []any{businessID}

	if filter.ConversationID != "" {
		args = append(args, filter.ConversationID)
		where += fmt.Sprintf(` AND conversation_id = $%d`, len(args))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sms_messages `+where, args...).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Error counting messages", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM sms_messages %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		messageColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing messages", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading message rows: %w", err)
	}
	return &domain.MessagePage{Messages: messages, Total: total}, nil
}
