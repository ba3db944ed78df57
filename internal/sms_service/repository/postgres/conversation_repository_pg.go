package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/platform/database"
	"github.com/replytics/dashboard-api/internal/sms_service/domain"
)

type pgConversationRepository struct {
	db     database.PGXPool
	logger *slog.Logger
}

// NewPgConversationRepository creates a new PostgreSQL implementation of
// domain.ConversationRepository.
func NewPgConversationRepository(db database.PGXPool, logger *slog.Logger) domain.ConversationRepository {
	return &pgConversationRepository{db: db, logger: logger}
}

const conversationColumns = `id, business_id, customer_phone, last_message_at, created_at`

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.ID, &c.BusinessID, &c.CustomerPhone, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgConversationRepository) GetByID(ctx context.Context, id string, businessID string) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM sms_conversations WHERE id = $1 AND business_id = $2`
	conversation, err := scanConversation(r.db.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		r.logger.ErrorContext(ctx, "Error getting conversation", "error", err, "conversation_id", id, "business_id", businessID)
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conversation, nil
}

func (r *pgConversationRepository) List(ctx context.Context, businessID string, limit, offset int) (*domain.ConversationPage, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sms_conversations WHERE business_id = $1`, businessID,
	).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Error counting conversations", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	query := `SELECT ` + conversationColumns + ` FROM sms_conversations
		WHERE business_id = $1 ORDER BY last_message_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, businessID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing conversations", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []*domain.Conversation{}
	for rows.Next() {
		conversation, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading conversation rows: %w", err)
	}
	return &domain.ConversationPage{Conversations: conversations, Total: total}, nil
}

func (r *pgConversationRepository) TouchLastMessageAt(ctx context.Context, id string, businessID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sms_conversations SET last_message_at = NOW() WHERE id = $1 AND business_id = $2`,
		id, businessID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}
