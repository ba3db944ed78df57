package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
	"github.com/replytics/dashboard-api/internal/sms_service/domain"
)

// Application serves SMS threads and queues outbound messages.
type Application struct {
	conversationRepo domain.ConversationRepository
	messageRepo      domain.MessageRepository
	natsClient       messagebroker.NATSClient
	logger           *slog.Logger
}

func NewApplication(
	conversationRepo domain.ConversationRepository,
	messageRepo domain.MessageRepository,
	natsClient messagebroker.NATSClient,
	logger *slog.Logger,
) *Application {
	return &Application{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		natsClient:       natsClient,
		logger:           logger,
	}
}

// ListMessages returns one page of messages. When the filter names a
// conversation, ownership is checked first.
func (a *Application) ListMessages(ctx context.Context, businessID string, filter domain.MessageFilter) (*domain.MessagePage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	if filter.ConversationID != "" {
		if _, err := a.conversationRepo.GetByID(ctx, filter.ConversationID, businessID); err != nil {
			return nil, err
		}
	}
	page, err := a.messageRepo.List(ctx, businessID, filter)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list messages", "error", err, "business_id", businessID)
		return nil, err
	}
	return page, nil
}

// ListConversations returns threads ordered by most recent message.
func (a *Application) ListConversations(ctx context.Context, businessID string, limit, offset int) (*domain.ConversationPage, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 50 {
		return nil, fmt.Errorf("%w: limit must be between 1 and 50", domain.ErrValidation)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrValidation)
	}
	page, err := a.conversationRepo.List(ctx, businessID, limit, offset)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to list conversations", "error", err, "business_id", businessID)
		return nil, err
	}
	return page, nil
}

// SendMessage inserts a pending outbound message into a conversation the
// business owns and hands it to the delivery worker. A conversation owned
// by another business reads as not found.
func (a *Application) SendMessage(ctx context.Context, businessID string, conversationID string, body string) (*domain.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}
	if len(body) > domain.MaxMessageLength {
		return nil, fmt.Errorf("%w: message must be at most %d characters", domain.ErrValidation, domain.MaxMessageLength)
	}

	conversation, err := a.conversationRepo.GetByID(ctx, conversationID, businessID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		BusinessID:     businessID,
		ConversationID: conversation.ID,
		PhoneNumber:    conversation.CustomerPhone,
		Body:           body,
		Direction:      domain.DirectionOutbound,
		Status:         domain.StatusPending,
	}
	if err := a.messageRepo.Create(ctx, message); err != nil {
		a.logger.ErrorContext(ctx, "Failed to create message", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	if err := a.conversationRepo.TouchLastMessageAt(ctx, conversation.ID, businessID); err != nil {
		a.logger.WarnContext(ctx, "Failed to bump conversation last_message_at", "error", err, "conversation_id", conversationID)
	}

	a.publishSendRequested(ctx, message)
	return message, nil
}

func (a *Application) publishSendRequested(ctx context.Context, message *domain.Message) {
	if a.natsClient == nil {
		return
	}
	payload, err := json.Marshal(domain.SendRequestedEvent{
		MessageID:      message.ID,
		BusinessID:     message.BusinessID,
		ConversationID: message.ConversationID,
		PhoneNumber:    message.PhoneNumber,
		Body:           message.Body,
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal send requested event", "error", err, "message_id", message.ID)
		return
	}
	if err := a.natsClient.Publish(ctx, domain.SubjectSMSSend, payload); err != nil {
		// The row stays pending; the delivery worker sweeps pending messages.
		a.logger.ErrorContext(ctx, "Failed to publish send requested event", "error", err, "message_id", message.ID)
	}
}
