package domain

import "context"

// ConversationRepository reads SMS threads, scoped by business id.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string, businessID string) (*Conversation, error)
	List(ctx context.Context, businessID string, limit, offset int) (*ConversationPage, error)
	TouchLastMessageAt(ctx context.Context, id string, businessID string) error
}

// MessageRepository manages SMS rows, scoped by business id.
type MessageRepository interface {
	Create(ctx context.Context, message *Message) error
	List(ctx context.Context, businessID string, filter MessageFilter) (*MessagePage, error)
}
