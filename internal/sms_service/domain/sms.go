package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConversationNotFound indicates the conversation does not exist for
	// this business.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound indicates the message does not exist for this business.
	ErrMessageNotFound = errors.New("message not found")
	// ErrValidation indicates an invalid filter or message value.
	ErrValidation = errors.New("validation failed")
)

// Message directions and statuses.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// MaxMessageLength caps a single outbound SMS body.
const MaxMessageLength = 1600

// Conversation is one SMS thread between a business and a customer number.
type Conversation struct {
	ID            string    `json:"id"`
	BusinessID    string    `json:"business_id"`
	CustomerPhone string    `json:"customer_phone"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message is one SMS within a conversation.
type Message struct {
	ID             string    `json:"id"`
	BusinessID     string    `json:"business_id"`
	ConversationID string    `json:"conversation_id"`
	PhoneNumber    string    `json:"phone_number"`
	Body           string    `json:"message"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageFilter selects a page of messages.
type MessageFilter struct {
	ConversationID string
	Start          *time.Time
	End            *time.Time
	Limit          int
	Offset         int
}

// Normalize applies defaults and validates bounds.
func (f *MessageFilter) Normalize() error {
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 100 {
		return fmt.Errorf("%w: limit must be between 1 and 100", ErrValidation)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrValidation)
	}
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return fmt.Errorf("%w: start date must not be after end date", ErrValidation)
	}
	return nil
}

// MessagePage is one page of messages plus the unpaginated total.
type MessagePage struct {
	Messages []*Message `json:"messages"`
	Total    int64      `json:"total"`
}

// ConversationPage is one page of conversations plus the unpaginated total.
type ConversationPage struct {
	Conversations []*Conversation `json:"conversations"`
	Total         int64           `json:"total"`
}
