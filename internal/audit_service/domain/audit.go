package domain

import (
	"context"
	"time"
)

// Actions recorded in the audit trail.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Entry is one audit row: who did what to which entity.
type Entry struct {
	ID         string            `json:"id"`
	BusinessID string            `json:"business_id"`
	ActorID    string            `json:"actor_id"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// EntryRepository persists audit rows.
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByBusinessID(ctx context.Context, businessID string, limit int) ([]*Entry, error)
}
