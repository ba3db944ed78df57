package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/replytics/dashboard-api/internal/audit_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
)

// SubjectAuditRecorded is published after every audit row is written.
const SubjectAuditRecorded = "audit.recorded"

// Recorder appends audit rows for mutating operations. Recording is
// best-effort: the calling operation has already succeeded, so failures are
// logged rather than surfaced to the caller.
type Recorder struct {
	entryRepo  domain.EntryRepository
	natsClient messagebroker.NATSClient
	logger     *slog.Logger
}

func NewRecorder(entryRepo domain.EntryRepository, natsClient messagebroker.NATSClient, logger *slog.Logger) *Recorder {
	return &Recorder{
		entryRepo:  entryRepo,
		natsClient: natsClient,
		logger:     logger,
	}
}

// Record writes one audit row and publishes audit.recorded.
func (r *Recorder) Record(ctx context.Context, businessID, actorID, action, entityType, entityID string, metadata map[string]string) {
	entry := &domain.Entry{
		ID:         uuid.NewString(),
		BusinessID: businessID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	}

	if err := r.entryRepo.Create(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write audit entry", "error", err, "business_id", businessID, "action", action, "entity_type", entityType)
		return
	}

	r.publishRecorded(ctx, entry)
}

// List returns the most recent audit rows for a business.
func (r *Recorder) List(ctx context.Context, businessID string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return r.entryRepo.ListByBusinessID(ctx, businessID, limit)
}

func (r *Recorder) publishRecorded(ctx context.Context, entry *domain.Entry) {
	if r.natsClient == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.natsClient.Publish(ctx, SubjectAuditRecorded, payload); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish audit event", "error", err, "business_id", entry.BusinessID)
	}
}
