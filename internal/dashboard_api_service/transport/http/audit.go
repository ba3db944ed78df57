package http

import "context"

// AuditRecorder appends audit rows for mutating dashboard operations.
// Recording is best-effort and never fails the request.
type AuditRecorder interface {
	Record(ctx context.Context, businessID, actorID, action, entityType, entityID string, metadata map[string]string)
}

// noopAuditRecorder is used when auditing is not wired (tests).
type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, string, string, string, string, string, map[string]string) {
}
