package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auditdomain "github.com/replytics/dashboard-api/internal/audit_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

// AuditReader lists the change history for a business.
type AuditReader interface {
	List(ctx context.Context, businessID string, limit int) ([]*auditdomain.Entry, error)
}

// AuditHandler serves the configuration change history.
type AuditHandler struct {
	audit  AuditReader
	logger *slog.Logger
}

func NewAuditHandler(audit AuditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger.With("handler", "audit"),
	}
}

// RegisterRoutes mounts the audit trail endpoint.
func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/audit-log", h.handleList)
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	entries, err := h.audit.List(ctx, authUser.BusinessID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list audit entries", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
