package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analyticsapp "github.com/replytics/dashboard-api/internal/analytics_service/app"
	analyticsdomain "github.com/replytics/dashboard-api/internal/analytics_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

// AnalyticsHandler serves the dashboard analytics endpoints.
type AnalyticsHandler struct {
	analytics *analyticsapp.Application
	logger    *slog.Logger
}

func NewAnalyticsHandler(analytics *analyticsapp.Application, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger.With("handler", "analytics"),
	}
}

// RegisterRoutes mounts the analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/overview", h.handleOverview)
}

// parseDateParam accepts either a date (2024-01-31) or an RFC 3339 timestamp.
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *AnalyticsHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	start, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid start_date parameter")
		return
	}
	end, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid end_date parameter")
		return
	}

	dateRange, err := analyticsdomain.NewDateRange(start, end)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	overview, err := h.analytics.Overview(ctx, authUser.BusinessID, dateRange)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build analytics overview", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}
