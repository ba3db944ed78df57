package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	calllogapp "github.com/replytics/dashboard-api/internal/calllog_service/app"
	calllogdomain "github.com/replytics/dashboard-api/internal/calllog_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

// CallLogHandler serves the call history endpoints.
type CallLogHandler struct {
	calls  *calllogapp.Application
	logger *slog.Logger
}

func NewCallLogHandler(calls *calllogapp.Application, logger *slog.Logger) *CallLogHandler {
	return &CallLogHandler{
		calls:  calls,
		logger: logger.With("handler", "calllog"),
	}
}

// RegisterRoutes mounts the call history endpoints.
func (h *CallLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/calls", h.handleListCalls)
	r.Get("/calls/stats", h.handleStats)
	r.Get("/calls/{callID}/recording", h.handleRecordingURL)
}

func (h *CallLogHandler) handleListCalls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	q := r.URL.Query()
	filter := calllogdomain.ListFilter{Status: q.Get("status")}

	start, err := parseDateParam(q.Get("start_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid start_date parameter")
		return
	}
	filter.Start = start
	end, err := parseDateParam(q.Get("end_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid end_date parameter")
		return
	}
	filter.End = end

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		filter.Offset = offset
	}

	page, err := h.calls.ListCalls(ctx, authUser.BusinessID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list calls", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (h *CallLogHandler) handleRecordingURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	callID := chi.URLParam(r, "callID")

	url, err := h.calls.RecordingURL(ctx, callID, authUser.BusinessID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"recording_url": url})
}

func (h *CallLogHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)

	stats, err := h.calls.Stats(ctx, authUser.BusinessID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load call stats", "error", err, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
