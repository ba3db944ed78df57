package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports whether the message broker connection is up.
type ConnChecker interface {
	IsConnected() bool
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     Pinger
	broker ConnChecker
	cache  Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, broker ConnChecker, cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		broker: broker,
		cache:  cache,
		logger: logger.With("handler", "health"),
	}
}

// RegisterRoutes mounts the probe endpoints.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/health/ready", h.handleReady)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"broker":   "ok",
		"cache":    "ok",
	}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Database readiness check failed", "error", err)
		checks["database"] = "unreachable"
		healthy = false
	}
	if !h.broker.IsConnected() {
		checks["broker"] = "disconnected"
		healthy = false
	}
	if err := h.cache.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Cache readiness check failed", "error", err)
		checks["cache"] = "unreachable"
		healthy = false
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	respondWithJSON(w, status, map[string]any{"status": overall, "checks": checks})
}
