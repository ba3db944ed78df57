package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	calllogdomain "github.com/replytics/dashboard-api/internal/calllog_service/domain"
	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
)

// VoiceBotProxy forwards read requests to the voice platform.
type VoiceBotProxy interface {
	ProxyGet(ctx context.Context, businessID string, resource string) (json.RawMessage, error)
}

// CallIngester records calls reported by the voice platform.
type CallIngester interface {
	RecordCall(ctx context.Context, call *calllogdomain.Call) error
}

// VoiceBotEvent is the envelope the voice platform posts to our webhook.
type VoiceBotEvent struct {
	EventType  string          `json:"event_type"`
	BusinessID string          `json:"business_id"`
	Data       json.RawMessage `json:"data"`
}

// CallCompletedData is the call.completed payload.
type CallCompletedData struct {
	CallID          string    `json:"call_id"`
	CustomerPhone   string    `json:"customer_phone"`
	Status          string    `json:"status"`
	Outcome         string    `json:"outcome"`
	DurationSeconds int       `json:"duration_seconds"`
	RecordingURL    string    `json:"recording_url"`
	Transcript      string    `json:"transcript"`
	StartedAt       time.Time `json:"started_at"`
}

// VoiceBotHandler serves the voice platform proxy and its inbound webhook.
type VoiceBotHandler struct {
	proxy         VoiceBotProxy
	calls         CallIngester
	webhookSecret string
	logger        *slog.Logger
}

func NewVoiceBotHandler(proxy VoiceBotProxy, calls CallIngester, webhookSecret string, logger *slog.Logger) *VoiceBotHandler {
	return &VoiceBotHandler{
		proxy:         proxy,
		calls:         calls,
		webhookSecret: webhookSecret,
		logger:        logger.With("handler", "voicebot"),
	}
}

// RegisterRoutes mounts the authenticated read-through proxy.
func (h *VoiceBotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voice-bot/{resource}", h.handleProxyGet)
}

// RegisterWebhookRoutes mounts the unauthenticated signed webhook.
func (h *VoiceBotHandler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/voicebot", h.handleWebhook)
}

func (h *VoiceBotHandler) handleProxyGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, _ := middleware.GetAuthenticatedUser(ctx)
	resource := chi.URLParam(r, "resource")

	payload, err := h.proxy.ProxyGet(ctx, authUser.BusinessID, resource)
	if err != nil {
		h.logger.ErrorContext(ctx, "Voice platform proxy request failed", "error", err, "resource", resource, "business_id", authUser.BusinessID)
		respondWithDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *VoiceBotHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}
	defer r.Body.Close()

	if !h.verifySignature(body, r.Header.Get("X-Voicebot-Signature")) {
		h.logger.WarnContext(ctx, "Rejected voice platform webhook with bad signature")
		respondWithError(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	var event VoiceBotEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	if event.BusinessID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing business_id")
		return
	}

	switch event.EventType {
	case "call.completed":
		if err := h.applyCallCompleted(ctx, &event); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid call.completed payload")
			return
		}
	case "booking.created":
		// Bookings live on the voice platform; acknowledged for delivery tracking.
		h.logger.InfoContext(ctx, "Acknowledged booking event", "business_id", event.BusinessID)
	default:
		h.logger.WarnContext(ctx, "Ignoring unsupported webhook event", "event_type", event.EventType)
		respondWithError(w, http.StatusBadRequest, "Unsupported event type")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *VoiceBotHandler) applyCallCompleted(ctx context.Context, event *VoiceBotEvent) error {
	var data CallCompletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	call := &calllogdomain.Call{
		ID:              data.CallID,
		BusinessID:      event.BusinessID,
		CustomerPhone:   data.CustomerPhone,
		Status:          data.Status,
		Outcome:         data.Outcome,
		DurationSeconds: data.DurationSeconds,
		RecordingURL:    data.RecordingURL,
		Transcript:      data.Transcript,
		CreatedAt:       data.StartedAt,
	}
	if call.Status == "" {
		call.Status = calllogdomain.StatusCompleted
	}
	return h.calls.RecordCall(ctx, call)
}

func (h *VoiceBotHandler) verifySignature(body []byte, signature string) bool {
	// An unset secret means anyone could compute a valid signature.
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
