package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chi_middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

const maxWebhookBodySize = 1 << 20 // 1 MB

// PaymentWebhookProcessor is the slice of the billing service the handler
// needs; an interface so tests can substitute a mock.
type PaymentWebhookProcessor interface {
	HandlePaymentWebhook(ctx context.Context, rawPayload []byte, signature string) error
}

// WebhookHandler receives payment gateway callbacks.
type WebhookHandler struct {
	billing PaymentWebhookProcessor
	logger  *slog.Logger
}

func NewWebhookHandler(billing PaymentWebhookProcessor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billing,
		logger:  logger.With("component", "webhook_handler"),
	}
}

// HandlePaymentWebhook verifies and applies one gateway event. Replays are
// acknowledged with 200 so the gateway stops retrying.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	signature := r.Header.Get("X-Payment-Signature")

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	rawPayload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read webhook request body", "error", err)
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
		}
		return
	}

	if err := h.billing.HandlePaymentWebhook(ctx, rawPayload, signature); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSignature):
			logger.WarnContext(ctx, "Webhook signature verification failed")
			http.Error(w, "Webhook signature verification failed", http.StatusBadRequest)
		case errors.Is(err, domain.ErrEventAlreadyProcessed):
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, domain.ErrSubscriptionNotFound):
			http.Error(w, "Subscription not found", http.StatusNotFound)
		default:
			logger.ErrorContext(ctx, "Error processing payment webhook", "error", err)
			http.Error(w, "Internal server error processing webhook", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	logger.InfoContext(ctx, "Payment webhook processed")
}
