package paymentgateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

// HMACGatewayAdapter verifies webhook payloads with an HMAC-SHA256 shared
// secret and parses them into normalized payment events. Checkout sessions
// are hosted by the gateway; this adapter only builds the redirect.
type HMACGatewayAdapter struct {
	secret      []byte
	checkoutURL string
	logger      *slog.Logger
}

func NewHMACGatewayAdapter(secret string, checkoutBaseURL string, logger *slog.Logger) domain.PaymentGatewayAdapter {
	return &HMACGatewayAdapter{
		secret:      []byte(secret),
		checkoutURL: checkoutBaseURL,
		logger:      logger.With("adapter", "payment_gateway"),
	}
}

func (a *HMACGatewayAdapter) CreateCheckout(ctx context.Context, businessID string, plan string) (string, string, error) {
	sessionID := "cs_" + uuid.NewString()
	gatewaySubscriptionID := "sub_" + uuid.NewString()
	url := fmt.Sprintf("%s/checkout/%s?plan=%s", a.checkoutURL, sessionID, plan)
	a.logger.InfoContext(ctx, "Created checkout session", "business_id", businessID, "plan", plan, "session_id", sessionID)
	return url, gatewaySubscriptionID, nil
}

// webhookEnvelope is the gateway's wire format.
type webhookEnvelope struct {
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	SubscriptionID string `json:"subscription_id"`
	InvoiceID      string `json:"invoice_id"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	Plan           string `json:"plan"`
}

func (a *HMACGatewayAdapter) HandleWebhookEvent(ctx context.Context, rawPayload []byte, signature string) (*domain.PaymentEvent, error) {
	if !a.verifySignature(rawPayload, signature) {
		return nil, domain.ErrInvalidSignature
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawPayload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if envelope.EventID == "" || envelope.Type == "" || envelope.SubscriptionID == "" {
		return nil, fmt.Errorf("webhook payload missing required fields")
	}

	return &domain.PaymentEvent{
		EventID:               envelope.EventID,
		Type:                  envelope.Type,
		GatewaySubscriptionID: envelope.SubscriptionID,
		InvoiceID:             envelope.InvoiceID,
		AmountCents:           envelope.AmountCents,
		Currency:              envelope.Currency,
		Plan:                  envelope.Plan,
	}, nil
}

func (a *HMACGatewayAdapter) verifySignature(payload []byte, signature string) bool {
	// An unset secret means anyone could compute a valid signature.
	if len(a.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature the gateway would send for payload. Exported
// for tests and local tooling.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
