package paymentgateway

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

const testGatewaySecret = "gw-secret"

func newTestAdapter(secret string) domain.PaymentGatewayAdapter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHMACGatewayAdapter(secret, "https://pay.example.com", logger)
}

func TestHMACGatewayAdapter_HandleWebhookEvent(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"event_id":"evt_1","type":"invoice.paid","subscription_id":"sub_gw_1","invoice_id":"inv_1","amount_cents":9900,"currency":"usd","plan":"professional"}`)

	t.Run("ValidSignatureParsesEvent", func(t *testing.T) {
		adapter := newTestAdapter(testGatewaySecret)

		event, err := adapter.HandleWebhookEvent(ctx, payload, Sign(testGatewaySecret, payload))

		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.EventID)
		assert.Equal(t, domain.EventInvoicePaid, event.Type)
		assert.Equal(t, "sub_gw_1", event.GatewaySubscriptionID)
		assert.Equal(t, int64(9900), event.AmountCents)
		assert.Equal(t, domain.PlanProfessional, event.Plan)
	})

	t.Run("WrongSecretRejected", func(t *testing.T) {
		adapter := newTestAdapter(testGatewaySecret)

		event, err := adapter.HandleWebhookEvent(ctx, payload, Sign("attacker-secret", payload))

		require.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Nil(t, event)
	})

	t.Run("MissingSignatureRejected", func(t *testing.T) {
		adapter := newTestAdapter(testGatewaySecret)

		_, err := adapter.HandleWebhookEvent(ctx, payload, "")

		require.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("UnconfiguredSecretFailsClosed", func(t *testing.T) {
		adapter := newTestAdapter("")

		// The signature anyone could forge with an empty key.
		event, err := adapter.HandleWebhookEvent(ctx, payload, Sign("", payload))

		require.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Nil(t, event)
	})

	t.Run("MissingRequiredFieldsRejected", func(t *testing.T) {
		adapter := newTestAdapter(testGatewaySecret)
		partial := []byte(`{"event_id":"evt_2"}`)

		_, err := adapter.HandleWebhookEvent(ctx, partial, Sign(testGatewaySecret, partial))

		require.Error(t, err)
	})
}
