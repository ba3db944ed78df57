package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

type MockPaymentWebhookProcessor struct {
	mock.Mock
}

func (m *MockPaymentWebhookProcessor) HandlePaymentWebhook(ctx context.Context, rawPayload []byte, signature string) error {
	args := m.Called(ctx, rawPayload, signature)
	return args.Error(0)
}

func newTestWebhookHandler(processor *MockPaymentWebhookProcessor) *WebhookHandler {
	return NewWebhookHandler(processor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWebhookHandler_HandlePaymentWebhook(t *testing.T) {
	payload := `{"event_id":"evt_1","type":"invoice.paid"}`

	t.Run("Success", func(t *testing.T) {
		processor := new(MockPaymentWebhookProcessor)
		processor.On("HandlePaymentWebhook", mock.Anything, []byte(payload), "sig-valid").Return(nil).Once()
		handler := newTestWebhookHandler(processor)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		req.Header.Set("X-Payment-Signature", "sig-valid")
		rr := httptest.NewRecorder()

		handler.HandlePaymentWebhook(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		processor.AssertExpectations(t)
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		processor := new(MockPaymentWebhookProcessor)
		processor.On("HandlePaymentWebhook", mock.Anything, []byte(payload), "sig-bad").
			Return(domain.ErrInvalidSignature).Once()
		handler := newTestWebhookHandler(processor)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		req.Header.Set("X-Payment-Signature", "sig-bad")
		rr := httptest.NewRecorder()

		handler.HandlePaymentWebhook(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		processor.AssertExpectations(t)
	})

	t.Run("ReplayedEventAcknowledged", func(t *testing.T) {
		processor := new(MockPaymentWebhookProcessor)
		processor.On("HandlePaymentWebhook", mock.Anything, []byte(payload), "sig-valid").
			Return(domain.ErrEventAlreadyProcessed).Once()
		handler := newTestWebhookHandler(processor)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		req.Header.Set("X-Payment-Signature", "sig-valid")
		rr := httptest.NewRecorder()

		handler.HandlePaymentWebhook(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		processor.AssertExpectations(t)
	})

	t.Run("UnknownSubscription", func(t *testing.T) {
		processor := new(MockPaymentWebhookProcessor)
		processor.On("HandlePaymentWebhook", mock.Anything, []byte(payload), "sig-valid").
			Return(domain.ErrSubscriptionNotFound).Once()
		handler := newTestWebhookHandler(processor)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		req.Header.Set("X-Payment-Signature", "sig-valid")
		rr := httptest.NewRecorder()

		handler.HandlePaymentWebhook(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		processor.AssertExpectations(t)
	})

	t.Run("ProcessorError", func(t *testing.T) {
		processor := new(MockPaymentWebhookProcessor)
		processor.On("HandlePaymentWebhook", mock.Anything, []byte(payload), "sig-valid").
			Return(assert.AnError).Once()
		handler := newTestWebhookHandler(processor)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		req.Header.Set("X-Payment-Signature", "sig-valid")
		rr := httptest.NewRecorder()

		handler.HandlePaymentWebhook(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		processor.AssertExpectations(t)
	})
}
