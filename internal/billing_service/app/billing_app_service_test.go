package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetByBusinessID(ctx context.Context, businessID string) (*domain.Subscription, error) {
	args := m.Called(ctx, businessID)
	var sub *domain.Subscription
	if args.Get(0) != nil {
		sub = args.Get(0).(*domain.Subscription)
	}
	return sub, args.Error(1)
}

func (m *MockSubscriptionRepository) GetByGatewaySubscriptionID(ctx context.Context, gatewayID string) (*domain.Subscription, error) {
	args := m.Called(ctx, gatewayID)
	var sub *domain.Subscription
	if args.Get(0) != nil {
		sub = args.Get(0).(*domain.Subscription)
	}
	return sub, args.Error(1)
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, subscription *domain.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	var invoice *domain.Invoice
	if args.Get(0) != nil {
		invoice = args.Get(0).(*domain.Invoice)
	}
	return invoice, args.Error(1)
}

func (m *MockInvoiceRepository) ListByBusinessID(ctx context.Context, businessID string, limit int) ([]*domain.Invoice, error) {
	args := m.Called(ctx, businessID, limit)
	var invoices []*domain.Invoice
	if args.Get(0) != nil {
		invoices = args.Get(0).([]*domain.Invoice)
	}
	return invoices, args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Usage(ctx context.Context, businessID string, period domain.BillingPeriod) (*domain.Usage, error) {
	args := m.Called(ctx, businessID, period)
	var usage *domain.Usage
	if args.Get(0) != nil {
		usage = args.Get(0).(*domain.Usage)
	}
	return usage, args.Error(1)
}

type MockProcessedEventRepository struct {
	mock.Mock
}

func (m *MockProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

type MockPaymentGatewayAdapter struct {
	mock.Mock
}

func (m *MockPaymentGatewayAdapter) CreateCheckout(ctx context.Context, businessID string, plan string) (string, string, error) {
	args := m.Called(ctx, businessID, plan)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockPaymentGatewayAdapter) HandleWebhookEvent(ctx context.Context, rawPayload []byte, signature string) (*domain.PaymentEvent, error) {
	args := m.Called(ctx, rawPayload, signature)
	var event *domain.PaymentEvent
	if args.Get(0) != nil {
		event = args.Get(0).(*domain.PaymentEvent)
	}
	return event, args.Error(1)
}

type MockNATSClient struct {
	mock.Mock
}

func (m *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func (m *MockNATSClient) Close() {
	m.Called()
}

type billingTestComponents struct {
	service          *BillingService
	subscriptionRepo *MockSubscriptionRepository
	invoiceRepo      *MockInvoiceRepository
	usageRepo        *MockUsageRepository
	processedRepo    *MockProcessedEventRepository
	gateway          *MockPaymentGatewayAdapter
	natsClient       *MockNATSClient
}

func setupBillingServiceTest(t *testing.T) billingTestComponents {
	t.Helper()
	subscriptionRepo := new(MockSubscriptionRepository)
	invoiceRepo := new(MockInvoiceRepository)
	usageRepo := new(MockUsageRepository)
	processedRepo := new(MockProcessedEventRepository)
	gateway := new(MockPaymentGatewayAdapter)
	natsClient := new(MockNATSClient)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewBillingService(subscriptionRepo, invoiceRepo, usageRepo, processedRepo, gateway, natsClient, logger)
	return billingTestComponents{
		service:          service,
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		usageRepo:        usageRepo,
		processedRepo:    processedRepo,
		gateway:          gateway,
		natsClient:       natsClient,
	}
}

func TestBillingService_GetBillingInfo(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("NoSubscriptionFallsBackToStarter", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).Return(nil, domain.ErrSubscriptionNotFound).Once()
		deps.usageRepo.On("Usage", ctx, businessID, mock.AnythingOfType("domain.BillingPeriod")).
			Return(&domain.Usage{Minutes: 120, Calls: 40, SMS: 15, Recordings: 3}, nil).Once()

		info, err := deps.service.GetBillingInfo(ctx, businessID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanStarter, info.Plan)
		assert.Equal(t, domain.Plans[domain.PlanStarter], info.Limits)
		assert.Equal(t, int64(120), info.Usage.Minutes)
		assert.True(t, info.BillingPeriod.Start.Before(info.BillingPeriod.End))
		deps.subscriptionRepo.AssertExpectations(t)
		deps.usageRepo.AssertExpectations(t)
	})

	t.Run("ActiveSubscriptionUsesItsPlan", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).
			Return(&domain.Subscription{BusinessID: businessID, Plan: domain.PlanProfessional, Status: domain.SubscriptionActive}, nil).Once()
		deps.usageRepo.On("Usage", ctx, businessID, mock.AnythingOfType("domain.BillingPeriod")).
			Return(&domain.Usage{}, nil).Once()

		info, err := deps.service.GetBillingInfo(ctx, businessID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanProfessional, info.Plan)
		assert.Equal(t, domain.Plans[domain.PlanProfessional], info.Limits)
	})

	t.Run("PendingSubscriptionStaysOnStarter", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).
			Return(&domain.Subscription{BusinessID: businessID, Plan: domain.PlanEnterprise, Status: domain.SubscriptionPending}, nil).Once()
		deps.usageRepo.On("Usage", ctx, businessID, mock.AnythingOfType("domain.BillingPeriod")).
			Return(&domain.Usage{}, nil).Once()

		info, err := deps.service.GetBillingInfo(ctx, businessID)

		require.NoError(t, err)
		assert.Equal(t, domain.PlanStarter, info.Plan)
	})
}

func TestBillingService_UpgradePlan(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("Success", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.gateway.On("CreateCheckout", ctx, businessID, domain.PlanProfessional).
			Return("https://pay.example.com/cs_123", "sub_gw_123", nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.MatchedBy(func(sub *domain.Subscription) bool {
			return sub.BusinessID == businessID &&
				sub.Plan == domain.PlanProfessional &&
				sub.Status == domain.SubscriptionPending &&
				sub.GatewaySubscriptionID == "sub_gw_123"
		})).Return(nil).Once()

		result, err := deps.service.UpgradePlan(ctx, businessID, domain.PlanProfessional)

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/cs_123", result.CheckoutURL)
		assert.Equal(t, domain.PlanProfessional, result.Plan)
		deps.gateway.AssertExpectations(t)
		deps.subscriptionRepo.AssertExpectations(t)
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		deps := setupBillingServiceTest(t)

		result, err := deps.service.UpgradePlan(ctx, businessID, "platinum")

		require.ErrorIs(t, err, domain.ErrUnknownPlan)
		assert.Nil(t, result)
		deps.gateway.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CheckoutFailure", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.gateway.On("CreateCheckout", ctx, businessID, domain.PlanEnterprise).
			Return("", "", assert.AnError).Once()

		result, err := deps.service.UpgradePlan(ctx, businessID, domain.PlanEnterprise)

		require.Error(t, err)
		assert.Nil(t, result)
		deps.subscriptionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestBillingService_CancelSubscription(t *testing.T) {
	ctx := context.Background()
	businessID := "biz-1"

	t.Run("FlagsCancelAtPeriodEndAndPublishes", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).
			Return(&domain.Subscription{ID: "sub-1", BusinessID: businessID, Plan: domain.PlanProfessional, Status: domain.SubscriptionActive}, nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.MatchedBy(func(sub *domain.Subscription) bool {
			return sub.CancelAtPeriodEnd && sub.Status == domain.SubscriptionActive
		})).Return(nil).Once()
		deps.natsClient.On("Publish", ctx, SubjectSubscriptionUpdated, mock.Anything).Return(nil).Once()

		subscription, err := deps.service.CancelSubscription(ctx, businessID)

		require.NoError(t, err)
		assert.True(t, subscription.CancelAtPeriodEnd)
		deps.subscriptionRepo.AssertExpectations(t)
		deps.natsClient.AssertExpectations(t)
	})

	t.Run("AlreadyFlaggedIsNoOp", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).
			Return(&domain.Subscription{ID: "sub-1", BusinessID: businessID, Plan: domain.PlanProfessional, Status: domain.SubscriptionActive, CancelAtPeriodEnd: true}, nil).Once()

		subscription, err := deps.service.CancelSubscription(ctx, businessID)

		require.NoError(t, err)
		assert.True(t, subscription.CancelAtPeriodEnd)
		deps.subscriptionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		deps.natsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NoSubscriptionToCancel", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.subscriptionRepo.On("GetByBusinessID", ctx, businessID).
			Return(nil, domain.ErrSubscriptionNotFound).Once()

		subscription, err := deps.service.CancelSubscription(ctx, businessID)

		require.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
		assert.Nil(t, subscription)
		deps.subscriptionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestBillingService_HandlePaymentWebhook(t *testing.T) {
	ctx := context.Background()
	rawPayload := []byte(`{"event_id":"evt_1"}`)
	signature := "sig"

	t.Run("InvoicePaidActivatesSubscription", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{
			EventID:               "evt_1",
			Type:                  domain.EventInvoicePaid,
			GatewaySubscriptionID: "sub_gw_123",
			InvoiceID:             "inv_1",
			AmountCents:           9900,
			Currency:              "usd",
			Plan:                  domain.PlanProfessional,
		}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Once()
		deps.processedRepo.On("MarkProcessed", ctx, "evt_1").Return(false, nil).Once()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1", Plan: domain.PlanStarter, Status: domain.SubscriptionPending, GatewaySubscriptionID: "sub_gw_123"}, nil).Once()
		deps.invoiceRepo.On("GetByID", ctx, "inv_1").Return(nil, domain.ErrInvoiceNotFound).Once()
		deps.invoiceRepo.On("Create", ctx, mock.MatchedBy(func(invoice *domain.Invoice) bool {
			return invoice.ID == "inv_1" && invoice.BusinessID == "biz-1" &&
				invoice.AmountCents == 9900 && invoice.Status == domain.InvoicePaid
		})).Return(nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.MatchedBy(func(sub *domain.Subscription) bool {
			return sub.Status == domain.SubscriptionActive && sub.Plan == domain.PlanProfessional
		})).Return(nil).Once()
		deps.natsClient.On("Publish", ctx, SubjectSubscriptionUpdated, mock.Anything).Return(nil).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.NoError(t, err)
		deps.gateway.AssertExpectations(t)
		deps.invoiceRepo.AssertExpectations(t)
		deps.subscriptionRepo.AssertExpectations(t)
		deps.natsClient.AssertExpectations(t)
	})

	t.Run("InvoiceFailedMarksPastDue", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{
			EventID:               "evt_2",
			Type:                  domain.EventInvoiceFailed,
			GatewaySubscriptionID: "sub_gw_123",
			InvoiceID:             "inv_2",
		}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Once()
		deps.processedRepo.On("MarkProcessed", ctx, "evt_2").Return(false, nil).Once()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1", Plan: domain.PlanProfessional, Status: domain.SubscriptionActive}, nil).Once()
		deps.invoiceRepo.On("GetByID", ctx, "inv_2").
			Return(&domain.Invoice{ID: "inv_2", BusinessID: "biz-1", Status: domain.InvoiceOpen}, nil).Once()
		deps.invoiceRepo.On("UpdateStatus", ctx, "inv_2", domain.InvoiceFailed).Return(nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.MatchedBy(func(sub *domain.Subscription) bool {
			return sub.Status == domain.SubscriptionPastDue
		})).Return(nil).Once()
		deps.natsClient.On("Publish", ctx, SubjectSubscriptionUpdated, mock.Anything).Return(nil).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.NoError(t, err)
		deps.invoiceRepo.AssertExpectations(t)
		deps.subscriptionRepo.AssertExpectations(t)
	})

	t.Run("ReplayedEventIsNotRepublished", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{EventID: "evt_1", Type: domain.EventInvoicePaid, GatewaySubscriptionID: "sub_gw_123", Plan: domain.PlanProfessional}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Once()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1", Plan: domain.PlanProfessional, Status: domain.SubscriptionActive}, nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.Anything).Return(nil).Once()
		deps.processedRepo.On("MarkProcessed", ctx, "evt_1").Return(true, nil).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)
		deps.natsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RetryAfterTransientFailureStillApplies", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{
			EventID:               "evt_5",
			Type:                  domain.EventInvoicePaid,
			GatewaySubscriptionID: "sub_gw_123",
			Plan:                  domain.PlanProfessional,
		}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Twice()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(nil, assert.AnError).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.Error(t, err)
		deps.processedRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)

		// The gateway retries the same event and it must still land.
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1", Plan: domain.PlanStarter, Status: domain.SubscriptionPending, GatewaySubscriptionID: "sub_gw_123"}, nil).Once()
		deps.subscriptionRepo.On("Upsert", ctx, mock.MatchedBy(func(sub *domain.Subscription) bool {
			return sub.Status == domain.SubscriptionActive && sub.Plan == domain.PlanProfessional
		})).Return(nil).Once()
		deps.processedRepo.On("MarkProcessed", ctx, "evt_5").Return(false, nil).Once()
		deps.natsClient.On("Publish", ctx, SubjectSubscriptionUpdated, mock.Anything).Return(nil).Once()

		err = deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.NoError(t, err)
		deps.subscriptionRepo.AssertExpectations(t)
		deps.processedRepo.AssertExpectations(t)
		deps.natsClient.AssertExpectations(t)
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).
			Return(nil, domain.ErrInvalidSignature).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.ErrorIs(t, err, domain.ErrInvalidSignature)
		deps.processedRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})

	t.Run("SubscriptionUpdatedRejectsUnknownPlan", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{
			EventID:               "evt_3",
			Type:                  domain.EventSubscriptionUpdated,
			GatewaySubscriptionID: "sub_gw_123",
			Plan:                  "platinum",
		}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Once()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1", Plan: domain.PlanStarter}, nil).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.ErrorIs(t, err, domain.ErrUnknownPlan)
		deps.subscriptionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		deps.processedRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})

	t.Run("UnhandledEventTypeIsIgnored", func(t *testing.T) {
		deps := setupBillingServiceTest(t)
		event := &domain.PaymentEvent{
			EventID:               "evt_4",
			Type:                  "customer.created",
			GatewaySubscriptionID: "sub_gw_123",
		}
		deps.gateway.On("HandleWebhookEvent", ctx, rawPayload, signature).Return(event, nil).Once()
		deps.subscriptionRepo.On("GetByGatewaySubscriptionID", ctx, "sub_gw_123").
			Return(&domain.Subscription{ID: "sub-1", BusinessID: "biz-1"}, nil).Once()

		err := deps.service.HandlePaymentWebhook(ctx, rawPayload, signature)

		require.NoError(t, err)
		deps.subscriptionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		deps.processedRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
	})
}
