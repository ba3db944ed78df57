package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/replytics/dashboard-api/internal/billing_service/domain"
	"github.com/replytics/dashboard-api/internal/billing_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
)

// SubjectSubscriptionUpdated is published after a webhook changes a
// subscription's plan or status.
const SubjectSubscriptionUpdated = "billing.subscription.updated"

// SubscriptionUpdatedEvent is the billing.subscription.updated payload.
type SubscriptionUpdatedEvent struct {
	BusinessID string `json:"business_id"`
	Plan       string `json:"plan"`
	Status     string `json:"status"`
}

// BillingService answers billing queries and processes gateway webhooks.
type BillingService struct {
	subscriptionRepo repository.SubscriptionRepository
	invoiceRepo      repository.InvoiceRepository
	usageRepo        repository.UsageRepository
	processedRepo    repository.ProcessedEventRepository
	paymentGateway   domain.PaymentGatewayAdapter
	natsClient       messagebroker.NATSClient
	logger           *slog.Logger
}

func NewBillingService(
	subscriptionRepo repository.SubscriptionRepository,
	invoiceRepo repository.InvoiceRepository,
	usageRepo repository.UsageRepository,
	processedRepo repository.ProcessedEventRepository,
	paymentGateway domain.PaymentGatewayAdapter,
	natsClient messagebroker.NATSClient,
	logger *slog.Logger,
) *BillingService {
	return &BillingService{
		subscriptionRepo: subscriptionRepo,
		invoiceRepo:      invoiceRepo,
		usageRepo:        usageRepo,
		processedRepo:    processedRepo,
		paymentGateway:   paymentGateway,
		natsClient:       natsClient,
		logger:           logger,
	}
}

// GetBillingInfo returns the current plan, period usage and limits. A
// business with no subscription row is on the starter plan.
func (s *BillingService) GetBillingInfo(ctx context.Context, businessID string) (*domain.BillingInfo, error) {
	plan := domain.PlanStarter
	subscription, err := s.subscriptionRepo.GetByBusinessID(ctx, businessID)
	if err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil, err
	}
	if subscription != nil && subscription.Status == domain.SubscriptionActive {
		plan = subscription.Plan
	}

	period := domain.CurrentBillingPeriod(time.Now().UTC())
	usage, err := s.usageRepo.Usage(ctx, businessID, period)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to aggregate usage", "error", err, "business_id", businessID)
		return nil, err
	}

	return &domain.BillingInfo{
		Plan:          plan,
		Usage:         *usage,
		Limits:        domain.Plans[plan],
		BillingPeriod: period,
	}, nil
}

// ListInvoices returns the most recent invoices.
func (s *BillingService) ListInvoices(ctx context.Context, businessID string) ([]*domain.Invoice, error) {
	const invoiceListLimit = 24
	return s.invoiceRepo.ListByBusinessID(ctx, businessID, invoiceListLimit)
}

// UpgradePlan opens a checkout session and records a pending subscription.
// The plan becomes active when the gateway confirms payment via webhook.
func (s *BillingService) UpgradePlan(ctx context.Context, businessID string, plan string) (*domain.UpgradeResult, error) {
	if !domain.ValidPlan(plan) {
		return nil, domain.ErrUnknownPlan
	}

	checkoutURL, gatewayID, err := s.paymentGateway.CreateCheckout(ctx, businessID, plan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create checkout session", "error", err, "business_id", businessID, "plan", plan)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	period := domain.CurrentBillingPeriod(time.Now().UTC())
	subscription := &domain.Subscription{
		BusinessID:            businessID,
		Plan:                  plan,
		Status:                domain.SubscriptionPending,
		GatewaySubscriptionID: gatewayID,
		CurrentPeriodStart:    period.Start,
		CurrentPeriodEnd:      period.End,
	}
	if err := s.subscriptionRepo.Upsert(ctx, subscription); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record pending subscription", "error", err, "business_id", businessID)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Plan upgrade initiated", "business_id", businessID, "plan", plan)
	return &domain.UpgradeResult{Plan: plan, CheckoutURL: checkoutURL}, nil
}

// CancelSubscription flags the subscription to lapse at the end of the
// current period. The starter plan has nothing to cancel.
func (s *BillingService) CancelSubscription(ctx context.Context, businessID string) (*domain.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if subscription.CancelAtPeriodEnd {
		return subscription, nil
	}

	subscription.CancelAtPeriodEnd = true
	if err := s.subscriptionRepo.Upsert(ctx, subscription); err != nil {
		s.logger.ErrorContext(ctx, "Failed to flag subscription for cancellation", "error", err, "business_id", businessID)
		return nil, err
	}

	s.publishSubscriptionUpdated(ctx, subscription)
	s.logger.InfoContext(ctx, "Subscription set to cancel at period end", "business_id", businessID, "plan", subscription.Plan)
	return subscription, nil
}

// HandlePaymentWebhook verifies, applies and deduplicates one gateway event.
// The event id is marked processed only after the state change lands: a
// transient failure leaves the event unmarked so the gateway's retry can
// apply it. Re-applying a delivered event is harmless, the invoice and
// subscription writes are idempotent.
func (s *BillingService) HandlePaymentWebhook(ctx context.Context, rawPayload []byte, signature string) error {
	event, err := s.paymentGateway.HandleWebhookEvent(ctx, rawPayload, signature)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to verify webhook event", "error", err)
		return err
	}

	subscription, err := s.subscriptionRepo.GetByGatewaySubscriptionID(ctx, event.GatewaySubscriptionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Subscription not found for webhook", "error", err, "gateway_subscription_id", event.GatewaySubscriptionID)
		return err
	}

	switch event.Type {
	case domain.EventInvoicePaid:
		if err := s.applyInvoice(ctx, subscription, event, domain.InvoicePaid); err != nil {
			return err
		}
		subscription.Status = domain.SubscriptionActive
		if event.Plan != "" && domain.ValidPlan(event.Plan) {
			subscription.Plan = event.Plan
		}
		period := domain.CurrentBillingPeriod(time.Now().UTC())
		subscription.CurrentPeriodStart = period.Start
		subscription.CurrentPeriodEnd = period.End

	case domain.EventInvoiceFailed:
		if err := s.applyInvoice(ctx, subscription, event, domain.InvoiceFailed); err != nil {
			return err
		}
		subscription.Status = domain.SubscriptionPastDue

	case domain.EventSubscriptionUpdated:
		if event.Plan != "" {
			if !domain.ValidPlan(event.Plan) {
				return domain.ErrUnknownPlan
			}
			subscription.Plan = event.Plan
		}

	default:
		s.logger.WarnContext(ctx, "Ignoring unhandled webhook event type", "event_type", event.Type, "event_id", event.EventID)
		return nil
	}

	if err := s.subscriptionRepo.Upsert(ctx, subscription); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update subscription from webhook", "error", err, "subscription_id", subscription.ID)
		return err
	}

	alreadyProcessed, err := s.processedRepo.MarkProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if alreadyProcessed {
		s.logger.InfoContext(ctx, "Webhook event already processed", "event_id", event.EventID)
		return domain.ErrEventAlreadyProcessed
	}

	s.publishSubscriptionUpdated(ctx, subscription)
	s.logger.InfoContext(ctx, "Payment webhook applied", "event_type", event.Type, "business_id", subscription.BusinessID, "status", subscription.Status)
	return nil
}

func (s *BillingService) applyInvoice(ctx context.Context, subscription *domain.Subscription, event *domain.PaymentEvent, status string) error {
	if event.InvoiceID == "" {
		return nil
	}
	_, err := s.invoiceRepo.GetByID(ctx, event.InvoiceID)
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		return s.invoiceRepo.Create(ctx, &domain.Invoice{
			ID:          event.InvoiceID,
			BusinessID:  subscription.BusinessID,
			AmountCents: event.AmountCents,
			Currency:    event.Currency,
			Status:      status,
			IssuedAt:    time.Now().UTC(),
		})
	}
	if err != nil {
		return err
	}
	return s.invoiceRepo.UpdateStatus(ctx, event.InvoiceID, status)
}

func (s *BillingService) publishSubscriptionUpdated(ctx context.Context, subscription *domain.Subscription) {
	if s.natsClient == nil {
		return
	}
	payload, err := json.Marshal(SubscriptionUpdatedEvent{
		BusinessID: subscription.BusinessID,
		Plan:       subscription.Plan,
		Status:     subscription.Status,
	})
	if err != nil {
		return
	}
	if err := s.natsClient.Publish(ctx, SubjectSubscriptionUpdated, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish subscription updated event", "error", err, "business_id", subscription.BusinessID)
	}
}
