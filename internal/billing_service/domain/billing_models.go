package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSubscriptionNotFound indicates no subscription row for the business.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrInvoiceNotFound indicates the invoice does not exist for this business.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrUnknownPlan indicates an unrecognized plan name.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrInvalidSignature indicates webhook signature verification failed.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrEventAlreadyProcessed indicates an idempotent webhook replay.
	ErrEventAlreadyProcessed = errors.New("webhook event already processed")
)

// Plan names.
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Unlimited marks a limit with no cap.
const Unlimited = -1

// PlanLimits are the monthly allowances for one plan.
type PlanLimits struct {
	Minutes    int `json:"minutes"`
	Calls      int `json:"calls"`
	SMS        int `json:"sms"`
	Recordings int `json:"recordings"`
}

// Plans maps plan name to limits.
var Plans = map[string]PlanLimits{
	PlanStarter:      {Minutes: 1000, Calls: 500, SMS: 1000, Recordings: 100},
	PlanProfessional: {Minutes: 5000, Calls: 2500, SMS: 5000, Recordings: 500},
	PlanEnterprise:   {Minutes: Unlimited, Calls: Unlimited, SMS: Unlimited, Recordings: Unlimited},
}

// ValidPlan reports whether name is a known plan.
func ValidPlan(name string) bool {
	_, ok := Plans[name]
	return ok
}

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionPending  = "pending"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription ties a business to a plan and a gateway subscription.
type Subscription struct {
	ID                    string    `json:"id"`
	BusinessID            string    `json:"business_id"`
	Plan                  string    `json:"plan"`
	Status                string    `json:"status"`
	GatewaySubscriptionID string    `json:"-"`
	CurrentPeriodStart    time.Time `json:"current_period_start"`
	CurrentPeriodEnd      time.Time `json:"current_period_end"`
	CancelAtPeriodEnd     bool      `json:"cancel_at_period_end"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Invoice statuses.
const (
	InvoiceOpen   = "open"
	InvoicePaid   = "paid"
	InvoiceVoid   = "void"
	InvoiceFailed = "failed"
)

// Invoice is one billing document.
type Invoice struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	DownloadURL string    `json:"download_url,omitempty"`
	IssuedAt    time.Time `json:"date"`
}

// Usage is the consumption within the current billing period.
type Usage struct {
	Minutes    int64 `json:"minutes"`
	Calls      int64 `json:"calls"`
	SMS        int64 `json:"sms"`
	Recordings int64 `json:"recordings"`
}

// BillingPeriod is the current calendar-month window.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CurrentBillingPeriod returns the first of this month through the first of
// the next.
func CurrentBillingPeriod(now time.Time) BillingPeriod {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{Start: start, End: start.AddDate(0, 1, 0)}
}

// BillingInfo is the dashboard billing payload.
type BillingInfo struct {
	Plan          string        `json:"plan"`
	Usage         Usage         `json:"usage"`
	Limits        PlanLimits    `json:"limits"`
	BillingPeriod BillingPeriod `json:"billingPeriod"`
}

// UpgradeResult is returned when a plan change is initiated.
type UpgradeResult struct {
	Plan        string `json:"plan"`
	CheckoutURL string `json:"checkoutUrl"`
}

// PaymentEvent is a verified, normalized webhook event from the gateway.
type PaymentEvent struct {
	EventID               string
	Type                  string // invoice.paid | invoice.failed | subscription.updated
	GatewaySubscriptionID string
	InvoiceID             string
	AmountCents           int64
	Currency              string
	Plan                  string
}

// Webhook event types.
const (
	EventInvoicePaid         = "invoice.paid"
	EventInvoiceFailed       = "invoice.failed"
	EventSubscriptionUpdated = "subscription.updated"
)

/// PaymentGatewayAdapter abstracts the payment provider: checkout session
// creation for upgrades and webhook verification/parsing.
type PaymentGatewayAdapter interface {
	CreateCheckout(ctx context.Context, businessID string, plan string) (checkoutURL string, gatewaySubscriptionID string, err error)
	HandleWebhookEvent(ctx context.Context, rawPayload []byte, signature string) (*PaymentEvent, error)
}
