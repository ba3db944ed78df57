package domain

import "context"

// TelcoProviderAdapter abstracts the upstream telephony provider: number
// provisioning and release.
type TelcoProviderAdapter interface {
	ProvisionNumber(ctx context.Context, req ProvisionRequest) (phoneNumber string, meta TelcoMetadata, err error)
	ReleaseNumber(ctx context.Context, providerSID string) error
}
