package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replytics/dashboard-api/internal/phonenumber_service/domain"
)

// Application implements phone number lifecycle management for a business.
type Application struct {
	phoneRepo domain.PhoneNumberRepository
	telco     domain.TelcoProviderAdapter
	logger    *slog.Logger
}

func NewApplication(phoneRepo domain.PhoneNumberRepository, telco domain.TelcoProviderAdapter, logger *slog.Logger) *Application {
	return &Application{
		phoneRepo: phoneRepo,
		telco:     telco,
		logger:    logger,
	}
}

// ListNumbers returns all numbers owned by the business, released ones included.
func (app *Application) ListNumbers(ctx context.Context, businessID string) ([]*domain.PhoneNumber, error) {
	return app.phoneRepo.ListByBusinessID(ctx, businessID)
}

// GetNumber returns one number, scoped to the business.
func (app *Application) GetNumber(ctx context.Context, businessID string, id string) (*domain.PhoneNumber, error) {
	return app.phoneRepo.GetByID(ctx, id, businessID)
}

// ProvisionNumber requests a new number from the provider and records it in
// pending status. The business's first number becomes primary immediately.
func (app *Application) ProvisionNumber(ctx context.Context, businessID string, req domain.ProvisionRequest) (*domain.PhoneNumber, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := app.phoneRepo.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	number, meta, err := app.telco.ProvisionNumber(ctx, req)
	if err != nil {
		app.logger.ErrorContext(ctx, "Failed to provision number from provider", "error", err, "business_id", businessID)
		return nil, fmt.Errorf("failed to provision phone number: %w", err)
	}

	phone := &domain.PhoneNumber{
		ID:               uuid.NewString(),
		BusinessID:       businessID,
		PhoneNumber:      number,
		Telco:            meta,
		DisplayName:      req.DisplayName,
		Timezone:         req.Timezone,
		Status:           domain.StatusPending,
		IsPrimary:        len(existing) == 0,
		AssignedStaffIDs: []string{},
		SMSEnabled:       true,
		SMSReminderHours: 24,
	}
	if err := app.phoneRepo.Create(ctx, phone); err != nil {
		app.logger.ErrorContext(ctx, "Failed to store provisioned number", "error", err, "business_id", businessID, "provider_sid", meta.ProviderSID)
		return nil, err
	}

	app.logger.InfoContext(ctx, "Phone number provisioned", "business_id", businessID, "phone_number_id", phone.ID, "primary", phone.IsPrimary)
	return phone, nil
}

// ActivateNumber moves a pending or suspended number to active.
func (app *Application) ActivateNumber(ctx context.Context, businessID string, id string) (*domain.PhoneNumber, error) {
	phone, err := app.phoneRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(phone.Status, domain.StatusActive) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, phone.Status, domain.StatusActive)
	}

	phone.Status = domain.StatusActive
	if phone.ActivatedAt == nil {
		now := time.Now().UTC()
		phone.ActivatedAt = &now
	}
	if err := app.phoneRepo.Update(ctx, phone); err != nil {
		return nil, err
	}

	app.logger.InfoContext(ctx, "Phone number activated", "business_id", businessID, "phone_number_id", id)
	return phone, nil
}

// SuspendNumber temporarily disables an active number. The business's last
// active number cannot be suspended; suspending the primary promotes another
// active number.
func (app *Application) SuspendNumber(ctx context.Context, businessID string, id string) (*domain.PhoneNumber, error) {
	phone, err := app.phoneRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(phone.Status, domain.StatusSuspended) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, phone.Status, domain.StatusSuspended)
	}

	activeCount, err := app.phoneRepo.CountByStatus(ctx, businessID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	if activeCount <= 1 {
		return nil, domain.ErrLastActiveNumber
	}

	wasPrimary := phone.IsPrimary
	phone.Status = domain.StatusSuspended
	phone.IsPrimary = false
	if err := app.phoneRepo.Update(ctx, phone); err != nil {
		return nil, err
	}

	if wasPrimary {
		if err := app.promoteReplacementPrimary(ctx, businessID, id); err != nil {
			app.logger.ErrorContext(ctx, "Failed to promote replacement primary number", "error", err, "business_id", businessID)
		}
	}

	app.logger.InfoContext(ctx, "Phone number suspended", "business_id", businessID, "phone_number_id", id)
	return phone, nil
}

// ReleaseNumber gives the number back to the provider. Released is terminal.
// A business cannot release its only non-released number.
func (app *Application) ReleaseNumber(ctx context.Context, businessID string, id string) error {
	phone, err := app.phoneRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(phone.Status, domain.StatusReleased) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, phone.Status, domain.StatusReleased)
	}

	all, err := app.phoneRepo.ListByBusinessID(ctx, businessID)
	if err != nil {
		return err
	}
	held := 0
	for _, other := range all {
		if other.Status != domain.StatusReleased {
			held++
		}
	}
	if held <= 1 {
		return domain.ErrLastActiveNumber
	}

	if err := app.telco.ReleaseNumber(ctx, phone.Telco.ProviderSID); err != nil {
		app.logger.ErrorContext(ctx, "Failed to release number at provider", "error", err, "business_id", businessID, "provider_sid", phone.Telco.ProviderSID)
		return fmt.Errorf("failed to release phone number: %w", err)
	}

	wasPrimary := phone.IsPrimary
	phone.Status = domain.StatusReleased
	phone.IsPrimary = false
	if err := app.phoneRepo.Update(ctx, phone); err != nil {
		return err
	}

	if wasPrimary {
		if err := app.promoteReplacementPrimary(ctx, businessID, id); err != nil {
			app.logger.ErrorContext(ctx, "Failed to promote replacement primary number", "error", err, "business_id", businessID)
		}
	}

	app.logger.InfoContext(ctx, "Phone number released", "business_id", businessID, "phone_number_id", id)
	return nil
}

// SetPrimaryNumber makes one active number the business's primary. The previous
// primary is demoted in the same transaction.
func (app *Application) SetPrimaryNumber(ctx context.Context, businessID string, id string) (*domain.PhoneNumber, error) {
	phone, err := app.phoneRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return nil, err
	}
	if phone.Status != domain.StatusActive {
		return nil, domain.ErrNotActive
	}
	if phone.IsPrimary {
		return phone, nil
	}

	if err := app.phoneRepo.SetPrimary(ctx, id, businessID); err != nil {
		return nil, err
	}
	phone.IsPrimary = true

	app.logger.InfoContext(ctx, "Primary phone number changed", "business_id", businessID, "phone_number_id", id)
	return phone, nil
}

// AssignStaff replaces the staff assignment for a number.
func (app *Application) AssignStaff(ctx context.Context, businessID string, id string, staffIDs []string) error {
	for _, staffID := range staffIDs {
		if strings.TrimSpace(staffID) == "" {
			return fmt.Errorf("%w: staff ids must be non-empty", domain.ErrValidation)
		}
	}
	if staffIDs == nil {
		staffIDs = []string{}
	}
	return app.phoneRepo.UpdateAssignedStaff(ctx, id, businessID, staffIDs)
}

// UpdateSettings applies a partial settings update. Released numbers are
// immutable.
func (app *Application) UpdateSettings(ctx context.Context, businessID string, id string, patch domain.SettingsPatch) (*domain.PhoneNumber, error) {
	phone, err := app.phoneRepo.GetByID(ctx, id, businessID)
	if err != nil {
		return nil, err
	}
	if phone.Status == domain.StatusReleased {
		return nil, fmt.Errorf("%w: released numbers cannot be updated", domain.ErrValidation)
	}

	if err := patch.Apply(phone); err != nil {
		return nil, err
	}
	if err := app.phoneRepo.Update(ctx, phone); err != nil {
		return nil, err
	}
	return phone, nil
}

func (app *Application) promoteReplacementPrimary(ctx context.Context, businessID string, excludeID string) error {
	all, err := app.phoneRepo.ListByBusinessID(ctx, businessID)
	if err != nil {
		return err
	}
	for _, candidate := range all {
		if candidate.ID != excludeID && candidate.Status == domain.StatusActive {
			return app.phoneRepo.SetPrimary(ctx, candidate.ID, businessID)
		}
	}
	return nil
}
