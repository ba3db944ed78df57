package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/replytics/dashboard-api/internal/business_service/domain"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
)

// Application provides business profile, voice settings, conversation rule
// and operating hour operations, all scoped to a single business.
type Application struct {
	profileRepo domain.BusinessProfileRepository
	voiceRepo   domain.VoiceSettingsRepository
	hoursRepo   domain.HoursRepository
	natsClient  messagebroker.NATSClient
	logger      *slog.Logger
}

func NewApplication(
	profileRepo domain.BusinessProfileRepository,
	voiceRepo domain.VoiceSettingsRepository,
	hoursRepo domain.HoursRepository,
	natsClient messagebroker.NATSClient,
	logger *slog.Logger,
) *Application {
	return &Application{
		profileRepo: profileRepo,
		voiceRepo:   voiceRepo,
		hoursRepo:   hoursRepo,
		natsClient:  natsClient,
		logger:      logger,
	}
}

// EnsureProfile returns the business id for a user, creating the default
// profile on first touch. Implements identity's BusinessDirectory.
func (a *Application) EnsureProfile(ctx context.Context, userID string, ownerName string) (string, error) {
	profile, err := a.profileRepo.GetByUserID(ctx, userID)
	if err == nil {
		return profile.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	profile = domain.NewDefaultProfile(userID, ownerName)
	if err := a.profileRepo.Create(ctx, profile); err != nil {
		// A concurrent first request may have created it already.
		if errors.Is(err, domain.ErrDuplicateEntry) {
			existing, getErr := a.profileRepo.GetByUserID(ctx, userID)
			if getErr == nil {
				return existing.ID, nil
			}
		}
		a.logger.ErrorContext(ctx, "Failed to create default business profile", "error", err, "user_id", userID)
		return "", err
	}
	a.logger.InfoContext(ctx, "Created default business profile", "business_id", profile.ID, "user_id", userID)
	return profile.ID, nil
}

// GetProfile returns the profile for a business id.
func (a *Application) GetProfile(ctx context.Context, businessID string) (*domain.BusinessProfile, error) {
	return a.profileRepo.GetByID(ctx, businessID)
}

// UpdateProfile applies a partial update. An empty patch returns the stored
// profile unchanged.
func (a *Application) UpdateProfile(ctx context.Context, businessID string, patch domain.ProfilePatch) (*domain.BusinessProfile, error) {
	if patch.IsEmpty() {
		return a.profileRepo.GetByID(ctx, businessID)
	}
	profile, err := a.profileRepo.UpdateProfile(ctx, businessID, patch)
	if err != nil {
		return nil, err
	}
	a.publishConfigUpdated(ctx, businessID, "profile")
	return profile, nil
}

// GetVoiceSettings returns stored settings, or the defaults when the
// business has never saved any.
func (a *Application) GetVoiceSettings(ctx context.Context, businessID string) (*domain.VoiceSettings, error) {
	settings, err := a.voiceRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultVoiceSettings(businessID), nil
		}
		return nil, err
	}
	return settings, nil
}

// UpdateVoiceSettings merges a patch over the current (or default) settings,
// validates, and upserts.
func (a *Application) UpdateVoiceSettings(ctx context.Context, businessID string, patch domain.VoiceSettingsPatch) (*domain.VoiceSettings, error) {
	settings, err := a.GetVoiceSettings(ctx, businessID)
	if err != nil {
		return nil, err
	}
	patch.Apply(settings)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := a.voiceRepo.Upsert(ctx, settings); err != nil {
		a.logger.ErrorContext(ctx, "Failed to upsert voice settings", "error", err, "business_id", businessID)
		return nil, err
	}
	a.publishConfigUpdated(ctx, businessID, "voice_settings")
	return settings, nil
}

// GetConversationRules returns the rules stored on the profile.
func (a *Application) GetConversationRules(ctx context.Context, businessID string) (domain.ConversationRules, error) {
	profile, err := a.profileRepo.GetByID(ctx, businessID)
	if err != nil {
		return domain.ConversationRules{}, err
	}
	return profile.Rules, nil
}

// UpdateConversationRules merges a patch into the stored rules.
func (a *Application) UpdateConversationRules(ctx context.Context, businessID string, patch domain.RulesPatch) (domain.ConversationRules, error) {
	profile, err := a.profileRepo.GetByID(ctx, businessID)
	if err != nil {
		return domain.ConversationRules{}, err
	}
	merged := patch.Apply(profile.Rules)
	if err := merged.Validate(); err != nil {
		return domain.ConversationRules{}, err
	}
	if err := a.profileRepo.UpdateConversationRules(ctx, businessID, merged); err != nil {
		a.logger.ErrorContext(ctx, "Failed to update conversation rules", "error", err, "business_id", businessID)
		return domain.ConversationRules{}, err
	}
	a.publishConfigUpdated(ctx, businessID, "conversation_rules")
	return merged, nil
}

// GetHours returns the stored week, or the default schedule when none
// exists yet.
func (a *Application) GetHours(ctx context.Context, businessID string) ([]domain.DayHours, error) {
	week, err := a.hoursRepo.GetWeek(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if len(week) == 0 {
		return domain.DefaultWeek(), nil
	}
	return week, nil
}

// UpdateHours replaces the full week after validation.
func (a *Application) UpdateHours(ctx context.Context, businessID string, week []domain.DayHours) error {
	if err := domain.ValidateWeek(week); err != nil {
		return err
	}
	if err := a.hoursRepo.ReplaceWeek(ctx, businessID, week); err != nil {
		a.logger.ErrorContext(ctx, "Failed to replace operating hours", "error", err, "business_id", businessID)
		return err
	}
	a.publishConfigUpdated(ctx, businessID, "hours")
	return nil
}

// ListHolidays returns the business's holiday dates.
func (a *Application) ListHolidays(ctx context.Context, businessID string) ([]domain.Holiday, error) {
	return a.hoursRepo.ListHolidays(ctx, businessID)
}

// AddHoliday registers a closed date.
func (a *Application) AddHoliday(ctx context.Context, holiday *domain.Holiday) error {
	if err := holiday.Validate(); err != nil {
		return err
	}
	if err := a.hoursRepo.AddHoliday(ctx, holiday); err != nil {
		return err
	}
	a.publishConfigUpdated(ctx, holiday.BusinessID, "hours")
	return nil
}

// RemoveHoliday deletes a closed date.
func (a *Application) RemoveHoliday(ctx context.Context, businessID string, date string) error {
	if err := a.hoursRepo.RemoveHoliday(ctx, businessID, date); err != nil {
		return err
	}
	a.publishConfigUpdated(ctx, businessID, "hours")
	return nil
}

// Snapshot assembles the full voice-bot-facing configuration for a
// business, used by config_sync pushes.
func (a *Application) Snapshot(ctx context.Context, businessID string) (*domain.ConfigSnapshot, error) {
	profile, err := a.profileRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	voice, err := a.GetVoiceSettings(ctx, businessID)
	if err != nil {
		return nil, err
	}
	hours, err := a.GetHours(ctx, businessID)
	if err != nil {
		return nil, err
	}
	holidays, err := a.hoursRepo.ListHolidays(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &domain.ConfigSnapshot{
		BusinessID: businessID,
		Profile:    profile,
		Voice:      voice,
		Rules:      profile.Rules,
		Hours:      hours,
		Holidays:   holidays,
		Timezone:   profile.Timezone,
	}, nil
}

func (a *Application) publishConfigUpdated(ctx context.Context, businessID string, section string) {
	if a.natsClient == nil {
		return
	}
	payload, err := json.Marshal(domain.ConfigUpdatedEvent{BusinessID: businessID, Section: section})
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to marshal config updated event", "error", err, "business_id", businessID)
		return
	}
	if err := a.natsClient.Publish(ctx, domain.SubjectConfigUpdated, payload); err != nil {
		// The push is best effort; the sync worker reconciles on its own schedule.
		a.logger.ErrorContext(ctx, "Failed to publish config updated event", "error", err, "business_id", businessID, "section", section)
	}
}
