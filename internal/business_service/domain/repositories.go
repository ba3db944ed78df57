package domain

import (
	"context"
)

// BusinessProfileRepository manages the tenant root rows.
type BusinessProfileRepository interface {
	Create(ctx context.Context, profile *BusinessProfile) error
	GetByID(ctx context.Context, id string) (*BusinessProfile, error)
	GetByUserID(ctx context.Context, userID string) (*BusinessProfile, error)
	UpdateProfile(ctx context.Context, businessID string, patch ProfilePatch) (*BusinessProfile, error)
	UpdateConversationRules(ctx context.Context, businessID string, rules ConversationRules) error
}

// VoiceSettingsRepository manages per-business voice configuration rows.
type VoiceSettingsRepository interface {
	GetByBusinessID(ctx context.Context, businessID string) (*VoiceSettings, error)
	Upsert(ctx context.Context, settings *VoiceSettings) error
}

// HoursRepository manages operating hours and holidays.
type HoursRepository interface {
	GetWeek(ctx context.Context, businessID string) ([]DayHours, error)
	ReplaceWeek(ctx context.Context, businessID string, week []DayHours) error
	ListHolidays(ctx context.Context, businessID string) ([]Holiday, error)
	AddHoliday(ctx context.Context, holiday *Holiday) error
	RemoveHoliday(ctx context.Context, businessID string, date string) error
}
