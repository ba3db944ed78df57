package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPhoneNumberNotFound indicates the number does not exist for this business.
	ErrPhoneNumberNotFound = errors.New("phone number not found")
	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid phone number status transition")
	// ErrLastActiveNumber guards suspending or releasing a business's only usable number.
	ErrLastActiveNumber = errors.New("cannot disable the only active phone number")
	// ErrNotActive indicates an operation that requires an active number.
	ErrNotActive = errors.New("phone number is not active")
	// ErrValidation indicates invalid input for a phone number operation.
	ErrValidation = errors.New("validation failed")
)

// Phone number statuses. Lifecycle: pending -> active -> suspended -> released,
// with suspended -> active allowed and released terminal.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusReleased  = "released"
)

// Telco capabilities.
const (
	CapabilityVoice = "voice"
	CapabilitySMS   = "sms"
	CapabilityMMS   = "mms"
	CapabilityFax   = "fax"
)

var validCapabilities = map[string]struct{}{
	CapabilityVoice: {},
	CapabilitySMS:   {},
	CapabilityMMS:   {},
	CapabilityFax:   {},
}

var allowedTransitions = map[string][]string{
	StatusPending:   {StatusActive, StatusReleased},
	StatusActive:    {StatusSuspended, StatusReleased},
	StatusSuspended: {StatusActive, StatusReleased},
	StatusReleased:  {},
}

// CanTransition reports whether the lifecycle allows moving from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TelcoMetadata carries the provider-side identifiers and routing URLs for a
// provisioned number.
type TelcoMetadata struct {
	ProviderSID      string   `json:"provider_sid"`
	AccountSID       string   `json:"account_sid"`
	Capabilities     []string `json:"capabilities"`
	VoiceWebhookURL  string   `json:"voice_webhook_url,omitempty"`
	SMSWebhookURL    string   `json:"sms_webhook_url,omitempty"`
	VoiceFallbackURL string   `json:"voice_fallback_url,omitempty"`
}

// Address is the physical location tied to a number.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// PhoneNumber is one telco number owned by a business.
type PhoneNumber struct {
	ID               string        `json:"id"`
	BusinessID       string        `json:"business_id"`
	PhoneNumber      string        `json:"phone_number"` // E.164
	Telco            TelcoMetadata `json:"telco"`
	DisplayName      string        `json:"display_name"`
	Description      string        `json:"description,omitempty"`
	Address          *Address      `json:"address,omitempty"`
	Timezone         string        `json:"timezone"`
	Status           string        `json:"status"`
	IsPrimary        bool          `json:"is_primary"`
	AssignedStaffIDs []string      `json:"assigned_staff_ids"`
	SMSEnabled       bool          `json:"sms_enabled"`
	SMSReminderHours int           `json:"sms_reminder_hours"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	ActivatedAt      *time.Time    `json:"activated_at,omitempty"`
}

// ProvisionRequest asks the provider for a new number matching the criteria.
type ProvisionRequest struct {
	AreaCode     string   `json:"area_code,omitempty"`
	Contains     string   `json:"contains,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	DisplayName  string   `json:"display_name"`
	Timezone     string   `json:"timezone,omitempty"`
}

// Validate checks the provisioning criteria and fills defaults.
func (r *ProvisionRequest) Validate() error {
	if r.DisplayName == "" {
		r.DisplayName = "Main Location"
	}
	if len(r.DisplayName) > 200 {
		return fmt.Errorf("%w: display name must be at most 200 characters", ErrValidation)
	}
	if r.AreaCode != "" && len(r.AreaCode) != 3 {
		return fmt.Errorf("%w: area code must be 3 digits", ErrValidation)
	}
	if r.Timezone == "" {
		r.Timezone = "America/New_York"
	}
	if len(r.Capabilities) == 0 {
		r.Capabilities = []string{CapabilityVoice, CapabilitySMS}
	}
	for _, capability := range r.Capabilities {
		if _, ok := validCapabilities[capability]; !ok {
			return fmt.Errorf("%w: unknown capability %q", ErrValidation, capability)
		}
	}
	return nil
}

// SettingsPatch is a partial update of a number's configurable fields. Nil
// fields are left unchanged.
type SettingsPatch struct {
	DisplayName      *string  `json:"display_name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Address          *Address `json:"address,omitempty"`
	Timezone         *string  `json:"timezone,omitempty"`
	SMSEnabled       *bool    `json:"sms_enabled,omitempty"`
	SMSReminderHours *int     `json:"sms_reminder_hours,omitempty"`
}

// Apply copies the non-nil patch fields onto the number.
func (p *SettingsPatch) Apply(phone *PhoneNumber) error {
	if p.DisplayName != nil {
		if *p.DisplayName == "" || len(*p.DisplayName) > 200 {
			return fmt.Errorf("%w: display name must be 1-200 characters", ErrValidation)
		}
		phone.DisplayName = *p.DisplayName
	}
	if p.Description != nil {
		phone.Description = *p.Description
	}
	if p.Address != nil {
		phone.Address = p.Address
	}
	if p.Timezone != nil {
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrValidation, *p.Timezone)
		}
		phone.Timezone = *p.Timezone
	}
	if p.SMSEnabled != nil {
		phone.SMSEnabled = *p.SMSEnabled
	}
	if p.SMSReminderHours != nil {
		if *p.SMSReminderHours < 1 || *p.SMSReminderHours > 168 {
			return fmt.Errorf("%w: sms reminder hours must be between 1 and 168", ErrValidation)
		}
		phone.SMSReminderHours = *p.SMSReminderHours
	}
	return nil
}
