package domain

import (
	"fmt"
	"regexp"
	"time"
)

// BusinessProfile is the tenant root: every other dashboard row hangs off
// its id. One profile per user account.
type BusinessProfile struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	BusinessName   string            `json:"business_name"`
	Industry       string            `json:"industry,omitempty"`
	PhoneNumber    string            `json:"phone_number,omitempty"`
	Email          string            `json:"email,omitempty"`
	Website        string            `json:"website,omitempty"`
	Address        string            `json:"address,omitempty"`
	City           string            `json:"city,omitempty"`
	State          string            `json:"state,omitempty"`
	ZipCode        string            `json:"zip_code,omitempty"`
	Country        string            `json:"country,omitempty"`
	Timezone       string            `json:"timezone"`
	Description    string            `json:"description,omitempty"`
	OnboardingStep int               `json:"onboarding_step"`
	Rules          ConversationRules `json:"conversation_rules"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewDefaultProfile builds the profile created on first login, mirroring the
// dashboard's implicit-profile behavior.
func NewDefaultProfile(userID, ownerName string) *BusinessProfile {
	name := "My Business"
	if ownerName != "" {
		name = ownerName + "'s Business"
	}
	return &BusinessProfile{
		UserID:       userID,
		BusinessName: name,
		Industry:     "general",
		Timezone:     "America/New_York",
		Rules:        DefaultConversationRules(),
	}
}

// ProfilePatch carries the fields of a partial profile update; nil fields
// are left untouched.
type ProfilePatch struct {
	BusinessName *string
	Industry     *string
	PhoneNumber  *string
	Email        *string
	Website      *string
	Address      *string
	City         *string
	State        *string
	ZipCode      *string
	Country      *string
	Timezone     *string
	Description  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.BusinessName == nil && p.Industry == nil && p.PhoneNumber == nil &&
		p.Email == nil && p.Website == nil && p.Address == nil && p.City == nil &&
		p.State == nil && p.ZipCode == nil && p.Country == nil &&
		p.Timezone == nil && p.Description == nil
}

// ConversationRules control how the voice receptionist behaves on a call.
// Stored as JSONB on the business profile row.
type ConversationRules struct {
	BookingEnabled        bool              `json:"bookingEnabled"`
	CollectCustomerInfo   bool              `json:"collectCustomerInfo"`
	SendConfirmationSMS   bool              `json:"sendConfirmationSMS"`
	BusinessHoursOnly     bool              `json:"businessHoursOnly"`
	AfterHoursMessage     string            `json:"afterHoursMessage"`
	BookingInstructions   string            `json:"bookingInstructions"`
	FAQResponses          map[string]string `json:"faqResponses"`
	CustomResponses       []string          `json:"customResponses"`
	AllowMultipleServices bool              `json:"allowMultipleServices"`
	AllowCancellations    bool              `json:"allowCancellations"`
	AllowRescheduling     bool              `json:"allowRescheduling"`
	NoShowBlockEnabled    bool              `json:"noShowBlockEnabled"`
	NoShowThreshold       int               `json:"noShowThreshold"`
}

// DefaultConversationRules returns the rules applied to a fresh business.
func DefaultConversationRules() ConversationRules {
	return ConversationRules{
		BookingEnabled:        true,
		CollectCustomerInfo:   true,
		SendConfirmationSMS:   true,
		BusinessHoursOnly:     true,
		AfterHoursMessage:     "We're currently closed. Please call back during business hours.",
		BookingInstructions:   "I can help you schedule an appointment. What service would you like to book?",
		FAQResponses:          map[string]string{},
		CustomResponses:       []string{},
		AllowMultipleServices: true,
		AllowCancellations:    true,
		AllowRescheduling:     true,
		NoShowBlockEnabled:    false,
		NoShowThreshold:       3,
	}
}

// Validate enforces the rules' own invariants.
func (r ConversationRules) Validate() error {
	if r.NoShowThreshold < 1 || r.NoShowThreshold > 10 {
		return fmt.Errorf("%w: no-show threshold must be between 1 and 10", ErrValidation)
	}
	return nil
}

// RulesPatch is a partial update of conversation rules; nil fields keep
// their stored value.
type RulesPatch struct {
	BookingEnabled        *bool
	CollectCustomerInfo   *bool
	SendConfirmationSMS   *bool
	BusinessHoursOnly     *bool
	AfterHoursMessage     *string
	BookingInstructions   *string
	FAQResponses          map[string]string
	CustomResponses       []string
	AllowMultipleServices *bool
	AllowCancellations    *bool
	AllowRescheduling     *bool
	NoShowBlockEnabled    *bool
	NoShowThreshold       *int
}

// Apply merges the patch into rules and returns the result.
func (p RulesPatch) Apply(rules ConversationRules) ConversationRules {
	if p.BookingEnabled != nil {
		rules.BookingEnabled = *p.BookingEnabled
	}
	if p.CollectCustomerInfo != nil {
		rules.CollectCustomerInfo = *p.CollectCustomerInfo
	}
	if p.SendConfirmationSMS != nil {
		rules.SendConfirmationSMS = *p.SendConfirmationSMS
	}
	if p.BusinessHoursOnly != nil {
		rules.BusinessHoursOnly = *p.BusinessHoursOnly
	}
	if p.AfterHoursMessage != nil {
		rules.AfterHoursMessage = *p.AfterHoursMessage
	}
	if p.BookingInstructions != nil {
		rules.BookingInstructions = *p.BookingInstructions
	}
	if p.FAQResponses != nil {
		rules.FAQResponses = p.FAQResponses
	}
	if p.CustomResponses != nil {
		rules.CustomResponses = p.CustomResponses
	}
	if p.AllowMultipleServices != nil {
		rules.AllowMultipleServices = *p.AllowMultipleServices
	}
	if p.AllowCancellations != nil {
		rules.AllowCancellations = *p.AllowCancellations
	}
	if p.AllowRescheduling != nil {
		rules.AllowRescheduling = *p.AllowRescheduling
	}
	if p.NoShowBlockEnabled != nil {
		rules.NoShowBlockEnabled = *p.NoShowBlockEnabled
	}
	if p.NoShowThreshold != nil {
		rules.NoShowThreshold = *p.NoShowThreshold
	}
	return rules
}

// VoiceSettings configure the synthesized voice for a business.
type VoiceSettings struct {
	BusinessID      string    `json:"business_id"`
	VoiceID         string    `json:"voiceId"`
	VoiceSpeed      float64   `json:"voiceSpeed"`
	VoicePitch      float64   `json:"voicePitch"`
	GreetingMessage string    `json:"greetingMessage"`
	VoiceGender     string    `json:"voiceGender"`
	Language        string    `json:"language"`
	TransferNumber  string    `json:"transferNumber,omitempty"`
	EnableTransfer  bool      `json:"enableTransfer"`
	MaxCallDuration int       `json:"maxCallDuration"` // seconds
	RecordCalls     bool      `json:"recordCalls"`
	TranscribeCalls bool      `json:"transcribeCalls"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultVoiceSettings returns the settings served before a business has
// saved its own row.
func DefaultVoiceSettings(businessID string) *VoiceSettings {
	return &VoiceSettings{
		BusinessID:      businessID,
		VoiceID:         "emma",
		VoiceSpeed:      1.0,
		VoicePitch:      1.0,
		GreetingMessage: "Thank you for calling. How can I help you today?",
		VoiceGender:     "female",
		Language:        "en-US",
		EnableTransfer:  false,
		MaxCallDuration: 300,
		RecordCalls:     true,
		TranscribeCalls: true,
	}
}

// Validate bounds the numeric fields.
func (s *VoiceSettings) Validate() error {
	if s.VoiceSpeed < 0.5 || s.VoiceSpeed > 2.0 {
		return fmt.Errorf("%w: voice speed must be between 0.5 and 2.0", ErrValidation)
	}
	if s.VoicePitch < 0.5 || s.VoicePitch > 2.0 {
		return fmt.Errorf("%w: voice pitch must be between 0.5 and 2.0", ErrValidation)
	}
	if s.MaxCallDuration < 30 || s.MaxCallDuration > 3600 {
		return fmt.Errorf("%w: max call duration must be between 30 and 3600 seconds", ErrValidation)
	}
	return nil
}

// VoiceSettingsPatch carries a partial voice settings update.
type VoiceSettingsPatch struct {
	VoiceID         *string
	VoiceSpeed      *float64
	VoicePitch      *float64
	GreetingMessage *string
	VoiceGender     *string
	Language        *string
	TransferNumber  *string
	EnableTransfer  *bool
	MaxCallDuration *int
	RecordCalls     *bool
	TranscribeCalls *bool
}

// Apply merges the patch into settings.
func (p VoiceSettingsPatch) Apply(s *VoiceSettings) {
	if p.VoiceID != nil {
		s.VoiceID = *p.VoiceID
	}
	if p.VoiceSpeed != nil {
		s.VoiceSpeed = *p.VoiceSpeed
	}
	if p.VoicePitch != nil {
		s.VoicePitch = *p.VoicePitch
	}
	if p.GreetingMessage != nil {
		s.GreetingMessage = *p.GreetingMessage
	}
	if p.VoiceGender != nil {
		s.VoiceGender = *p.VoiceGender
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.TransferNumber != nil {
		s.TransferNumber = *p.TransferNumber
	}
	if p.EnableTransfer != nil {
		s.EnableTransfer = *p.EnableTransfer
	}
	if p.MaxCallDuration != nil {
		s.MaxCallDuration = *p.MaxCallDuration
	}
	if p.RecordCalls != nil {
		s.RecordCalls = *p.RecordCalls
	}
	if p.TranscribeCalls != nil {
		s.TranscribeCalls = *p.TranscribeCalls
	}
}

// TimeSlot is an open interval within one day, "HH:MM" 24h format.
type TimeSlot struct {
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// DayHours is the schedule for one weekday. DayOfWeek 0 = Sunday.
type DayHours struct {
	DayOfWeek int        `json:"dayOfWeek"`
	IsClosed  bool       `json:"isClosed"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// DefaultWeek returns the schedule used before a business saves hours:
// closed Sunday, 09:00-17:00 the other six days.
func DefaultWeek() []DayHours {
	week := make([]DayHours, 7)
	for day := 0; day < 7; day++ {
		closed := day == 0
		dh := DayHours{DayOfWeek: day, IsClosed: closed, TimeSlots: []TimeSlot{}}
		if !closed {
			dh.TimeSlots = []TimeSlot{{OpenTime: "09:00", CloseTime: "17:00"}}
		}
		week[day] = dh
	}
	return week
}

// ValidateWeek checks a full-week replacement: all seven days exactly once,
// well-formed times, open strictly before close.
func ValidateWeek(week []DayHours) error {
	if len(week) != 7 {
		return fmt.Errorf("%w: must provide operating hours for all 7 days", ErrValidation)
	}
	seen := map[int]bool{}
	for _, dh := range week {
		if dh.DayOfWeek < 0 || dh.DayOfWeek > 6 {
			return fmt.Errorf("%w: day_of_week must be 0-6, got %d", ErrValidation, dh.DayOfWeek)
		}
		if seen[dh.DayOfWeek] {
			return fmt.Errorf("%w: duplicate day_of_week %d", ErrValidation, dh.DayOfWeek)
		}
		seen[dh.DayOfWeek] = true
		for _, slot := range dh.TimeSlots {
			if !timeRe.MatchString(slot.OpenTime) || !timeRe.MatchString(slot.CloseTime) {
				return fmt.Errorf("%w: time slots must use HH:MM format", ErrValidation)
			}
			if slot.OpenTime >= slot.CloseTime {
				return fmt.Errorf("%w: open time %s must be before close time %s", ErrValidation, slot.OpenTime, slot.CloseTime)
			}
		}
		if dh.IsClosed && len(dh.TimeSlots) > 0 {
			return fmt.Errorf("%w: closed day %d must not have time slots", ErrValidation, dh.DayOfWeek)
		}
	}
	return nil
}

// Holiday is a single closed date, "2006-01-02" format.
type Holiday struct {
	BusinessID string    `json:"business_id"`
	Date       string    `json:"date"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the date format.
func (h *Holiday) Validate() error {
	if _, err := time.Parse("2006-01-02", h.Date); err != nil {
		return fmt.Errorf("%w: holiday date must use YYYY-MM-DD format", ErrValidation)
	}
	return nil
}
