package domain

// ConfigUpdatedEvent is published on NATS subject "business.config.updated"
// whenever voice-relevant configuration changes. The config_sync service
// consumes it and pushes the fresh snapshot to the voice bot.
type ConfigUpdatedEvent struct {
	BusinessID string `json:"business_id"`
	Section    string `json:"section"` // profile | voice_settings | conversation_rules | hours
}

// Subject constants for business events.
const (
	SubjectConfigUpdated = "business.config.updated"
)

// ConfigSnapshot is the full voice-bot-facing configuration for one
// business, assembled for a push.
type ConfigSnapshot struct {
	BusinessID string            `json:"business_id"`
	Profile    *BusinessProfile  `json:"profile"`
	Voice      *VoiceSettings    `json:"voice_settings"`
	Rules      ConversationRules `json:"conversation_rules"`
	Hours      []DayHours        `json:"operating_hours"`
	Holidays   []Holiday         `json:"holidays"`
	Timezone   string            `json:"timezone"`
}
