package domain

// SubjectSMSSend is published for the delivery worker when the dashboard
// queues an outbound message.
const SubjectSMSSend = "sms.send"

// SendRequestedEvent is the sms.send payload.
type SendRequestedEvent struct {
	MessageID      string `json:"message_id"`
	BusinessID     string `json:"business_id"`
	ConversationID string `json:"conversation_id"`
	PhoneNumber    string `json:"phone_number"`
	Body           string `json:"message"`
}
