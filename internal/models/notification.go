// internal/models/notification.go
package models

// Notification is one outbound message sent on behalf of the workflow.
type Notification struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidateId"`
	Recipient   string `json:"recipient"`
	Type        string `json:"type"`    // "readiness_link", "counterpart_interview", "onboarding_form"
	Channel     string `json:"channel"` // "email", "sms", "whatsapp"
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
	Status      string `json:"status"` // "sent", "failed", "disabled"
	MessageID   string `json:"messageId,omitempty"`
}

// Notification types.
const (
	NotificationReadinessLink        = "readiness_link"
	NotificationCounterpartInterview = "counterpart_interview"
	NotificationOnboardingForm       = "onboarding_form"
)
