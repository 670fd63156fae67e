package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFeedbackCreated     EventType = "feedback_created"
	EventFeedbackPending     EventType = "feedback_pending_approval"
	EventFeedbackApproved    EventType = "feedback_approved"
	EventFeedbackRejected    EventType = "feedback_rejected"
	EventFeedbackResubmitted EventType = "feedback_resubmitted"
	EventSettingsUpdated     EventType = "feedback_settings_updated"
)

// Actor is the user who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// FeedbackPayload describes a feedback at the time of the event.
type FeedbackPayload struct {
	SenderID    string                    `json:"sender_id"`
	RecipientID string                    `json:"recipient_id"`
	ManagerID   *string                   `json:"manager_id,omitempty"`
	Visibility  domain.FeedbackVisibility `json:"visibility"`
	Status      domain.FeedbackStatus     `json:"status"`
	Reason      string                    `json:"reason,omitempty"`
}

// SettingsUpdatedPayload describes a configuration write.
type SettingsUpdatedPayload struct {
	Scope     domain.ConfigScope `json:"scope"`
	ManagerID string             `json:"manager_id,omitempty"`
	UserID    string             `json:"user_id,omitempty"`
	Change    string             `json:"change"`
}
