package domain

import "time"

// FeedbackStatus enumerates moderation states.
type FeedbackStatus string

const (
	FeedbackStatusPending  FeedbackStatus = "pending"
	FeedbackStatusApproved FeedbackStatus = "approved"
	FeedbackStatusRejected FeedbackStatus = "rejected"
)

// FeedbackVisibility controls where an approved feedback is shown.
type FeedbackVisibility string

const (
	// VisibilityPrivate delivers to the recipient's inbox only.
	VisibilityPrivate FeedbackVisibility = "private"
	// VisibilityPublic also publishes to the social feed.
	VisibilityPublic FeedbackVisibility = "public"
)

// Valid reports whether v is a known visibility.
func (v FeedbackVisibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Feedback is a message from one user to another, optionally shared on the feed.
type Feedback struct {
	ID              string
	SenderID        string
	RecipientID     string
	ManagerID       *string
	Content         string
	Visibility      FeedbackVisibility
	Status          FeedbackStatus
	RejectionReason *string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SendCounters are the sender's feedbacks in the current day and week.
type SendCounters struct {
	SentToday    int
	SentThisWeek int
}
