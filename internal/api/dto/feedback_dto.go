package dto

import (
	"time"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/rules"
	"github.com/beckershow/colaborador-portal/internal/service"
)

// SendFeedbackRequest payload for POST /feedback.
type SendFeedbackRequest struct {
	RecipientID string                    `json:"recipient_id" validate:"required,uuid"`
	Content     string                    `json:"content" validate:"required"`
	Visibility  domain.FeedbackVisibility `json:"visibility" validate:"omitempty,oneof=private public"`
}

// ToInput converts a validated request.
func (r SendFeedbackRequest) ToInput() service.SendFeedbackInput {
	return service.SendFeedbackInput{RecipientID: r.RecipientID, Content: r.Content, Visibility: r.Visibility}
}

// EditFeedbackRequest payload for PUT /feedback/:id.
type EditFeedbackRequest struct {
	Content    string                     `json:"content" validate:"required"`
	Visibility *domain.FeedbackVisibility `json:"visibility" validate:"omitempty,oneof=private public"`
}

// ToInput converts a validated request.
func (r EditFeedbackRequest) ToInput() service.EditFeedbackInput {
	return service.EditFeedbackInput{Content: r.Content, Visibility: r.Visibility}
}

// RejectFeedbackRequest payload for POST /feedback/:id/reject.
type RejectFeedbackRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// FeedbackResponse is the public view of a feedback.
type FeedbackResponse struct {
	ID              string                    `json:"id"`
	SenderID        string                    `json:"sender_id"`
	RecipientID     string                    `json:"recipient_id"`
	ManagerID       *string                   `json:"manager_id"`
	Content         string                    `json:"content"`
	Visibility      domain.FeedbackVisibility `json:"visibility"`
	Status          domain.FeedbackStatus     `json:"status"`
	RejectionReason *string                   `json:"rejection_reason"`
	ReviewedBy      *string                   `json:"reviewed_by"`
	ReviewedAt      *time.Time                `json:"reviewed_at"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// NewFeedbackResponse maps a domain feedback.
func NewFeedbackResponse(fb *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:              fb.ID,
		SenderID:        fb.SenderID,
		RecipientID:     fb.RecipientID,
		ManagerID:       fb.ManagerID,
		Content:         fb.Content,
		Visibility:      fb.Visibility,
		Status:          fb.Status,
		RejectionReason: fb.RejectionReason,
		ReviewedBy:      fb.ReviewedBy,
		ReviewedAt:      fb.ReviewedAt,
		CreatedAt:       fb.CreatedAt,
		UpdatedAt:       fb.UpdatedAt,
	}
}

// NewFeedbackListResponse maps a list, never returning null.
func NewFeedbackListResponse(items []domain.Feedback) []FeedbackResponse {
	out := make([]FeedbackResponse, 0, len(items))
	for i := range items {
		out = append(out, NewFeedbackResponse(&items[i]))
	}
	return out
}

// LimitStatusResponse is the "my limits" view. Remaining values are -1 when unlimited.
type LimitStatusResponse struct {
	Limits            rules.EffectiveLimits `json:"limits"`
	SentToday         int                   `json:"sent_today"`
	SentThisWeek      int                   `json:"sent_this_week"`
	RemainingToday    int                   `json:"remaining_today"`
	RemainingThisWeek int                   `json:"remaining_this_week"`
	CanSend           bool                  `json:"can_send"`
	BlockedBy         rules.BlockReason     `json:"blocked_by,omitempty"`
	ResetHint         string                `json:"reset_hint,omitempty"`
	DayResetsAt       time.Time             `json:"day_resets_at"`
	WeekResetsAt      time.Time             `json:"week_resets_at"`
}

// NewLimitStatusResponse maps the service view.
func NewLimitStatusResponse(s service.LimitStatus) LimitStatusResponse {
	return LimitStatusResponse{
		Limits:            s.Limits,
		SentToday:         s.SentToday,
		SentThisWeek:      s.SentThisWeek,
		RemainingToday:    s.RemainingToday,
		RemainingThisWeek: s.RemainingThisWeek,
		CanSend:           s.Decision.Allowed,
		BlockedBy:         s.Decision.Reason,
		ResetHint:         rules.ResetHint(s.Decision.Reason),
		DayResetsAt:       s.DayResetsAt,
		WeekResetsAt:      s.WeekResetsAt,
	}
}
