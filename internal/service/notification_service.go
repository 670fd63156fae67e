package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/beckershow/colaborador-portal/internal/config"
	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/events"
)

// NotificationService turns feedback events into notifications. Delivery is
// stubbed: email and webhook sends are logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventFeedbackCreated, n.handleFeedbackCreated)
	n.dispatcher.Subscribe(events.EventFeedbackPending, n.handlePendingApproval)
	n.dispatcher.Subscribe(events.EventFeedbackResubmitted, n.handlePendingApproval)
	n.dispatcher.Subscribe(events.EventFeedbackApproved, n.handleReviewed)
	n.dispatcher.Subscribe(events.EventFeedbackRejected, n.handleReviewed)
	n.dispatcher.Subscribe(events.EventSettingsUpdated, n.handleSettingsUpdated)
}

// handleFeedbackCreated notifies the recipient of feedback that skipped review.
func (n *NotificationService) handleFeedbackCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackPayload)
	if !ok || payload.Status != domain.FeedbackStatusApproved {
		return nil
	}
	n.logger.Info("FeedbackDelivered", zap.String("feedback_id", event.SubjectID), zap.String("recipient_id", payload.RecipientID))
	n.sendEmailNotificationStub(ctx, event, payload.RecipientID)
	return nil
}

// handlePendingApproval notifies the manager that the review queue grew.
func (n *NotificationService) handlePendingApproval(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackPayload)
	if !ok || payload.ManagerID == nil {
		return nil
	}
	n.logger.Info("FeedbackAwaitingApproval", zap.String("feedback_id", event.SubjectID), zap.String("manager_id", *payload.ManagerID))
	n.sendEmailNotificationStub(ctx, event, *payload.ManagerID)
	return nil
}

// handleReviewed tells the author about the decision and, on approval, the recipient.
func (n *NotificationService) handleReviewed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.FeedbackPayload)
	if !ok {
		return nil
	}
	n.logger.Info("FeedbackReviewed",
		zap.String("feedback_id", event.SubjectID),
		zap.String("status", string(payload.Status)),
		zap.String("reason", payload.Reason))
	n.sendEmailNotificationStub(ctx, event, payload.SenderID)
	if event.Type == events.EventFeedbackApproved {
		n.sendEmailNotificationStub(ctx, event, payload.RecipientID)
	}
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSettingsUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackSettingsUpdated", zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, userID string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to_user_id", userID),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
