package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/events"
	"github.com/beckershow/colaborador-portal/internal/observability"
	"github.com/beckershow/colaborador-portal/internal/repository"
	"github.com/beckershow/colaborador-portal/internal/rules"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

// MaxContentLength bounds the feedback text.
const MaxContentLength = 2000

// SendReserver arbitrates concurrent sends by the same user.
type SendReserver interface {
	Reserve(ctx context.Context, userID string, windows rules.SendWindows, limits rules.EffectiveLimits, seed domain.SendCounters) (rules.SendDecision, error)
	Release(ctx context.Context, userID string, windows rules.SendWindows, includeDay bool) error
}

// FeedbackService runs the send, edit and moderation workflows.
type FeedbackService struct {
	feedbacks  repository.FeedbackRepository
	users      repository.UserRepository
	settings   repository.SettingsRepository
	teams      repository.TeamConfigRepository
	overrides  repository.UserOverrideRepository
	counter    SendReserver
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	location   *time.Location
	now        func() time.Time
}

// FeedbackDependencies bundles collaborators for the feedback service.
type FeedbackDependencies struct {
	FeedbackRepo repository.FeedbackRepository
	UserRepo     repository.UserRepository
	SettingsRepo repository.SettingsRepository
	TeamRepo     repository.TeamConfigRepository
	OverrideRepo repository.UserOverrideRepository
	// Counter may be nil; the persisted counts still apply.
	Counter    SendReserver
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// Location is used for users without a time zone.
	Location *time.Location
	Now      func() time.Time
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &FeedbackService{
		feedbacks:  deps.FeedbackRepo,
		users:      deps.UserRepo,
		settings:   deps.SettingsRepo,
		teams:      deps.TeamRepo,
		overrides:  deps.OverrideRepo,
		counter:    deps.Counter,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		location:   loc,
		now:        now,
	}
}

// SendFeedbackInput describes a new feedback.
type SendFeedbackInput struct {
	RecipientID string
	Content     string
	Visibility  domain.FeedbackVisibility
}

// EditFeedbackInput describes an author edit. A nil Visibility keeps the current one.
type EditFeedbackInput struct {
	Content    string
	Visibility *domain.FeedbackVisibility
}

// LimitStatus is the "my limits" view for a user.
type LimitStatus struct {
	Limits            rules.EffectiveLimits
	SentToday         int
	SentThisWeek      int
	RemainingToday    int
	RemainingThisWeek int
	Decision          rules.SendDecision
	DayResetsAt       time.Time
	WeekResetsAt      time.Time
}

// Send creates a feedback after checking limits, team behavior and the approval gate.
func (s *FeedbackService) Send(ctx context.Context, sender *domain.User, input SendFeedbackInput) (*domain.Feedback, error) {
	if sender == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, apperrors.NewValidationError("invalid visibility", map[string]any{"field": "visibility", "value": string(visibility)})
	}
	if input.RecipientID == sender.ID {
		return nil, apperrors.NewValidationError("cannot send feedback to yourself", map[string]any{"field": "recipient_id"})
	}

	recipient, err := s.users.GetByID(ctx, input.RecipientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("recipient", map[string]any{"recipient_id": input.RecipientID})
		}
		return nil, err
	}

	managerID, hasTeam := sender.TeamManagerID()
	limits, team, err := s.resolveLimits(ctx, sender)
	if err != nil {
		return nil, err
	}

	behavior := domain.DefaultTeamBehavior()
	if team != nil {
		behavior = team.Behavior
	}
	if !behavior.AllowAnyRecipient && !sameTeam(recipient, managerID, hasTeam) {
		return nil, apperrors.NewForbidden("your team only allows feedback to team members")
	}
	if visibility == domain.VisibilityPublic && !behavior.AllowPublicSharing {
		return nil, apperrors.NewForbidden("your team does not allow public feedback")
	}

	windows := rules.Windows(s.now(), s.locationFor(sender))
	counts, err := s.feedbacks.CountSentSince(ctx, sender.ID, windows.DayStart, windows.WeekStart)
	if err != nil {
		return nil, err
	}
	if decision := rules.CanSend(limits, counts.SentToday, counts.SentThisWeek); !decision.Allowed {
		return nil, s.limitExceeded(sender, limits, decision.Reason)
	}

	reserved := false
	if s.counter != nil && limits.Enabled {
		decision, err := s.counter.Reserve(ctx, sender.ID, windows, limits, counts)
		switch {
		case err != nil:
			s.metrics.RecordCounterDegraded()
			s.logger.Warn("send counter unavailable, using stored counts only",
				zap.String("sender_id", sender.ID),
				zap.Error(err),
			)
		case !decision.Allowed:
			return nil, s.limitExceeded(sender, limits, decision.Reason)
		default:
			reserved = true
		}
	}

	fb := &domain.Feedback{
		ID:          uuid.NewString(),
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
		Visibility:  visibility,
		Status:      rules.DecideInitialStatus(team),
	}
	if hasTeam {
		fb.ManagerID = &managerID
	}

	if err := s.feedbacks.Create(ctx, fb); err != nil {
		if reserved {
			if relErr := s.counter.Release(ctx, sender.ID, windows, true); relErr != nil {
				s.logger.Warn("release send slot failed", zap.String("sender_id", sender.ID), zap.Error(relErr))
			}
		}
		return nil, err
	}

	s.metrics.RecordFeedbackSent(string(fb.Status))
	s.logger.Info("feedback sent",
		zap.String("feedback_id", fb.ID),
		zap.String("sender_id", fb.SenderID),
		zap.String("recipient_id", fb.RecipientID),
		zap.String("status", string(fb.Status)),
		zap.String("limit_source", string(limits.Source)),
	)
	s.publishEvent(ctx, events.EventFeedbackCreated, fb, sender, "")
	if fb.Status == domain.FeedbackStatusPending {
		s.publishEvent(ctx, events.EventFeedbackPending, fb, sender, "")
	}
	return fb, nil
}

// Edit changes the content of the author's feedback and re-runs the approval gate.
func (s *FeedbackService) Edit(ctx context.Context, author *domain.User, id string, input EditFeedbackInput) (*domain.Feedback, error) {
	fb, err := s.getFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	if author == nil || fb.SenderID != author.ID {
		return nil, apperrors.NewForbidden("only the author can edit this feedback")
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}

	team, err := s.teamOf(ctx, fb.ManagerID)
	if err != nil {
		return nil, err
	}
	if input.Visibility != nil {
		if !input.Visibility.Valid() {
			return nil, apperrors.NewValidationError("invalid visibility", map[string]any{"field": "visibility", "value": string(*input.Visibility)})
		}
		if *input.Visibility == domain.VisibilityPublic && team != nil && !team.Behavior.AllowPublicSharing {
			return nil, apperrors.NewForbidden("your team does not allow public feedback")
		}
		fb.Visibility = *input.Visibility
	}

	previous := fb.Status
	fb.Content = content
	fb.Status = rules.StatusAfterEdit(previous, team)
	fb.RejectionReason = nil
	if fb.Status != previous {
		fb.ReviewedBy = nil
		fb.ReviewedAt = nil
	}

	if err := s.feedbacks.Update(ctx, fb); err != nil {
		return nil, err
	}

	s.logger.Info("feedback edited",
		zap.String("feedback_id", fb.ID),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(fb.Status)),
	)
	if previous == domain.FeedbackStatusRejected {
		s.publishEvent(ctx, events.EventFeedbackResubmitted, fb, author, "")
	}
	if fb.Status == domain.FeedbackStatusPending && previous != domain.FeedbackStatusPending {
		s.publishEvent(ctx, events.EventFeedbackPending, fb, author, "")
	}
	return fb, nil
}

// Approve publishes a pending feedback.
func (s *FeedbackService) Approve(ctx context.Context, reviewer *domain.User, id string) (*domain.Feedback, error) {
	return s.decide(ctx, reviewer, id, domain.FeedbackStatusApproved, "")
}

// Reject returns a pending feedback to its author with an optional reason.
func (s *FeedbackService) Reject(ctx context.Context, reviewer *domain.User, id, reason string) (*domain.Feedback, error) {
	return s.decide(ctx, reviewer, id, domain.FeedbackStatusRejected, strings.TrimSpace(reason))
}

func (s *FeedbackService) decide(ctx context.Context, reviewer *domain.User, id string, status domain.FeedbackStatus, reason string) (*domain.Feedback, error) {
	fb, err := s.getFeedback(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModerate(reviewer, fb) {
		return nil, apperrors.NewForbidden("only the author's manager can review this feedback")
	}
	if !rules.CanDecide(fb.Status) {
		return nil, apperrors.NewConflict("feedback was already reviewed", map[string]any{"status": string(fb.Status)})
	}

	reviewedAt := s.now().UTC()
	fb.Status = status
	fb.ReviewedBy = &reviewer.ID
	fb.ReviewedAt = &reviewedAt
	fb.RejectionReason = nil
	if status == domain.FeedbackStatusRejected && reason != "" {
		fb.RejectionReason = &reason
	}

	if err := s.feedbacks.Update(ctx, fb); err != nil {
		return nil, err
	}

	s.metrics.RecordModeration(string(status))
	s.logger.Info("feedback reviewed",
		zap.String("feedback_id", fb.ID),
		zap.String("reviewer_id", reviewer.ID),
		zap.String("status", string(status)),
	)
	eventType := events.EventFeedbackApproved
	if status == domain.FeedbackStatusRejected {
		eventType = events.EventFeedbackRejected
	}
	s.publishEvent(ctx, eventType, fb, reviewer, reason)
	return fb, nil
}

// Delete removes the author's feedback. A send deleted within the current
// window frees its slot.
func (s *FeedbackService) Delete(ctx context.Context, author *domain.User, id string) error {
	fb, err := s.getFeedback(ctx, id)
	if err != nil {
		return err
	}
	if author == nil || (fb.SenderID != author.ID && author.Role != domain.RoleSuperAdmin) {
		return apperrors.NewForbidden("only the author can delete this feedback")
	}
	if err := s.feedbacks.Delete(ctx, fb.ID); err != nil {
		return err
	}

	s.logger.Info("feedback deleted", zap.String("feedback_id", fb.ID), zap.String("actor_id", author.ID))

	if s.counter == nil {
		return nil
	}
	sender := author
	if fb.SenderID != author.ID {
		if sender, err = s.users.GetByID(ctx, fb.SenderID); err != nil {
			s.logger.Warn("load sender for slot release failed", zap.String("sender_id", fb.SenderID), zap.Error(err))
			return nil
		}
	}
	windows := rules.Windows(s.now(), s.locationFor(sender))
	if fb.CreatedAt.Before(windows.WeekStart) {
		return nil
	}
	includeDay := !fb.CreatedAt.Before(windows.DayStart)
	if err := s.counter.Release(ctx, fb.SenderID, windows, includeDay); err != nil {
		s.logger.Warn("release send slot failed", zap.String("sender_id", fb.SenderID), zap.Error(err))
	}
	return nil
}

// ListPending returns the review queue: the gestor's team, or every team for a super-admin.
func (s *FeedbackService) ListPending(ctx context.Context, reviewer *domain.User) ([]domain.Feedback, error) {
	if reviewer == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	switch reviewer.Role {
	case domain.RoleSuperAdmin:
		return s.feedbacks.ListAllPending(ctx)
	case domain.RoleGestor:
		return s.feedbacks.ListPendingByManager(ctx, reviewer.ID)
	default:
		return nil, apperrors.NewForbidden("only managers can review feedback")
	}
}

// ListSent returns everything the user sent, in any status.
func (s *FeedbackService) ListSent(ctx context.Context, user *domain.User) ([]domain.Feedback, error) {
	return s.feedbacks.ListBySender(ctx, user.ID)
}

// ListReceived returns the approved feedbacks addressed to the user.
func (s *FeedbackService) ListReceived(ctx context.Context, user *domain.User) ([]domain.Feedback, error) {
	return s.feedbacks.ListByRecipient(ctx, user.ID)
}

// LimitStatus reports the user's effective limits and current usage.
func (s *FeedbackService) LimitStatus(ctx context.Context, user *domain.User) (LimitStatus, error) {
	limits, _, err := s.resolveLimits(ctx, user)
	if err != nil {
		return LimitStatus{}, err
	}
	windows := rules.Windows(s.now(), s.locationFor(user))
	counts, err := s.feedbacks.CountSentSince(ctx, user.ID, windows.DayStart, windows.WeekStart)
	if err != nil {
		return LimitStatus{}, err
	}
	day, week := rules.Remaining(limits, counts.SentToday, counts.SentThisWeek)
	return LimitStatus{
		Limits:            limits,
		SentToday:         counts.SentToday,
		SentThisWeek:      counts.SentThisWeek,
		RemainingToday:    day,
		RemainingThisWeek: week,
		Decision:          rules.CanSend(limits, counts.SentToday, counts.SentThisWeek),
		DayResetsAt:       windows.DayEnd,
		WeekResetsAt:      windows.WeekEnd,
	}, nil
}

// resolveLimits loads the three tiers for user and resolves them.
func (s *FeedbackService) resolveLimits(ctx context.Context, user *domain.User) (rules.EffectiveLimits, *domain.TeamConfig, error) {
	managerID, _ := user.TeamManagerID()

	var (
		global   domain.GlobalDefaults
		team     *domain.TeamConfig
		override *domain.UserOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		global, team, err = loadTiers(gctx, s.settings, s.teams, managerID)
		return err
	})
	g.Go(func() error {
		var err error
		override, err = s.overrides.Get(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return rules.EffectiveLimits{}, nil, err
	}
	return rules.ResolveEffectiveLimits(global, team, override), team, nil
}

func (s *FeedbackService) teamOf(ctx context.Context, managerID *string) (*domain.TeamConfig, error) {
	if managerID == nil || *managerID == "" {
		return nil, nil
	}
	return s.teams.Get(ctx, *managerID)
}

func (s *FeedbackService) getFeedback(ctx context.Context, id string) (*domain.Feedback, error) {
	fb, err := s.feedbacks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("feedback", map[string]any{"feedback_id": id})
		}
		return nil, err
	}
	return fb, nil
}

func (s *FeedbackService) locationFor(user *domain.User) *time.Location {
	if user != nil && user.Timezone != "" {
		if loc, err := time.LoadLocation(user.Timezone); err == nil {
			return loc
		}
	}
	return s.location
}

func (s *FeedbackService) limitExceeded(sender *domain.User, limits rules.EffectiveLimits, reason rules.BlockReason) error {
	s.metrics.RecordLimitBlock(string(reason))
	s.logger.Info("feedback blocked by limit",
		zap.String("sender_id", sender.ID),
		zap.String("reason", string(reason)),
		zap.String("limit_source", string(limits.Source)),
	)

	limit := limits.MaxPerDay
	message := fmt.Sprintf("daily feedback limit of %d reached", limit)
	if reason == rules.ReasonWeeklyLimit {
		limit = limits.MaxPerWeek
		message = fmt.Sprintf("weekly feedback limit of %d reached", limit)
	}
	return apperrors.NewLimitExceeded(message, map[string]any{
		"reason":     string(reason),
		"limit":      limit,
		"reset_hint": rules.ResetHint(reason),
		"source":     string(limits.Source),
	})
}

func (s *FeedbackService) publishEvent(ctx context.Context, eventType events.EventType, fb *domain.Feedback, actor *domain.User, reason string) {
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(eventType, fb.ID, actorOf(actor), events.FeedbackPayload{
		SenderID:    fb.SenderID,
		RecipientID: fb.RecipientID,
		ManagerID:   fb.ManagerID,
		Visibility:  fb.Visibility,
		Status:      fb.Status,
		Reason:      reason,
	}))
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}
	if len([]rune(content)) > MaxContentLength {
		return "", apperrors.NewValidationError("content is too long", map[string]any{"field": "content", "max_length": MaxContentLength})
	}
	return content, nil
}

// sameTeam reports whether recipient belongs to the team led by managerID.
func sameTeam(recipient *domain.User, managerID string, hasTeam bool) bool {
	if !hasTeam {
		return false
	}
	if recipient.ID == managerID {
		return true
	}
	return recipient.IsManagedBy(managerID)
}

func canModerate(reviewer *domain.User, fb *domain.Feedback) bool {
	if reviewer == nil {
		return false
	}
	switch reviewer.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleGestor:
		return fb.ManagerID != nil && *fb.ManagerID == reviewer.ID && fb.SenderID != reviewer.ID
	default:
		return false
	}
}
