package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/events"
	"github.com/beckershow/colaborador-portal/internal/rules"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

func TestSend_EndToEndIndividualLimit(t *testing.T) {
	f := newFixture(t)

	// Super-admin sets global 5/20 and allows overrides; manager A keeps the
	// defaults and turns on individual limits; U gets 2 per day.
	enableIndividualLimits(t, f)
	_, err := f.config.SetUserOverride(context.Background(), f.gestorA, f.userU.ID, domain.Set(2), domain.Inherit[int]())
	require.NoError(t, err)

	f.send(t, f.userU, f.userV)
	f.send(t, f.userU, f.userV)

	_, err = f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "terceiro"})
	derr := requireCode(t, err, apperrors.CodeLimitExceeded)
	assert.Equal(t, 429, derr.HTTPStatus)
	assert.Equal(t, "daily_limit", derr.Details["reason"])
	assert.Equal(t, 2, derr.Details["limit"])
	assert.Equal(t, "volte amanhã", derr.Details["reset_hint"])

	for i := 0; i < 5; i++ {
		f.send(t, f.userV, f.userU)
	}
	_, err = f.feedback.Send(context.Background(), f.userV, SendFeedbackInput{RecipientID: f.userU.ID, Content: "sexto"})
	requireCode(t, err, apperrors.CodeLimitExceeded)
}

func TestSend_WeeklyLimit(t *testing.T) {
	f := newFixture(t)
	f.saveTeam(t, f.gestorA, defaultTeamInput(3, 4))

	// Earlier this week (Monday 2026-10-12).
	for i := 0; i < 3; i++ {
		fb := f.send(t, f.userU, f.userV)
		f.feedbacks.Backdate(fb.ID, time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC))
	}
	// Last week does not count.
	old := f.send(t, f.userU, f.userV)
	f.feedbacks.Backdate(old.ID, time.Date(2026, 10, 11, 23, 0, 0, 0, time.UTC))

	f.send(t, f.userU, f.userV)
	_, err := f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "mais um"})
	derr := requireCode(t, err, apperrors.CodeLimitExceeded)
	assert.Equal(t, "weekly_limit", derr.Details["reason"])
	assert.Equal(t, "limite semanal", derr.Details["reset_hint"])
}

func TestSend_TeamDisabledIsUnlimited(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(1, 1)
	input.LimitsEnabled = false
	f.saveTeam(t, f.gestorA, input)

	for i := 0; i < 8; i++ {
		f.send(t, f.userU, f.userV)
	}
}

func TestSend_ApprovalGate(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.RequireApproval = true
	f.saveTeam(t, f.gestorA, input)

	pending := f.send(t, f.userU, f.userV)
	assert.Equal(t, domain.FeedbackStatusPending, pending.Status)
	require.NotNil(t, pending.ManagerID)
	assert.Equal(t, f.gestorA.ID, *pending.ManagerID)

	edited, err := f.feedback.Edit(context.Background(), f.userU, pending.ID, EditFeedbackInput{Content: "Texto revisado"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, edited.Status)
	assert.Equal(t, "Texto revisado", edited.Content)

	input.Behavior.RequireApproval = false
	f.saveTeam(t, f.gestorA, input)

	approved := f.send(t, f.userU, f.userV)
	assert.Equal(t, domain.FeedbackStatusApproved, approved.Status)

	// Still pending after the toggle: it is already in the queue.
	edited, err = f.feedback.Edit(context.Background(), f.userU, pending.ID, EditFeedbackInput{Content: "Outra versão"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, edited.Status)
}

func TestSend_UserWithoutTeamIsApproved(t *testing.T) {
	f := newFixture(t)

	fb := f.send(t, f.admin, f.userU)
	assert.Equal(t, domain.FeedbackStatusApproved, fb.Status)
	assert.Nil(t, fb.ManagerID)
}

func TestSend_PublishesEvents(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.RequireApproval = true
	f.saveTeam(t, f.gestorA, input)
	f.published = nil

	f.send(t, f.userU, f.userV)

	assert.Equal(t, []events.EventType{events.EventFeedbackCreated, events.EventFeedbackPending}, f.eventTypes())
	payload, ok := f.published[1].Payload.(events.FeedbackPayload)
	require.True(t, ok)
	assert.Equal(t, domain.FeedbackStatusPending, payload.Status)
}

func TestSend_InputValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input SendFeedbackInput
		code  string
	}{
		{name: "empty content", input: SendFeedbackInput{RecipientID: f.userV.ID, Content: "   "}, code: apperrors.CodeValidationFailed},
		{name: "too long", input: SendFeedbackInput{RecipientID: f.userV.ID, Content: strings.Repeat("a", MaxContentLength+1)}, code: apperrors.CodeValidationFailed},
		{name: "bad visibility", input: SendFeedbackInput{RecipientID: f.userV.ID, Content: "ok", Visibility: "team"}, code: apperrors.CodeValidationFailed},
		{name: "self", input: SendFeedbackInput{RecipientID: f.userU.ID, Content: "ok"}, code: apperrors.CodeValidationFailed},
		{name: "unknown recipient", input: SendFeedbackInput{RecipientID: "nobody", Content: "ok"}, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.feedback.Send(context.Background(), f.userU, tt.input)
			requireCode(t, err, tt.code)
		})
	}
}

func TestSend_TeamBehavior(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.AllowAnyRecipient = false
	input.Behavior.AllowPublicSharing = false
	f.saveTeam(t, f.gestorA, input)

	_, err := f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userW.ID, Content: "oi"})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "oi", Visibility: domain.VisibilityPublic})
	requireCode(t, err, apperrors.CodeForbidden)

	// Teammates and the manager are reachable.
	f.send(t, f.userU, f.userV)
	f.send(t, f.userU, f.gestorA)
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.RequireApproval = true
	f.saveTeam(t, f.gestorA, input)

	first := f.send(t, f.userU, f.userV)
	second := f.send(t, f.userV, f.userU)

	queue, err := f.feedback.ListPending(context.Background(), f.gestorA)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	queue, err = f.feedback.ListPending(context.Background(), f.gestorB)
	require.NoError(t, err)
	assert.Empty(t, queue)

	_, err = f.feedback.ListPending(context.Background(), f.userU)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.Approve(context.Background(), f.gestorB, first.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	approved, err := f.feedback.Approve(context.Background(), f.gestorA, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, f.gestorA.ID, *approved.ReviewedBy)

	_, err = f.feedback.Approve(context.Background(), f.gestorA, first.ID)
	derr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "approved", derr.Details["status"])

	rejected, err := f.feedback.Reject(context.Background(), f.admin, second.ID, "  seja mais específico ")
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "seja mais específico", *rejected.RejectionReason)

	_, err = f.feedback.Reject(context.Background(), f.gestorA, second.ID, "")
	requireCode(t, err, apperrors.CodeConflict)

	_, err = f.feedback.Approve(context.Background(), f.gestorA, "missing")
	requireCode(t, err, apperrors.CodeNotFound)

	received, err := f.feedback.ListReceived(context.Background(), f.userV)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, first.ID, received[0].ID)

	received, err = f.feedback.ListReceived(context.Background(), f.userU)
	require.NoError(t, err)
	assert.Empty(t, received)

	sent, err := f.feedback.ListSent(context.Background(), f.userV)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.FeedbackStatusRejected, sent[0].Status)
}

func TestEdit_ResubmitsAndReentersReview(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.RequireApproval = true
	f.saveTeam(t, f.gestorA, input)

	fb := f.send(t, f.userU, f.userV)
	_, err := f.feedback.Reject(context.Background(), f.gestorA, fb.ID, "vago")
	require.NoError(t, err)
	f.published = nil

	resubmitted, err := f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: "mais claro"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, resubmitted.Status)
	assert.Nil(t, resubmitted.RejectionReason)
	assert.Nil(t, resubmitted.ReviewedBy)
	assert.Equal(t, []events.EventType{events.EventFeedbackResubmitted, events.EventFeedbackPending}, f.eventTypes())

	_, err = f.feedback.Approve(context.Background(), f.gestorA, fb.ID)
	require.NoError(t, err)

	// Approved content edited under requireApproval goes back to review.
	edited, err := f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: "ajuste"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusPending, edited.Status)

	// Without approval, a rejected edit is published directly.
	_, err = f.feedback.Reject(context.Background(), f.gestorA, fb.ID, "")
	require.NoError(t, err)
	input.Behavior.RequireApproval = false
	f.saveTeam(t, f.gestorA, input)
	edited, err = f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusApproved, edited.Status)
}

func TestEdit_ResubmissionKeepsRecordAndQuota(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(1, 5)
	input.Behavior.RequireApproval = true
	f.saveTeam(t, f.gestorA, input)

	fb := f.send(t, f.userU, f.userV)
	_, err := f.feedback.Reject(context.Background(), f.gestorA, fb.ID, "vago")
	require.NoError(t, err)

	// The daily cap is already used; resubmitting is still allowed.
	resubmitted, err := f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: "mais claro"})
	require.NoError(t, err)
	assert.Equal(t, fb.ID, resubmitted.ID)
	assert.Equal(t, fb.CreatedAt, resubmitted.CreatedAt)

	sent, err := f.feedback.ListSent(context.Background(), f.userU)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	status, err := f.feedback.LimitStatus(context.Background(), f.userU)
	require.NoError(t, err)
	assert.Equal(t, 1, status.SentToday)

	_, err = f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "outro"})
	requireCode(t, err, apperrors.CodeLimitExceeded)
}

func TestEdit_Rejections(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.Behavior.AllowPublicSharing = false
	f.saveTeam(t, f.gestorA, input)
	fb := f.send(t, f.userU, f.userV)

	_, err := f.feedback.Edit(context.Background(), f.userV, fb.ID, EditFeedbackInput{Content: "hack"})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: ""})
	requireCode(t, err, apperrors.CodeValidationFailed)

	public := domain.VisibilityPublic
	_, err = f.feedback.Edit(context.Background(), f.userU, fb.ID, EditFeedbackInput{Content: "ok", Visibility: &public})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.feedback.Edit(context.Background(), f.userU, "missing", EditFeedbackInput{Content: "ok"})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestDelete_FreesQuota(t *testing.T) {
	f := newFixture(t)
	f.saveTeam(t, f.gestorA, defaultTeamInput(1, 5))

	fb := f.send(t, f.userU, f.userV)
	_, err := f.feedback.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "de novo"})
	requireCode(t, err, apperrors.CodeLimitExceeded)

	err = f.feedback.Delete(context.Background(), f.userV, fb.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	require.NoError(t, f.feedback.Delete(context.Background(), f.userU, fb.ID))
	f.send(t, f.userU, f.userV)

	err = f.feedback.Delete(context.Background(), f.userU, fb.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestLimitStatus(t *testing.T) {
	f := newFixture(t)
	f.saveTeam(t, f.gestorA, defaultTeamInput(3, 10))
	f.send(t, f.userU, f.userV)

	status, err := f.feedback.LimitStatus(context.Background(), f.userU)
	require.NoError(t, err)
	assert.Equal(t, rules.SourceTeam, status.Limits.Source)
	assert.Equal(t, 1, status.SentToday)
	assert.Equal(t, 1, status.SentThisWeek)
	assert.Equal(t, 2, status.RemainingToday)
	assert.Equal(t, 9, status.RemainingThisWeek)
	assert.True(t, status.Decision.Allowed)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), status.DayResetsAt)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), status.WeekResetsAt)
}

func TestLimitStatus_UsesUserTimezone(t *testing.T) {
	f := newFixture(t)
	// 01:00 UTC Friday is still Thursday in São Paulo.
	f.now = time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)
	u := *f.userU
	u.Timezone = "America/Sao_Paulo"

	status, err := f.feedback.LimitStatus(context.Background(), &u)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC), status.DayResetsAt.UTC())
}

func TestSend_CounterArbitratesConcurrentSends(t *testing.T) {
	f := newFixture(t)
	counter := new(mockReserver)
	svc := f.newFeedbackService(counter)

	counter.On("Reserve", mock.Anything, f.userU.ID, mock.Anything, mock.Anything, domain.SendCounters{}).
		Return(rules.SendDecision{Allowed: false, Reason: rules.ReasonDailyLimit}, nil).Once()

	_, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "corrida"})
	derr := requireCode(t, err, apperrors.CodeLimitExceeded)
	assert.Equal(t, "daily_limit", derr.Details["reason"])
	counter.AssertExpectations(t)
}

func TestSend_CounterUnavailableFallsBack(t *testing.T) {
	f := newFixture(t)
	counter := new(mockReserver)
	svc := f.newFeedbackService(counter)

	counter.On("Reserve", mock.Anything, f.userU.ID, mock.Anything, mock.Anything, mock.Anything).
		Return(rules.SendDecision{}, errStorage)

	fb, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "ok"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackStatusApproved, fb.Status)
	counter.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_ReleasesSlotWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	counter := new(mockReserver)
	svc := f.newFeedbackService(counter)

	counter.On("Reserve", mock.Anything, f.userU.ID, mock.Anything, mock.Anything, mock.Anything).
		Return(rules.SendDecision{Allowed: true}, nil)
	counter.On("Release", mock.Anything, f.userU.ID, mock.Anything, true).Return(nil).Once()
	f.feedbacks.FailNext = errStorage

	_, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "ok"})
	require.ErrorIs(t, err, errStorage)
	counter.AssertExpectations(t)
}

func TestSend_UnlimitedSkipsCounter(t *testing.T) {
	f := newFixture(t)
	input := defaultTeamInput(5, 20)
	input.LimitsEnabled = false
	f.saveTeam(t, f.gestorA, input)
	counter := new(mockReserver)
	svc := f.newFeedbackService(counter)

	_, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "ok"})
	require.NoError(t, err)
	counter.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_ReleasesCounterSlot(t *testing.T) {
	f := newFixture(t)
	counter := new(mockReserver)
	svc := f.newFeedbackService(counter)
	counter.On("Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(rules.SendDecision{Allowed: true}, nil)

	today, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "hoje"})
	require.NoError(t, err)
	monday, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "segunda"})
	require.NoError(t, err)
	f.feedbacks.Backdate(monday.ID, time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC))
	lastWeek, err := svc.Send(context.Background(), f.userU, SendFeedbackInput{RecipientID: f.userV.ID, Content: "antiga"})
	require.NoError(t, err)
	f.feedbacks.Backdate(lastWeek.ID, time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC))

	counter.On("Release", mock.Anything, f.userU.ID, mock.Anything, true).Return(nil).Once()
	counter.On("Release", mock.Anything, f.userU.ID, mock.Anything, false).Return(nil).Once()

	require.NoError(t, svc.Delete(context.Background(), f.userU, today.ID))
	require.NoError(t, svc.Delete(context.Background(), f.userU, monday.ID))
	require.NoError(t, svc.Delete(context.Background(), f.userU, lastWeek.ID))

	counter.AssertExpectations(t)
	counter.AssertNumberOfCalls(t, "Release", 2)
}
