package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/events"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

type fixture struct {
	now time.Time

	users     *memUsers
	settings  *memSettings
	teams     *memTeams
	overrides *memOverrides
	feedbacks *memFeedbacks
	published []events.Event

	config   *ConfigService
	feedback *FeedbackService

	admin   *domain.User
	gestorA *domain.User
	gestorB *domain.User
	userU   *domain.User
	userV   *domain.User
	userW   *domain.User
}

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	f.admin = &domain.User{ID: "admin", Name: "Admin", Role: domain.RoleSuperAdmin, Status: domain.UserStatusActive}
	f.gestorA = &domain.User{ID: "gestor-a", Name: "Ana", Role: domain.RoleGestor, Status: domain.UserStatusActive}
	f.gestorB = &domain.User{ID: "gestor-b", Name: "Bruno", Role: domain.RoleGestor, Status: domain.UserStatusActive}
	f.userU = &domain.User{ID: "user-u", Name: "Ursula", Role: domain.RoleColaborador, ManagerID: ptr("gestor-a"), Status: domain.UserStatusActive}
	f.userV = &domain.User{ID: "user-v", Name: "Vitor", Role: domain.RoleColaborador, ManagerID: ptr("gestor-a"), Status: domain.UserStatusActive}
	f.userW = &domain.User{ID: "user-w", Name: "Wanda", Role: domain.RoleColaborador, ManagerID: ptr("gestor-b"), Status: domain.UserStatusActive}

	f.users = newMemUsers(f.admin, f.gestorA, f.gestorB, f.userU, f.userV, f.userW)
	f.settings = &memSettings{}
	f.teams = newMemTeams()
	f.overrides = newMemOverrides(f.users)
	f.feedbacks = newMemFeedbacks(func() time.Time { return f.now })

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventFeedbackCreated,
		events.EventFeedbackPending,
		events.EventFeedbackApproved,
		events.EventFeedbackRejected,
		events.EventFeedbackResubmitted,
		events.EventSettingsUpdated,
	} {
		dispatcher.Subscribe(et, f.record)
	}

	f.config = NewConfigService(ConfigDependencies{
		SettingsRepo: f.settings,
		TeamRepo:     f.teams,
		OverrideRepo: f.overrides,
		UserRepo:     f.users,
		Dispatcher:   dispatcher,
	})
	f.feedback = f.newFeedbackService(nil)
	return f
}

func (f *fixture) newFeedbackService(counter SendReserver) *FeedbackService {
	deps := FeedbackDependencies{
		FeedbackRepo: f.feedbacks,
		UserRepo:     f.users,
		SettingsRepo: f.settings,
		TeamRepo:     f.teams,
		OverrideRepo: f.overrides,
		Dispatcher:   f.config.dispatcher,
		Location:     time.UTC,
		Now:          func() time.Time { return f.now },
	}
	if counter != nil {
		deps.Counter = counter
	}
	return NewFeedbackService(deps)
}

func (f *fixture) record(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

func (f *fixture) eventTypes() []events.EventType {
	types := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	return types
}

func (f *fixture) saveTeam(t *testing.T, manager *domain.User, input TeamConfigInput) {
	t.Helper()
	_, err := f.config.SaveTeamConfig(context.Background(), manager, manager.ID, input)
	require.NoError(t, err)
}

func (f *fixture) send(t *testing.T, sender, recipient *domain.User) *domain.Feedback {
	t.Helper()
	fb, err := f.feedback.Send(context.Background(), sender, SendFeedbackInput{RecipientID: recipient.ID, Content: "Bom trabalho!"})
	require.NoError(t, err)
	return fb
}

// requireCode asserts err renders with the given API error code.
func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	derr := apperrors.ToDomainError(err)
	require.Equal(t, code, derr.Code, "error: %v", err)
	return derr
}

func requireValidation(t *testing.T, err error, field, reason string) {
	t.Helper()
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	require.Equal(t, field, verr.Field)
	require.Equal(t, reason, verr.Reason)
}

func defaultTeamInput(day, week int) TeamConfigInput {
	return TeamConfigInput{
		Behavior:      domain.DefaultTeamBehavior(),
		LimitsEnabled: true,
		MaxPerDay:     day,
		MaxPerWeek:    week,
	}
}
