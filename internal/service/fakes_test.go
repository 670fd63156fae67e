package service

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/repository/repotest"
	"github.com/beckershow/colaborador-portal/internal/rules"
)

type (
	memUsers     = repotest.Users
	memSettings  = repotest.Settings
	memTeams     = repotest.Teams
	memOverrides = repotest.Overrides
	memFeedbacks = repotest.Feedbacks
)

func newMemUsers(users ...*domain.User) *memUsers { return repotest.NewUsers(users...) }

func newMemTeams() *memTeams { return repotest.NewTeams() }

func newMemOverrides(users *memUsers) *memOverrides { return repotest.NewOverrides(users) }

func newMemFeedbacks(now func() time.Time) *memFeedbacks { return repotest.NewFeedbacks(now) }

type mockReserver struct {
	mock.Mock
}

func (m *mockReserver) Reserve(ctx context.Context, userID string, windows rules.SendWindows, limits rules.EffectiveLimits, seed domain.SendCounters) (rules.SendDecision, error) {
	args := m.Called(ctx, userID, windows, limits, seed)
	return args.Get(0).(rules.SendDecision), args.Error(1)
}

func (m *mockReserver) Release(ctx context.Context, userID string, windows rules.SendWindows, includeDay bool) error {
	args := m.Called(ctx, userID, windows, includeDay)
	return args.Error(0)
}

var errStorage = errors.New("storage unavailable")
