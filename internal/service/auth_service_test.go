package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckershow/colaborador-portal/internal/auth"
	"github.com/beckershow/colaborador-portal/internal/config"
	"github.com/beckershow/colaborador-portal/internal/domain"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *memUsers) {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", 4)
	require.NoError(t, err)

	users := newMemUsers(
		&domain.User{ID: "g-1", Email: "ana@example.com", PasswordHash: hash, Role: domain.RoleGestor, Status: domain.UserStatusActive},
		&domain.User{ID: "s-1", Email: "old@example.com", PasswordHash: hash, Role: domain.RoleColaborador, Status: domain.UserStatusSuspended},
	)
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: users}), users
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, token, _, err := svc.Login(context.Background(), " ana@example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "g-1", user.ID)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGestor, claims.Role)

	_, _, _, err = svc.Login(context.Background(), "ana@example.com", "wrong")
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, _, _, err = svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, _, _, err = svc.Login(context.Background(), "old@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestChangePassword(t *testing.T) {
	svc, users := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "g-1", "correct-horse", "short")
	requireCode(t, err, apperrors.CodeValidationFailed)

	err = svc.ChangePassword(context.Background(), "g-1", "wrong", "battery-staple")
	requireCode(t, err, apperrors.CodeUnauthorized)

	require.NoError(t, svc.ChangePassword(context.Background(), "g-1", "correct-horse", "battery-staple"))

	stored, err := users.GetByID(context.Background(), "g-1")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "battery-staple"))
}
