package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), CodeValidationFailed, http.StatusBadRequest},
		{"limit", NewLimitExceeded("slow down", nil), CodeLimitExceeded, http.StatusTooManyRequests},
		{"not found", NewNotFound("feedback", nil), CodeNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("again", nil), CodeConflict, http.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
		})
	}
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.Nil(t, MapError(nil))

	_, verr := domain.NewLimitPolicy(60, 100)
	de := ToDomainError(fmt.Errorf("save settings: %w", verr))
	assert.Equal(t, CodeValidationFailed, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, domain.FieldMaxPerDay, de.Details["field"])
	assert.Equal(t, domain.ReasonOutOfRange, de.Details["reason"])

	de = ToDomainError(fmt.Errorf("get: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, de.Code)

	inner := errors.New("connection reset")
	de = ToDomainError(inner)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, inner)
	assert.Equal(t, "internal server error: connection reset", de.Error())

	wrapped := fmt.Errorf("ctx: %w", NewForbidden("nope"))
	assert.Equal(t, CodeForbidden, ToDomainError(wrapped).Code)
}

func TestToDomainError_MalformedIdentifier(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "x"`}
	de := ToDomainError(fmt.Errorf("get user: %w", pgErr))
	assert.Equal(t, CodeValidationFailed, de.Code)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Equal(t, "invalid_format", de.Details["reason"])

	de = ToDomainError(&pgconn.PgError{Code: "23505"})
	assert.Equal(t, CodeInternal, de.Code)
}
