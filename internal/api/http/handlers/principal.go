package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/beckershow/colaborador-portal/internal/auth"
	"github.com/beckershow/colaborador-portal/internal/domain"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// targetManager resolves which team a config request addresses. Gestores always
// act on their own team; a super-admin must name one with ?manager_id=.
func targetManager(c *fiber.Ctx, user *domain.User) (string, error) {
	if user.Role == domain.RoleSuperAdmin {
		managerID := c.Query("manager_id")
		if managerID == "" {
			return "", apperrors.NewValidationError("manager_id is required", map[string]any{"field": "manager_id", "reason": "required"})
		}
		if _, err := uuid.Parse(managerID); err != nil {
			return "", apperrors.NewValidationError("manager_id must be a uuid", map[string]any{"field": "manager_id", "reason": "uuid"})
		}
		return managerID, nil
	}
	return user.ID, nil
}

// idParam returns the named path parameter, which must be a UUID.
func idParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewValidationError(name+" must be a uuid", map[string]any{"field": name, "reason": "uuid"})
	}
	return id, nil
}
