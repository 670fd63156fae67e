package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/beckershow/colaborador-portal/internal/api/dto"
	"github.com/beckershow/colaborador-portal/internal/service"
)

// SettingsHandler serves the global defaults, team configs and individual overrides.
type SettingsHandler struct {
	config *service.ConfigService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(configService *service.ConfigService) *SettingsHandler {
	return &SettingsHandler{config: configService}
}

// GetGlobal handles GET /feedback/settings.
func (h *SettingsHandler) GetGlobal(c *fiber.Ctx) error {
	defaults, err := h.config.GetGlobalDefaults(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGlobalDefaultsResponse(defaults)})
}

// SaveGlobal handles PUT /feedback/settings.
func (h *SettingsHandler) SaveGlobal(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.GlobalDefaultsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	saved, err := h.config.SaveGlobalDefaults(c.UserContext(), user, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGlobalDefaultsResponse(saved)})
}

// GetTeam handles GET /feedback/gestor-config.
func (h *SettingsHandler) GetTeam(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	managerID, err := targetManager(c, user)
	if err != nil {
		return err
	}

	view, err := h.config.GetTeamConfig(c.UserContext(), user, managerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamConfigResponse(view)})
}

// SaveTeam handles PUT /feedback/gestor-config.
func (h *SettingsHandler) SaveTeam(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	managerID, err := targetManager(c, user)
	if err != nil {
		return err
	}
	var req dto.TeamConfigRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	view, err := h.config.SaveTeamConfig(c.UserContext(), user, managerID, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamConfigResponse(view)})
}

// GetForRole handles GET /feedback/config.
func (h *SettingsHandler) GetForRole(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.config.GetConfigForRole(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleConfigResponse(view)})
}

// ListTeamLimits handles GET /feedback/team-limits.
func (h *SettingsHandler) ListTeamLimits(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	managerID, err := targetManager(c, user)
	if err != nil {
		return err
	}

	rows, err := h.config.ListTeamMembersWithOverrides(c.UserContext(), user, managerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTeamMemberLimitsResponse(rows)})
}

// SetUserLimits handles POST /feedback/team-limits/:userId.
func (h *SettingsHandler) SetUserLimits(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	var req dto.UserOverrideRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	override, err := h.config.SetUserOverride(c.UserContext(), user, id, req.MaxPerDay, req.MaxPerWeek)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user_id": id,
		"policy":  dto.NewOverridePolicyResponse(override),
	}})
}

// RemoveUserLimits handles DELETE /feedback/team-limits/:userId.
func (h *SettingsHandler) RemoveUserLimits(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	if err := h.config.RemoveUserOverride(c.UserContext(), user, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
