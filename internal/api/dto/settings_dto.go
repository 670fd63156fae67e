package dto

import (
	"time"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/rules"
	"github.com/beckershow/colaborador-portal/internal/service"
)

// PolicyRequest is a day/week pair as submitted. Ranges are checked by the domain.
type PolicyRequest struct {
	MaxPerDay  *int `json:"max_per_day" validate:"required"`
	MaxPerWeek *int `json:"max_per_week" validate:"required"`
}

// GlobalDefaultsRequest payload for PUT /feedback/settings.
type GlobalDefaultsRequest struct {
	LimitsEnabled              *bool          `json:"limits_enabled" validate:"required"`
	Policy                     *PolicyRequest `json:"policy" validate:"required"`
	IndividualOverridesAllowed *bool          `json:"individual_overrides_allowed" validate:"required"`
}

// ToInput converts a validated request.
func (r GlobalDefaultsRequest) ToInput() service.GlobalDefaultsInput {
	return service.GlobalDefaultsInput{
		LimitsEnabled:              *r.LimitsEnabled,
		MaxPerDay:                  *r.Policy.MaxPerDay,
		MaxPerWeek:                 *r.Policy.MaxPerWeek,
		IndividualOverridesAllowed: *r.IndividualOverridesAllowed,
	}
}

// TeamConfigRequest payload for PUT /feedback/gestor-config.
type TeamConfigRequest struct {
	Behavior                *domain.TeamBehavior `json:"behavior" validate:"required"`
	LimitsEnabled           *bool                `json:"limits_enabled" validate:"required"`
	Policy                  *PolicyRequest       `json:"policy" validate:"required"`
	IndividualLimitsEnabled *bool                `json:"individual_limits_enabled" validate:"required"`
}

// ToInput converts a validated request.
func (r TeamConfigRequest) ToInput() service.TeamConfigInput {
	return service.TeamConfigInput{
		Behavior:                *r.Behavior,
		LimitsEnabled:           *r.LimitsEnabled,
		MaxPerDay:               *r.Policy.MaxPerDay,
		MaxPerWeek:              *r.Policy.MaxPerWeek,
		IndividualLimitsEnabled: *r.IndividualLimitsEnabled,
	}
}

// UserOverrideRequest payload for POST /feedback/team-limits/:userId. A null or
// missing field inherits from the team policy.
type UserOverrideRequest struct {
	MaxPerDay  domain.Override[int] `json:"max_per_day"`
	MaxPerWeek domain.Override[int] `json:"max_per_week"`
}

// GlobalDefaultsResponse is the global defaults view.
type GlobalDefaultsResponse struct {
	LimitsEnabled              bool               `json:"limits_enabled"`
	Policy                     domain.LimitPolicy `json:"policy"`
	IndividualOverridesAllowed bool               `json:"individual_overrides_allowed"`
	UpdatedBy                  *string            `json:"updated_by"`
	UpdatedAt                  *time.Time         `json:"updated_at"`
}

// NewGlobalDefaultsResponse maps the domain value.
func NewGlobalDefaultsResponse(g domain.GlobalDefaults) GlobalDefaultsResponse {
	return GlobalDefaultsResponse{
		LimitsEnabled:              g.LimitsEnabled,
		Policy:                     g.Policy,
		IndividualOverridesAllowed: g.IndividualOverridesAllowed,
		UpdatedBy:                  g.UpdatedBy,
		UpdatedAt:                  timePtr(g.UpdatedAt),
	}
}

// TeamConfigResponse is the gestor config view.
type TeamConfigResponse struct {
	ManagerID               string                 `json:"manager_id"`
	Behavior                domain.TeamBehavior    `json:"behavior"`
	LimitsEnabled           bool                   `json:"limits_enabled"`
	Policy                  domain.LimitPolicy     `json:"policy"`
	IndividualLimitsEnabled bool                   `json:"individual_limits_enabled"`
	Persisted               bool                   `json:"persisted"`
	UpdatedBy               *string                `json:"updated_by"`
	UpdatedAt               *time.Time             `json:"updated_at"`
	GlobalDefaults          GlobalDefaultsResponse `json:"global_defaults"`
}

// NewTeamConfigResponse maps the service view.
func NewTeamConfigResponse(v service.TeamConfigView) TeamConfigResponse {
	return TeamConfigResponse{
		ManagerID:               v.Config.ManagerID,
		Behavior:                v.Config.Behavior,
		LimitsEnabled:           v.Config.LimitsEnabled,
		Policy:                  v.Config.Policy,
		IndividualLimitsEnabled: v.Config.IndividualLimitsEnabled,
		Persisted:               v.Persisted,
		UpdatedBy:               v.Config.UpdatedBy,
		UpdatedAt:               timePtr(v.Config.UpdatedAt),
		GlobalDefaults:          NewGlobalDefaultsResponse(v.Global),
	}
}

// RoleConfigResponse is the role-selected configuration.
type RoleConfigResponse struct {
	Scope  domain.ConfigScope      `json:"scope"`
	Global *GlobalDefaultsResponse `json:"global,omitempty"`
	Team   *TeamConfigResponse     `json:"team,omitempty"`
}

// NewRoleConfigResponse maps the service view.
func NewRoleConfigResponse(v service.RoleConfigView) RoleConfigResponse {
	resp := RoleConfigResponse{Scope: v.Scope}
	if v.Global != nil {
		g := NewGlobalDefaultsResponse(*v.Global)
		resp.Global = &g
	}
	if v.Team != nil {
		t := NewTeamConfigResponse(*v.Team)
		resp.Team = &t
	}
	return resp
}

// OverridePolicyResponse is an individual override; each field is null when inherited.
type OverridePolicyResponse struct {
	MaxPerDay  domain.Override[int] `json:"max_per_day"`
	MaxPerWeek domain.Override[int] `json:"max_per_week"`
}

// TeamMemberLimitsResponse is one row of GET /feedback/team-limits.
type TeamMemberLimitsResponse struct {
	UserID    string                  `json:"user_id"`
	Name      string                  `json:"name"`
	Policy    *OverridePolicyResponse `json:"policy"`
	Effective rules.EffectiveLimits   `json:"effective"`
}

// NewTeamMemberLimitsResponse maps the service rows.
func NewTeamMemberLimitsResponse(rows []service.TeamMemberLimits) []TeamMemberLimitsResponse {
	out := make([]TeamMemberLimitsResponse, 0, len(rows))
	for _, r := range rows {
		item := TeamMemberLimitsResponse{UserID: r.UserID, Name: r.Name, Effective: r.Effective}
		if r.Override != nil {
			item.Policy = NewOverridePolicyResponse(r.Override)
		}
		out = append(out, item)
	}
	return out
}

// NewOverridePolicyResponse maps an override; nil stays nil.
func NewOverridePolicyResponse(o *domain.UserOverride) *OverridePolicyResponse {
	if o == nil {
		return nil
	}
	return &OverridePolicyResponse{MaxPerDay: o.MaxPerDay, MaxPerWeek: o.MaxPerWeek}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
