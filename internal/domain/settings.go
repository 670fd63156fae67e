package domain

import (
	"errors"
	"time"
)

// GlobalDefaults is the platform-wide feedback configuration set by a super-admin.
type GlobalDefaults struct {
	LimitsEnabled              bool
	Policy                     LimitPolicy
	IndividualOverridesAllowed bool
	UpdatedBy                  *string
	UpdatedAt                  time.Time
}

// DefaultGlobalDefaults returns the values used before any admin save.
func DefaultGlobalDefaults() GlobalDefaults {
	return GlobalDefaults{
		LimitsEnabled:              true,
		Policy:                     MustLimitPolicy(5, 20),
		IndividualOverridesAllowed: false,
	}
}

// Limits returns the shared limits section.
func (g GlobalDefaults) Limits() LimitsSection {
	return LimitsSection{Enabled: g.LimitsEnabled, Policy: g.Policy}
}

// Equal compares the editable fields, ignoring audit metadata.
func (g GlobalDefaults) Equal(other GlobalDefaults) bool {
	return g.LimitsEnabled == other.LimitsEnabled &&
		g.Policy == other.Policy &&
		g.IndividualOverridesAllowed == other.IndividualOverridesAllowed
}

// TeamBehavior holds the team's feedback sharing rules.
type TeamBehavior struct {
	AllowAnyRecipient  bool `json:"allow_any_recipient"`
	AllowPublicSharing bool `json:"allow_public_sharing"`
	RequireApproval    bool `json:"require_approval"`
}

// DefaultTeamBehavior is applied to a team config created from global defaults.
func DefaultTeamBehavior() TeamBehavior {
	return TeamBehavior{
		AllowAnyRecipient:  true,
		AllowPublicSharing: true,
		RequireApproval:    false,
	}
}

// TeamConfig is a gestor's configuration for their team.
type TeamConfig struct {
	ManagerID               string
	Behavior                TeamBehavior
	LimitsEnabled           bool
	Policy                  LimitPolicy
	IndividualLimitsEnabled bool
	UpdatedBy               *string
	UpdatedAt               time.Time
}

// NewTeamConfigFromGlobal mirrors the global defaults for a team that has never saved a config.
func NewTeamConfigFromGlobal(managerID string, global GlobalDefaults) TeamConfig {
	return TeamConfig{
		ManagerID:               managerID,
		Behavior:                DefaultTeamBehavior(),
		LimitsEnabled:           global.LimitsEnabled,
		Policy:                  global.Policy,
		IndividualLimitsEnabled: false,
	}
}

// Limits returns the shared limits section.
func (t TeamConfig) Limits() LimitsSection {
	return LimitsSection{Enabled: t.LimitsEnabled, Policy: t.Policy}
}

// Equal compares the editable fields, ignoring audit metadata.
func (t TeamConfig) Equal(other TeamConfig) bool {
	return t.ManagerID == other.ManagerID &&
		t.Behavior == other.Behavior &&
		t.LimitsEnabled == other.LimitsEnabled &&
		t.Policy == other.Policy &&
		t.IndividualLimitsEnabled == other.IndividualLimitsEnabled
}

// UserOverride is an individual cap for one user. Each field inherits from the
// team policy when unset.
type UserOverride struct {
	UserID     string
	ManagerID  string
	MaxPerDay  Override[int]
	MaxPerWeek Override[int]
	UpdatedBy  *string
	UpdatedAt  time.Time
}

// IsEmpty reports whether both fields inherit, which is the same as having no override.
func (o UserOverride) IsEmpty() bool {
	return !o.MaxPerDay.IsSet() && !o.MaxPerWeek.IsSet()
}

// Validate checks the set fields. Day and week are compared only when both are set.
func (o UserOverride) Validate() error {
	day, hasDay := o.MaxPerDay.Get()
	week, hasWeek := o.MaxPerWeek.Get()
	if hasDay {
		if err := validateDay(day); err != nil {
			return err
		}
	}
	if hasWeek {
		if err := validateWeek(week); err != nil {
			return err
		}
	}
	if hasDay && hasWeek && day > week {
		return &ValidationError{Field: FieldMaxPerDay, Reason: ReasonExceedsWeekly, Value: day}
	}
	return nil
}

// LimitsSection is the limits block shared by the global and team configs.
type LimitsSection struct {
	Enabled bool        `json:"enabled"`
	Policy  LimitPolicy `json:"policy"`
}

// ConfigScope names which configuration variant a caller edits.
type ConfigScope string

const (
	ConfigScopeGlobal ConfigScope = "global"
	ConfigScopeTeam   ConfigScope = "team"
)

// ErrNoConfigScope is returned for roles that cannot edit any configuration.
var ErrNoConfigScope = errors.New("role has no configuration scope")

// ConfigScopeFor selects the configuration variant for a role.
func ConfigScopeFor(role Role) (ConfigScope, error) {
	switch role {
	case RoleSuperAdmin:
		return ConfigScopeGlobal, nil
	case RoleGestor:
		return ConfigScopeTeam, nil
	default:
		return "", ErrNoConfigScope
	}
}
