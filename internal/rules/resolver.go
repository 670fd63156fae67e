// Package rules holds the feedback limit and approval rules shared by the
// send, edit and moderation flows. Everything here is pure.
package rules

import "github.com/beckershow/colaborador-portal/internal/domain"

// LimitSource names the tier that produced the effective limits.
type LimitSource string

const (
	SourceUnlimited  LimitSource = "unlimited"
	SourceGlobal     LimitSource = "global"
	SourceTeam       LimitSource = "team"
	SourceIndividual LimitSource = "individual"
)

// EffectiveLimits is the cap applied to a user at send time.
type EffectiveLimits struct {
	Enabled    bool        `json:"enabled"`
	MaxPerDay  int         `json:"max_per_day"`
	MaxPerWeek int         `json:"max_per_week"`
	Source     LimitSource `json:"source"`
}

// Unlimited is the result when no tier enforces limits.
func Unlimited() EffectiveLimits {
	return EffectiveLimits{Enabled: false, Source: SourceUnlimited}
}

// ResolveEffectiveLimits applies individual > team > global precedence.
//
// The team tier is active whenever the team has a config; its toggle then
// decides alone whether limits apply. Without a team config the global tier is
// active. Individual fields overlay the active policy only when the team has
// individual limits enabled, the global switch allows overrides and the
// override was set for that same team.
func ResolveEffectiveLimits(global domain.GlobalDefaults, team *domain.TeamConfig, override *domain.UserOverride) EffectiveLimits {
	var section domain.LimitsSection
	source := SourceGlobal
	if team != nil {
		section = team.Limits()
		source = SourceTeam
	} else {
		section = global.Limits()
	}
	if !section.Enabled {
		return Unlimited()
	}

	result := EffectiveLimits{
		Enabled:    true,
		MaxPerDay:  section.Policy.MaxPerDay(),
		MaxPerWeek: section.Policy.MaxPerWeek(),
		Source:     source,
	}

	if !overridesApply(global, team, override) {
		return result
	}
	if day, ok := override.MaxPerDay.Get(); ok {
		result.MaxPerDay = day
		result.Source = SourceIndividual
	}
	if week, ok := override.MaxPerWeek.Get(); ok {
		result.MaxPerWeek = week
		result.Source = SourceIndividual
	}
	return result
}

func overridesApply(global domain.GlobalDefaults, team *domain.TeamConfig, override *domain.UserOverride) bool {
	if override == nil || team == nil {
		return false
	}
	// An override stays behind when its user moves to another team.
	if override.ManagerID != team.ManagerID {
		return false
	}
	return global.IndividualOverridesAllowed && team.IndividualLimitsEnabled
}
