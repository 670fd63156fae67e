package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

func globalDefaults(enabled bool, day, week int, overrides bool) domain.GlobalDefaults {
	return domain.GlobalDefaults{
		LimitsEnabled:              enabled,
		Policy:                     domain.MustLimitPolicy(day, week),
		IndividualOverridesAllowed: overrides,
	}
}

func teamConfig(enabled bool, day, week int, individual bool) *domain.TeamConfig {
	return &domain.TeamConfig{
		ManagerID:               "gestor-a",
		Behavior:                domain.DefaultTeamBehavior(),
		LimitsEnabled:           enabled,
		Policy:                  domain.MustLimitPolicy(day, week),
		IndividualLimitsEnabled: individual,
	}
}

func TestResolveEffectiveLimits(t *testing.T) {
	dayOnly := &domain.UserOverride{UserID: "u", ManagerID: "gestor-a", MaxPerDay: domain.Set(1)}
	weekOnly := &domain.UserOverride{UserID: "u", ManagerID: "gestor-a", MaxPerWeek: domain.Set(4)}
	both := &domain.UserOverride{UserID: "u", ManagerID: "gestor-a", MaxPerDay: domain.Set(2), MaxPerWeek: domain.Set(6)}

	tests := []struct {
		name     string
		global   domain.GlobalDefaults
		team     *domain.TeamConfig
		override *domain.UserOverride
		want     EffectiveLimits
	}{
		{
			name:   "global only",
			global: globalDefaults(true, 5, 20, false),
			want:   EffectiveLimits{Enabled: true, MaxPerDay: 5, MaxPerWeek: 20, Source: SourceGlobal},
		},
		{
			name:   "global disabled without team",
			global: globalDefaults(false, 5, 20, false),
			want:   Unlimited(),
		},
		{
			name:   "team policy wins over global",
			global: globalDefaults(true, 5, 20, false),
			team:   teamConfig(true, 3, 15, false),
			want:   EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 15, Source: SourceTeam},
		},
		{
			name:     "individual day overlays team week",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, true),
			override: dayOnly,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 1, MaxPerWeek: 15, Source: SourceIndividual},
		},
		{
			name:     "individual week overlays team day",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, true),
			override: weekOnly,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 4, Source: SourceIndividual},
		},
		{
			name:     "individual both fields",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, true),
			override: both,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 2, MaxPerWeek: 6, Source: SourceIndividual},
		},
		{
			name:     "team disabled beats enabled global and override",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(false, 3, 15, true),
			override: both,
			want:     Unlimited(),
		},
		{
			name:   "team enabled while global disabled",
			global: globalDefaults(false, 5, 20, false),
			team:   teamConfig(true, 4, 12, false),
			want:   EffectiveLimits{Enabled: true, MaxPerDay: 4, MaxPerWeek: 12, Source: SourceTeam},
		},
		{
			name:     "override ignored when team individual limits off",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, false),
			override: dayOnly,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 15, Source: SourceTeam},
		},
		{
			name:     "override ignored when global master switch off",
			global:   globalDefaults(true, 5, 20, false),
			team:     teamConfig(true, 3, 15, true),
			override: dayOnly,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 15, Source: SourceTeam},
		},
		{
			name:     "override ignored without team config",
			global:   globalDefaults(true, 5, 20, true),
			override: dayOnly,
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 5, MaxPerWeek: 20, Source: SourceGlobal},
		},
		{
			name:     "override from a previous team is ignored",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, true),
			override: &domain.UserOverride{UserID: "u", ManagerID: "gestor-b", MaxPerDay: domain.Set(1)},
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 15, Source: SourceTeam},
		},
		{
			name:     "empty override keeps team source",
			global:   globalDefaults(true, 5, 20, true),
			team:     teamConfig(true, 3, 15, true),
			override: &domain.UserOverride{UserID: "u", ManagerID: "gestor-a"},
			want:     EffectiveLimits{Enabled: true, MaxPerDay: 3, MaxPerWeek: 15, Source: SourceTeam},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEffectiveLimits(tt.global, tt.team, tt.override)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ResolveEffectiveLimits(tt.global, tt.team, tt.override), "deterministic")
		})
	}
}
