package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/events"
	"github.com/beckershow/colaborador-portal/internal/observability"
	"github.com/beckershow/colaborador-portal/internal/repository"
	"github.com/beckershow/colaborador-portal/internal/rules"
	apperrors "github.com/beckershow/colaborador-portal/pkg/util/errorutil"
)

// ConfigService owns the global defaults, team configs and individual overrides.
type ConfigService struct {
	settings   repository.SettingsRepository
	teams      repository.TeamConfigRepository
	overrides  repository.UserOverrideRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// ConfigDependencies bundles repositories for the config service.
type ConfigDependencies struct {
	SettingsRepo repository.SettingsRepository
	TeamRepo     repository.TeamConfigRepository
	OverrideRepo repository.UserOverrideRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewConfigService constructs the service.
func NewConfigService(deps ConfigDependencies) *ConfigService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{
		settings:   deps.SettingsRepo,
		teams:      deps.TeamRepo,
		overrides:  deps.OverrideRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// GlobalDefaultsInput is a super-admin edit of the global defaults.
type GlobalDefaultsInput struct {
	LimitsEnabled              bool
	MaxPerDay                  int
	MaxPerWeek                 int
	IndividualOverridesAllowed bool
}

// TeamConfigInput is a gestor edit of their team config.
type TeamConfigInput struct {
	Behavior                domain.TeamBehavior
	LimitsEnabled           bool
	MaxPerDay               int
	MaxPerWeek              int
	IndividualLimitsEnabled bool
}

// TeamConfigView is a team config as shown to its gestor. Persisted is false
// when the config mirrors the global defaults because none was saved yet.
type TeamConfigView struct {
	Config    domain.TeamConfig
	Persisted bool
	Global    domain.GlobalDefaults
}

// RoleConfigView is the configuration variant selected by the caller's role.
// Exactly one of Global and Team is set.
type RoleConfigView struct {
	Scope  domain.ConfigScope
	Global *domain.GlobalDefaults
	Team   *TeamConfigView
}

// TeamMemberLimits is one row of the team limits table.
type TeamMemberLimits struct {
	UserID    string
	Name      string
	Override  *domain.UserOverride
	Effective rules.EffectiveLimits
}

// GetGlobalDefaults returns the platform defaults.
func (s *ConfigService) GetGlobalDefaults(ctx context.Context) (domain.GlobalDefaults, error) {
	return s.settings.GetGlobalDefaults(ctx)
}

// SaveGlobalDefaults validates and stores the platform defaults. A save that
// changes nothing returns the stored value without writing.
func (s *ConfigService) SaveGlobalDefaults(ctx context.Context, actor *domain.User, input GlobalDefaultsInput) (domain.GlobalDefaults, error) {
	if actor == nil || actor.Role != domain.RoleSuperAdmin {
		return domain.GlobalDefaults{}, apperrors.NewForbidden("only a super admin can change the global defaults")
	}
	policy, err := domain.NewLimitPolicy(input.MaxPerDay, input.MaxPerWeek)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}

	current, err := s.settings.GetGlobalDefaults(ctx)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}
	next := domain.GlobalDefaults{
		LimitsEnabled:              input.LimitsEnabled,
		Policy:                     policy,
		IndividualOverridesAllowed: input.IndividualOverridesAllowed,
		UpdatedBy:                  &actor.ID,
	}
	if current.Equal(next) {
		return current, nil
	}

	saved, err := s.settings.SaveGlobalDefaults(ctx, next)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}

	s.metrics.RecordConfigSave(string(domain.ConfigScopeGlobal))
	s.logger.Info("global feedback defaults saved",
		zap.String("actor_id", actor.ID),
		zap.Bool("limits_enabled", saved.LimitsEnabled),
		zap.Int("max_per_day", saved.Policy.MaxPerDay()),
		zap.Int("max_per_week", saved.Policy.MaxPerWeek()),
		zap.Bool("individual_overrides_allowed", saved.IndividualOverridesAllowed),
	)
	s.publishEvent(ctx, events.NewEvent(events.EventSettingsUpdated, string(domain.ConfigScopeGlobal), actorOf(actor),
		events.SettingsUpdatedPayload{Scope: domain.ConfigScopeGlobal, Change: "global_defaults"}))
	return saved, nil
}

// GetTeamConfig returns the team config for managerID, or a mirror of the global
// defaults when the team never saved one.
func (s *ConfigService) GetTeamConfig(ctx context.Context, actor *domain.User, managerID string) (TeamConfigView, error) {
	if !canManageTeam(actor, managerID) {
		return TeamConfigView{}, apperrors.NewForbidden("not allowed to view this team configuration")
	}
	global, team, err := s.loadTiers(ctx, managerID)
	if err != nil {
		return TeamConfigView{}, err
	}
	return teamView(managerID, global, team), nil
}

// SaveTeamConfig validates and stores the team config. Enabling individual
// limits requires the global switch to allow overrides.
func (s *ConfigService) SaveTeamConfig(ctx context.Context, actor *domain.User, managerID string, input TeamConfigInput) (TeamConfigView, error) {
	if !canManageTeam(actor, managerID) {
		return TeamConfigView{}, apperrors.NewForbidden("not allowed to change this team configuration")
	}
	if actor.ID != managerID {
		if err := s.requireGestor(ctx, managerID); err != nil {
			return TeamConfigView{}, err
		}
	}
	policy, err := domain.NewLimitPolicy(input.MaxPerDay, input.MaxPerWeek)
	if err != nil {
		return TeamConfigView{}, err
	}

	global, current, err := s.loadTiers(ctx, managerID)
	if err != nil {
		return TeamConfigView{}, err
	}

	alreadyEnabled := current != nil && current.IndividualLimitsEnabled
	if input.IndividualLimitsEnabled && !alreadyEnabled && !global.IndividualOverridesAllowed {
		return TeamConfigView{}, apperrors.NewForbidden("individual limits are not allowed by the global settings")
	}

	next := domain.TeamConfig{
		ManagerID:               managerID,
		Behavior:                input.Behavior,
		LimitsEnabled:           input.LimitsEnabled,
		Policy:                  policy,
		IndividualLimitsEnabled: input.IndividualLimitsEnabled,
		UpdatedBy:               &actor.ID,
	}
	if current != nil && current.Equal(next) {
		return teamView(managerID, global, current), nil
	}

	saved, err := s.teams.Upsert(ctx, next)
	if err != nil {
		return TeamConfigView{}, err
	}

	s.metrics.RecordConfigSave(string(domain.ConfigScopeTeam))
	s.logger.Info("team feedback config saved",
		zap.String("actor_id", actor.ID),
		zap.String("manager_id", managerID),
		zap.Bool("limits_enabled", saved.LimitsEnabled),
		zap.Int("max_per_day", saved.Policy.MaxPerDay()),
		zap.Int("max_per_week", saved.Policy.MaxPerWeek()),
		zap.Bool("individual_limits_enabled", saved.IndividualLimitsEnabled),
		zap.Bool("require_approval", saved.Behavior.RequireApproval),
	)
	s.publishEvent(ctx, events.NewEvent(events.EventSettingsUpdated, managerID, actorOf(actor),
		events.SettingsUpdatedPayload{Scope: domain.ConfigScopeTeam, ManagerID: managerID, Change: "team_config"}))
	return teamView(managerID, global, &saved), nil
}

// GetConfigForRole returns the global defaults to a super-admin and the own
// team config to a gestor.
func (s *ConfigService) GetConfigForRole(ctx context.Context, actor *domain.User) (RoleConfigView, error) {
	if actor == nil {
		return RoleConfigView{}, apperrors.NewUnauthorized("authentication required")
	}
	scope, err := domain.ConfigScopeFor(actor.Role)
	if err != nil {
		return RoleConfigView{}, apperrors.NewForbidden(err.Error())
	}

	switch scope {
	case domain.ConfigScopeGlobal:
		global, err := s.GetGlobalDefaults(ctx)
		if err != nil {
			return RoleConfigView{}, err
		}
		return RoleConfigView{Scope: scope, Global: &global}, nil
	default:
		view, err := s.GetTeamConfig(ctx, actor, actor.ID)
		if err != nil {
			return RoleConfigView{}, err
		}
		return RoleConfigView{Scope: scope, Team: &view}, nil
	}
}

// ListTeamMembersWithOverrides lists the team with each member's override and
// resulting effective limits. Members without an override have a nil Override.
func (s *ConfigService) ListTeamMembersWithOverrides(ctx context.Context, actor *domain.User, managerID string) ([]TeamMemberLimits, error) {
	if !canManageTeam(actor, managerID) {
		return nil, apperrors.NewForbidden("not allowed to view this team")
	}

	var (
		global  domain.GlobalDefaults
		team    *domain.TeamConfig
		members []repository.TeamMemberOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		global, err = s.settings.GetGlobalDefaults(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		team, err = s.teams.Get(gctx, managerID)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = s.overrides.ListTeamMembers(gctx, managerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]TeamMemberLimits, 0, len(members))
	for _, m := range members {
		result = append(result, TeamMemberLimits{
			UserID:    m.UserID,
			Name:      m.Name,
			Override:  m.Override,
			Effective: rules.ResolveEffectiveLimits(global, team, m.Override),
		})
	}
	return result, nil
}

// SetUserOverride stores an individual cap for a team member. Both fields
// inheriting removes the override.
func (s *ConfigService) SetUserOverride(ctx context.Context, actor *domain.User, userID string, maxPerDay, maxPerWeek domain.Override[int]) (*domain.UserOverride, error) {
	target, managerID, err := s.managedMember(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	global, team, err := s.loadTiers(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if !global.IndividualOverridesAllowed {
		return nil, apperrors.NewForbidden("individual limits are not allowed by the global settings")
	}
	if team == nil || !team.IndividualLimitsEnabled {
		return nil, apperrors.NewForbidden("individual limits are disabled for this team")
	}

	override := domain.UserOverride{
		UserID:     target.ID,
		ManagerID:  managerID,
		MaxPerDay:  maxPerDay,
		MaxPerWeek: maxPerWeek,
		UpdatedBy:  &actor.ID,
	}
	if err := override.Validate(); err != nil {
		return nil, err
	}
	if override.IsEmpty() {
		if err := s.RemoveUserOverride(ctx, actor, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	saved, err := s.overrides.Upsert(ctx, override)
	if err != nil {
		return nil, err
	}

	s.logger.Info("individual feedback limit saved",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", userID),
		zap.Any("max_per_day", saved.MaxPerDay.Ptr()),
		zap.Any("max_per_week", saved.MaxPerWeek.Ptr()),
	)
	s.publishEvent(ctx, events.NewEvent(events.EventSettingsUpdated, userID, actorOf(actor),
		events.SettingsUpdatedPayload{Scope: domain.ConfigScopeTeam, ManagerID: managerID, UserID: userID, Change: "user_override_set"}))
	return &saved, nil
}

// RemoveUserOverride reverts a member to the team policy. Removing a missing
// override succeeds.
func (s *ConfigService) RemoveUserOverride(ctx context.Context, actor *domain.User, userID string) error {
	_, managerID, err := s.managedMember(ctx, actor, userID)
	if err != nil {
		return err
	}
	if err := s.overrides.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("individual feedback limit removed",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", userID),
	)
	s.publishEvent(ctx, events.NewEvent(events.EventSettingsUpdated, userID, actorOf(actor),
		events.SettingsUpdatedPayload{Scope: domain.ConfigScopeTeam, ManagerID: managerID, UserID: userID, Change: "user_override_removed"}))
	return nil
}

// loadTiers fetches the global defaults and the team config in parallel.
func (s *ConfigService) loadTiers(ctx context.Context, managerID string) (domain.GlobalDefaults, *domain.TeamConfig, error) {
	return loadTiers(ctx, s.settings, s.teams, managerID)
}

func (s *ConfigService) managedMember(ctx context.Context, actor *domain.User, userID string) (*domain.User, string, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, "", err
	}
	if target.ManagerID == nil || *target.ManagerID == "" {
		return nil, "", apperrors.NewValidationError("user does not belong to a team", map[string]any{"user_id": userID})
	}
	managerID := *target.ManagerID
	if !canManageTeam(actor, managerID) {
		return nil, "", apperrors.NewForbidden("user is not a member of your team")
	}
	return target, managerID, nil
}

func (s *ConfigService) requireGestor(ctx context.Context, managerID string) error {
	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("manager", map[string]any{"manager_id": managerID})
		}
		return err
	}
	if manager.Role != domain.RoleGestor {
		return apperrors.NewValidationError("user is not a gestor", map[string]any{"manager_id": managerID})
	}
	return nil
}

func (s *ConfigService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

func loadTiers(ctx context.Context, settings repository.SettingsRepository, teams repository.TeamConfigRepository, managerID string) (domain.GlobalDefaults, *domain.TeamConfig, error) {
	var (
		global domain.GlobalDefaults
		team   *domain.TeamConfig
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		global, err = settings.GetGlobalDefaults(gctx)
		return err
	})
	if managerID != "" {
		g.Go(func() error {
			var err error
			team, err = teams.Get(gctx, managerID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.GlobalDefaults{}, nil, err
	}
	return global, team, nil
}

func teamView(managerID string, global domain.GlobalDefaults, team *domain.TeamConfig) TeamConfigView {
	if team == nil {
		return TeamConfigView{
			Config:    domain.NewTeamConfigFromGlobal(managerID, global),
			Persisted: false,
			Global:    global,
		}
	}
	return TeamConfigView{Config: *team, Persisted: true, Global: global}
}

// canManageTeam reports whether actor may configure the team led by managerID.
func canManageTeam(actor *domain.User, managerID string) bool {
	if actor == nil || managerID == "" {
		return false
	}
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleGestor:
		return actor.ID == managerID
	default:
		return false
	}
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err),
		)
	}
}
