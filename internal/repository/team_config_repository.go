package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

// TeamConfigRepository persists gestor team configurations.
type TeamConfigRepository interface {
	// Get returns nil without error when the team never saved a config.
	Get(ctx context.Context, managerID string) (*domain.TeamConfig, error)
	Upsert(ctx context.Context, cfg domain.TeamConfig) (domain.TeamConfig, error)
}

type teamConfigRepository struct {
	pool *pgxpool.Pool
}

// NewTeamConfigRepository constructs repository.
func NewTeamConfigRepository(pool *pgxpool.Pool) TeamConfigRepository {
	return &teamConfigRepository{pool: pool}
}

func (r *teamConfigRepository) Get(ctx context.Context, managerID string) (*domain.TeamConfig, error) {
	const query = `
        SELECT manager_id, allow_any_recipient, allow_public_sharing, require_approval,
               limits_enabled, max_per_day, max_per_week, individual_limits_enabled, updated_by, updated_at
        FROM team_feedback_configs WHERE manager_id=$1`

	var (
		cfg       domain.TeamConfig
		day, week int
	)
	err := r.pool.QueryRow(ctx, query, managerID).Scan(
		&cfg.ManagerID,
		&cfg.Behavior.AllowAnyRecipient,
		&cfg.Behavior.AllowPublicSharing,
		&cfg.Behavior.RequireApproval,
		&cfg.LimitsEnabled,
		&day,
		&week,
		&cfg.IndividualLimitsEnabled,
		&cfg.UpdatedBy,
		&cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	policy, err := domain.NewLimitPolicy(day, week)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy
	return &cfg, nil
}

func (r *teamConfigRepository) Upsert(ctx context.Context, cfg domain.TeamConfig) (domain.TeamConfig, error) {
	const query = `
        INSERT INTO team_feedback_configs (manager_id, allow_any_recipient, allow_public_sharing, require_approval,
            limits_enabled, max_per_day, max_per_week, individual_limits_enabled, updated_by, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
        ON CONFLICT (manager_id) DO UPDATE SET
            allow_any_recipient=EXCLUDED.allow_any_recipient,
            allow_public_sharing=EXCLUDED.allow_public_sharing,
            require_approval=EXCLUDED.require_approval,
            limits_enabled=EXCLUDED.limits_enabled,
            max_per_day=EXCLUDED.max_per_day,
            max_per_week=EXCLUDED.max_per_week,
            individual_limits_enabled=EXCLUDED.individual_limits_enabled,
            updated_by=EXCLUDED.updated_by,
            updated_at=EXCLUDED.updated_at
        RETURNING updated_at`

	if err := r.pool.QueryRow(ctx, query,
		cfg.ManagerID,
		cfg.Behavior.AllowAnyRecipient,
		cfg.Behavior.AllowPublicSharing,
		cfg.Behavior.RequireApproval,
		cfg.LimitsEnabled,
		cfg.Policy.MaxPerDay(),
		cfg.Policy.MaxPerWeek(),
		cfg.IndividualLimitsEnabled,
		cfg.UpdatedBy,
	).Scan(&cfg.UpdatedAt); err != nil {
		return domain.TeamConfig{}, err
	}
	return cfg, nil
}
