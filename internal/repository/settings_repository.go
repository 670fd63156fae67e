package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

// SettingsRepository persists the platform-wide feedback defaults.
type SettingsRepository interface {
	GetGlobalDefaults(ctx context.Context) (domain.GlobalDefaults, error)
	SaveGlobalDefaults(ctx context.Context, defaults domain.GlobalDefaults) (domain.GlobalDefaults, error)
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a Postgres-backed implementation.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

// GetGlobalDefaults returns the stored row, or the built-in defaults when no
// super-admin has saved yet.
func (r *settingsRepository) GetGlobalDefaults(ctx context.Context) (domain.GlobalDefaults, error) {
	const query = `
        SELECT limits_enabled, max_per_day, max_per_week, individual_overrides_allowed, updated_by, updated_at
        FROM feedback_settings WHERE id=1`

	var (
		enabled, overrides bool
		day, week          int
		updatedBy          *string
		updatedAt          time.Time
	)
	err := r.pool.QueryRow(ctx, query).Scan(&enabled, &day, &week, &overrides, &updatedBy, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultGlobalDefaults(), nil
	}
	if err != nil {
		return domain.GlobalDefaults{}, err
	}

	policy, err := domain.NewLimitPolicy(day, week)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}
	return domain.GlobalDefaults{
		LimitsEnabled:              enabled,
		Policy:                     policy,
		IndividualOverridesAllowed: overrides,
		UpdatedBy:                  updatedBy,
		UpdatedAt:                  updatedAt,
	}, nil
}

func (r *settingsRepository) SaveGlobalDefaults(ctx context.Context, defaults domain.GlobalDefaults) (domain.GlobalDefaults, error) {
	const query = `
        INSERT INTO feedback_settings (id, limits_enabled, max_per_day, max_per_week, individual_overrides_allowed, updated_by, updated_at)
        VALUES (1, $1, $2, $3, $4, $5, NOW())
        ON CONFLICT (id) DO UPDATE SET
            limits_enabled=EXCLUDED.limits_enabled,
            max_per_day=EXCLUDED.max_per_day,
            max_per_week=EXCLUDED.max_per_week,
            individual_overrides_allowed=EXCLUDED.individual_overrides_allowed,
            updated_by=EXCLUDED.updated_by,
            updated_at=EXCLUDED.updated_at
        RETURNING updated_at`

	if err := r.pool.QueryRow(ctx, query,
		defaults.LimitsEnabled,
		defaults.Policy.MaxPerDay(),
		defaults.Policy.MaxPerWeek(),
		defaults.IndividualOverridesAllowed,
		defaults.UpdatedBy,
	).Scan(&defaults.UpdatedAt); err != nil {
		return domain.GlobalDefaults{}, err
	}
	return defaults, nil
}
