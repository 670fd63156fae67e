package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

// TeamMemberOverride is a team member with their individual override, if any.
type TeamMemberOverride struct {
	UserID   string
	Name     string
	Override *domain.UserOverride
}

// UserOverrideRepository persists individual limit overrides.
type UserOverrideRepository interface {
	// Get returns nil without error when the user has no override. The override
	// may belong to a previous team; callers compare its ManagerID.
	Get(ctx context.Context, userID string) (*domain.UserOverride, error)
	Upsert(ctx context.Context, override domain.UserOverride) (domain.UserOverride, error)
	// Delete is idempotent.
	Delete(ctx context.Context, userID string) error
	ListTeamMembers(ctx context.Context, managerID string) ([]TeamMemberOverride, error)
}

type userOverrideRepository struct {
	pool *pgxpool.Pool
}

// NewUserOverrideRepository constructs repository.
func NewUserOverrideRepository(pool *pgxpool.Pool) UserOverrideRepository {
	return &userOverrideRepository{pool: pool}
}

func (r *userOverrideRepository) Get(ctx context.Context, userID string) (*domain.UserOverride, error) {
	const query = `
        SELECT user_id, manager_id, max_per_day, max_per_week, updated_by, updated_at
        FROM user_feedback_overrides WHERE user_id=$1`

	var (
		o         domain.UserOverride
		day, week *int
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&o.UserID, &o.ManagerID, &day, &week, &o.UpdatedBy, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.MaxPerDay = domain.OverrideFromPtr(day)
	o.MaxPerWeek = domain.OverrideFromPtr(week)
	return &o, nil
}

func (r *userOverrideRepository) Upsert(ctx context.Context, o domain.UserOverride) (domain.UserOverride, error) {
	const query = `
        INSERT INTO user_feedback_overrides (user_id, manager_id, max_per_day, max_per_week, updated_by, updated_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            manager_id=EXCLUDED.manager_id,
            max_per_day=EXCLUDED.max_per_day,
            max_per_week=EXCLUDED.max_per_week,
            updated_by=EXCLUDED.updated_by,
            updated_at=EXCLUDED.updated_at
        RETURNING updated_at`

	if err := r.pool.QueryRow(ctx, query,
		o.UserID,
		o.ManagerID,
		o.MaxPerDay.Ptr(),
		o.MaxPerWeek.Ptr(),
		o.UpdatedBy,
	).Scan(&o.UpdatedAt); err != nil {
		return domain.UserOverride{}, err
	}
	return o, nil
}

func (r *userOverrideRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_feedback_overrides WHERE user_id=$1`, userID)
	return err
}

func (r *userOverrideRepository) ListTeamMembers(ctx context.Context, managerID string) ([]TeamMemberOverride, error) {
	const query = `
        SELECT u.id, u.name, o.user_id, o.max_per_day, o.max_per_week, o.updated_by, o.updated_at
        FROM users u
        LEFT JOIN user_feedback_overrides o ON o.user_id = u.id AND o.manager_id = u.manager_id
        WHERE u.manager_id=$1
        ORDER BY u.name`

	rows, err := r.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TeamMemberOverride
	for rows.Next() {
		var (
			member       TeamMemberOverride
			overrideUser *string
			day, week    *int
			updatedBy    *string
			updatedAt    *time.Time
		)
		if err := rows.Scan(&member.UserID, &member.Name, &overrideUser, &day, &week, &updatedBy, &updatedAt); err != nil {
			return nil, err
		}
		if overrideUser != nil {
			member.Override = &domain.UserOverride{
				UserID:     member.UserID,
				ManagerID:  managerID,
				MaxPerDay:  domain.OverrideFromPtr(day),
				MaxPerWeek: domain.OverrideFromPtr(week),
				UpdatedBy:  updatedBy,
			}
			if updatedAt != nil {
				member.Override.UpdatedAt = *updatedAt
			}
		}
		result = append(result, member)
	}
	return result, rows.Err()
}
