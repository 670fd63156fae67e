package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

// FeedbackRepository manages persistence for feedbacks.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	Update(ctx context.Context, fb *domain.Feedback) error
	GetByID(ctx context.Context, id string) (*domain.Feedback, error)
	Delete(ctx context.Context, id string) error
	// CountSentSince counts the sender's feedbacks created at or after dayStart and weekStart.
	CountSentSince(ctx context.Context, senderID string, dayStart, weekStart time.Time) (domain.SendCounters, error)
	ListPendingByManager(ctx context.Context, managerID string) ([]domain.Feedback, error)
	ListAllPending(ctx context.Context) ([]domain.Feedback, error)
	ListBySender(ctx context.Context, senderID string) ([]domain.Feedback, error)
	// ListByRecipient returns approved feedbacks only.
	ListByRecipient(ctx context.Context, recipientID string) ([]domain.Feedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository constructs repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

const feedbackColumns = `id, sender_id, recipient_id, manager_id, content, visibility, status,
               rejection_reason, reviewed_by, reviewed_at, created_at, updated_at`

func (r *feedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	const query = `
        INSERT INTO feedbacks (id, sender_id, recipient_id, manager_id, content, visibility, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		fb.ID,
		fb.SenderID,
		fb.RecipientID,
		fb.ManagerID,
		fb.Content,
		fb.Visibility,
		fb.Status,
	).Scan(&fb.CreatedAt, &fb.UpdatedAt)
}

func (r *feedbackRepository) Update(ctx context.Context, fb *domain.Feedback) error {
	const query = `
        UPDATE feedbacks SET content=$1, visibility=$2, status=$3, rejection_reason=$4,
            reviewed_by=$5, reviewed_at=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		fb.Content,
		fb.Visibility,
		fb.Status,
		fb.RejectionReason,
		fb.ReviewedBy,
		fb.ReviewedAt,
		fb.ID,
	).Scan(&fb.UpdatedAt)
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE id=$1`
	return scanFeedback(r.pool.QueryRow(ctx, query, id))
}

func (r *feedbackRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedbacks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *feedbackRepository) CountSentSince(ctx context.Context, senderID string, dayStart, weekStart time.Time) (domain.SendCounters, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE created_at >= $2),
               COUNT(*) FILTER (WHERE created_at >= $3)
        FROM feedbacks
        WHERE sender_id=$1 AND created_at >= LEAST($2::timestamptz, $3::timestamptz)`

	var today, week int64
	if err := r.pool.QueryRow(ctx, query, senderID, dayStart, weekStart).Scan(&today, &week); err != nil {
		return domain.SendCounters{}, err
	}
	return domain.SendCounters{SentToday: int(today), SentThisWeek: int(week)}, nil
}

func (r *feedbackRepository) ListPendingByManager(ctx context.Context, managerID string) ([]domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE manager_id=$1 AND status='pending' ORDER BY created_at`
	return r.list(ctx, query, managerID)
}

func (r *feedbackRepository) ListAllPending(ctx context.Context) ([]domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE status='pending' ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *feedbackRepository) ListBySender(ctx context.Context, senderID string) ([]domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE sender_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, senderID)
}

func (r *feedbackRepository) ListByRecipient(ctx context.Context, recipientID string) ([]domain.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE recipient_id=$1 AND status='approved' ORDER BY created_at DESC`
	return r.list(ctx, query, recipientID)
}

func (r *feedbackRepository) list(ctx context.Context, query string, args ...any) ([]domain.Feedback, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *fb)
	}
	return result, rows.Err()
}

func scanFeedback(row pgx.Row) (*domain.Feedback, error) {
	var fb domain.Feedback
	if err := row.Scan(
		&fb.ID,
		&fb.SenderID,
		&fb.RecipientID,
		&fb.ManagerID,
		&fb.Content,
		&fb.Visibility,
		&fb.Status,
		&fb.RejectionReason,
		&fb.ReviewedBy,
		&fb.ReviewedAt,
		&fb.CreatedAt,
		&fb.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &fb, nil
}
