package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// CommentRepository persists manager comments on reports.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	UpdateText(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	OwnerOf(ctx context.Context, id int64) (int64, error)
	ListByReport(ctx context.Context, reportID int64) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (report_id, user_id, target_field, comment_text)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		comment.ReportID,
		comment.OwnerID,
		comment.TargetField,
		comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	return translate(err)
}

func (r *commentRepository) UpdateText(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE comments SET comment_text=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, comment.Text, comment.ID).Scan(&comment.UpdatedAt)
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner int64
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM comments WHERE id=$1`, id).Scan(&owner); err != nil {
		return 0, err
	}
	return owner, nil
}

func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	const query = `
        SELECT c.id, c.report_id, c.user_id, u.name, c.target_field, c.comment_text, c.created_at, c.updated_at
        FROM comments c JOIN users u ON u.id = c.user_id
        WHERE c.id=$1`
	return scanComment(r.pool.QueryRow(ctx, query, id))
}

func (r *commentRepository) ListByReport(ctx context.Context, reportID int64) ([]domain.Comment, error) {
	return listComments(ctx, r.pool, reportID)
}

func listComments(ctx context.Context, pool *pgxpool.Pool, reportID int64) ([]domain.Comment, error) {
	const query = `
        SELECT c.id, c.report_id, c.user_id, u.name, c.target_field, c.comment_text, c.created_at, c.updated_at
        FROM comments c JOIN users u ON u.id = c.user_id
        WHERE c.report_id=$1 ORDER BY c.created_at ASC, c.id ASC`

	rows, err := pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var comment domain.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.ReportID,
		&comment.OwnerID,
		&comment.OwnerName,
		&comment.TargetField,
		&comment.Text,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
