package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// ReportFilter captures listing parameters. A nil OwnerID lists every owner.
type ReportFilter struct {
	OwnerID   *int64
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// ReportRepository encapsulates daily report persistence. Monitoring records are
// written together with their report in one transaction.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.DailyReport) error
	Update(ctx context.Context, report *domain.DailyReport) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.DailyReport, error)
	OwnerOf(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, filter ReportFilter) ([]domain.DailyReport, int, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Create(ctx context.Context, report *domain.DailyReport) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO daily_reports (user_id, report_date, problem, plan)
            VALUES ($1, $2, $3, $4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			report.OwnerID,
			report.ReportDate,
			report.Problem,
			report.Plan,
		).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
			return translate(err)
		}
		return insertRecords(ctx, tx, report)
	})
}

func (r *reportRepository) Update(ctx context.Context, report *domain.DailyReport) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE daily_reports SET problem=$1, plan=$2, updated_at=NOW()
            WHERE id=$3
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query, report.Problem, report.Plan, report.ID).Scan(&report.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM monitoring_records WHERE report_id=$1`, report.ID); err != nil {
			return err
		}
		return insertRecords(ctx, tx, report)
	})
}

func insertRecords(ctx context.Context, tx pgx.Tx, report *domain.DailyReport) error {
	const query = `
        INSERT INTO monitoring_records (report_id, server_id, monitoring_content)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	for i := range report.MonitoringRecords {
		rec := &report.MonitoringRecords[i]
		rec.ReportID = report.ID
		if err := tx.QueryRow(ctx, query, report.ID, rec.ServerID, rec.Content).Scan(&rec.ID, &rec.CreatedAt); err != nil {
			return translate(err)
		}
	}
	report.MonitoringCount = len(report.MonitoringRecords)
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM daily_reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *reportRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner int64
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM daily_reports WHERE id=$1`, id).Scan(&owner); err != nil {
		return 0, err
	}
	return owner, nil
}

func (r *reportRepository) GetByID(ctx context.Context, id int64) (*domain.DailyReport, error) {
	const query = `
        SELECT r.id, r.user_id, u.name, r.report_date, r.problem, r.plan, r.created_at, r.updated_at
        FROM daily_reports r JOIN users u ON u.id = r.user_id
        WHERE r.id=$1`

	var report domain.DailyReport
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.OwnerID,
		&report.OwnerName,
		&report.ReportDate,
		&report.Problem,
		&report.Plan,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}

	records, err := r.records(ctx, id)
	if err != nil {
		return nil, err
	}
	report.MonitoringRecords = records
	report.MonitoringCount = len(records)

	comments, err := listComments(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	report.Comments = comments
	report.CommentCount = len(comments)
	return &report, nil
}

func (r *reportRepository) records(ctx context.Context, reportID int64) ([]domain.MonitoringRecord, error) {
	const query = `
        SELECT m.id, m.report_id, m.server_id, s.name, m.monitoring_content, m.created_at
        FROM monitoring_records m JOIN discord_servers s ON s.id = m.server_id
        WHERE m.report_id=$1 ORDER BY m.id`

	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MonitoringRecord
	for rows.Next() {
		var rec domain.MonitoringRecord
		if err := rows.Scan(&rec.ID, &rec.ReportID, &rec.ServerID, &rec.ServerName, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.DailyReport, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("r.user_id=$%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		clauses = append(clauses, fmt.Sprintf("r.report_date >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		clauses = append(clauses, fmt.Sprintf("r.report_date <= $%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_reports r WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT r.id, r.user_id, u.name, r.report_date, r.problem, r.plan, r.created_at, r.updated_at,
               (SELECT COUNT(*) FROM monitoring_records m WHERE m.report_id = r.id),
               (SELECT COUNT(*) FROM comments c WHERE c.report_id = r.id)
        FROM daily_reports r JOIN users u ON u.id = r.user_id
        WHERE %s ORDER BY r.report_date DESC, r.id DESC LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []domain.DailyReport
	for rows.Next() {
		var report domain.DailyReport
		if err := rows.Scan(
			&report.ID,
			&report.OwnerID,
			&report.OwnerName,
			&report.ReportDate,
			&report.Problem,
			&report.Plan,
			&report.CreatedAt,
			&report.UpdatedAt,
			&report.MonitoringCount,
			&report.CommentCount,
		); err != nil {
			return nil, 0, err
		}
		reports = append(reports, report)
	}
	return reports, total, rows.Err()
}
