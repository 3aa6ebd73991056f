package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const reportColumns = `r.id, r.report_number, r.title, r.type, r.grade, r.class_id, r.period_start, r.period_end,
r.created_by_id, r.status, r.summary, r.content, r.comments, r.approved_by_id, r.approved_at, r.published_at,
r.download_count, r.created_at, r.updated_at`

const reportDetailFrom = `FROM reports r
LEFT JOIN users u ON u.id = r.created_by_id
LEFT JOIN classes c ON c.id = r.class_id`

// ReportRepository persists report snapshots and their approval state.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert writes a new report row. The summary is stored once and never updated.
func (r *ReportRepository) Insert(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO reports (id, report_number, title, type, grade, class_id, period_start, period_end, created_by_id, status, summary, content, comments, approved_by_id, approved_at, published_at, download_count, created_at, updated_at)
VALUES (:id, :report_number, :title, :type, :grade, :class_id, :period_start, :period_end, :created_by_id, :status, :summary, :content, :comments, :approved_by_id, :approved_at, :published_at, :download_count, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetDetail returns the report joined with creator and class. sql.ErrNoRows is passed through.
func (r *ReportRepository) GetDetail(ctx context.Context, id string) (*models.ReportDetail, error) {
	query := `SELECT ` + reportColumns + `, u.full_name AS created_by_name, c.name AS class_name,
c.grade AS class_grade, c.section AS class_section ` + reportDetailFrom + ` WHERE r.id = $1`
	var detail models.ReportDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetForUpdate loads and row-locks a report inside the caller's transaction.
func (r *ReportRepository) GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports r WHERE r.id = $1 FOR UPDATE`
	var report models.Report
	if err := sqlx.GetContext(ctx, r.exec(exec), &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReportTransition describes one lifecycle move. From guards against concurrent moves.
type ReportTransition struct {
	From         models.ReportStatus
	To           models.ReportStatus
	ApprovedByID *string
	ApprovedAt   *time.Time
	PublishedAt  *time.Time
	Comments     *string
}

// Transition applies t to the report; sql.ErrNoRows when the report is no longer in t.From.
func (r *ReportRepository) Transition(ctx context.Context, exec sqlx.ExtContext, id string, t ReportTransition) error {
	set := []string{"status = $1"}
	args := []interface{}{t.To}
	argPos := 2

	if t.ApprovedByID != nil {
		set = append(set, fmt.Sprintf("approved_by_id = $%d", argPos))
		args = append(args, *t.ApprovedByID)
		argPos++
	}
	if t.ApprovedAt != nil {
		set = append(set, fmt.Sprintf("approved_at = $%d", argPos))
		args = append(args, *t.ApprovedAt)
		argPos++
	}
	if t.PublishedAt != nil {
		set = append(set, fmt.Sprintf("published_at = $%d", argPos))
		args = append(args, *t.PublishedAt)
		argPos++
	}
	if t.Comments != nil {
		set = append(set, fmt.Sprintf("comments = $%d", argPos))
		args = append(args, *t.Comments)
		argPos++
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = $%d AND status = $%d", strings.Join(set, ", "), argPos, argPos+1)
	args = append(args, id, t.From)

	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report transition rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns a page of reports, newest first, with the total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.ReportDetail, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("r.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("r.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("r.created_by_id = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	whereClause := strings.Join(where, " AND ")
	page, size := models.PageBounds(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, u.full_name AS created_by_name, c.name AS class_name,
c.grade AS class_grade, c.section AS class_section %s
WHERE %s ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, reportColumns, reportDetailFrom, whereClause, size, offset)
	var rows []models.ReportDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports r WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	return rows, total, nil
}

// IncrementDownloadCount bumps the usage counter.
func (r *ReportRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	const query = `UPDATE reports SET download_count = download_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment report download count: %w", err)
	}
	return nil
}
