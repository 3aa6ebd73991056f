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

const behaviorEventColumns = `e.id, e.student_id, e.reported_by_id, e.type, e.category, e.severity, e.description, e.date,
e.status, e.action, e.points, e.resolved_at, e.created_at, e.updated_at`

// BehaviorRepository manages the behaviour event ledger and the score projection on students.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a new repository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

func (r *BehaviorRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert appends a new event to the ledger.
func (r *BehaviorRepository) Insert(ctx context.Context, exec sqlx.ExtContext, event *models.BehaviorEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO behavior_events (id, student_id, reported_by_id, type, category, severity, description, date, status, action, points, resolved_at, created_at, updated_at)
VALUES (:id, :student_id, :reported_by_id, :type, :category, :severity, :description, :date, :status, :action, :points, :resolved_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, event); err != nil {
		return fmt.Errorf("insert behavior event: %w", err)
	}
	return nil
}

// AdjustScore applies delta to the student's balance in place and returns the new value.
func (r *BehaviorRepository) AdjustScore(ctx context.Context, exec sqlx.ExtContext, studentID string, delta int) (int, error) {
	const query = `UPDATE students SET behavior_score = behavior_score + $1 WHERE id = $2 RETURNING behavior_score`
	var score int
	if err := sqlx.GetContext(ctx, r.exec(exec), &score, query, delta, studentID); err != nil {
		return 0, fmt.Errorf("adjust behavior score: %w", err)
	}
	return score, nil
}

// CurrentScore reads the student's balance.
func (r *BehaviorRepository) CurrentScore(ctx context.Context, exec sqlx.ExtContext, studentID string) (int, error) {
	var score int
	if err := sqlx.GetContext(ctx, r.exec(exec), &score, `SELECT behavior_score FROM students WHERE id = $1`, studentID); err != nil {
		return 0, fmt.Errorf("read behavior score: %w", err)
	}
	return score, nil
}

// GetForUpdate loads an event and row-locks it until the surrounding transaction ends.
func (r *BehaviorRepository) GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BehaviorEvent, error) {
	query := `SELECT ` + behaviorEventColumns + ` FROM behavior_events e WHERE e.id = $1 FOR UPDATE`
	var event models.BehaviorEvent
	if err := sqlx.GetContext(ctx, r.exec(exec), &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateResolution persists a workflow change. The status guard makes a second resolve
// of the same event affect no rows; sql.ErrNoRows is returned in that case.
func (r *BehaviorRepository) UpdateResolution(ctx context.Context, exec sqlx.ExtContext, event *models.BehaviorEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE behavior_events SET status = $1, action = $2, points = $3, resolved_at = $4, updated_at = $5
WHERE id = $6 AND status <> 'resolved'`
	result, err := r.exec(exec).ExecContext(ctx, query, event.Status, event.Action, event.Points, event.ResolvedAt, event.UpdatedAt, event.ID)
	if err != nil {
		return fmt.Errorf("update behavior event status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("behavior event rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func behaviorWhere(filter models.BehaviorEventFilter) (string, []interface{}) {
	where := []string{"e.category = $1"}
	args := []interface{}{filter.Category}
	if filter.Severity != nil {
		where = append(where, fmt.Sprintf("e.severity = $%d", len(args)+1))
		args = append(args, *filter.Severity)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	return strings.Join(where, " AND "), args
}

// List returns a page of events joined with student and reporter names.
func (r *BehaviorRepository) List(ctx context.Context, exec sqlx.ExtContext, filter models.BehaviorEventFilter) ([]models.BehaviorEventDetail, error) {
	whereClause, args := behaviorWhere(filter)
	page, size := models.PageBounds(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, s.student_code, s.full_name AS student_name, s.behavior_score AS current_score,
t.full_name AS reported_by_name
FROM behavior_events e
JOIN students s ON s.id = e.student_id
LEFT JOIN teachers t ON t.id = e.reported_by_id
WHERE %s ORDER BY e.date DESC, e.created_at DESC LIMIT %d OFFSET %d`, behaviorEventColumns, whereClause, size, offset)

	var rows []models.BehaviorEventDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list behavior events: %w", err)
	}
	return rows, nil
}

// Count returns the number of events matching filter, ignoring pagination.
func (r *BehaviorRepository) Count(ctx context.Context, exec sqlx.ExtContext, filter models.BehaviorEventFilter) (int, error) {
	whereClause, args := behaviorWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM behavior_events e JOIN students s ON s.id = e.student_id WHERE %s`, whereClause)
	var total int
	if err := sqlx.GetContext(ctx, r.exec(exec), &total, query, args...); err != nil {
		return 0, fmt.Errorf("count behavior events: %w", err)
	}
	return total, nil
}

// CountViolationStatuses returns the global pending and resolved violation counts.
func (r *BehaviorRepository) CountViolationStatuses(ctx context.Context, exec sqlx.ExtContext) (pending int, resolved int, err error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE status = 'pending') AS pending,
COUNT(*) FILTER (WHERE status = 'resolved') AS resolved
FROM behavior_events WHERE category = 'violation'`
	if err = r.exec(exec).QueryRowxContext(ctx, query).Scan(&pending, &resolved); err != nil {
		return 0, 0, fmt.Errorf("count violation statuses: %w", err)
	}
	return pending, resolved, nil
}
