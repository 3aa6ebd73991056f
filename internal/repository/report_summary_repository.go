package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ReportSummaryRepository runs the read-only rollups behind report summaries.
// Callers are expected to pass a snapshot transaction so both reads agree.
type ReportSummaryRepository struct {
	db *sqlx.DB
}

func NewReportSummaryRepository(db *sqlx.DB) *ReportSummaryRepository {
	return &ReportSummaryRepository{db: db}
}

func (r *ReportSummaryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// AttendanceTotals counts all and present-only attendance rows for the class in the window.
func (r *ReportSummaryRepository) AttendanceTotals(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (total int, present int, err error) {
	const query = `SELECT COUNT(a.id) AS total,
COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0) AS present
FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE s.class_id = $1 AND a.date BETWEEN $2 AND $3`
	if err = r.exec(exec).QueryRowxContext(ctx, query, classID, start, end).Scan(&total, &present); err != nil {
		return 0, 0, fmt.Errorf("aggregate attendance: %w", err)
	}
	return total, present, nil
}

// ViolationCount counts violation events for the class in the window.
func (r *ReportSummaryRepository) ViolationCount(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (int, error) {
	const query = `SELECT COUNT(e.id)
FROM behavior_events e
JOIN students s ON s.id = e.student_id
WHERE s.class_id = $1 AND e.category = 'violation' AND e.date BETWEEN $2 AND $3`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, classID, start, end); err != nil {
		return 0, fmt.Errorf("aggregate violations: %w", err)
	}
	return count, nil
}
