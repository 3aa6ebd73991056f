package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// DashboardRepository reads the counters shown on the administrator dashboard
// and audits the behaviour score projection.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts gathers every dashboard counter in one round trip.
func (r *DashboardRepository) Counts(ctx context.Context) (*models.DashboardCounts, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM students WHERE active) AS total_students,
(SELECT COUNT(*) FROM teachers) AS total_teachers,
(SELECT COUNT(*) FROM reports WHERE status = 'pending') AS pending_reports,
(SELECT COUNT(*) FROM behavior_events WHERE status = 'pending') AS pending_behavior_cases,
(SELECT COUNT(*) FROM attendance) AS total_attendance,
(SELECT COUNT(*) FROM attendance WHERE status = 'present') AS present_attendance`
	var counts models.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &counts, nil
}

// AttendanceByGrade tallies attendance rows dated on or after since, per class grade.
// Students without a class are grouped under an empty grade.
func (r *DashboardRepository) AttendanceByGrade(ctx context.Context, since time.Time) ([]models.GradeAttendance, error) {
	const query = `SELECT COALESCE(c.grade, '') AS grade, COUNT(a.id) AS total,
COUNT(*) FILTER (WHERE a.status = 'present') AS present,
COUNT(*) FILTER (WHERE a.status = 'absent') AS absent
FROM attendance a
JOIN students s ON s.id = a.student_id
LEFT JOIN classes c ON c.id = s.class_id
WHERE a.date >= $1
GROUP BY COALESCE(c.grade, '')
ORDER BY grade`
	var rows []models.GradeAttendance
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("attendance by grade: %w", err)
	}
	return rows, nil
}

// ScoreDrifts recomputes each balance from the ledger and returns students whose stored
// score disagrees. Positive events always count; violations count only once resolved
// with negative points.
func (r *DashboardRepository) ScoreDrifts(ctx context.Context, baseline int) ([]models.ScoreDrift, error) {
	const query = `SELECT s.id AS student_id, s.student_code, s.behavior_score AS stored_score,
$1 + COALESCE(SUM(
  CASE
    WHEN e.category = 'positive' THEN e.points
    WHEN e.category = 'violation' AND e.status = 'resolved' AND e.points < 0 THEN e.points
    ELSE 0
  END), 0) AS expected_score
FROM students s
LEFT JOIN behavior_events e ON e.student_id = s.id
GROUP BY s.id, s.student_code, s.behavior_score
HAVING s.behavior_score <> $1 + COALESCE(SUM(
  CASE
    WHEN e.category = 'positive' THEN e.points
    WHEN e.category = 'violation' AND e.status = 'resolved' AND e.points < 0 THEN e.points
    ELSE 0
  END), 0)
ORDER BY s.student_code`
	var drifts []models.ScoreDrift
	if err := r.db.SelectContext(ctx, &drifts, query, baseline); err != nil {
		return nil, fmt.Errorf("score drifts: %w", err)
	}
	return drifts, nil
}
