package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-records-api/internal/models"
)

const dateLayout = "2006-01-02"

// AttendanceRepository persists the per-student-per-day attendance ledger.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockDay takes a transaction-scoped advisory lock keyed by the calendar day.
// It must run inside the transaction performing the replace.
func (r *AttendanceRepository) LockDay(ctx context.Context, exec sqlx.ExtContext, date time.Time) error {
	key := "attendance:" + date.Format(dateLayout)
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock attendance day %s: %w", key, err)
	}
	return nil
}

// DeleteDay removes the day's rows for the given students.
func (r *AttendanceRepository) DeleteDay(ctx context.Context, exec sqlx.ExtContext, date time.Time, studentIDs []string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM attendance WHERE date = $1 AND student_id = ANY($2)`
	result, err := r.exec(exec).ExecContext(ctx, query, date, pq.Array(studentIDs))
	if err != nil {
		return 0, fmt.Errorf("delete attendance day: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attendance delete rows affected: %w", err)
	}
	return affected, nil
}

// InsertBatch writes the records in a single multi-row statement.
func (r *AttendanceRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	const columns = 12
	now := time.Now().UTC()
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*columns)
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		base := len(args)
		slots := make([]string, columns)
		for j := range slots {
			slots[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(slots, ", ")+")")
		args = append(args, rec.ID, rec.StudentID, rec.Date, rec.Status, rec.CheckInTime, rec.CheckOutTime,
			rec.Notes, rec.RecordedByID, rec.ParentNotified, rec.NotifiedAt, rec.CreatedAt, rec.UpdatedAt)
	}

	query := `INSERT INTO attendance (id, student_id, date, status, check_in_time, check_out_time, notes, recorded_by_id, parent_notified, notified_at, created_at, updated_at) VALUES ` +
		strings.Join(placeholders, ", ")
	if _, err := r.exec(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attendance batch: %w", err)
	}
	return nil
}

// ListDay returns a day's attendance joined with student identity. Rows whose student
// is missing are excluded by the inner join.
func (r *AttendanceRepository) ListDay(ctx context.Context, filter models.AttendanceDayFilter) ([]models.AttendanceDayRow, error) {
	where := []string{"a.date = $1"}
	args := []interface{}{filter.Date}
	if filter.Grade != "" {
		where = append(where, fmt.Sprintf("c.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Section != "" {
		where = append(where, fmt.Sprintf("c.section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	join := "LEFT JOIN classes c ON c.id = s.class_id"
	if filter.Grade != "" || filter.Section != "" {
		join = "JOIN classes c ON c.id = s.class_id"
	}

	query := fmt.Sprintf(`SELECT a.id, a.student_id, s.student_code, s.full_name AS student_name, a.date, a.status,
a.check_in_time, a.check_out_time, a.notes
FROM attendance a
JOIN students s ON s.id = a.student_id
%s
WHERE %s
ORDER BY s.full_name ASC`, join, strings.Join(where, " AND "))

	var rows []models.AttendanceDayRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance day: %w", err)
	}
	return rows, nil
}

// ListHistory returns a student's records, newest first.
func (r *AttendanceRepository) ListHistory(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceRecord, error) {
	where := []string{"student_id = $1"}
	args := []interface{}{filter.StudentID}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}

	query := fmt.Sprintf(`SELECT id, student_id, date, status, check_in_time, check_out_time, notes, recorded_by_id,
parent_notified, notified_at, created_at, updated_at
FROM attendance WHERE %s ORDER BY date DESC`, strings.Join(where, " AND "))

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return rows, nil
}
