package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(v string) *string { return &v }

func TestAttendanceRepositoryLockDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("attendance:2025-03-10").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockDay(context.Background(), nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDeleteDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE date = $1 AND student_id = ANY($2)")).
		WithArgs(date, pq.Array([]string{"s-1", "s-2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.DeleteDay(context.Background(), nil, date, []string{"s-1", "s-2"})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	affected, err = repo.DeleteDay(context.Background(), nil, date, nil)
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	records := []models.AttendanceRecord{
		{StudentID: "s-1", Date: date, Status: models.AttendanceStatusPresent},
		{StudentID: "s-2", Date: date, Status: models.AttendanceStatusLate, CheckInTime: models.NewClockTime(strPtr("07:45"))},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance (id, student_id, date, status, check_in_time, check_out_time, notes, recorded_by_id, parent_notified, notified_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12), ($13, $14,")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.InsertBatch(context.Background(), nil, records))
	require.NotEmpty(t, records[0].ID)
	require.NotEqual(t, records[0].ID, records[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListDayWithClassFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "student_id", "student_code", "student_name", "date", "status", "check_in_time", "check_out_time", "notes"}).
		AddRow("a-1", "s-1", "STU-2025-0001", "Ada", date, "present", "07:30:00", nil, nil)
	mock.ExpectQuery(`JOIN classes c ON c.id = s.class_id\s+WHERE a.date = \$1 AND c.grade = \$2 AND c.section = \$3`).
		WithArgs(date, "10", "A").
		WillReturnRows(rows)

	result, err := repo.ListDay(context.Background(), models.AttendanceDayFilter{Date: date, Grade: "10", Section: "A"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "STU-2025-0001", result[0].StudentCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "check_in_time", "check_out_time", "notes", "recorded_by_id", "parent_notified", "notified_at", "created_at", "updated_at"}).
		AddRow("a-2", "s-1", start.AddDate(0, 0, 1), "late", nil, nil, nil, nil, false, nil, now, now).
		AddRow("a-1", "s-1", start, "present", nil, nil, nil, nil, false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE student_id = $1 AND date >= $2 ORDER BY date DESC")).
		WithArgs("s-1", start).
		WillReturnRows(rows)

	result, err := repo.ListHistory(context.Background(), models.AttendanceHistoryFilter{StudentID: "s-1", StartDate: &start})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, models.AttendanceStatusLate, result[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFormatsClockColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	checkIn, err := time.Parse("15:04:05", "08:00:00")
	require.NoError(t, err)
	checkOut, err := time.Parse("15:04:05", "14:30:15")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE student_id = $1 ORDER BY date DESC")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "status", "check_in_time", "check_out_time", "notes", "recorded_by_id", "parent_notified", "notified_at", "created_at", "updated_at"}).
			AddRow("a-1", "s-1", date, "present", checkIn, checkOut, nil, nil, false, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.date = $1")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "student_code", "student_name", "date", "status", "check_in_time", "check_out_time", "notes"}).
			AddRow("a-1", "s-1", "STU-2025-0001", "Ada", date, "present", checkIn, nil, nil))

	history, err := repo.ListHistory(context.Background(), models.AttendanceHistoryFilter{StudentID: "s-1"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CheckInTime)
	require.Equal(t, models.ClockTime("08:00:00"), *history[0].CheckInTime)
	require.Equal(t, models.ClockTime("14:30:15"), *history[0].CheckOutTime)

	day, err := repo.ListDay(context.Background(), models.AttendanceDayFilter{Date: date})
	require.NoError(t, err)
	require.Len(t, day, 1)
	require.Equal(t, models.ClockTime("08:00:00"), *day[0].CheckInTime)
	require.Nil(t, day[0].CheckOutTime)
	require.NoError(t, mock.ExpectationsWereMet())
}
