package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
)

func TestDirectoryRepositoryResolveStudentCodes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_code FROM students WHERE student_code = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_code"}).AddRow("s-1", "STU-2025-0001"))

	resolved, err := repo.ResolveStudentCodes(context.Background(), nil, []string{"STU-2025-0001", "STU-2025-9999"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"STU-2025-0001": "s-1"}, resolved)

	empty, err := repo.ResolveStudentCodes(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepositoryFindTeacherByCodeMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDirectoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE employee_code = $1")).
		WithArgs("TCH-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindTeacherByCode(context.Background(), nil, "TCH-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryNext(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSequenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences (name, year, value) VALUES ($1, $2, 1) ON CONFLICT (name, year) DO UPDATE SET value = sequences.value + 1 RETURNING value")).
		WithArgs("report", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

	value, err := repo.Next(context.Background(), nil, "report", 2025)
	require.NoError(t, err)
	require.Equal(t, int64(7), value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportSummaryRepositoryAggregates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportSummaryRepository(db)
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1 AND a.date BETWEEN $2 AND $3")).
		WithArgs("c-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"total", "present"}).AddRow(50, 40))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.class_id = $1 AND e.category = 'violation' AND e.date BETWEEN $2 AND $3")).
		WithArgs("c-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, present, err := repo.AttendanceTotals(context.Background(), nil, "c-1", start, end)
	require.NoError(t, err)
	require.Equal(t, 50, total)
	require.Equal(t, 40, present)

	violations, err := repo.ViolationCount(context.Background(), nil, "c-1", start, end)
	require.NoError(t, err)
	require.Equal(t, 2, violations)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryScoreDrifts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("HAVING s.behavior_score <> $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_code", "stored_score", "expected_score"}).AddRow("s-1", "STU-2025-0001", 70, 85))

	drifts, err := repo.ScoreDrifts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.Equal(t, 85, drifts[0].ExpectedScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryAttendanceByGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)
	since := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`LEFT JOIN classes c ON c.id = s.class_id\s+WHERE a.date >= \$1\s+GROUP BY COALESCE\(c.grade, ''\)`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"grade", "total", "present", "absent"}).
			AddRow("10", 30, 27, 2).
			AddRow("", 4, 1, 3))

	rows, err := repo.AttendanceByGrade(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, models.GradeAttendance{Grade: "10", Total: 30, Present: 27, Absent: 2}, rows[0])
	require.NoError(t, mock.ExpectationsWereMet())
}
