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

func TestBehaviorRepositoryInsertAndAdjust(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO behavior_events")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET behavior_score = behavior_score + $1 WHERE id = $2 RETURNING behavior_score")).
		WithArgs(10, "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"behavior_score"}).AddRow(110))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	event := &models.BehaviorEvent{StudentID: "s-1", ReportedByID: "t-1", Type: "helping", Category: models.BehaviorCategoryPositive, Status: models.BehaviorStatusResolved, Points: 10, Date: time.Now()}
	require.NoError(t, repo.Insert(context.Background(), tx, event))
	require.NotEmpty(t, event.ID)

	score, err := repo.AdjustScore(context.Background(), tx, "s-1", 10)
	require.NoError(t, err)
	require.Equal(t, 110, score)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryGetForUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "student_id", "reported_by_id", "type", "category", "severity", "description", "date", "status", "action", "points", "resolved_at", "created_at", "updated_at"}).
		AddRow("e-1", "s-1", "t-1", "late", "violation", "low", "late to class", now, "pending", nil, 0, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM behavior_events e WHERE e.id = $1 FOR UPDATE")).
		WithArgs("e-1").
		WillReturnRows(rows)

	event, err := repo.GetForUpdate(context.Background(), nil, "e-1")
	require.NoError(t, err)
	require.Equal(t, models.BehaviorStatusPending, event.Status)
	require.Equal(t, models.SeverityLow, *event.Severity)

	mock.ExpectQuery(regexp.QuoteMeta("FROM behavior_events e WHERE e.id = $1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetForUpdate(context.Background(), nil, "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryUpdateResolutionGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	resolvedAt := time.Now().UTC()
	event := &models.BehaviorEvent{ID: "e-1", Status: models.BehaviorStatusResolved, Points: -15, ResolvedAt: &resolvedAt}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE behavior_events SET status = $1, action = $2, points = $3, resolved_at = $4, updated_at = $5 WHERE id = $6 AND status <> 'resolved'")).
		WithArgs(models.BehaviorStatusResolved, nil, -15, resolvedAt, sqlmock.AnyArg(), "e-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateResolution(context.Background(), nil, event))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE behavior_events SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.UpdateResolution(context.Background(), nil, event), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryListAndCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)
	now := time.Now()
	severity := models.SeverityHigh

	filter := models.BehaviorEventFilter{Category: models.BehaviorCategoryViolation, Severity: &severity, Page: 2, PageSize: 5}
	rows := sqlmock.NewRows([]string{"id", "student_id", "reported_by_id", "type", "category", "severity", "description", "date", "status", "action", "points", "resolved_at", "created_at", "updated_at", "student_code", "student_name", "current_score", "reported_by_name"}).
		AddRow("e-1", "s-1", "t-1", "fight", "violation", "high", "fight", now, "pending", nil, 0, nil, now, now, "STU-2025-0001", "Ada", 100, "Mr. T")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.category = $1 AND e.severity = $2 ORDER BY e.date DESC, e.created_at DESC LIMIT 5 OFFSET 5")).
		WithArgs(models.BehaviorCategoryViolation, severity).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM behavior_events e JOIN students s ON s.id = e.student_id WHERE e.category = $1 AND e.severity = $2")).
		WithArgs(models.BehaviorCategoryViolation, severity).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE status = 'pending')")).
		WillReturnRows(sqlmock.NewRows([]string{"pending", "resolved"}).AddRow(4, 2))

	list, err := repo.List(context.Background(), nil, filter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Mr. T", *list[0].ReportedByName)

	total, err := repo.Count(context.Background(), nil, filter)
	require.NoError(t, err)
	require.Equal(t, 6, total)

	pending, resolved, err := repo.CountViolationStatuses(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 4, pending)
	require.Equal(t, 2, resolved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBehaviorRepositoryListCapsPageSize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBehaviorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.category = $1 ORDER BY e.date DESC, e.created_at DESC LIMIT 200 OFFSET 0")).
		WithArgs(models.BehaviorCategoryPositive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.List(context.Background(), nil, models.BehaviorEventFilter{Category: models.BehaviorCategoryPositive, PageSize: 1000})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
