package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/logger"
)

type attendanceRepository interface {
	LockDay(ctx context.Context, exec sqlx.ExtContext, date time.Time) error
	DeleteDay(ctx context.Context, exec sqlx.ExtContext, date time.Time, studentIDs []string) (int64, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.AttendanceRecord) error
	ListDay(ctx context.Context, filter models.AttendanceDayFilter) ([]models.AttendanceDayRow, error)
	ListHistory(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceRecord, error)
}

type attendanceDirectory interface {
	ResolveStudentCodes(ctx context.Context, exec sqlx.ExtContext, codes []string) (map[string]string, error)
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	FindTeacherByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// AttendanceService owns the daily attendance ledger.
type AttendanceService struct {
	repo      attendanceRepository
	directory attendanceDirectory
	tx        txProvider
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, directory attendanceDirectory, tx txProvider, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		directory: directory,
		tx:        tx,
		validator: newRecordsValidator(validate),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordDay replaces the day's attendance for every resolvable student in the batch.
// Unknown student codes are skipped; the rest are deleted and re-inserted atomically.
func (s *AttendanceService) RecordDay(ctx context.Context, actor models.Actor, req dto.RecordAttendanceRequest) (result *models.AttendanceDayResult, err error) {
	if strings.TrimSpace(req.Date) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateRequired, "date"))
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "date"))
	}
	if len(req.Records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgRecordsRequired))
	}
	if verr := s.validator.Struct(req); verr != nil {
		return nil, invalidPayload(verr, "attendance")
	}

	codes := make([]string, 0, len(req.Records))
	seen := make(map[string]struct{}, len(req.Records))
	for _, entry := range req.Records {
		if _, dup := seen[entry.StudentCode]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDuplicateStudentCode, entry.StudentCode))
		}
		seen[entry.StudentCode] = struct{}{}
		codes = append(codes, entry.StudentCode)
	}

	recordedBy := s.recorderID(ctx, actor)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.LockDay(ctx, tx, date); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "attendance"))
		return nil, err
	}

	resolved, err := s.directory.ResolveStudentCodes(ctx, tx, codes)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student codes")
		return nil, err
	}

	now := s.now().UTC()
	result = &models.AttendanceDayResult{}
	records := make([]models.AttendanceRecord, 0, len(resolved))
	studentIDs := make([]string, 0, len(resolved))
	for _, entry := range req.Records {
		studentID, found := resolved[entry.StudentCode]
		if !found {
			result.Skipped++
			continue
		}
		record := models.AttendanceRecord{
			StudentID:      studentID,
			Date:           date,
			Status:         entry.Status,
			CheckInTime:    models.NewClockTime(entry.CheckInTime),
			CheckOutTime:   models.NewClockTime(entry.CheckOutTime),
			Notes:          entry.Notes,
			RecordedByID:   recordedBy,
			ParentNotified: entry.ParentNotified,
		}
		if record.Notes == nil && entry.Reason != nil {
			record.Notes = entry.Reason
		}
		if entry.ParentNotified {
			notifiedAt := now
			record.NotifiedAt = &notifiedAt
		}
		records = append(records, record)
		studentIDs = append(studentIDs, studentID)
		result.Count(entry.Status)
	}

	if _, err = s.repo.DeleteDay(ctx, tx, date, studentIDs); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "attendance"))
		return nil, err
	}
	if err = s.repo.InsertBatch(ctx, tx, records); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "attendance"))
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "attendance"))
		return nil, err
	}

	s.metrics.ObserveAttendanceDay(*result)
	logger.WithContext(ctx, s.logger).Info("attendance day recorded",
		zap.String("date", req.Date),
		zap.Int("recorded", result.TotalRecorded),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *AttendanceService) recorderID(ctx context.Context, actor models.Actor) *string {
	if actor.UserID == "" {
		return nil
	}
	teacher, err := s.directory.FindTeacherByUserID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("recorder lookup failed", zap.String("userId", actor.UserID), zap.Error(err))
		}
		return nil
	}
	return &teacher.ID
}

// GetDay lists a day's attendance, optionally scoped to a grade and section.
func (s *AttendanceService) GetDay(ctx context.Context, query dto.AttendanceDayQuery) ([]models.AttendanceDayRow, error) {
	if strings.TrimSpace(query.Date) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateRequired, "date"))
	}
	date, ok := parseDate(query.Date)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "date"))
	}
	rows, err := s.repo.ListDay(ctx, models.AttendanceDayFilter{Date: date, Grade: query.Grade, Section: query.Section})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.AttendanceDayRow{}
	}
	return rows, nil
}

// GetHistory returns a student's records newest first with an attendance summary.
func (s *AttendanceService) GetHistory(ctx context.Context, studentID string, query dto.AttendanceHistoryQuery) (*models.AttendanceHistory, error) {
	if _, err := s.directory.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msg(msgStudentNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	filter := models.AttendanceHistoryFilter{StudentID: studentID}
	if query.StartDate != "" {
		start, ok := parseDate(query.StartDate)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "startDate"))
		}
		filter.StartDate = &start
	}
	if query.EndDate != "" {
		end, ok := parseDate(query.EndDate)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "endDate"))
		}
		filter.EndDate = &end
	}

	records, err := s.repo.ListHistory(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	return &models.AttendanceHistory{Summary: summarizeAttendance(records), Records: records}, nil
}

func summarizeAttendance(records []models.AttendanceRecord) models.AttendanceHistorySummary {
	summary := models.AttendanceHistorySummary{TotalDays: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusExcused:
			summary.Excused++
		}
	}
	summary.AttendanceRate = percentage(summary.Present+summary.Late, summary.TotalDays, 1)
	return summary
}

// percentage returns part/total*100 rounded half away from zero to places decimals, 0 when total is 0.
func percentage(part, total int, places int32) float64 {
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(places)
	value, _ := rate.Float64()
	return value
}
