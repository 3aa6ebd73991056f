package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/logger"
)

type behaviorRepository interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, event *models.BehaviorEvent) error
	AdjustScore(ctx context.Context, exec sqlx.ExtContext, studentID string, delta int) (int, error)
	CurrentScore(ctx context.Context, exec sqlx.ExtContext, studentID string) (int, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BehaviorEvent, error)
	UpdateResolution(ctx context.Context, exec sqlx.ExtContext, event *models.BehaviorEvent) error
	List(ctx context.Context, exec sqlx.ExtContext, filter models.BehaviorEventFilter) ([]models.BehaviorEventDetail, error)
	Count(ctx context.Context, exec sqlx.ExtContext, filter models.BehaviorEventFilter) (int, error)
	CountViolationStatuses(ctx context.Context, exec sqlx.ExtContext) (pending int, resolved int, err error)
}

type behaviorDirectory interface {
	FindStudentByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Student, error)
	FindTeacherByCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Teacher, error)
}

// BehaviorService maintains the behaviour event ledger and each student's running balance.
// Balance writes happen only here, in the same transaction as the event that causes them.
type BehaviorService struct {
	repo      behaviorRepository
	directory behaviorDirectory
	tx        txProvider
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewBehaviorService constructs the service.
func NewBehaviorService(repo behaviorRepository, directory behaviorDirectory, tx txProvider, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *BehaviorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorService{
		repo:      repo,
		directory: directory,
		tx:        tx,
		validator: newRecordsValidator(validate),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordViolation appends a pending violation worth zero points.
func (s *BehaviorService) RecordViolation(ctx context.Context, req dto.RecordViolationRequest) (*models.BehaviorEventDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "violation")
	}
	date, err := s.eventDate(req.Date)
	if err != nil {
		return nil, err
	}
	student, teacher, err := s.resolveParties(ctx, nil, req.StudentCode, req.EmployeeCode)
	if err != nil {
		return nil, err
	}

	severity := req.Severity
	event := &models.BehaviorEvent{
		StudentID:    student.ID,
		ReportedByID: teacher.ID,
		Type:         req.Type,
		Category:     models.BehaviorCategoryViolation,
		Severity:     &severity,
		Description:  req.Description,
		Date:         date,
		Status:       models.BehaviorStatusPending,
		Points:       0,
	}
	if err := s.repo.Insert(ctx, nil, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record violation")
	}
	s.metrics.ObserveBehaviorEvent(event.Category)

	reporter := teacher.FullName
	return &models.BehaviorEventDetail{
		BehaviorEvent:  *event,
		StudentCode:    student.StudentCode,
		StudentName:    student.FullName,
		ReportedByName: &reporter,
		CurrentScore:   student.BehaviorScore,
	}, nil
}

// RecordPositive appends a resolved positive event and credits the student's balance.
func (s *BehaviorService) RecordPositive(ctx context.Context, req dto.RecordPositiveRequest) (award *models.PositiveAward, err error) {
	if verr := s.validator.Struct(req); verr != nil {
		return nil, invalidPayload(verr, "positive behavior")
	}
	date, err := s.eventDate(req.Date)
	if err != nil {
		return nil, err
	}
	points := models.DefaultPositivePoints
	if req.Points != nil && *req.Points > 0 {
		points = *req.Points
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	student, teacher, err := s.resolveParties(ctx, tx, req.StudentCode, req.EmployeeCode)
	if err != nil {
		return nil, err
	}

	resolvedAt := s.now().UTC()
	event := &models.BehaviorEvent{
		StudentID:    student.ID,
		ReportedByID: teacher.ID,
		Type:         req.Type,
		Category:     models.BehaviorCategoryPositive,
		Description:  req.Description,
		Date:         date,
		Status:       models.BehaviorStatusResolved,
		Points:       points,
		ResolvedAt:   &resolvedAt,
	}
	if err = s.repo.Insert(ctx, tx, event); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "positive behavior"))
		return nil, err
	}
	score, err := s.repo.AdjustScore(ctx, tx, student.ID, points)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "positive behavior"))
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "positive behavior"))
		return nil, err
	}

	s.metrics.ObserveBehaviorEvent(event.Category)
	s.metrics.ObserveScoreAdjustment(points)
	return &models.PositiveAward{Event: *event, StudentName: student.FullName, CurrentScore: score}, nil
}

// ListViolations pages violations newest first. The page, its total and the global
// pending/resolved counts are read from one snapshot.
func (s *BehaviorService) ListViolations(ctx context.Context, query dto.ViolationQuery) (list *models.ViolationList, pagination *models.Pagination, err error) {
	filter := models.BehaviorEventFilter{Category: models.BehaviorCategoryViolation, Page: query.Page, PageSize: query.Limit}
	filter.Page, filter.PageSize = models.PageBounds(filter.Page, filter.PageSize)
	if query.Severity != "" {
		severity := models.BehaviorSeverity(query.Severity)
		if !severity.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid severity filter")
		}
		filter.Severity = &severity
	}
	if query.Status != "" {
		status := models.BehaviorStatus(query.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		filter.Status = &status
	}

	tx, err := s.tx.BeginTxx(ctx, snapshotTx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := s.repo.List(ctx, tx, filter)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list violations")
		return nil, nil, err
	}
	total, err := s.repo.Count(ctx, tx, filter)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count violations")
		return nil, nil, err
	}
	pending, resolved, err := s.repo.CountViolationStatuses(ctx, tx)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count violation statuses")
		return nil, nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "violation listing"))
		return nil, nil, err
	}

	if rows == nil {
		rows = []models.BehaviorEventDetail{}
	}
	list = &models.ViolationList{
		Violations: rows,
		Stats:      models.ViolationStats{Total: total, Pending: pending, Resolved: resolved},
	}
	return list, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListPositive pages positive events newest first.
func (s *BehaviorService) ListPositive(ctx context.Context, page, limit int) ([]models.BehaviorEventDetail, *models.Pagination, error) {
	filter := models.BehaviorEventFilter{Category: models.BehaviorCategoryPositive, Page: page, PageSize: limit}
	filter.Page, filter.PageSize = models.PageBounds(filter.Page, filter.PageSize)
	rows, err := s.repo.List(ctx, nil, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list positive behavior")
	}
	total, err := s.repo.Count(ctx, nil, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count positive behavior")
	}
	if rows == nil {
		rows = []models.BehaviorEventDetail{}
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Resolve moves a violation through its workflow. The balance is debited once, on the
// transition into resolved, when the resolution carries negative points. Resolving an
// already resolved violation changes nothing and reports the current state.
func (s *BehaviorService) Resolve(ctx context.Context, id string, req dto.ResolveViolationRequest) (resolution *models.BehaviorResolution, err error) {
	if verr := s.validator.Struct(req); verr != nil {
		return nil, invalidPayload(verr, "resolution")
	}
	if req.Points != nil {
		if req.Status != models.BehaviorStatusResolved {
			return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgPointsOnlyOnResolve))
		}
		if *req.Points > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgPointsMustBeNegative))
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	event, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, msg(msgViolationNotFound))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation")
		return nil, err
	}
	if event.Category != models.BehaviorCategoryViolation {
		err = appErrors.Clone(appErrors.ErrNotFound, msg(msgViolationNotFound))
		return nil, err
	}

	if event.Status == models.BehaviorStatusResolved {
		if req.Status != models.BehaviorStatusResolved {
			err = appErrors.Clone(appErrors.ErrState, msg(msgAlreadyResolved))
			return nil, err
		}
		score, scoreErr := s.repo.CurrentScore(ctx, tx, event.StudentID)
		if scoreErr != nil {
			err = appErrors.Wrap(scoreErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read behavior score")
			return nil, err
		}
		if err = tx.Commit(); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "resolution"))
			return nil, err
		}
		return newResolution(event, score), nil
	}

	if req.Status != event.Status && !event.Status.CanTransitionTo(req.Status) {
		err = appErrors.Clone(appErrors.ErrState, msg(msgInvalidTransition, event.Status, req.Status))
		return nil, err
	}

	becomingResolved := req.Status == models.BehaviorStatusResolved
	event.Status = req.Status
	if req.Action != nil && strings.TrimSpace(*req.Action) != "" {
		event.Action = req.Action
	}
	if req.Points != nil {
		event.Points = *req.Points
	}
	if becomingResolved {
		resolvedAt := s.now().UTC()
		event.ResolvedAt = &resolvedAt
	}

	if err = s.repo.UpdateResolution(ctx, tx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrState, msg(msgAlreadyResolved))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "resolution"))
		return nil, err
	}

	var score int
	delta := 0
	if becomingResolved && event.Points < 0 {
		delta = event.Points
		score, err = s.repo.AdjustScore(ctx, tx, event.StudentID, delta)
	} else {
		score, err = s.repo.CurrentScore(ctx, tx, event.StudentID)
	}
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "resolution"))
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "resolution"))
		return nil, err
	}

	s.metrics.ObserveScoreAdjustment(delta)
	logger.WithContext(ctx, s.logger).Info("violation status updated",
		zap.String("id", event.ID),
		zap.String("status", string(event.Status)),
		zap.Int("delta", delta),
	)
	return newResolution(event, score), nil
}

func newResolution(event *models.BehaviorEvent, score int) *models.BehaviorResolution {
	return &models.BehaviorResolution{
		ID:           event.ID,
		Status:       event.Status,
		Action:       event.Action,
		Points:       event.Points,
		CurrentScore: score,
	}
}

func (s *BehaviorService) eventDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return truncateDay(s.now()), nil
	}
	date, ok := parseDate(value)
	if !ok {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "date"))
	}
	return date, nil
}

func (s *BehaviorService) resolveParties(ctx context.Context, exec sqlx.ExtContext, studentCode, employeeCode string) (*models.Student, *models.Teacher, error) {
	student, err := s.directory.FindStudentByCode(ctx, exec, studentCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, msg(msgStudentCodeNotFound, studentCode))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	teacher, err := s.directory.FindTeacherByCode(ctx, exec, employeeCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, msg(msgTeacherCodeNotFound, employeeCode))
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return student, teacher, nil
}
