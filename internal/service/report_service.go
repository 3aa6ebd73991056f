package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/logger"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

const reportSequence = "report"

type reportRepository interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, report *models.Report) error
	GetDetail(ctx context.Context, id string) (*models.ReportDetail, error)
	GetForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Report, error)
	Transition(ctx context.Context, exec sqlx.ExtContext, id string, t repository.ReportTransition) error
	List(ctx context.Context, filter models.ReportFilter) ([]models.ReportDetail, int, error)
}

type sequenceAllocator interface {
	Next(ctx context.Context, exec sqlx.ExtContext, name string, year int) (int64, error)
}

type classDirectory interface {
	FindClass(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Class, error)
}

type summaryComputer interface {
	ComputeSummary(ctx context.Context, classID string, start, end time.Time) (models.ReportSummary, error)
	ComputeSummaryWith(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (models.ReportSummary, error)
}

// DocumentRenderer renders a report snapshot in the requested format.
type DocumentRenderer interface {
	Render(snapshot models.ReportSnapshot, format string) ([]byte, string, error)
}

type downloadRecorder interface {
	RecordDownload(reportID string) error
}

// ReportServiceConfig tunes exports.
type ReportServiceConfig struct {
	ExportCacheTTL time.Duration
	DefaultFormat  string
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Reports    reportRepository
	Sequences  sequenceAllocator
	Classes    classDirectory
	Aggregator summaryComputer
	Tx         txProvider
	Renderer   DocumentRenderer
	Cache      *CacheService
	Downloads  downloadRecorder
	Validator  *validator.Validate
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     ReportServiceConfig
}

// ReportService governs report creation, approval and export.
type ReportService struct {
	reports    reportRepository
	sequences  sequenceAllocator
	classes    classDirectory
	aggregator summaryComputer
	tx         txProvider
	renderer   DocumentRenderer
	cache      *CacheService
	downloads  downloadRecorder
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ReportServiceConfig
	now        func() time.Time
}

type cachedExport struct {
	ContentType string `json:"contentType"`
	Payload     []byte `json:"payload"`
}

// NewReportService constructs the service with defaults for missing collaborators.
func NewReportService(params ReportServiceParams) *ReportService {
	cfg := params.Config
	if cfg.ExportCacheTTL <= 0 {
		cfg.ExportCacheTTL = time.Hour
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = export.FormatPDF
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = NewSnapshotRenderer(nil)
	}
	return &ReportService{
		reports:    params.Reports,
		sequences:  params.Sequences,
		classes:    params.Classes,
		aggregator: params.Aggregator,
		tx:         params.Tx,
		renderer:   renderer,
		cache:      params.Cache,
		downloads:  params.Downloads,
		validator:  newRecordsValidator(params.Validator),
		metrics:    params.Metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Create freezes a summary for the class and period and stores the report. Administrators'
// reports are approved on creation; everyone else's wait for review.
func (s *ReportService) Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (report *models.Report, err error) {
	if verr := s.validator.Struct(req); verr != nil {
		return nil, invalidPayload(verr, "report")
	}
	if strings.TrimSpace(req.ClassID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgClassRequired))
	}
	start, end, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	reportType := req.Type
	if reportType == "" {
		reportType = models.ReportTypeWeekly
	}

	if _, err = s.classes.FindClass(ctx, nil, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msg(msgClassNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	now := s.now().UTC()
	seq, err := s.sequences.Next(ctx, nil, reportSequence, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate report number")
	}

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	summary, err := s.aggregator.ComputeSummaryWith(ctx, tx, req.ClassID, start, end)
	if err != nil {
		return nil, err
	}

	classID := req.ClassID
	report = &models.Report{
		ReportNumber: fmt.Sprintf("REP-%d-%04d", now.Year(), seq),
		Title:        req.Title,
		Type:         reportType,
		Grade:        req.Grade,
		ClassID:      &classID,
		PeriodStart:  start,
		PeriodEnd:    end,
		CreatedByID:  actor.UserID,
		Status:       models.ReportStatusPending,
		Summary:      summary,
		Content:      req.Content,
	}
	switch {
	case req.Draft:
		report.Status = models.ReportStatusDraft
	case actor.IsAdmin():
		approver := actor.UserID
		report.Status = models.ReportStatusApproved
		report.ApprovedByID = &approver
		report.ApprovedAt = &now
	}

	if err = s.reports.Insert(ctx, tx, report); err != nil {
		if repository.IsUniqueViolation(err) {
			err = appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "report number already in use: "+report.ReportNumber)
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "report"))
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "report"))
		return nil, err
	}
	s.cache.ForgetDashboard(ctx)

	s.metrics.ObserveReportTransition(report.Status)
	logger.WithContext(ctx, s.logger).Info("report created",
		zap.String("id", report.ID),
		zap.String("number", report.ReportNumber),
		zap.String("status", string(report.Status)),
	)
	return report, nil
}

// Submit hands a draft to reviewers. Only its author or an administrator may submit it.
func (s *ReportService) Submit(ctx context.Context, id string, actor models.Actor) (*models.Report, error) {
	return s.transition(ctx, id, func(report *models.Report, _ time.Time) (*repository.ReportTransition, error) {
		if report.CreatedByID != actor.UserID && !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, msg(msgNotReportAuthor))
		}
		if report.Status != models.ReportStatusDraft {
			return nil, appErrors.Clone(appErrors.ErrState, msg(msgCannotSubmit, report.Status))
		}
		return &repository.ReportTransition{From: report.Status, To: models.ReportStatusPending}, nil
	})
}

// Approve moves a draft or pending report to approved. The reviewer may be the creator.
func (s *ReportService) Approve(ctx context.Context, id string, actor models.Actor) (*models.Report, error) {
	return s.transition(ctx, id, func(report *models.Report, now time.Time) (*repository.ReportTransition, error) {
		if report.Status != models.ReportStatusDraft && report.Status != models.ReportStatusPending {
			return nil, appErrors.Clone(appErrors.ErrState, msg(msgCannotApprove, report.Status))
		}
		approver := actor.UserID
		return &repository.ReportTransition{
			From: report.Status, To: models.ReportStatusApproved, ApprovedByID: &approver, ApprovedAt: &now,
		}, nil
	})
}

// Reject returns a pending report to its author with reviewer comments.
func (s *ReportService) Reject(ctx context.Context, id string, actor models.Actor, req dto.RejectReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalidPayload(err, "rejection")
	}
	comments := req.Comments
	report, err := s.transition(ctx, id, func(report *models.Report, now time.Time) (*repository.ReportTransition, error) {
		if report.Status != models.ReportStatusPending {
			return nil, appErrors.Clone(appErrors.ErrState, msg(msgCannotReject, report.Status))
		}
		return &repository.ReportTransition{From: report.Status, To: models.ReportStatusRejected, Comments: &comments}, nil
	})
	if err == nil {
		logger.WithContext(ctx, s.logger).Info("report rejected", zap.String("id", id), zap.String("reviewer", actor.UserID))
	}
	return report, err
}

// Publish makes an approved report externally visible.
func (s *ReportService) Publish(ctx context.Context, id string, actor models.Actor) (*models.Report, error) {
	report, err := s.transition(ctx, id, func(report *models.Report, now time.Time) (*repository.ReportTransition, error) {
		if report.Status != models.ReportStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrState, msg(msgCannotPublish, report.Status))
		}
		return &repository.ReportTransition{From: report.Status, To: models.ReportStatusPublished, PublishedAt: &now}, nil
	})
	if err == nil {
		logger.WithContext(ctx, s.logger).Info("report published", zap.String("id", id), zap.String("publisher", actor.UserID))
	}
	return report, err
}

type transitionPlanner func(report *models.Report, now time.Time) (*repository.ReportTransition, error)

func (s *ReportService) transition(ctx context.Context, id string, plan transitionPlanner) (report *models.Report, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	report, err = s.reports.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, msg(msgReportNotFound))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
		return nil, err
	}

	now := s.now().UTC()
	move, err := plan(report, now)
	if err != nil {
		return nil, err
	}
	if err = s.reports.Transition(ctx, tx, id, *move); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrState, fmt.Sprintf("report %s changed status concurrently", id))
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "report transition"))
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "report transition"))
		return nil, err
	}
	s.cache.ForgetDashboard(ctx)

	report.Status = move.To
	if move.ApprovedByID != nil {
		report.ApprovedByID = move.ApprovedByID
		report.ApprovedAt = move.ApprovedAt
	}
	if move.PublishedAt != nil {
		report.PublishedAt = move.PublishedAt
	}
	if move.Comments != nil {
		report.Comments = move.Comments
	}
	report.UpdatedAt = now
	s.metrics.ObserveReportTransition(move.To)
	return report, nil
}

// GetReport returns a report with creator and class names.
func (s *ReportService) GetReport(ctx context.Context, id string) (*models.ReportDetail, error) {
	detail, err := s.reports.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msg(msgReportNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return detail, nil
}

// ListReports pages reports newest first.
func (s *ReportService) ListReports(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.ReportDetail, *models.Pagination, error) {
	filter := models.ReportFilter{ClassID: query.ClassID, Page: query.Page, PageSize: query.Limit}
	filter.Page, filter.PageSize = models.PageBounds(filter.Page, filter.PageSize)
	if query.Status != "" {
		status := models.ReportStatus(query.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		filter.Status = &status
	}
	if query.Type != "" {
		reportType := models.ReportType(query.Type)
		if !reportType.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid type filter")
		}
		filter.Type = &reportType
	}
	if query.Mine {
		filter.CreatedBy = actor.UserID
	}

	rows, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if rows == nil {
		rows = []models.ReportDetail{}
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// PreviewSummary computes what Create would freeze without storing anything.
func (s *ReportService) PreviewSummary(ctx context.Context, query dto.ReportSummaryQuery) (*models.ReportSummary, error) {
	if strings.TrimSpace(query.ClassID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgClassRequired))
	}
	start, end, err := parsePeriod(query.PeriodStart, query.PeriodEnd)
	if err != nil {
		return nil, err
	}
	summary, err := s.aggregator.ComputeSummary(ctx, query.ClassID, start, end)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Export renders the report and schedules a download-count increment. Rendered bytes
// are cached per report and format since the summary never changes.
func (s *ReportService) Export(ctx context.Context, id, format string) (*models.ReportDocument, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = s.cfg.DefaultFormat
	}
	if !export.SupportedFormat(format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, msg(msgUnsupportedFormat, format))
	}

	detail, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, hit, err := readThrough(ctx, s.cache, exportCacheKey(id, format), s.cfg.ExportCacheTTL, func() (cachedExport, error) {
		bytes, contentType, renderErr := s.renderer.Render(snapshotOf(detail), format)
		if renderErr != nil {
			return cachedExport{}, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
		}
		return cachedExport{ContentType: contentType, Payload: bytes}, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReportExport(format, hit)

	if s.downloads != nil {
		if err := s.downloads.RecordDownload(detail.ID); err != nil {
			s.logger.Warn("download count not recorded", zap.String("id", detail.ID), zap.Error(err))
		}
	}

	return &models.ReportDocument{
		Filename:    fmt.Sprintf("report-%s.%s", detail.ReportNumber, format),
		ContentType: payload.ContentType,
		Payload:     payload.Payload,
	}, nil
}

func snapshotOf(detail *models.ReportDetail) models.ReportSnapshot {
	snapshot := models.ReportSnapshot{
		ReportNumber: detail.ReportNumber,
		Title:        detail.Title,
		Type:         detail.Type,
		CreatedAt:    detail.CreatedAt,
		Summary:      detail.Summary,
		PeriodStart:  detail.PeriodStart,
		PeriodEnd:    detail.PeriodEnd,
		CreatedBy:    "Unknown",
	}
	if detail.Grade != nil {
		snapshot.Grade = *detail.Grade
	} else if detail.ClassGrade != nil {
		snapshot.Grade = *detail.ClassGrade
	}
	if detail.Content != nil {
		snapshot.Content = *detail.Content
	}
	if detail.CreatedByName != nil {
		snapshot.CreatedBy = *detail.CreatedByName
	}
	if detail.ClassName != nil {
		snapshot.ClassInfo = *detail.ClassName
		if detail.ClassSection != nil && *detail.ClassSection != "" {
			snapshot.ClassInfo = fmt.Sprintf("%s (%s)", *detail.ClassName, *detail.ClassSection)
		}
	}
	return snapshot
}

func parsePeriod(startValue, endValue string) (time.Time, time.Time, error) {
	if strings.TrimSpace(startValue) == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgDateRequired, "periodStart"))
	}
	if strings.TrimSpace(endValue) == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgDateRequired, "periodEnd"))
	}
	start, ok := parseDate(startValue)
	if !ok {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "periodStart"))
	}
	end, ok := parseDate(endValue)
	if !ok {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgDateInvalid, "periodEnd"))
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, msg(msgPeriodOrder))
	}
	return start, end, nil
}
