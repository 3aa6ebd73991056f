package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type reportRepoStub struct {
	reports     map[string]models.Report
	inserted    []models.Report
	transitions []repository.ReportTransition
	lastFilter  models.ReportFilter
	insertErr   error
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{reports: map[string]models.Report{}}
}

func (r *reportRepoStub) Insert(_ context.Context, _ sqlx.ExtContext, report *models.Report) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if report.ID == "" {
		report.ID = "rep-new"
	}
	r.inserted = append(r.inserted, *report)
	r.reports[report.ID] = *report
	return nil
}

func (r *reportRepoStub) GetDetail(_ context.Context, id string) (*models.ReportDetail, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ReportDetail{Report: report, CreatedByName: strPtr("Pak Budi"), ClassName: strPtr("X IPA 1"), ClassSection: strPtr("A")}, nil
}

func (r *reportRepoStub) GetForUpdate(_ context.Context, _ sqlx.ExtContext, id string) (*models.Report, error) {
	report, ok := r.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &report, nil
}

func (r *reportRepoStub) Transition(_ context.Context, _ sqlx.ExtContext, id string, t repository.ReportTransition) error {
	report, ok := r.reports[id]
	if !ok || report.Status != t.From {
		return sql.ErrNoRows
	}
	report.Status = t.To
	r.reports[id] = report
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *reportRepoStub) List(_ context.Context, filter models.ReportFilter) ([]models.ReportDetail, int, error) {
	r.lastFilter = filter
	return nil, 0, nil
}

type sequenceStub struct {
	value int64
	years []int
}

func (s *sequenceStub) Next(_ context.Context, _ sqlx.ExtContext, _ string, year int) (int64, error) {
	s.value++
	s.years = append(s.years, year)
	return s.value, nil
}

type summaryRepoStub struct {
	total, present, violations int
}

func (s summaryRepoStub) AttendanceTotals(context.Context, sqlx.ExtContext, string, time.Time, time.Time) (int, int, error) {
	return s.total, s.present, nil
}

func (s summaryRepoStub) ViolationCount(context.Context, sqlx.ExtContext, string, time.Time, time.Time) (int, error) {
	return s.violations, nil
}

type countingRenderer struct {
	calls   int
	formats []string
}

func (r *countingRenderer) Render(snapshot models.ReportSnapshot, format string) ([]byte, string, error) {
	r.calls++
	r.formats = append(r.formats, format)
	return []byte(snapshot.ReportNumber), "text/csv", nil
}

type downloadStub struct {
	ids []string
}

func (d *downloadStub) RecordDownload(reportID string) error {
	d.ids = append(d.ids, reportID)
	return nil
}

type reportFixture struct {
	svc       *ReportService
	repo      *reportRepoStub
	sequences *sequenceStub
	renderer  *countingRenderer
	downloads *downloadStub
}

func newReportFixture(t *testing.T, tx txProvider) reportFixture {
	t.Helper()
	repo := newReportRepoStub()
	sequences := &sequenceStub{value: 6}
	directory := newDirectoryStub()
	directory.classes["c-1"] = &models.Class{ID: "c-1", Name: "X IPA 1", Grade: "10", Section: "A"}
	renderer := &countingRenderer{}
	downloads := &downloadStub{}
	metrics := NewMetricsService()
	svc := NewReportService(ReportServiceParams{
		Reports:    repo,
		Sequences:  sequences,
		Classes:    directory,
		Aggregator: NewReportAggregator(summaryRepoStub{total: 50, present: 40, violations: 2}, tx),
		Tx:         tx,
		Renderer:   renderer,
		Cache:      NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true),
		Downloads:  downloads,
		Metrics:    metrics,
	})
	svc.now = fixedClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	return reportFixture{svc: svc, repo: repo, sequences: sequences, renderer: renderer, downloads: downloads}
}

func weeklyRequest() dto.CreateReportRequest {
	return dto.CreateReportRequest{
		Title:       "Week 10 summary",
		ClassID:     "c-1",
		PeriodStart: "2025-03-03",
		PeriodEnd:   "2025-03-07",
	}
}

func TestReportCreateFreezesSummary(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)

	mock.ExpectBegin()
	mock.ExpectCommit()
	report, err := f.svc.Create(context.Background(), models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}, weeklyRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ReportSummary{AttendanceRate: 80, BehaviorIncidents: 2, TotalRecords: 50}, report.Summary)
	assert.Equal(t, "REP-2025-0007", report.ReportNumber)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, models.ReportTypeWeekly, report.Type)
	assert.Nil(t, report.ApprovedByID)
	assert.Equal(t, []int{2025}, f.sequences.years)
	require.Len(t, f.repo.inserted, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCreateByAdminSelfApproves(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)

	mock.ExpectBegin()
	mock.ExpectCommit()
	report, err := f.svc.Create(context.Background(), models.Actor{UserID: "u-admin", Role: models.RoleAdmin}, weeklyRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, report.Status)
	require.NotNil(t, report.ApprovedByID)
	assert.Equal(t, "u-admin", *report.ApprovedByID)
	require.NotNil(t, report.ApprovedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCreateRejectsInvertedPeriod(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)

	req := weeklyRequest()
	req.PeriodStart, req.PeriodEnd = "2025-03-07", "2025-03-03"
	_, err := f.svc.Create(context.Background(), models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}, req)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.repo.inserted)
	assert.Empty(t, f.sequences.years)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCreateValidation(t *testing.T) {
	tx, _ := newTxMock(t)
	f := newReportFixture(t, tx)
	actor := models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}

	noClass := weeklyRequest()
	noClass.ClassID = ""
	_, err := f.svc.Create(context.Background(), actor, noClass)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	badType := weeklyRequest()
	badType.Type = "hourly"
	_, err = f.svc.Create(context.Background(), actor, badType)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	unknownClass := weeklyRequest()
	unknownClass.ClassID = "c-404"
	_, err = f.svc.Create(context.Background(), actor, unknownClass)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, f.repo.inserted)
}

func TestReportCreateRollsBackOnInsertFailure(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	f.repo.insertErr = sql.ErrConnDone

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := f.svc.Create(context.Background(), models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}, weeklyRequest())
	require.True(t, appErrors.Is(err, appErrors.ErrTransaction))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCreateMapsDuplicateNumberToConflict(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	f.repo.insertErr = &pq.Error{Code: "23505", Constraint: "reports_report_number_key"}

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := f.svc.Create(context.Background(), models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}, weeklyRequest())
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportApproveOnlyFromDraftOrPending(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	f.repo.reports["r-1"] = models.Report{ID: "r-1", Status: models.ReportStatusPending}
	admin := models.Actor{UserID: "u-admin", Role: models.RoleAdmin}

	mock.ExpectBegin()
	mock.ExpectCommit()
	report, err := f.svc.Approve(context.Background(), "r-1", admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, report.Status)
	require.NotNil(t, report.ApprovedByID)
	assert.Equal(t, "u-admin", *report.ApprovedByID)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Approve(context.Background(), "r-1", admin)
	require.True(t, appErrors.Is(err, appErrors.ErrState))
	assert.Contains(t, err.Error(), "cannot approve a report with current status: approved")
	assert.Len(t, f.repo.transitions, 1)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Approve(context.Background(), "missing", admin)
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRejectAndPublish(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	f.repo.reports["r-pending"] = models.Report{ID: "r-pending", Status: models.ReportStatusPending}
	f.repo.reports["r-approved"] = models.Report{ID: "r-approved", Status: models.ReportStatusApproved}
	admin := models.Actor{UserID: "u-admin", Role: models.RoleAdmin}

	_, err := f.svc.Reject(context.Background(), "r-pending", admin, dto.RejectReportRequest{})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	mock.ExpectBegin()
	mock.ExpectCommit()
	rejected, err := f.svc.Reject(context.Background(), "r-pending", admin, dto.RejectReportRequest{Comments: "missing week 2"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusRejected, rejected.Status)
	require.NotNil(t, rejected.Comments)
	assert.Equal(t, "missing week 2", *rejected.Comments)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Reject(context.Background(), "r-approved", admin, dto.RejectReportRequest{Comments: "late"})
	require.True(t, appErrors.Is(err, appErrors.ErrState))

	mock.ExpectBegin()
	mock.ExpectCommit()
	published, err := f.svc.Publish(context.Background(), "r-approved", admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Publish(context.Background(), "r-pending", admin)
	require.True(t, appErrors.Is(err, appErrors.ErrState))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportExportCachesRenderedBytes(t *testing.T) {
	tx, _ := newTxMock(t)
	f := newReportFixture(t, tx)
	f.repo.reports["r-1"] = models.Report{ID: "r-1", ReportNumber: "REP-2025-0001", Status: models.ReportStatusApproved}

	doc, err := f.svc.Export(context.Background(), "r-1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "report-REP-2025-0001.csv", doc.Filename)
	assert.Equal(t, "REP-2025-0001", string(doc.Payload))

	again, err := f.svc.Export(context.Background(), "r-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, doc.Payload, again.Payload)
	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, []string{"r-1", "r-1"}, f.downloads.ids)

	_, err = f.svc.Export(context.Background(), "r-1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "pdf"}, f.renderer.formats)

	_, err = f.svc.Export(context.Background(), "r-1", "docx")
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Export(context.Background(), "missing", "pdf")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportListAndPreview(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	actor := models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}

	_, pagination, err := f.svc.ListReports(context.Background(), actor, dto.ReportQuery{Status: "pending", Mine: true})
	require.NoError(t, err)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, "u-teacher", f.repo.lastFilter.CreatedBy)
	require.NotNil(t, f.repo.lastFilter.Status)

	_, _, err = f.svc.ListReports(context.Background(), actor, dto.ReportQuery{Type: "hourly"})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))

	mock.ExpectBegin()
	mock.ExpectCommit()
	summary, err := f.svc.PreviewSummary(context.Background(), dto.ReportSummaryQuery{ClassID: "c-1", PeriodStart: "2025-03-03", PeriodEnd: "2025-03-07"})
	require.NoError(t, err)
	assert.Equal(t, 80, summary.AttendanceRate)
	assert.Empty(t, f.repo.inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAggregatorRounding(t *testing.T) {
	cases := []struct {
		total, present, want int
	}{
		{0, 0, 0},
		{3, 2, 67},
		{8, 1, 13},
		{50, 40, 80},
	}
	for _, tc := range cases {
		agg := NewReportAggregator(summaryRepoStub{total: tc.total, present: tc.present}, nil)
		summary, err := agg.ComputeSummaryWith(context.Background(), nil, "c-1", time.Now(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, tc.want, summary.AttendanceRate)
		assert.Equal(t, tc.total, summary.TotalRecords)
	}
}

func TestSnapshotRendererCSV(t *testing.T) {
	renderer := NewSnapshotRenderer(nil)
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	payload, contentType, err := renderer.Render(models.ReportSnapshot{
		ReportNumber: "REP-2025-0001",
		Title:        "Week 10",
		Type:         models.ReportTypeWeekly,
		CreatedBy:    "Pak Budi",
		Summary:      models.ReportSummary{AttendanceRate: 80, BehaviorIncidents: 2, TotalRecords: 50},
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 0, 4),
	}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.True(t, strings.Contains(body, "Report number,REP-2025-0001"))
	assert.True(t, strings.Contains(body, "attendanceRate,80%"))
	assert.True(t, strings.Contains(body, "Period,2025-03-03 to 2025-03-07"))
}

func TestSnapshotOfFillsFallbacks(t *testing.T) {
	snapshot := snapshotOf(&models.ReportDetail{
		Report:     models.Report{ReportNumber: "REP-2025-0002"},
		ClassName:  strPtr("X IPA 1"),
		ClassGrade: strPtr("10"),
	})
	assert.Equal(t, "Unknown", snapshot.CreatedBy)
	assert.Equal(t, "10", snapshot.Grade)
	assert.Equal(t, "X IPA 1", snapshot.ClassInfo)
}

func TestReportDraftSubmitThenApprove(t *testing.T) {
	tx, mock := newTxMock(t)
	f := newReportFixture(t, tx)
	teacher := models.Actor{UserID: "u-teacher", Role: models.RoleTeacher}
	admin := models.Actor{UserID: "u-admin", Role: models.RoleAdmin}

	req := weeklyRequest()
	req.Draft = true
	mock.ExpectBegin()
	mock.ExpectCommit()
	draft, err := f.svc.Create(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDraft, draft.Status)
	assert.Nil(t, draft.ApprovedByID)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Submit(context.Background(), draft.ID, teacher)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	mock.ExpectBegin()
	mock.ExpectCommit()
	submitted, err := f.svc.Submit(context.Background(), draft.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, submitted.Status)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = f.svc.Submit(context.Background(), draft.ID, admin)
	require.True(t, appErrors.Is(err, appErrors.ErrState))

	mock.ExpectBegin()
	mock.ExpectCommit()
	approved, err := f.svc.Approve(context.Background(), draft.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, approved.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
