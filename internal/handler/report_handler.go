package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*models.Report, error)
	Submit(ctx context.Context, id string, actor models.Actor) (*models.Report, error)
	Approve(ctx context.Context, id string, actor models.Actor) (*models.Report, error)
	Reject(ctx context.Context, id string, actor models.Actor, req dto.RejectReportRequest) (*models.Report, error)
	Publish(ctx context.Context, id string, actor models.Actor) (*models.Report, error)
	GetReport(ctx context.Context, id string) (*models.ReportDetail, error)
	ListReports(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.ReportDetail, *models.Pagination, error)
	PreviewSummary(ctx context.Context, query dto.ReportSummaryQuery) (*models.ReportSummary, error)
	Export(ctx context.Context, id, format string) (*models.ReportDocument, error)
}

// ReportHandler exposes report creation, review and export.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Create godoc
// @Summary Create a report with a frozen summary
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List reports newest first
// @Tags Reports
// @Produce json
// @Param status query string false "draft|pending|approved|rejected|published"
// @Param type query string false "Report type"
// @Param classId query string false "Class ID"
// @Param mine query bool false "Only reports created by the caller"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.ReportQuery
	if !bindQuery(c, &query) {
		return
	}
	reports, pagination, err := h.service.ListReports(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get one report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Summary godoc
// @Summary Preview the summary a report would freeze
// @Tags Reports
// @Produce json
// @Param classId query string true "Class ID"
// @Param periodStart query string true "Period start (YYYY-MM-DD)"
// @Param periodEnd query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	var query dto.ReportSummaryQuery
	if !bindQuery(c, &query) {
		return
	}
	summary, err := h.service.PreviewSummary(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Approve godoc
// @Summary Approve a draft or pending report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{id}/approve [put]
func (h *ReportHandler) Approve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Reject godoc
// @Summary Reject a pending report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.RejectReportRequest true "Reviewer comments"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/reject [put]
func (h *ReportHandler) Reject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RejectReportRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Submit godoc
// @Summary Submit a draft report for review
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/submit [put]
func (h *ReportHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.service.Submit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Publish godoc
// @Summary Publish an approved report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/publish [put]
func (h *ReportHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.service.Publish(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download a report as PDF or CSV
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Report ID"
// @Param format query string false "pdf|csv"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	doc, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Payload)
}
