package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type attendanceService interface {
	RecordDay(ctx context.Context, actor models.Actor, req dto.RecordAttendanceRequest) (*models.AttendanceDayResult, error)
	GetDay(ctx context.Context, query dto.AttendanceDayQuery) ([]models.AttendanceDayRow, error)
	GetHistory(ctx context.Context, studentID string, query dto.AttendanceHistoryQuery) (*models.AttendanceHistory, error)
}

// AttendanceHandler exposes the daily attendance ledger.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Record godoc
// @Summary Replace a day's attendance for the listed students
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendanceRequest true "Attendance batch"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.RecordDay(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Day godoc
// @Summary Attendance for one day
// @Tags Attendance
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param grade query string false "Grade"
// @Param section query string false "Section"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Day(c *gin.Context) {
	var query dto.AttendanceDayQuery
	if !bindQuery(c, &query) {
		return
	}
	rows, err := h.service.GetDay(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// History godoc
// @Summary A student's attendance history with summary
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/students/{id}/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	var query dto.AttendanceHistoryQuery
	if !bindQuery(c, &query) {
		return
	}
	history, err := h.service.GetHistory(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
