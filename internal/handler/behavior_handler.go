package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type behaviorService interface {
	RecordViolation(ctx context.Context, req dto.RecordViolationRequest) (*models.BehaviorEventDetail, error)
	RecordPositive(ctx context.Context, req dto.RecordPositiveRequest) (*models.PositiveAward, error)
	ListViolations(ctx context.Context, query dto.ViolationQuery) (*models.ViolationList, *models.Pagination, error)
	ListPositive(ctx context.Context, page, limit int) ([]models.BehaviorEventDetail, *models.Pagination, error)
	Resolve(ctx context.Context, id string, req dto.ResolveViolationRequest) (*models.BehaviorResolution, error)
}

// BehaviorHandler exposes violations and positive behaviour.
type BehaviorHandler struct {
	service behaviorService
}

// NewBehaviorHandler constructs the handler.
func NewBehaviorHandler(service behaviorService) *BehaviorHandler {
	return &BehaviorHandler{service: service}
}

// RecordViolation godoc
// @Summary Report a violation
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body dto.RecordViolationRequest true "Violation"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /behavior/violations [post]
func (h *BehaviorHandler) RecordViolation(c *gin.Context) {
	var req dto.RecordViolationRequest
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.service.RecordViolation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// ListViolations godoc
// @Summary List violations with workflow counts
// @Tags Behavior
// @Produce json
// @Param severity query string false "low|medium|high|critical"
// @Param status query string false "pending|acknowledged|resolved|escalated"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behavior/violations [get]
func (h *BehaviorHandler) ListViolations(c *gin.Context) {
	var query dto.ViolationQuery
	if !bindQuery(c, &query) {
		return
	}
	list, pagination, err := h.service.ListViolations(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, pagination)
}

// Resolve godoc
// @Summary Move a violation through its workflow
// @Tags Behavior
// @Accept json
// @Produce json
// @Param id path string true "Violation ID"
// @Param payload body dto.ResolveViolationRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /behavior/violations/{id}/status [patch]
func (h *BehaviorHandler) Resolve(c *gin.Context) {
	var req dto.ResolveViolationRequest
	if !bindJSON(c, &req) {
		return
	}
	resolution, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolution, nil)
}

// RecordPositive godoc
// @Summary Award points for positive behaviour
// @Tags Behavior
// @Accept json
// @Produce json
// @Param payload body dto.RecordPositiveRequest true "Award"
// @Success 201 {object} response.Envelope
// @Router /behavior/positive [post]
func (h *BehaviorHandler) RecordPositive(c *gin.Context) {
	var req dto.RecordPositiveRequest
	if !bindJSON(c, &req) {
		return
	}
	award, err := h.service.RecordPositive(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, award)
}

// ListPositive godoc
// @Summary List positive behaviour awards
// @Tags Behavior
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behavior/positive [get]
func (h *BehaviorHandler) ListPositive(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, pagination, err := h.service.ListPositive(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}
