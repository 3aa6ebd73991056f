package handler

import (
	"context"
	"net/http"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type dashboardServiceStub struct {
	hit bool
}

func (s dashboardServiceStub) Stats(context.Context) (*models.DashboardStats, bool, error) {
	return &models.DashboardStats{TotalStudents: 320, AttendanceRate: 91.5}, s.hit, nil
}

func (s dashboardServiceStub) AttendanceChart(_ context.Context, period string) (*models.AttendanceChart, bool, error) {
	if period != "month" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "period must be one of week, month, semester")
	}
	return &models.AttendanceChart{
		Period: period,
		Since:  time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		Grades: []models.GradeAttendanceRate{{Grade: "10", Attendance: 92, Absence: 5}},
	}, s.hit, nil
}

func TestDashboardHandlerStats(t *testing.T) {
	handler := NewDashboardHandler(dashboardServiceStub{hit: true})

	c, w := newGinContext(http.MethodGet, "/dashboard/stats", nil)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"cacheHit":true`)
	assert.Contains(t, w.Body.String(), `"attendanceRate":91.5`)
}

func TestDashboardHandlerDisabled(t *testing.T) {
	handler := NewDashboardHandler(nil)

	c, w := newGinContext(http.MethodGet, "/dashboard/stats", nil)
	handler.Stats(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandlerAttendanceChart(t *testing.T) {
	handler := NewDashboardHandler(dashboardServiceStub{})

	c, w := newGinContext(http.MethodGet, "/dashboard/attendance-chart?period=month", nil)
	handler.AttendanceChart(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `"grade":"10","attendance":92,"absence":5`)

	c, w = newGinContext(http.MethodGet, "/dashboard/attendance-chart?period=decade", nil)
	handler.AttendanceChart(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/dashboard/attendance-chart", nil)
	NewDashboardHandler(nil).AttendanceChart(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
