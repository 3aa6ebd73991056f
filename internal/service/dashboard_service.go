package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type dashboardReader interface {
	Counts(ctx context.Context) (*models.DashboardCounts, error)
	AttendanceByGrade(ctx context.Context, since time.Time) ([]models.GradeAttendance, error)
}

const (
	ChartPeriodWeek     = "week"
	ChartPeriodMonth    = "month"
	ChartPeriodSemester = "semester"

	attendanceChartKeyPrefix = "dashboard:attendance-chart:"
	unassignedGrade          = "unassigned"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the administrator overview.
type DashboardService struct {
	repo   dashboardReader
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardReader, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Stats returns the overview and whether it was served from cache.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	stats, hit, err := readThrough(ctx, s.cache, dashboardStatsKey, s.cfg.CacheTTL, func() (models.DashboardStats, error) {
		counts, err := s.repo.Counts(ctx)
		if err != nil {
			return models.DashboardStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
		}
		return models.DashboardStats{
			TotalStudents:        counts.TotalStudents,
			TotalTeachers:        counts.TotalTeachers,
			AttendanceRate:       percentage(counts.PresentAttendance, counts.TotalAttendance, 1),
			PendingReports:       counts.PendingReports,
			PendingBehaviorCases: counts.PendingBehaviorCases,
			GeneratedAt:          s.now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if hit {
		s.logger.Debug("dashboard stats served from cache")
	}
	return &stats, hit, nil
}

// chartWindowStart returns the first day of the trailing window for period.
func chartWindowStart(now time.Time, period string) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case ChartPeriodWeek:
		return today.AddDate(0, 0, -7), true
	case ChartPeriodMonth:
		return today.AddDate(0, -1, 0), true
	case ChartPeriodSemester:
		return today.AddDate(0, -4, 0), true
	default:
		return time.Time{}, false
	}
}

// AttendanceChart returns per-grade attendance and absence rates over a trailing
// week, month or semester. An empty period means week.
func (s *DashboardService) AttendanceChart(ctx context.Context, period string) (*models.AttendanceChart, bool, error) {
	if period == "" {
		period = ChartPeriodWeek
	}
	since, ok := chartWindowStart(s.now().UTC(), period)
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, msg(msgChartPeriod))
	}

	chart, hit, err := readThrough(ctx, s.cache, attendanceChartKeyPrefix+period+":"+since.Format(dateLayout), s.cfg.CacheTTL, func() (models.AttendanceChart, error) {
		rows, err := s.repo.AttendanceByGrade(ctx, since)
		if err != nil {
			return models.AttendanceChart{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance chart")
		}
		grades := make([]models.GradeAttendanceRate, 0, len(rows))
		for _, row := range rows {
			grade := row.Grade
			if grade == "" {
				grade = unassignedGrade
			}
			grades = append(grades, models.GradeAttendanceRate{
				Grade:      grade,
				Attendance: int(percentage(row.Present, row.Total, 0)),
				Absence:    int(percentage(row.Absent, row.Total, 0)),
			})
		}
		return models.AttendanceChart{Period: period, Since: since, Grades: grades}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &chart, hit, nil
}
