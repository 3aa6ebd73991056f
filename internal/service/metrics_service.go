package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-records-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for transport, cache and ledger activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	attendanceRecorded *prometheus.CounterVec
	attendanceSkipped  prometheus.Counter
	behaviorEvents     *prometheus.CounterVec
	scoreAdjustments   prometheus.Histogram
	reportTransitions  *prometheus.CounterVec
	reportExports      *prometheus.CounterVec
	scoreDrift         prometheus.Gauge
}

// NewMetricsService registers collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	attendanceRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_records_written_total",
		Help: "Attendance rows written by day replacements, by status",
	}, []string{"status"})

	attendanceSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attendance_records_skipped_total",
		Help: "Attendance entries dropped because the student code was unknown",
	})

	behaviorEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "behavior_events_total",
		Help: "Behaviour ledger events appended, by category",
	}, []string{"category"})

	scoreAdjustments := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "behavior_score_adjustment_points",
		Help:    "Signed point deltas applied to student balances",
		Buckets: []float64{-50, -25, -10, -5, 0, 5, 10, 25, 50},
	})

	reportTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_transitions_total",
		Help: "Report lifecycle transitions, by target status",
	}, []string{"status"})

	reportExports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_exports_total",
		Help: "Rendered report exports, by format and cache outcome",
	}, []string{"format", "cached"})

	scoreDrift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "behavior_score_drift_students",
		Help: "Students whose stored balance disagrees with the ledger at the last reconciliation",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		attendanceRecorded, attendanceSkipped, behaviorEvents, scoreAdjustments, reportTransitions, reportExports,
		scoreDrift, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		attendanceRecorded: attendanceRecorded,
		attendanceSkipped:  attendanceSkipped,
		behaviorEvents:     behaviorEvents,
		scoreAdjustments:   scoreAdjustments,
		reportTransitions:  reportTransitions,
		reportExports:      reportExports,
		scoreDrift:         scoreDrift,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup outcome.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveAttendanceDay records the outcome of one day replacement.
func (m *MetricsService) ObserveAttendanceDay(result models.AttendanceDayResult) {
	if m == nil {
		return
	}
	m.attendanceRecorded.WithLabelValues(string(models.AttendanceStatusPresent)).Add(float64(result.Present))
	m.attendanceRecorded.WithLabelValues(string(models.AttendanceStatusAbsent)).Add(float64(result.Absent))
	m.attendanceRecorded.WithLabelValues(string(models.AttendanceStatusLate)).Add(float64(result.Late))
	m.attendanceRecorded.WithLabelValues(string(models.AttendanceStatusExcused)).Add(float64(result.Excused))
	m.attendanceSkipped.Add(float64(result.Skipped))
}

// ObserveBehaviorEvent counts an appended ledger event.
func (m *MetricsService) ObserveBehaviorEvent(category models.BehaviorCategory) {
	if m == nil {
		return
	}
	m.behaviorEvents.WithLabelValues(string(category)).Inc()
}

// ObserveScoreAdjustment records a balance delta.
func (m *MetricsService) ObserveScoreAdjustment(delta int) {
	if m == nil || delta == 0 {
		return
	}
	m.scoreAdjustments.Observe(float64(delta))
}

// ObserveReportTransition counts a report entering status.
func (m *MetricsService) ObserveReportTransition(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportTransitions.WithLabelValues(string(status)).Inc()
}

// ObserveReportExport counts a rendered or cache-served export.
func (m *MetricsService) ObserveReportExport(format string, cached bool) {
	if m == nil {
		return
	}
	m.reportExports.WithLabelValues(format, fmt.Sprintf("%t", cached)).Inc()
}

// SetScoreDrift publishes the number of drifting balances.
func (m *MetricsService) SetScoreDrift(count int) {
	if m == nil {
		return
	}
	m.scoreDrift.Set(float64(count))
}
