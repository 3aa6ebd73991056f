package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/pkg/jobs"
)

const jobTypeReportDownload = "report.download"

type downloadCounter interface {
	IncrementDownloadCount(ctx context.Context, id string) error
}

// DownloadTracker bumps report download counters off the request path.
type DownloadTracker struct {
	queue  *jobs.Queue
	repo   downloadCounter
	logger *zap.Logger
}

// NewDownloadTracker builds the tracker and its worker pool. Call Start before use.
func NewDownloadTracker(repo downloadCounter, cfg jobs.QueueConfig) *DownloadTracker {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	tracker := &DownloadTracker{repo: repo, logger: cfg.Logger}
	tracker.queue = jobs.NewQueue("report-downloads", tracker.handle, cfg)
	return tracker
}

// Start launches the workers.
func (t *DownloadTracker) Start(ctx context.Context) {
	t.queue.Start(ctx)
}

// Stop halts the workers. Increments still buffered are dropped.
func (t *DownloadTracker) Stop() {
	t.queue.Stop()
}

// RecordDownload schedules one increment without blocking.
func (t *DownloadTracker) RecordDownload(reportID string) error {
	return t.queue.TryEnqueue(jobs.Job{ID: reportID, Type: jobTypeReportDownload, Payload: reportID})
}

func (t *DownloadTracker) handle(ctx context.Context, job jobs.Job) error {
	reportID, ok := job.Payload.(string)
	if !ok || reportID == "" {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return t.repo.IncrementDownloadCount(ctx, reportID)
}
