package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type reportSummaryRepository interface {
	AttendanceTotals(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (total int, present int, err error)
	ViolationCount(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (int, error)
}

// ReportAggregator rolls attendance and behaviour up into a report summary.
type ReportAggregator struct {
	repo reportSummaryRepository
	tx   txProvider
}

// NewReportAggregator constructs the aggregator.
func NewReportAggregator(repo reportSummaryRepository, tx txProvider) *ReportAggregator {
	return &ReportAggregator{repo: repo, tx: tx}
}

// ComputeSummary aggregates inside its own read-only snapshot.
func (a *ReportAggregator) ComputeSummary(ctx context.Context, classID string, start, end time.Time) (summary models.ReportSummary, err error) {
	tx, err := a.tx.BeginTxx(ctx, snapshotTx)
	if err != nil {
		return models.ReportSummary{}, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionStart))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	summary, err = a.ComputeSummaryWith(ctx, tx, classID, start, end)
	if err != nil {
		return models.ReportSummary{}, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, msg(msgTransactionFailed, "summary"))
		return models.ReportSummary{}, err
	}
	return summary, nil
}

// ComputeSummaryWith aggregates using the caller's transaction, which should be REPEATABLE READ.
func (a *ReportAggregator) ComputeSummaryWith(ctx context.Context, exec sqlx.ExtContext, classID string, start, end time.Time) (models.ReportSummary, error) {
	total, present, err := a.repo.AttendanceTotals(ctx, exec, classID, start, end)
	if err != nil {
		return models.ReportSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	incidents, err := a.repo.ViolationCount(ctx, exec, classID, start, end)
	if err != nil {
		return models.ReportSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate violations")
	}
	return models.ReportSummary{
		AttendanceRate:    int(percentage(present, total, 0)),
		BehaviorIncidents: incidents,
		TotalRecords:      total,
	}, nil
}
