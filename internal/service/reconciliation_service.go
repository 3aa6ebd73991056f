package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type scoreAuditor interface {
	ScoreDrifts(ctx context.Context, baseline int) ([]models.ScoreDrift, error)
}

// ReconciliationService audits stored behaviour balances against the event ledger.
// It reports drift and never rewrites a balance.
type ReconciliationService struct {
	repo    scoreAuditor
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewReconciliationService constructs the service.
func NewReconciliationService(repo scoreAuditor, metrics *MetricsService, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Run performs one audit pass.
func (s *ReconciliationService) Run(ctx context.Context) (*models.ReconciliationResult, error) {
	drifts, err := s.repo.ScoreDrifts(ctx, models.BaselineBehaviorScore)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile behavior scores")
	}
	if drifts == nil {
		drifts = []models.ScoreDrift{}
	}
	s.metrics.SetScoreDrift(len(drifts))
	for _, drift := range drifts {
		s.logger.Warn("behavior score drift",
			zap.String("studentId", drift.StudentID),
			zap.String("studentCode", drift.StudentCode),
			zap.Int("stored", drift.StoredScore),
			zap.Int("expected", drift.ExpectedScore),
		)
	}
	s.logger.Info("behavior score reconciliation finished", zap.Int("drifting", len(drifts)))
	return &models.ReconciliationResult{CheckedAt: s.now().UTC(), Drifts: drifts}, nil
}

// Schedule registers Run on a cron spec. Overlapping runs are skipped. The caller starts
// and stops the returned scheduler.
func (s *ReconciliationService) Schedule(spec string, timeout time.Duration) (*cron.Cron, error) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("scheduled reconciliation failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule reconciliation %q: %w", spec, err)
	}
	return scheduler, nil
}
