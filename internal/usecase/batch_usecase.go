package usecase

import (
	"context"
	"sync"

	"github.com/lukotrack/luko/internal/domain"
	"go.uber.org/zap"
)

// BatchUsecase chains one full refresh cycle: refresh all products, fan the
// detected drops out, then purge the batch's ledger rows. Runs are serialized;
// a manual trigger blocks until a scheduled run in flight completes.
type BatchUsecase struct {
	mu      sync.Mutex
	refresh *RefreshUsecase
	notify  *NotifyUsecase
	logger  *zap.Logger
}

func NewBatchUsecase(refresh *RefreshUsecase, notify *NotifyUsecase, logger *zap.Logger) *BatchUsecase {
	return &BatchUsecase{refresh: refresh, notify: notify, logger: logger}
}

// Run executes one batch end to end and reports what happened. Ledger rows
// are purged whenever the refresh pass produced them, even if fan-out failed
// partway; stale rows are never consulted by a later batch either way.
func (u *BatchUsecase) Run(ctx context.Context) (domain.BatchSummary, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	summary, err := u.refresh.RunBatch(ctx)
	if err != nil {
		return summary, err
	}

	sent, failed, err := u.notify.NotifyForBatch(ctx, summary.BatchID)
	summary.NotificationsSent = sent
	summary.Errors += failed
	if err != nil {
		u.logger.Error("notification fan-out failed", zap.String("batch_id", summary.BatchID), zap.Error(err))
	}

	if purgeErr := u.notify.PurgeBatch(ctx, summary.BatchID); purgeErr != nil {
		summary.Errors++
		u.logger.Warn("failed to purge drop ledger", zap.String("batch_id", summary.BatchID), zap.Error(purgeErr))
	}

	return summary, err
}
