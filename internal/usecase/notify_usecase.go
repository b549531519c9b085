package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/lukotrack/luko/internal/domain"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Notifier delivers a price-drop message to one subscriber.
type Notifier interface {
	NotifyPriceDrop(ctx context.Context, subscriber *domain.Subscriber, product *domain.Product, active domain.Threshold) error
}

// NotifyUsecase fans a batch's drop-ledger entries out to every tracking
// subscriber whose alert threshold is now met.
type NotifyUsecase struct {
	products      domain.ProductRepository
	subscriptions domain.SubscriptionRepository
	subscribers   domain.SubscriberRepository
	ledger        domain.DropLedger
	notifier      Notifier
	logger        *zap.Logger
	workers       int
	now           func() time.Time
}

func NewNotifyUsecase(
	products domain.ProductRepository,
	subscriptions domain.SubscriptionRepository,
	subscribers domain.SubscriberRepository,
	ledger domain.DropLedger,
	notifier Notifier,
	workers int,
	logger *zap.Logger,
) *NotifyUsecase {
	if workers < 1 {
		workers = 1
	}
	return &NotifyUsecase{
		products:      products,
		subscriptions: subscriptions,
		subscribers:   subscribers,
		ledger:        ledger,
		notifier:      notifier,
		logger:        logger,
		workers:       workers,
		now:           time.Now,
	}
}

// NotifyForBatch dispatches notifications for every drop recorded under
// batchID. A notification fires only when the current price is at or below
// the subscription's active threshold; a decrease alone is not enough.
// Dispatches run on a bounded pool; delivery failures are counted, not
// retried.
func (u *NotifyUsecase) NotifyForBatch(ctx context.Context, batchID string) (sent int, failed int, err error) {
	entries, err := u.ledger.ListBatch(ctx, batchID)
	if err != nil {
		return 0, 0, err
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(u.workers)

	for _, entry := range entries {
		product, err := u.products.GetByID(ctx, entry.ProductID)
		if err != nil {
			mu.Lock()
			failed++
			mu.Unlock()
			u.logger.Warn("failed to load dropped product",
				zap.Uint("product_id", entry.ProductID),
				zap.String("batch_id", batchID),
				zap.Error(err),
			)
			continue
		}

		subscriptions, err := u.subscriptions.ListTrackingByProduct(ctx, entry.ProductID)
		if err != nil {
			mu.Lock()
			failed++
			mu.Unlock()
			u.logger.Warn("failed to load subscriptions",
				zap.Uint("product_id", entry.ProductID),
				zap.Error(err),
			)
			continue
		}

		for _, subscription := range subscriptions {
			active, ok := subscription.ActiveThreshold()
			if !ok {
				continue
			}
			if product.CurrentPrice.Amount > active.Amount {
				continue
			}

			sub := subscription
			p.Go(func() {
				ok := u.dispatch(ctx, product, &sub, active)
				mu.Lock()
				if ok {
					sent++
				} else {
					failed++
				}
				mu.Unlock()
			})
		}
	}
	p.Wait()

	return sent, failed, nil
}

// PurgeBatch drops all ledger rows for the batch, run after fan-out
// regardless of individual delivery outcomes.
func (u *NotifyUsecase) PurgeBatch(ctx context.Context, batchID string) error {
	return u.ledger.PurgeBatch(ctx, batchID)
}

func (u *NotifyUsecase) dispatch(ctx context.Context, product *domain.Product, subscription *domain.Subscription, active domain.Threshold) bool {
	subscriber, err := u.subscribers.GetByID(ctx, subscription.SubscriberID)
	if err != nil {
		u.logger.Warn("failed to load subscriber",
			zap.Uint("subscriber_id", subscription.SubscriberID),
			zap.Error(err),
		)
		return false
	}

	if err := u.notifier.NotifyPriceDrop(ctx, subscriber, product, active); err != nil {
		u.logger.Warn("price drop notification failed",
			zap.Int64("telegram_user_id", subscriber.TelegramUserID),
			zap.Uint("product_id", product.ID),
			zap.Error(err),
		)
		return false
	}

	if err := u.subscriptions.MarkNotified(ctx, subscription.ID, u.now()); err != nil {
		u.logger.Warn("failed to stamp last notification",
			zap.Uint("subscription_id", subscription.ID),
			zap.Error(err),
		)
	}
	return true
}
