package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

// Full cycle: product at 2000 observed at 1800 with an alert price of 1900
// notifies its subscriber, appends the 2000 observation to the history and
// leaves the ledger empty afterwards.
func TestBatchRunEndToEnd(t *testing.T) {
	products := newFakeProductRepo()
	subscriptions := newFakeSubscriptionRepo()
	subscribers := newFakeSubscriberRepo()
	ledger := newFakeDropLedger()
	gateway := newFakeGateway()
	notifier := newFakeNotifier()

	product := products.add("amazon.com", "B000TEST01", 2000)
	subscriber := subscribers.add(111)
	subscriptions.add(subscriber.ID, product.ID, 1900, true)
	gateway.setPrice("amazon.com", "B000TEST01", 1800)

	logger := zap.NewNop()
	refresh := NewRefreshUsecase(products, ledger, gateway, logger)
	notify := NewNotifyUsecase(products, subscriptions, subscribers, ledger, notifier, 2, logger)
	batch := NewBatchUsecase(refresh, notify, logger)

	summary, err := batch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ProductsRefreshed != 1 || summary.DropsDetected != 1 || summary.NotificationsSent != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if notifier.sentCount() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.sentCount())
	}

	stored, _ := products.GetByID(context.Background(), product.ID)
	if stored.CurrentPrice.Amount != 1800 {
		t.Fatalf("expected current price 1800, got %d", stored.CurrentPrice.Amount)
	}
	if n := len(stored.PriceHistory); n == 0 || stored.PriceHistory[n-1].Amount != 2000 {
		t.Fatalf("expected 2000 appended to history, got %+v", stored.PriceHistory)
	}

	entries, _ := ledger.ListBatch(context.Background(), summary.BatchID)
	if len(entries) != 0 {
		t.Fatalf("ledger must be purged after the run, got %+v", entries)
	}
}

func TestBatchRunPurgesEvenWithoutNotifications(t *testing.T) {
	products := newFakeProductRepo()
	subscriptions := newFakeSubscriptionRepo()
	subscribers := newFakeSubscriberRepo()
	ledger := newFakeDropLedger()
	gateway := newFakeGateway()
	notifier := newFakeNotifier()

	product := products.add("amazon.com", "B000TEST01", 2000)
	subscriber := subscribers.add(111)
	subscriptions.add(subscriber.ID, product.ID, 1700, true)
	gateway.setPrice("amazon.com", "B000TEST01", 1800)

	logger := zap.NewNop()
	refresh := NewRefreshUsecase(products, ledger, gateway, logger)
	notify := NewNotifyUsecase(products, subscriptions, subscribers, ledger, notifier, 2, logger)
	batch := NewBatchUsecase(refresh, notify, logger)

	summary, err := batch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.DropsDetected != 1 || summary.NotificationsSent != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	entries, _ := ledger.ListBatch(context.Background(), summary.BatchID)
	if len(entries) != 0 {
		t.Fatalf("ledger must be purged regardless of fan-out outcome, got %+v", entries)
	}
}
