package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type SubscriberRepository interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*Subscriber, error)
	GetByID(ctx context.Context, subscriberID uint) (*Subscriber, error)
	Upsert(ctx context.Context, subscriber *Subscriber) error
}

type ProductRepository interface {
	GetByID(ctx context.Context, productID uint) (*Product, error)
	GetByMarketplaceASIN(ctx context.Context, marketplace, asin string) (*Product, error)
	// Upsert creates or refreshes the product for (Marketplace, ASIN). On
	// create the first observation seeds PriceHistory; on update the
	// previously stored price is appended to it before being replaced.
	Upsert(ctx context.Context, product *Product) error
	// RecordObservation atomically appends the stored CurrentPrice to
	// PriceHistory and replaces it with price.
	RecordObservation(ctx context.Context, productID uint, price Price) error
	// ForEach iterates every product in stable batches; fn errors abort the
	// iteration.
	ForEach(ctx context.Context, fn func(*Product) error) error
	ListByIDs(ctx context.Context, productIDs []uint) ([]Product, error)
}

type SubscriptionRepository interface {
	Get(ctx context.Context, subscriberID, productID uint) (*Subscription, error)
	GetByID(ctx context.Context, subscriptionID uint) (*Subscription, error)
	// Upsert creates the subscription or re-enables tracking on an existing
	// one, appending initial as the new active threshold either way.
	Upsert(ctx context.Context, subscriberID, productID uint, initial Threshold) (*Subscription, error)
	ListTrackingByProduct(ctx context.Context, productID uint) ([]Subscription, error)
	ListTrackingBySubscriber(ctx context.Context, subscriberID uint) ([]Subscription, error)
	AppendThreshold(ctx context.Context, subscriptionID uint, threshold Threshold) error
	SetTracking(ctx context.Context, subscriberID, productID uint, tracking bool) error
	MarkNotified(ctx context.Context, subscriptionID uint, at time.Time) error
}

type DropLedger interface {
	// Record upserts the (productID, batchID) entry; recording the same pair
	// twice is a no-op.
	Record(ctx context.Context, productID uint, batchID string) error
	ListBatch(ctx context.Context, batchID string) ([]DropEntry, error)
	PurgeBatch(ctx context.Context, batchID string) error
}

type PendingEditRepository interface {
	// Set upserts the subscriber's single pending-edit row, repointing it at
	// subscriptionID. The unique subscriber key is what enforces the
	// one-edit-at-a-time invariant.
	Set(ctx context.Context, subscriberID, subscriptionID, productID uint, expiresAt time.Time) error
	Get(ctx context.Context, subscriberID uint) (*PendingEdit, error)
	Clear(ctx context.Context, subscriberID uint) error
}
