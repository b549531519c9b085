package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lukotrack/luko/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid threshold amount")
	ErrNoPendingEdit = errors.New("no pending threshold edit")
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ThresholdUsecase runs the two-step alert-price edit flow. A change request
// records a pending edit keyed by subscriber; the subscriber's next numeric
// message resolves against that record, never against a guess.
type ThresholdUsecase struct {
	subscribers   domain.SubscriberRepository
	products      domain.ProductRepository
	subscriptions domain.SubscriptionRepository
	pending       domain.PendingEditRepository
	editTTL       time.Duration
	now           func() time.Time
}

func NewThresholdUsecase(
	subscribers domain.SubscriberRepository,
	products domain.ProductRepository,
	subscriptions domain.SubscriptionRepository,
	pending domain.PendingEditRepository,
	editTTL time.Duration,
) *ThresholdUsecase {
	return &ThresholdUsecase{
		subscribers:   subscribers,
		products:      products,
		subscriptions: subscriptions,
		pending:       pending,
		editTTL:       editTTL,
		now:           time.Now,
	}
}

// RequestChange starts an alert-price edit for (subscriber, product). The
// pending-edit upsert replaces any edit the subscriber had open on another
// product, so at most one edit is ever awaiting a number.
func (u *ThresholdUsecase) RequestChange(ctx context.Context, telegramUserID int64, productID uint) (*domain.Product, error) {
	subscriber, err := u.subscribers.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	subscription, err := u.subscriptions.Get(ctx, subscriber.ID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotTracking
		}
		return nil, err
	}
	if !subscription.IsTracking {
		return nil, ErrNotTracking
	}

	expiresAt := u.now().Add(u.editTTL)
	if err := u.pending.Set(ctx, subscriber.ID, subscription.ID, productID, expiresAt); err != nil {
		return nil, err
	}

	return u.products.GetByID(ctx, productID)
}

// Submit consumes a free-form numeric message as the new alert price for the
// subscriber's pending edit. The amount is typed in major units and stored in
// minor units; the currency is inherited from the existing threshold history,
// falling back to the product's current price currency.
// A missing or expired pending edit rejects the input without mutating
// anything.
func (u *ThresholdUsecase) Submit(ctx context.Context, telegramUserID int64, rawText string) (*domain.Product, domain.Threshold, error) {
	amount, err := parseThresholdAmount(rawText)
	if err != nil {
		return nil, domain.Threshold{}, err
	}

	subscriber, err := u.subscribers.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Threshold{}, ErrUserNotRegistered
		}
		return nil, domain.Threshold{}, err
	}

	edit, err := u.pending.Get(ctx, subscriber.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Threshold{}, ErrNoPendingEdit
		}
		return nil, domain.Threshold{}, err
	}
	if u.now().After(edit.ExpiresAt) {
		_ = u.pending.Clear(ctx, subscriber.ID)
		return nil, domain.Threshold{}, ErrNoPendingEdit
	}

	subscription, err := u.subscriptions.GetByID(ctx, edit.SubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = u.pending.Clear(ctx, subscriber.ID)
			return nil, domain.Threshold{}, ErrNoPendingEdit
		}
		return nil, domain.Threshold{}, err
	}
	if !subscription.IsTracking {
		_ = u.pending.Clear(ctx, subscriber.ID)
		return nil, domain.Threshold{}, ErrNotTracking
	}

	product, err := u.products.GetByID(ctx, subscription.ProductID)
	if err != nil {
		return nil, domain.Threshold{}, err
	}

	threshold := domain.Threshold{
		Amount:       amount,
		CurrencyCode: thresholdCurrency(subscription, product),
		SetAt:        u.now(),
	}
	if err := u.subscriptions.AppendThreshold(ctx, subscription.ID, threshold); err != nil {
		return nil, domain.Threshold{}, err
	}
	if err := u.pending.Clear(ctx, subscriber.ID); err != nil {
		return nil, domain.Threshold{}, err
	}
	return product, threshold, nil
}

// StopTracking soft-deletes the subscription and discards a pending edit
// aimed at it.
func (u *ThresholdUsecase) StopTracking(ctx context.Context, telegramUserID int64, productID uint) (*domain.Product, error) {
	subscriber, err := u.subscribers.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	if err := u.subscriptions.SetTracking(ctx, subscriber.ID, productID, false); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotTracking
		}
		return nil, err
	}

	if edit, err := u.pending.Get(ctx, subscriber.ID); err == nil && edit.ProductID == productID {
		_ = u.pending.Clear(ctx, subscriber.ID)
	}

	return u.products.GetByID(ctx, productID)
}

// IsNumericMessage reports whether a free-form message should be routed into
// the threshold-submit flow.
func IsNumericMessage(text string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "$"))
	if trimmed == "" {
		return false
	}
	_, err := decimal.NewFromString(trimmed)
	return err == nil
}

func parseThresholdAmount(rawText string) (int64, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rawText), "$"))
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !value.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return value.Mul(minorUnitsPerMajor).Round(0).IntPart(), nil
}

func thresholdCurrency(subscription *domain.Subscription, product *domain.Product) string {
	if active, ok := subscription.ActiveThreshold(); ok && active.CurrencyCode != "" {
		return active.CurrencyCode
	}
	return product.CurrentPrice.CurrencyCode
}
