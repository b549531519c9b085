package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/lukotrack/luko/internal/domain"
)

var (
	ErrUserNotRegistered = errors.New("user not registered")
	ErrNoProductLink     = errors.New("no product link in message")
	ErrNotTracking       = errors.New("product not tracked")
)

type TrackUsecase struct {
	subscribers   domain.SubscriberRepository
	products      domain.ProductRepository
	subscriptions domain.SubscriptionRepository
	gateway       domain.PricingGateway
	resolver      domain.LinkResolver
}

func NewTrackUsecase(
	subscribers domain.SubscriberRepository,
	products domain.ProductRepository,
	subscriptions domain.SubscriptionRepository,
	gateway domain.PricingGateway,
	resolver domain.LinkResolver,
) *TrackUsecase {
	return &TrackUsecase{
		subscribers:   subscribers,
		products:      products,
		subscriptions: subscriptions,
		gateway:       gateway,
		resolver:      resolver,
	}
}

// TrackedProduct pairs a product with the caller's subscription to it.
type TrackedProduct struct {
	Product      domain.Product
	Subscription domain.Subscription
}

// Preview resolves a pasted product link and looks the listing up without
// tracking it, so the user can confirm the right product was found.
func (u *TrackUsecase) Preview(ctx context.Context, messageText string) (*domain.ProductInfo, error) {
	rawURL, ok := firstURL(messageText)
	if !ok {
		return nil, ErrNoProductLink
	}
	marketplace, asin, err := u.resolver.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	return u.gateway.LookupProduct(ctx, marketplace, asin)
}

// Track upserts the product with a fresh gateway observation and subscribes
// the user to it. The initial alert threshold equals the current price, so
// the first notification requires a further decrease below it.
func (u *TrackUsecase) Track(ctx context.Context, telegramUserID int64, marketplace, asin string) (*domain.Product, error) {
	subscriber, err := u.subscribers.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	info, err := u.gateway.LookupProduct(ctx, marketplace, asin)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Marketplace:  info.Marketplace,
		ASIN:         info.ASIN,
		URL:          info.URL,
		Title:        info.Title,
		Seller:       info.Seller,
		ImageURL:     info.ImageURL,
		CurrentPrice: info.Price,
	}
	if err := u.products.Upsert(ctx, product); err != nil {
		return nil, err
	}

	initial := domain.Threshold{
		Amount:       product.CurrentPrice.Amount,
		CurrencyCode: product.CurrentPrice.CurrencyCode,
		SetAt:        product.CurrentPrice.ObservedAt,
	}
	if _, err := u.subscriptions.Upsert(ctx, subscriber.ID, product.ID, initial); err != nil {
		return nil, err
	}

	return product, nil
}

// ListTracked returns the caller's actively tracked products with their
// subscriptions, for the manage-products carousel.
func (u *TrackUsecase) ListTracked(ctx context.Context, telegramUserID int64) ([]TrackedProduct, error) {
	subscriber, err := u.subscribers.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, err
	}

	subscriptions, err := u.subscriptions.ListTrackingBySubscriber(ctx, subscriber.ID)
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return nil, nil
	}

	productIDs := make([]uint, 0, len(subscriptions))
	for _, s := range subscriptions {
		productIDs = append(productIDs, s.ProductID)
	}
	products, err := u.products.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	tracked := make([]TrackedProduct, 0, len(subscriptions))
	for _, s := range subscriptions {
		product, ok := byID[s.ProductID]
		if !ok {
			continue
		}
		tracked = append(tracked, TrackedProduct{Product: product, Subscription: s})
	}
	return tracked, nil
}

func firstURL(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field, true
		}
	}
	return "", false
}
