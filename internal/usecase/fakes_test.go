package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lukotrack/luko/internal/domain"
)

type fakeSubscriberRepo struct {
	nextID      uint
	subscribers map[uint]*domain.Subscriber
}

func newFakeSubscriberRepo() *fakeSubscriberRepo {
	return &fakeSubscriberRepo{subscribers: make(map[uint]*domain.Subscriber)}
}

func (r *fakeSubscriberRepo) add(telegramUserID int64) *domain.Subscriber {
	r.nextID++
	s := &domain.Subscriber{ID: r.nextID, TelegramUserID: telegramUserID}
	r.subscribers[s.ID] = s
	return s
}

func (r *fakeSubscriberRepo) GetByTelegramID(_ context.Context, telegramUserID int64) (*domain.Subscriber, error) {
	for _, s := range r.subscribers {
		if s.TelegramUserID == telegramUserID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSubscriberRepo) GetByID(_ context.Context, subscriberID uint) (*domain.Subscriber, error) {
	s, ok := r.subscribers[subscriberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubscriberRepo) Upsert(_ context.Context, subscriber *domain.Subscriber) error {
	for _, s := range r.subscribers {
		if s.TelegramUserID == subscriber.TelegramUserID {
			s.Username = subscriber.Username
			s.FirstName = subscriber.FirstName
			s.LastName = subscriber.LastName
			s.LanguageCode = subscriber.LanguageCode
			subscriber.ID = s.ID
			return nil
		}
	}
	r.nextID++
	subscriber.ID = r.nextID
	copied := *subscriber
	r.subscribers[subscriber.ID] = &copied
	return nil
}

type fakeProductRepo struct {
	nextID      uint
	products    map[uint]*domain.Product
	forEachErr  error
	observeErrs map[uint]error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:    make(map[uint]*domain.Product),
		observeErrs: make(map[uint]error),
	}
}

func (r *fakeProductRepo) add(marketplace, asin string, amount int64) *domain.Product {
	r.nextID++
	p := &domain.Product{
		ID:          r.nextID,
		Marketplace: marketplace,
		ASIN:        asin,
		Title:       "Product " + asin,
		CurrentPrice: domain.Price{
			Amount:       amount,
			CurrencyCode: "USD",
			ObservedAt:   time.Now(),
		},
	}
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID uint) (*domain.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) GetByMarketplaceASIN(_ context.Context, marketplace, asin string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Marketplace == marketplace && p.ASIN == asin {
			copied := *p
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeProductRepo) Upsert(_ context.Context, product *domain.Product) error {
	for _, p := range r.products {
		if p.Marketplace == product.Marketplace && p.ASIN == product.ASIN {
			p.PriceHistory = append(p.PriceHistory, p.CurrentPrice)
			p.URL = product.URL
			p.Title = product.Title
			p.Seller = product.Seller
			p.ImageURL = product.ImageURL
			p.CurrentPrice = product.CurrentPrice
			product.ID = p.ID
			return nil
		}
	}
	r.nextID++
	product.ID = r.nextID
	product.PriceHistory = []domain.Price{product.CurrentPrice}
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) RecordObservation(_ context.Context, productID uint, price domain.Price) error {
	if err, ok := r.observeErrs[productID]; ok {
		return err
	}
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.PriceHistory = append(p.PriceHistory, p.CurrentPrice)
	p.CurrentPrice = price
	return nil
}

func (r *fakeProductRepo) ForEach(_ context.Context, fn func(*domain.Product) error) error {
	if r.forEachErr != nil {
		return r.forEachErr
	}
	ids := make([]uint, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		copied := *r.products[id]
		if err := fn(&copied); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeProductRepo) ListByIDs(_ context.Context, productIDs []uint) ([]domain.Product, error) {
	var products []domain.Product
	for _, id := range productIDs {
		if p, ok := r.products[id]; ok {
			products = append(products, *p)
		}
	}
	return products, nil
}

type fakeSubscriptionRepo struct {
	nextID        uint
	subscriptions map[uint]*domain.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subscriptions: make(map[uint]*domain.Subscription)}
}

func (r *fakeSubscriptionRepo) add(subscriberID, productID uint, thresholdAmount int64, tracking bool) *domain.Subscription {
	r.nextID++
	s := &domain.Subscription{
		ID:           r.nextID,
		SubscriberID: subscriberID,
		ProductID:    productID,
		IsTracking:   tracking,
		ThresholdHistory: []domain.Threshold{
			{Amount: thresholdAmount, CurrencyCode: "USD", SetAt: time.Now()},
		},
	}
	r.subscriptions[s.ID] = s
	return s
}

func (r *fakeSubscriptionRepo) Get(_ context.Context, subscriberID, productID uint) (*domain.Subscription, error) {
	for _, s := range r.subscriptions {
		if s.SubscriberID == subscriberID && s.ProductID == productID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSubscriptionRepo) GetByID(_ context.Context, subscriptionID uint) (*domain.Subscription, error) {
	s, ok := r.subscriptions[subscriptionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, subscriberID, productID uint, initial domain.Threshold) (*domain.Subscription, error) {
	for _, s := range r.subscriptions {
		if s.SubscriberID == subscriberID && s.ProductID == productID {
			s.IsTracking = true
			s.ThresholdHistory = append(s.ThresholdHistory, initial)
			copied := *s
			return &copied, nil
		}
	}
	r.nextID++
	s := &domain.Subscription{
		ID:               r.nextID,
		SubscriberID:     subscriberID,
		ProductID:        productID,
		IsTracking:       true,
		ThresholdHistory: []domain.Threshold{initial},
	}
	r.subscriptions[s.ID] = s
	copied := *s
	return &copied, nil
}

func (r *fakeSubscriptionRepo) ListTrackingByProduct(_ context.Context, productID uint) ([]domain.Subscription, error) {
	return r.list(func(s *domain.Subscription) bool { return s.ProductID == productID && s.IsTracking }), nil
}

func (r *fakeSubscriptionRepo) ListTrackingBySubscriber(_ context.Context, subscriberID uint) ([]domain.Subscription, error) {
	return r.list(func(s *domain.Subscription) bool { return s.SubscriberID == subscriberID && s.IsTracking }), nil
}

func (r *fakeSubscriptionRepo) list(keep func(*domain.Subscription) bool) []domain.Subscription {
	ids := make([]uint, 0, len(r.subscriptions))
	for id := range r.subscriptions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []domain.Subscription
	for _, id := range ids {
		if s := r.subscriptions[id]; keep(s) {
			out = append(out, *s)
		}
	}
	return out
}

func (r *fakeSubscriptionRepo) AppendThreshold(_ context.Context, subscriptionID uint, threshold domain.Threshold) error {
	s, ok := r.subscriptions[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.ThresholdHistory = append(s.ThresholdHistory, threshold)
	s.UpdatedAt = threshold.SetAt
	return nil
}

func (r *fakeSubscriptionRepo) SetTracking(_ context.Context, subscriberID, productID uint, tracking bool) error {
	for _, s := range r.subscriptions {
		if s.SubscriberID == subscriberID && s.ProductID == productID {
			s.IsTracking = tracking
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeSubscriptionRepo) MarkNotified(_ context.Context, subscriptionID uint, at time.Time) error {
	s, ok := r.subscriptions[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastNotifiedAt = &at
	return nil
}

type fakeDropLedger struct {
	mu      sync.Mutex
	entries []domain.DropEntry
	nextID  uint
}

func newFakeDropLedger() *fakeDropLedger {
	return &fakeDropLedger{}
}

func (l *fakeDropLedger) Record(_ context.Context, productID uint, batchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ProductID == productID && e.BatchID == batchID {
			return nil
		}
	}
	l.nextID++
	l.entries = append(l.entries, domain.DropEntry{ID: l.nextID, ProductID: productID, BatchID: batchID})
	return nil
}

func (l *fakeDropLedger) ListBatch(_ context.Context, batchID string) ([]domain.DropEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.DropEntry
	for _, e := range l.entries {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *fakeDropLedger) PurgeBatch(_ context.Context, batchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.BatchID != batchID {
			kept = append(kept, e)
		}
	}
	l.entries = kept
	return nil
}

type fakePendingEditRepo struct {
	edits map[uint]*domain.PendingEdit
}

func newFakePendingEditRepo() *fakePendingEditRepo {
	return &fakePendingEditRepo{edits: make(map[uint]*domain.PendingEdit)}
}

func (r *fakePendingEditRepo) Set(_ context.Context, subscriberID, subscriptionID, productID uint, expiresAt time.Time) error {
	r.edits[subscriberID] = &domain.PendingEdit{
		SubscriberID:   subscriberID,
		SubscriptionID: subscriptionID,
		ProductID:      productID,
		ExpiresAt:      expiresAt,
	}
	return nil
}

func (r *fakePendingEditRepo) Get(_ context.Context, subscriberID uint) (*domain.PendingEdit, error) {
	e, ok := r.edits[subscriberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakePendingEditRepo) Clear(_ context.Context, subscriberID uint) error {
	delete(r.edits, subscriberID)
	return nil
}

type fakeGateway struct {
	prices map[string]*domain.Price
	infos  map[string]*domain.ProductInfo
	errs   map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		prices: make(map[string]*domain.Price),
		infos:  make(map[string]*domain.ProductInfo),
		errs:   make(map[string]error),
	}
}

func gatewayKey(marketplace, asin string) string {
	return fmt.Sprintf("%s/%s", marketplace, asin)
}

func (g *fakeGateway) setPrice(marketplace, asin string, amount int64) {
	g.prices[gatewayKey(marketplace, asin)] = &domain.Price{
		Amount:       amount,
		CurrencyCode: "USD",
		ObservedAt:   time.Now(),
	}
}

func (g *fakeGateway) setErr(marketplace, asin string, err error) {
	g.errs[gatewayKey(marketplace, asin)] = err
}

func (g *fakeGateway) LookupProduct(_ context.Context, marketplace, asin string) (*domain.ProductInfo, error) {
	key := gatewayKey(marketplace, asin)
	if err, ok := g.errs[key]; ok {
		return nil, err
	}
	if info, ok := g.infos[key]; ok {
		copied := *info
		return &copied, nil
	}
	price, ok := g.prices[key]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &domain.ProductInfo{
		Marketplace: marketplace,
		ASIN:        asin,
		Title:       "Product " + asin,
		Price:       *price,
	}, nil
}

func (g *fakeGateway) FetchPrice(_ context.Context, marketplace, asin string) (*domain.Price, error) {
	key := gatewayKey(marketplace, asin)
	if err, ok := g.errs[key]; ok {
		return nil, err
	}
	price, ok := g.prices[key]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *price
	return &copied, nil
}

type sentNotification struct {
	SubscriberID uint
	ProductID    uint
	Threshold    domain.Threshold
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	failAll bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) NotifyPriceDrop(_ context.Context, subscriber *domain.Subscriber, product *domain.Product, active domain.Threshold) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAll {
		return fmt.Errorf("delivery failed")
	}
	n.sent = append(n.sent, sentNotification{
		SubscriberID: subscriber.ID,
		ProductID:    product.ID,
		Threshold:    active,
	})
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
