package db

import (
	"context"
	"errors"
	"time"

	"github.com/lukotrack/luko/internal/domain"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Get(ctx context.Context, subscriberID, productID uint) (*domain.Subscription, error) {
	var model subscriptionModel
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND product_id = ?", subscriberID, productID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.loadWithThresholds(ctx, model)
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, subscriptionID uint) (*domain.Subscription, error) {
	var model subscriptionModel
	if err := r.db.WithContext(ctx).First(&model, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.loadWithThresholds(ctx, model)
}

// Upsert creates or re-enables the (subscriber, product) subscription and
// appends initial to the threshold history, making it the active alert price.
// Re-tracking a stopped product therefore resets the alert to the current
// price while keeping the old history.
func (r *SubscriptionRepository) Upsert(ctx context.Context, subscriberID, productID uint, initial domain.Threshold) (*domain.Subscription, error) {
	var stored subscriptionModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model subscriptionModel
		err := tx.Where("subscriber_id = ? AND product_id = ?", subscriberID, productID).
			First(&model).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			model = subscriptionModel{
				SubscriberID: subscriberID,
				ProductID:    productID,
				IsTracking:   true,
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		} else if err := tx.Model(&subscriptionModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]interface{}{"is_tracking": true}).Error; err != nil {
			return err
		}

		snapshot := thresholdSnapshotModel{
			SubscriptionID: model.ID,
			Amount:         initial.Amount,
			CurrencyCode:   initial.CurrencyCode,
			SetAt:          initial.SetAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		stored = model
		stored.IsTracking = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.loadWithThresholds(ctx, stored)
}

func (r *SubscriptionRepository) ListTrackingByProduct(ctx context.Context, productID uint) ([]domain.Subscription, error) {
	var models []subscriptionModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_tracking = ?", productID, true).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.attachThresholds(ctx, models)
}

func (r *SubscriptionRepository) ListTrackingBySubscriber(ctx context.Context, subscriberID uint) ([]domain.Subscription, error) {
	var models []subscriptionModel
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND is_tracking = ?", subscriberID, true).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.attachThresholds(ctx, models)
}

func (r *SubscriptionRepository) AppendThreshold(ctx context.Context, subscriptionID uint, threshold domain.Threshold) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot := thresholdSnapshotModel{
			SubscriptionID: subscriptionID,
			Amount:         threshold.Amount,
			CurrencyCode:   threshold.CurrencyCode,
			SetAt:          threshold.SetAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		result := tx.Model(&subscriptionModel{}).
			Where("id = ?", subscriptionID).
			Updates(map[string]interface{}{"updated_at": threshold.SetAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *SubscriptionRepository) SetTracking(ctx context.Context, subscriberID, productID uint, tracking bool) error {
	result := r.db.WithContext(ctx).Model(&subscriptionModel{}).
		Where("subscriber_id = ? AND product_id = ?", subscriberID, productID).
		Updates(map[string]interface{}{"is_tracking": tracking})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) MarkNotified(ctx context.Context, subscriptionID uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&subscriptionModel{}).
		Where("id = ?", subscriptionID).
		Updates(map[string]interface{}{"last_notified_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) loadWithThresholds(ctx context.Context, model subscriptionModel) (*domain.Subscription, error) {
	subscriptions, err := r.attachThresholds(ctx, []subscriptionModel{model})
	if err != nil {
		return nil, err
	}
	return &subscriptions[0], nil
}

func (r *SubscriptionRepository) attachThresholds(ctx context.Context, models []subscriptionModel) ([]domain.Subscription, error) {
	if len(models) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(models))
	for _, model := range models {
		ids = append(ids, model.ID)
	}

	var snapshots []thresholdSnapshotModel
	err := r.db.WithContext(ctx).
		Where("subscription_id IN ?", ids).
		Order("id").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}

	bySubscription := make(map[uint][]domain.Threshold, len(models))
	for _, s := range snapshots {
		bySubscription[s.SubscriptionID] = append(bySubscription[s.SubscriptionID], domain.Threshold{
			Amount:       s.Amount,
			CurrencyCode: s.CurrencyCode,
			SetAt:        s.SetAt,
		})
	}

	subscriptions := make([]domain.Subscription, 0, len(models))
	for _, model := range models {
		subscriptions = append(subscriptions, domain.Subscription{
			ID:               model.ID,
			SubscriberID:     model.SubscriberID,
			ProductID:        model.ProductID,
			ThresholdHistory: bySubscription[model.ID],
			IsTracking:       model.IsTracking,
			LastNotifiedAt:   model.LastNotifiedAt,
			CreatedAt:        model.CreatedAt,
			UpdatedAt:        model.UpdatedAt,
		})
	}
	return subscriptions, nil
}
