package db

import (
	"context"
	"errors"
	"time"

	"github.com/lukotrack/luko/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingEditRepository struct {
	db *gorm.DB
}

func NewPendingEditRepository(db *gorm.DB) *PendingEditRepository {
	return &PendingEditRepository{db: db}
}

// Set upserts on the unique subscriber column, so a new edit request
// atomically displaces whatever edit the subscriber had open.
func (r *PendingEditRepository) Set(ctx context.Context, subscriberID, subscriptionID, productID uint, expiresAt time.Time) error {
	model := pendingEditModel{
		SubscriberID:   subscriberID,
		SubscriptionID: subscriptionID,
		ProductID:      productID,
		ExpiresAt:      expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscriber_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"subscription_id", "product_id", "expires_at", "updated_at"}),
	}).Create(&model).Error
}

func (r *PendingEditRepository) Get(ctx context.Context, subscriberID uint) (*domain.PendingEdit, error) {
	var model pendingEditModel
	if err := r.db.WithContext(ctx).Where("subscriber_id = ?", subscriberID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.PendingEdit{
		ID:             model.ID,
		SubscriberID:   model.SubscriberID,
		SubscriptionID: model.SubscriptionID,
		ProductID:      model.ProductID,
		ExpiresAt:      model.ExpiresAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}

func (r *PendingEditRepository) Clear(ctx context.Context, subscriberID uint) error {
	return r.db.WithContext(ctx).Where("subscriber_id = ?", subscriberID).Delete(&pendingEditModel{}).Error
}
