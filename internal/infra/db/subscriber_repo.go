package db

import (
	"context"
	"errors"

	"github.com/lukotrack/luko/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

func (r *SubscriberRepository) GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.Subscriber, error) {
	var model subscriberModel
	if err := r.db.WithContext(ctx).Where("telegram_user_id = ?", telegramUserID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapSubscriberToDomain(model), nil
}

func (r *SubscriberRepository) GetByID(ctx context.Context, subscriberID uint) (*domain.Subscriber, error) {
	var model subscriberModel
	if err := r.db.WithContext(ctx).First(&model, subscriberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mapSubscriberToDomain(model), nil
}

func (r *SubscriberRepository) Upsert(ctx context.Context, subscriber *domain.Subscriber) error {
	model := subscriberModel{
		TelegramUserID: subscriber.TelegramUserID,
		Username:       subscriber.Username,
		FirstName:      subscriber.FirstName,
		LastName:       subscriber.LastName,
		LanguageCode:   subscriber.LanguageCode,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "language_code", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return err
	}

	var stored subscriberModel
	if err := r.db.WithContext(ctx).Where("telegram_user_id = ?", subscriber.TelegramUserID).First(&stored).Error; err != nil {
		return err
	}
	subscriber.ID = stored.ID
	subscriber.CreatedAt = stored.CreatedAt
	subscriber.UpdatedAt = stored.UpdatedAt
	return nil
}

func mapSubscriberToDomain(model subscriberModel) *domain.Subscriber {
	return &domain.Subscriber{
		ID:             model.ID,
		TelegramUserID: model.TelegramUserID,
		Username:       model.Username,
		FirstName:      model.FirstName,
		LastName:       model.LastName,
		LanguageCode:   model.LanguageCode,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}
