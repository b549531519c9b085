package db

import (
	"context"
	"errors"

	"github.com/lukotrack/luko/internal/domain"
	"gorm.io/gorm"
)

const productBatchSize = 100

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, productID uint) (*domain.Product, error) {
	var model productModel
	if err := r.db.WithContext(ctx).First(&model, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.loadWithHistory(ctx, model)
}

func (r *ProductRepository) GetByMarketplaceASIN(ctx context.Context, marketplace, asin string) (*domain.Product, error) {
	var model productModel
	err := r.db.WithContext(ctx).
		Where("marketplace = ? AND asin = ?", marketplace, asin).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.loadWithHistory(ctx, model)
}

// Upsert creates the product or refreshes its listing fields. On create the
// first observation is also written to the history so the history is never
// empty for a tracked product; on update the previously stored price is
// pushed onto the history before it is overwritten.
func (r *ProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing productModel
		err := tx.Where("marketplace = ? AND asin = ?", product.Marketplace, product.ASIN).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			model := mapProductToModel(*product)
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
			snapshot := priceSnapshotModel{
				ProductID:       model.ID,
				Amount:          product.CurrentPrice.Amount,
				FormattedAmount: product.CurrentPrice.FormattedAmount,
				CurrencyCode:    product.CurrentPrice.CurrencyCode,
				ObservedAt:      product.CurrentPrice.ObservedAt,
			}
			if err := tx.Create(&snapshot).Error; err != nil {
				return err
			}
			product.ID = model.ID
			product.CreatedAt = model.CreatedAt
			product.UpdatedAt = model.UpdatedAt
			product.PriceHistory = []domain.Price{product.CurrentPrice}
			return nil
		}

		snapshot := priceSnapshotModel{
			ProductID:       existing.ID,
			Amount:          existing.PriceAmount,
			FormattedAmount: existing.PriceFormatted,
			CurrencyCode:    existing.PriceCurrency,
			ObservedAt:      existing.PriceObservedAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"url":               product.URL,
			"title":             product.Title,
			"seller":            product.Seller,
			"image_url":         product.ImageURL,
			"price_amount":      product.CurrentPrice.Amount,
			"price_formatted":   product.CurrentPrice.FormattedAmount,
			"price_currency":    product.CurrentPrice.CurrencyCode,
			"price_observed_at": product.CurrentPrice.ObservedAt,
		}
		if err := tx.Model(&productModel{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}
		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
		return nil
	})
}

// RecordObservation pushes the stored current price onto the history and
// replaces it with the new observation, in one transaction.
func (r *ProductRepository) RecordObservation(ctx context.Context, productID uint, price domain.Price) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model productModel
		if err := tx.First(&model, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		snapshot := priceSnapshotModel{
			ProductID:       model.ID,
			Amount:          model.PriceAmount,
			FormattedAmount: model.PriceFormatted,
			CurrencyCode:    model.PriceCurrency,
			ObservedAt:      model.PriceObservedAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		return tx.Model(&productModel{}).Where("id = ?", model.ID).Updates(map[string]interface{}{
			"price_amount":      price.Amount,
			"price_formatted":   price.FormattedAmount,
			"price_currency":    price.CurrencyCode,
			"price_observed_at": price.ObservedAt,
		}).Error
	})
}

// ForEach walks all products in id order, a page at a time, so the batch
// refresh never holds the whole catalog in memory.
func (r *ProductRepository) ForEach(ctx context.Context, fn func(*domain.Product) error) error {
	var models []productModel
	result := r.db.WithContext(ctx).Order("id").FindInBatches(&models, productBatchSize, func(tx *gorm.DB, batch int) error {
		for _, model := range models {
			product := mapProductToDomain(model, nil)
			if err := fn(&product); err != nil {
				return err
			}
		}
		return nil
	})
	return result.Error
}

func (r *ProductRepository) ListByIDs(ctx context.Context, productIDs []uint) ([]domain.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var models []productModel
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(models))
	for _, model := range models {
		products = append(products, mapProductToDomain(model, nil))
	}
	return products, nil
}

func (r *ProductRepository) loadWithHistory(ctx context.Context, model productModel) (*domain.Product, error) {
	var snapshots []priceSnapshotModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", model.ID).
		Order("id").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	product := mapProductToDomain(model, snapshots)
	return &product, nil
}

func mapProductToDomain(model productModel, snapshots []priceSnapshotModel) domain.Product {
	history := make([]domain.Price, 0, len(snapshots))
	for _, s := range snapshots {
		history = append(history, domain.Price{
			Amount:          s.Amount,
			FormattedAmount: s.FormattedAmount,
			CurrencyCode:    s.CurrencyCode,
			ObservedAt:      s.ObservedAt,
		})
	}
	return domain.Product{
		ID:          model.ID,
		Marketplace: model.Marketplace,
		ASIN:        model.ASIN,
		URL:         model.URL,
		Title:       model.Title,
		Seller:      model.Seller,
		ImageURL:    model.ImageURL,
		CurrentPrice: domain.Price{
			Amount:          model.PriceAmount,
			FormattedAmount: model.PriceFormatted,
			CurrencyCode:    model.PriceCurrency,
			ObservedAt:      model.PriceObservedAt,
		},
		PriceHistory: history,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func mapProductToModel(product domain.Product) productModel {
	return productModel{
		ID:              product.ID,
		Marketplace:     product.Marketplace,
		ASIN:            product.ASIN,
		URL:             product.URL,
		Title:           product.Title,
		Seller:          product.Seller,
		ImageURL:        product.ImageURL,
		PriceAmount:     product.CurrentPrice.Amount,
		PriceFormatted:  product.CurrentPrice.FormattedAmount,
		PriceCurrency:   product.CurrentPrice.CurrencyCode,
		PriceObservedAt: product.CurrentPrice.ObservedAt,
		CreatedAt:       product.CreatedAt,
		UpdatedAt:       product.UpdatedAt,
	}
}

