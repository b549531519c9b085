package db

import (
	"context"

	"github.com/lukotrack/luko/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DropLedger struct {
	db *gorm.DB
}

func NewDropLedger(db *gorm.DB) *DropLedger {
	return &DropLedger{db: db}
}

// Record upserts the (product, batch) row; re-running a batch over the same
// product is a no-op thanks to the unique index.
func (l *DropLedger) Record(ctx context.Context, productID uint, batchID string) error {
	entry := dropEntryModel{ProductID: productID, BatchID: batchID}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "batch_id"}},
		DoNothing: true,
	}).Create(&entry).Error
}

func (l *DropLedger) ListBatch(ctx context.Context, batchID string) ([]domain.DropEntry, error) {
	var models []dropEntryModel
	if err := l.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.DropEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, domain.DropEntry{
			ID:        model.ID,
			ProductID: model.ProductID,
			BatchID:   model.BatchID,
			CreatedAt: model.CreatedAt,
		})
	}
	return entries, nil
}

func (l *DropLedger) PurgeBatch(ctx context.Context, batchID string) error {
	return l.db.WithContext(ctx).Where("batch_id = ?", batchID).Delete(&dropEntryModel{}).Error
}
