package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lukotrack/luko/internal/domain"
	"go.uber.org/zap"
)

// RefreshUsecase is the batch refresh engine: one call re-fetches every
// tracked product, records new observations and marks strict price decreases
// in the drop ledger under a fresh batch id.
type RefreshUsecase struct {
	products domain.ProductRepository
	ledger   domain.DropLedger
	gateway  domain.PricingGateway
	logger   *zap.Logger
}

func NewRefreshUsecase(products domain.ProductRepository, ledger domain.DropLedger, gateway domain.PricingGateway, logger *zap.Logger) *RefreshUsecase {
	return &RefreshUsecase{products: products, ledger: ledger, gateway: gateway, logger: logger}
}

// RunBatch refreshes all products once. Gateway failures and withheld prices
// skip the product without touching its stored price; store failures on one
// product are logged and counted without aborting the rest. Only a failing
// product cursor ends the batch early.
func (u *RefreshUsecase) RunBatch(ctx context.Context) (domain.BatchSummary, error) {
	summary := domain.BatchSummary{BatchID: uuid.NewString()}
	u.logger.Info("batch refresh start", zap.String("batch_id", summary.BatchID))

	err := u.products.ForEach(ctx, func(product *domain.Product) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		u.refreshProduct(ctx, product, &summary)
		return nil
	})
	if err != nil {
		u.logger.Error("batch refresh aborted", zap.String("batch_id", summary.BatchID), zap.Error(err))
		return summary, err
	}

	u.logger.Info(
		"batch refresh complete",
		zap.String("batch_id", summary.BatchID),
		zap.Int("products_refreshed", summary.ProductsRefreshed),
		zap.Int("drops_detected", summary.DropsDetected),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (u *RefreshUsecase) refreshProduct(ctx context.Context, product *domain.Product, summary *domain.BatchSummary) {
	price, err := u.gateway.FetchPrice(ctx, product.Marketplace, product.ASIN)
	if err != nil {
		summary.Errors++
		if errors.Is(err, domain.ErrPriceUnavailable) || errors.Is(err, domain.ErrProductNotFound) {
			u.logger.Warn("price unavailable, skipping product",
				zap.Uint("product_id", product.ID),
				zap.String("asin", product.ASIN),
				zap.Error(err),
			)
			return
		}
		u.logger.Warn("gateway fetch failed, skipping product",
			zap.Uint("product_id", product.ID),
			zap.String("asin", product.ASIN),
			zap.Error(err),
		)
		return
	}

	previous := product.CurrentPrice
	if err := u.products.RecordObservation(ctx, product.ID, *price); err != nil {
		summary.Errors++
		u.logger.Warn("failed to record observation",
			zap.Uint("product_id", product.ID),
			zap.Error(err),
		)
		return
	}
	summary.ProductsRefreshed++

	if price.Amount >= previous.Amount {
		return
	}
	if err := u.ledger.Record(ctx, product.ID, summary.BatchID); err != nil {
		summary.Errors++
		u.logger.Warn("failed to record price drop",
			zap.Uint("product_id", product.ID),
			zap.String("batch_id", summary.BatchID),
			zap.Error(err),
		)
		return
	}
	summary.DropsDetected++
	u.logger.Info("price drop detected",
		zap.Uint("product_id", product.ID),
		zap.Int64("previous_amount", previous.Amount),
		zap.Int64("new_amount", price.Amount),
	)
}
