package amazon

import (
	"strings"
	"time"

	"github.com/lukotrack/luko/internal/domain"
)

type itemResponse struct {
	ASIN          string     `json:"asin"`
	DetailPageURL string     `json:"detailPageUrl"`
	Title         string     `json:"title"`
	Seller        string     `json:"seller"`
	Format        string     `json:"format"`
	Images        itemImages `json:"images"`
	Offer         itemOffer  `json:"offer"`
}

type itemImages struct {
	Large  string `json:"large"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
}

type itemOffer struct {
	Amount          int64  `json:"amount"`
	FormattedAmount string `json:"formattedAmount"`
	CurrencyCode    string `json:"currencyCode"`
	// TooLowToDisplay marks offers whose price the marketplace withholds.
	TooLowToDisplay bool `json:"tooLowToDisplay"`
}

const kindleFormat = "kindle ebook"

func (r itemResponse) toProductInfo(marketplace string, observedAt time.Time) (*domain.ProductInfo, error) {
	if strings.ToLower(strings.TrimSpace(r.Format)) == kindleFormat {
		return nil, domain.ErrUnsupportedProduct
	}
	price, err := r.Offer.toPrice(observedAt)
	if err != nil {
		return nil, err
	}
	return &domain.ProductInfo{
		Marketplace: marketplace,
		ASIN:        r.ASIN,
		URL:         r.DetailPageURL,
		Title:       r.Title,
		Seller:      r.Seller,
		ImageURL:    r.Images.best(),
		Price:       *price,
	}, nil
}

func (o itemOffer) toPrice(observedAt time.Time) (*domain.Price, error) {
	if o.TooLowToDisplay || o.Amount <= 0 {
		return nil, domain.ErrPriceUnavailable
	}
	return &domain.Price{
		Amount:          o.Amount,
		FormattedAmount: o.FormattedAmount,
		CurrencyCode:    o.CurrencyCode,
		ObservedAt:      observedAt,
	}, nil
}

func (i itemImages) best() string {
	if i.Large != "" {
		return i.Large
	}
	if i.Medium != "" {
		return i.Medium
	}
	return i.Small
}
