package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound        = errors.New("product not found")
	ErrPriceUnavailable       = errors.New("price unavailable")
	ErrUnsupportedMarketplace = errors.New("unsupported marketplace")
	ErrUnsupportedProduct     = errors.New("unsupported product")
	ErrInvalidProductLink     = errors.New("invalid product link")
)

// ProductInfo is the gateway's view of a listing.
type ProductInfo struct {
	Marketplace string
	ASIN        string
	URL         string
	Title       string
	Seller      string
	ImageURL    string
	Price       Price
}

// PricingGateway looks up listings on the external pricing API. A listing
// whose price is withheld ("too low to display") yields ErrPriceUnavailable;
// callers must not treat that as a price of zero.
type PricingGateway interface {
	LookupProduct(ctx context.Context, marketplace, asin string) (*ProductInfo, error)
	FetchPrice(ctx context.Context, marketplace, asin string) (*Price, error)
}

// LinkResolver maps a raw product URL to its marketplace and external id.
type LinkResolver interface {
	Resolve(rawURL string) (marketplace, asin string, err error)
}
