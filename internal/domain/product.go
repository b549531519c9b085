package domain

import "time"

// Price is a single observation of a listing's price. Amount is in minor
// units (cents).
type Price struct {
	Amount          int64
	FormattedAmount string
	CurrencyCode    string
	ObservedAt      time.Time
}

// Product is one tracked listing, unique per (Marketplace, ASIN).
type Product struct {
	ID           uint
	Marketplace  string
	ASIN         string
	URL          string
	Title        string
	Seller       string
	ImageURL     string
	CurrentPrice Price
	// PriceHistory holds past observations, oldest first. The batch refresh
	// appends the previous CurrentPrice before overwriting it.
	PriceHistory []Price
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
