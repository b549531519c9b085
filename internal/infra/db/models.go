package db

import "time"

type productModel struct {
	ID              uint   `gorm:"primaryKey"`
	Marketplace     string `gorm:"uniqueIndex:idx_products_marketplace_asin;not null"`
	ASIN            string `gorm:"uniqueIndex:idx_products_marketplace_asin;not null"`
	URL             string `gorm:"not null"`
	Title           string `gorm:"not null"`
	Seller          string `gorm:""`
	ImageURL        string `gorm:""`
	PriceAmount     int64  `gorm:"not null"`
	PriceFormatted  string `gorm:"not null"`
	PriceCurrency   string `gorm:"not null"`
	PriceObservedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type priceSnapshotModel struct {
	ID              uint `gorm:"primaryKey"`
	ProductID       uint `gorm:"index;not null"`
	Amount          int64
	FormattedAmount string
	CurrencyCode    string
	ObservedAt      time.Time
}

type subscriberModel struct {
	ID             uint  `gorm:"primaryKey"`
	TelegramUserID int64 `gorm:"uniqueIndex;not null"`
	Username       string
	FirstName      string
	LastName       string
	LanguageCode   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type subscriptionModel struct {
	ID             uint `gorm:"primaryKey"`
	SubscriberID   uint `gorm:"uniqueIndex:idx_subscriptions_subscriber_product;not null"`
	ProductID      uint `gorm:"uniqueIndex:idx_subscriptions_subscriber_product;index:idx_subscriptions_product_tracking,priority:1;not null"`
	IsTracking     bool `gorm:"index:idx_subscriptions_product_tracking,priority:2"`
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type thresholdSnapshotModel struct {
	ID             uint `gorm:"primaryKey"`
	SubscriptionID uint `gorm:"index;not null"`
	Amount         int64
	CurrencyCode   string
	SetAt          time.Time
}

type dropEntryModel struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"uniqueIndex:idx_drop_entries_product_batch;not null"`
	BatchID   string `gorm:"uniqueIndex:idx_drop_entries_product_batch;index;not null"`
	CreatedAt time.Time
}

type pendingEditModel struct {
	ID             uint `gorm:"primaryKey"`
	SubscriberID   uint `gorm:"uniqueIndex;not null"`
	SubscriptionID uint `gorm:"not null"`
	ProductID      uint `gorm:"not null"`
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
