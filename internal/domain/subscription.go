package domain

import "time"

// Threshold is one alert-price snapshot. Amount is in minor units.
type Threshold struct {
	Amount       int64
	CurrencyCode string
	SetAt        time.Time
}

// Subscription joins a Subscriber to a Product they track. ThresholdHistory
// is append-only; the last element is the active alert price. Stopping
// tracking flips IsTracking instead of deleting the row.
type Subscription struct {
	ID               uint
	SubscriberID     uint
	ProductID        uint
	ThresholdHistory []Threshold
	IsTracking       bool
	LastNotifiedAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActiveThreshold returns the most recently set alert price. ok is false for
// a subscription that never had a threshold set.
func (s *Subscription) ActiveThreshold() (Threshold, bool) {
	if len(s.ThresholdHistory) == 0 {
		return Threshold{}, false
	}
	return s.ThresholdHistory[len(s.ThresholdHistory)-1], true
}

// PendingEdit records that a subscriber's next numeric message should update
// the alert price of one specific subscription. At most one row exists per
// subscriber; setting a new one replaces the old.
type PendingEdit struct {
	ID             uint
	SubscriberID   uint
	SubscriptionID uint
	ProductID      uint
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
