package domain

import "time"

// DropEntry marks that a product's price decreased during one batch. Entries
// are scoped to their batch id and purged once the batch's notifications are
// fanned out.
type DropEntry struct {
	ID        uint
	ProductID uint
	BatchID   string
	CreatedAt time.Time
}

type BatchSummary struct {
	BatchID           string
	StartedAt         time.Time
	ProductsRefreshed int
	DropsDetected     int
	NotificationsSent int
	Errors            int
}
