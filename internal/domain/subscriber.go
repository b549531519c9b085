package domain

import "time"

type Subscriber struct {
	ID             uint
	TelegramUserID int64
	Username       string
	FirstName      string
	LastName       string
	LanguageCode   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
