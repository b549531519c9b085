package usecase

import (
	"context"

	"github.com/lukotrack/luko/internal/domain"
)

type SubscriberUsecase struct {
	subscribers domain.SubscriberRepository
}

func NewSubscriberUsecase(subscribers domain.SubscriberRepository) *SubscriberUsecase {
	return &SubscriberUsecase{subscribers: subscribers}
}

// StartOrGetSubscriber registers the chat user on first contact and refreshes
// their profile fields on subsequent /start commands.
func (u *SubscriberUsecase) StartOrGetSubscriber(ctx context.Context, telegramUserID int64, username, firstName, lastName, languageCode string) (*domain.Subscriber, error) {
	subscriber := &domain.Subscriber{
		TelegramUserID: telegramUserID,
		Username:       username,
		FirstName:      firstName,
		LastName:       lastName,
		LanguageCode:   languageCode,
	}
	if err := u.subscribers.Upsert(ctx, subscriber); err != nil {
		return nil, err
	}
	return subscriber, nil
}
