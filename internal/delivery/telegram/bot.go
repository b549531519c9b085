package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lukotrack/luko/internal/domain"
	"go.uber.org/zap"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	handlers    *Handlers
	pollTimeout int
}

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

func NewBot(api *tgbotapi.BotAPI, handlers *Handlers, pollTimeout int) *Bot {
	return &Bot{api: api, handlers: handlers, pollTimeout: pollTimeout}
}

func (b *Bot) Start(ctx context.Context) error {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(config)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handlers.HandleUpdate(ctx, b.api, update)
		}
	}
}

// Notifier delivers price-drop messages; it implements usecase.Notifier.
type Notifier struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, logger: logger}
}

func (n *Notifier) NotifyPriceDrop(ctx context.Context, subscriber *domain.Subscriber, product *domain.Product, active domain.Threshold) error {
	n.logger.Info("price drop notify send",
		zap.Int64("telegram_user_id", subscriber.TelegramUserID),
		zap.Uint("product_id", product.ID),
		zap.Int64("current_amount", product.CurrentPrice.Amount),
		zap.Int64("threshold_amount", active.Amount),
	)

	if err := ctx.Err(); err != nil {
		return err
	}

	intro := tgbotapi.NewMessage(subscriber.TelegramUserID, PriceDropMessage)
	if _, err := n.api.Send(intro); err != nil {
		n.logger.Warn("failed to notify", zap.Error(err))
		return err
	}

	text := fmt.Sprintf(
		"%s\n%s - now %s (your alert price: %s)",
		product.Title,
		product.Seller,
		product.CurrentPrice.FormattedAmount,
		FormatAmount(active.Amount, active.CurrencyCode),
	)
	card := tgbotapi.NewMessage(subscriber.TelegramUserID, text)
	card.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("View Product", product.URL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Change alert price", EditPriceCallback(product.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Stop Tracking", StopTrackingCallback(product.ID)),
		),
	)
	if _, err := n.api.Send(card); err != nil {
		n.logger.Warn("failed to notify", zap.Error(err))
		return err
	}
	return nil
}
