package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lukotrack/luko/internal/domain"
	"github.com/lukotrack/luko/internal/usecase"
	"go.uber.org/zap"
)

type Handlers struct {
	subscriberUC *usecase.SubscriberUsecase
	trackUC      *usecase.TrackUsecase
	thresholdUC  *usecase.ThresholdUsecase
	batchUC      *usecase.BatchUsecase
	adminChatID  int64
	logger       *zap.Logger
}

func NewHandlers(
	subscriberUC *usecase.SubscriberUsecase,
	trackUC *usecase.TrackUsecase,
	thresholdUC *usecase.ThresholdUsecase,
	batchUC *usecase.BatchUsecase,
	adminChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		subscriberUC: subscriberUC,
		trackUC:      trackUC,
		thresholdUC:  thresholdUC,
		batchUC:      batchUC,
		adminChatID:  adminChatID,
		logger:       logger,
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, api, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		if update.Message.IsCommand() {
			h.handleCommand(ctx, api, update.Message)
			return
		}
		h.handleText(ctx, api, update.Message)
	}
}

func (h *Handlers) handleCommand(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID
	from := message.From

	h.logger.Info("telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", from.ID),
		zap.String("command", command),
	)

	switch command {
	case "start":
		_, err := h.subscriberUC.StartOrGetSubscriber(ctx, from.ID, from.UserName, from.FirstName, from.LastName, from.LanguageCode)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", from.ID), zap.Error(err))
			h.reply(api, chatID, RetryLaterMessage)
			return
		}
		h.reply(api, chatID, IntroMessage)
	case "help":
		h.reply(api, chatID, IntroMessage)
	case "list":
		h.handleList(ctx, api, chatID, from.ID)
	case "refresh":
		if chatID != h.adminChatID || h.adminChatID == 0 {
			h.reply(api, chatID, GenericErrorMessage)
			return
		}
		summary, err := h.batchUC.Run(ctx)
		if err != nil {
			h.logger.Error("manual refresh failed", zap.Error(err))
			h.reply(api, chatID, fmt.Sprintf("Refresh failed after %d products: %v", summary.ProductsRefreshed, err))
			return
		}
		h.reply(api, chatID, fmt.Sprintf(
			"Batch %s: %d refreshed, %d drops, %d notifications, %d errors",
			summary.BatchID, summary.ProductsRefreshed, summary.DropsDetected, summary.NotificationsSent, summary.Errors,
		))
	default:
		h.reply(api, chatID, GenericErrorMessage)
	}
}

func (h *Handlers) handleText(ctx context.Context, api *tgbotapi.BotAPI, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	from := message.From
	text := message.Text

	switch {
	case ContainsURL(text):
		h.handlePastedLink(ctx, api, chatID, text)
	case usecase.IsNumericMessage(text):
		h.handleThresholdValue(ctx, api, chatID, from.ID, text)
	default:
		h.reply(api, chatID, GenericErrorMessage)
	}
}

// handlePastedLink looks the pasted product up and offers a Track button so
// the user confirms the right listing before anything is stored.
func (h *Handlers) handlePastedLink(ctx context.Context, api *tgbotapi.BotAPI, chatID int64, text string) {
	info, err := h.trackUC.Preview(ctx, text)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}

	card := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s\n%s - %s", info.Title, info.Seller, info.Price.FormattedAmount))
	card.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("View Product", info.URL),
			tgbotapi.NewInlineKeyboardButtonData("Track", TrackCallback(info.Marketplace, info.ASIN)),
		),
	)
	if _, err := api.Send(card); err != nil {
		h.logger.Warn("failed to send product card", zap.Error(err))
	}
}

func (h *Handlers) handleThresholdValue(ctx context.Context, api *tgbotapi.BotAPI, chatID, telegramUserID int64, text string) {
	product, threshold, err := h.thresholdUC.Submit(ctx, telegramUserID, text)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	h.logger.Info("threshold updated",
		zap.Int64("telegram_user_id", telegramUserID),
		zap.Uint("product_id", product.ID),
		zap.Int64("amount", threshold.Amount),
	)
	h.reply(api, chatID, ThresholdUpdatedMessage)
}

func (h *Handlers) handleList(ctx context.Context, api *tgbotapi.BotAPI, chatID, telegramUserID int64) {
	tracked, err := h.trackUC.ListTracked(ctx, telegramUserID)
	if err != nil {
		h.reply(api, chatID, h.errorMessage(err))
		return
	}
	if len(tracked) == 0 {
		h.reply(api, chatID, NoTrackedProductsMessage)
		return
	}

	for _, t := range tracked {
		line := fmt.Sprintf("%s\n%s - %s", t.Product.Title, t.Product.Seller, t.Product.CurrentPrice.FormattedAmount)
		if active, ok := t.Subscription.ActiveThreshold(); ok {
			line += fmt.Sprintf("\nAlert price: %s", FormatAmount(active.Amount, active.CurrencyCode))
		}
		card := tgbotapi.NewMessage(chatID, line)
		card.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("View Product", t.Product.URL),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Change alert price", EditPriceCallback(t.Product.ID)),
				tgbotapi.NewInlineKeyboardButtonData("Stop Tracking", StopTrackingCallback(t.Product.ID)),
			),
		)
		if _, err := api.Send(card); err != nil {
			h.logger.Warn("failed to send product card", zap.Error(err))
		}
	}
}

func (h *Handlers) handleCallback(ctx context.Context, api *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil || callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	telegramUserID := callback.From.ID

	// Ack first so the button stops spinning even if the flow fails.
	if _, err := api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.logger.Warn("failed to ack callback", zap.Error(err))
	}

	action, args, err := ParseCallback(callback.Data)
	if err != nil {
		h.logger.Warn("invalid callback payload", zap.String("data", callback.Data))
		h.reply(api, chatID, GenericErrorMessage)
		return
	}

	h.logger.Info("telegram callback received",
		zap.Int64("telegram_user_id", telegramUserID),
		zap.String("action", action),
	)

	switch action {
	case ActionTrack:
		product, err := h.trackUC.Track(ctx, telegramUserID, args[0], args[1])
		if err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, TrackingStartedMessage)
		h.sendManageCard(api, chatID, product)
	case ActionEditPrice:
		productID, err := ParseProductID(args[0])
		if err != nil {
			h.reply(api, chatID, GenericErrorMessage)
			return
		}
		if _, err := h.thresholdUC.RequestChange(ctx, telegramUserID, productID); err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, AskThresholdMessage)
	case ActionStopTracking:
		productID, err := ParseProductID(args[0])
		if err != nil {
			h.reply(api, chatID, GenericErrorMessage)
			return
		}
		if _, err := h.thresholdUC.StopTracking(ctx, telegramUserID, productID); err != nil {
			h.reply(api, chatID, h.errorMessage(err))
			return
		}
		h.reply(api, chatID, TrackingStoppedMessage)
	}
}

func (h *Handlers) sendManageCard(api *tgbotapi.BotAPI, chatID int64, product *domain.Product) {
	card := tgbotapi.NewMessage(chatID, fmt.Sprintf("%s\n%s - %s", product.Title, product.Seller, product.CurrentPrice.FormattedAmount))
	card.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Change alert price", EditPriceCallback(product.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Stop Tracking", StopTrackingCallback(product.ID)),
		),
	)
	if _, err := api.Send(card); err != nil {
		h.logger.Warn("failed to send product card", zap.Error(err))
	}
}

func (h *Handlers) errorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered):
		return "Please /start so we can get acquainted first!"
	case errors.Is(err, usecase.ErrNoProductLink), errors.Is(err, domain.ErrInvalidProductLink):
		return GenericErrorMessage
	case errors.Is(err, domain.ErrUnsupportedMarketplace):
		return UnsupportedCountryMessage
	case errors.Is(err, domain.ErrProductNotFound):
		return ProductNotFoundMessage
	case errors.Is(err, domain.ErrUnsupportedProduct):
		return UnsupportedProductMessage
	case errors.Is(err, domain.ErrPriceUnavailable):
		return PriceUnavailableMessage
	case errors.Is(err, usecase.ErrNoPendingEdit):
		return StaleEditMessage
	case errors.Is(err, usecase.ErrInvalidAmount):
		return InvalidAmountMessage
	case errors.Is(err, usecase.ErrNotTracking):
		return NotTrackingMessage
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return RetryLaterMessage
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
