package app

import (
	"context"
	"time"

	"github.com/lukotrack/luko/internal/config"
	"github.com/lukotrack/luko/internal/delivery/telegram"
	"github.com/lukotrack/luko/internal/infra/amazon"
	"github.com/lukotrack/luko/internal/infra/db"
	"github.com/lukotrack/luko/internal/infra/log"
	"github.com/lukotrack/luko/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	bot             *telegram.Bot
	batchUC         *usecase.BatchUsecase
	refreshInterval time.Duration
	refreshOnStart  bool
	logger          *zap.Logger
	cleanupFn       func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	subscriberRepo := db.NewSubscriberRepository(dbConn)
	productRepo := db.NewProductRepository(dbConn)
	subscriptionRepo := db.NewSubscriptionRepository(dbConn)
	dropLedger := db.NewDropLedger(dbConn)
	pendingEditRepo := db.NewPendingEditRepository(dbConn)

	gateway := amazon.NewClient(cfg.PricingBaseURL, cfg.PricingTimeout, cfg.PricingMaxRPS, logger)
	resolver := amazon.NewResolver()

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}
	notifier := telegram.NewNotifier(api, logger)

	subscriberUC := usecase.NewSubscriberUsecase(subscriberRepo)
	trackUC := usecase.NewTrackUsecase(subscriberRepo, productRepo, subscriptionRepo, gateway, resolver)
	thresholdUC := usecase.NewThresholdUsecase(subscriberRepo, productRepo, subscriptionRepo, pendingEditRepo, cfg.PendingEditTTL)
	refreshUC := usecase.NewRefreshUsecase(productRepo, dropLedger, gateway, logger)
	notifyUC := usecase.NewNotifyUsecase(productRepo, subscriptionRepo, subscriberRepo, dropLedger, notifier, cfg.NotifyWorkers, logger)
	batchUC := usecase.NewBatchUsecase(refreshUC, notifyUC, logger)

	handlers := telegram.NewHandlers(subscriberUC, trackUC, thresholdUC, batchUC, cfg.AdminChatID, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{
		bot:             bot,
		batchUC:         batchUC,
		refreshInterval: cfg.RefreshInterval,
		refreshOnStart:  cfg.RefreshOnStart,
		logger:          logger,
		cleanupFn:       cleanup,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("luko service starting")
	go a.runRefreshLoop(ctx)

	a.logger.Info("luko service started")
	return a.bot.Start(ctx)
}

// runRefreshLoop serializes batch runs on a single goroutine; a run never
// overlaps the previous one because the next tick is only consumed after the
// current run returns.
func (a *App) runRefreshLoop(ctx context.Context) {
	if a.refreshOnStart {
		a.runBatch(ctx)
	}

	ticker := time.NewTicker(a.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runBatch(ctx)
		}
	}
}

func (a *App) runBatch(ctx context.Context) {
	summary, err := a.batchUC.Run(ctx)
	if err != nil {
		a.logger.Error("scheduled batch failed",
			zap.String("batch_id", summary.BatchID),
			zap.Error(err),
		)
		return
	}
	a.logger.Info("scheduled batch complete",
		zap.String("batch_id", summary.BatchID),
		zap.Int("products_refreshed", summary.ProductsRefreshed),
		zap.Int("drops_detected", summary.DropsDetected),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("errors", summary.Errors),
	)
}

func (a *App) Shutdown() {
	a.logger.Info("luko service shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
