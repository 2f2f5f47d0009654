package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/config"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/db"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/goroutine"
	httpRouter "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/http/router"
	gatewayinfra "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/memory"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/persistence"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/handler"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/service"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/bidding"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/checkout"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := cfg.LogLevel
	if cfg.Env == "development" && logLevel == "info" {
		logLevel = "debug"
	}
	logger.Init(logger.Options{
		Level:      logLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
		JSON:       cfg.IsProduction(),
	})

	// Хранилище: Postgres или память процесса.
	var (
		dbConn        *sqlx.DB
		uow           repository.UnitOfWork
		notifications repository.NotificationRepository
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolOptions{})
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		uow = persistence.NewUnitOfWork(dbConn)
		notifications = persistence.NewNotificationRepository(dbConn)
	default:
		logger.Log.Warn("main: используется in-memory хранилище, данные не сохраняются между запусками")
		uow = memory.NewStore()
		notifications = memory.NewNotificationRepository()
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, 0)
	webhookCache := service.NewCacheService()
	goroutine.SafeGoWithContext(ctx, "webhook-cache-cleanup", func(ctx context.Context) {
		webhookCache.RunCleanup(ctx, time.Hour)
	})

	// Уведомления уходят через WebSocket hub и сохраняются в хранилище.
	hub := ws.NewHub(notifications)
	goroutine.SafeGoWithContext(ctx, "ws-hub", hub.Run)

	stripeGateway := gatewayinfra.NewStripe(gatewayinfra.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.StripeCurrency,
	})
	gateways := gatewayinfra.NewRegistry(
		gatewayinfra.NewKhalti(gatewayinfra.KhaltiConfig{
			BaseURL:    cfg.KhaltiBaseURL,
			SecretKey:  cfg.KhaltiSecretKey,
			ReturnURL:  cfg.KhaltiReturnURL,
			WebsiteURL: cfg.KhaltiWebsiteURL,
		}),
		stripeGateway,
	)
	var webhooks handler.WebhookParser
	if cfg.StripeWebhookSecret != "" {
		webhooks = stripeGateway
	}

	biddingDeps := bidding.Deps{UoW: uow, Publisher: hub}
	settlementDeps := settlement.Deps{UoW: uow, Publisher: hub}
	checkoutDeps := checkout.Deps{UoW: uow, Gateways: gateways, Publisher: hub}

	sweeper := bidding.NewExpirySweeper(biddingDeps, cfg.BidSweepInterval)
	goroutine.SafeGoWithContext(ctx, "bid-expiry-sweeper", sweeper.Run)

	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Health:       handler.NewHealthHandler(dbConn),
		Projects:     handler.NewProjectHandler(biddingDeps),
		Orders:       handler.NewOrderHandler(checkoutDeps, settlementDeps),
		Payments:     handler.NewPaymentHandler(checkoutDeps, webhooks, webhookCache, cfg.KhaltiWebsiteURL),
		Admin:        handler.NewAdminHandler(settlementDeps, checkoutDeps),
		Notification: handler.NewNotificationHandler(notifications),
		WS:           handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
		}
	})

	logger.Log.Infof("main: HTTP сервер запущен на порту %s (storage=%s)", cfg.HTTPPort, cfg.StorageDriver)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
