package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campushq/go-campus-ticketing/internal/api"
	"github.com/campushq/go-campus-ticketing/internal/api/handler"
	custommw "github.com/campushq/go-campus-ticketing/internal/api/middleware"
	"github.com/campushq/go-campus-ticketing/internal/application"
	"github.com/campushq/go-campus-ticketing/internal/config"
	"github.com/campushq/go-campus-ticketing/internal/infrastructure/postgres"
	redisinfra "github.com/campushq/go-campus-ticketing/internal/infrastructure/redis"
	"github.com/campushq/go-campus-ticketing/internal/pkg/logger"
	"github.com/campushq/go-campus-ticketing/internal/pkg/metrics"
	"github.com/campushq/go-campus-ticketing/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer logger.Sync()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(db.DB, path); err != nil {
			log.Fatal("マイグレーション実行に失敗しました", zap.Error(err))
		}
	}

	// Redis
	redisClient, err := redisinfra.NewClient(&redisinfra.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Redis接続に失敗しました", zap.Error(err))
	}
	defer redisClient.Close()

	// リポジトリ
	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	regRepo := postgres.NewRegistrationRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	txManager := postgres.NewTxManager(db)

	lockManager := redisinfra.NewLockManager(redisClient)
	capacityCache := redisinfra.NewCapacityCache(redisClient)

	// アプリケーションサービス
	eventService := application.NewEventService(eventRepo, capacityCache)
	userService := application.NewUserService(userRepo)
	registrationService := application.NewRegistrationService(txManager, regRepo, eventRepo, lockManager, capacityCache)
	ticketService := application.NewTicketService(txManager, ticketRepo, regRepo, lockManager)
	checkinService := application.NewCheckinService(txManager, ticketRepo, regRepo, eventRepo, userRepo, lockManager)

	// ハンドラー
	eventHandler := handler.NewEventHandler(eventService)
	userHandler := handler.NewUserHandler(userService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	ticketHandler := handler.NewTicketHandler(ticketService, checkinService)
	healthHandler := handler.NewHealthHandler()

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	// ルーティング
	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	{
		v1.POST("/events", eventHandler.Create)
		v1.GET("/events", eventHandler.List)
		v1.GET("/events/:id", eventHandler.GetByID)
		v1.PUT("/events/:id", eventHandler.Update)
		v1.GET("/events/:id/capacity", eventHandler.GetRemainingCapacity)

		v1.POST("/users", userHandler.Create)
		v1.GET("/users/:id", userHandler.GetByID)
		v1.PUT("/users/:id", userHandler.Update)
		v1.GET("/users/:id/registrations", registrationHandler.ListByUser)

		v1.POST("/registrations", registrationHandler.Create)
		v1.GET("/registrations/:id", registrationHandler.GetByID)

		v1.POST("/tickets", ticketHandler.Issue)
		v1.GET("/tickets/:id", ticketHandler.GetByID)
		v1.POST("/tickets/verify", ticketHandler.Verify)
		v1.POST("/tickets/checkin", ticketHandler.Checkin)
	}

	// バックグラウンドワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	statusSyncer := worker.NewEventStatusSyncer(eventService, cfg.Worker.StatusSyncInterval)
	go statusSyncer.Start(workerCtx)

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")

	workerCancel()
	statusSyncer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	log.Info("サーバーが正常にシャットダウンしました")
}
