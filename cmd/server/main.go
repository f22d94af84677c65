package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Open-WP-Club/phone-order-woo/internal/api"
	"github.com/Open-WP-Club/phone-order-woo/internal/api/handler"
	"github.com/Open-WP-Club/phone-order-woo/internal/cache"
	"github.com/Open-WP-Club/phone-order-woo/internal/config"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/internal/service"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
	"github.com/Open-WP-Club/phone-order-woo/pkg/tracing"
)

// @title Phone Order API
// @version 1.0
// @description Order-by-phone intake service
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Fatal("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, "phone-order", cfg.Tracing.Endpoint)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(ctx) }()

	db, err := repository.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	c := cache.NewRedis(redisClient)

	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	settingsSvc := service.NewSettingsService(settingsRepo)
	resolver := service.NewCustomerResolver(customerRepo, c, cfg.Resolver.CacheTTL, cfg.Resolver.EmailDomain)
	analyticsSvc := service.NewAnalyticsService(orderRepo, analyticsRepo, settingsSvc, c, cfg.Analytics.CacheTTL)
	orderSvc := service.NewOrderService(orderRepo, analyticsSvc)

	dispatcher := service.NewDispatcher(0)
	dispatcher.Subscribe(func(ctx context.Context, evt service.OrderCreatedEvent) {
		logger.Info("phone order created",
			zap.Uint("order_id", evt.OrderID),
			zap.String("order_number", evt.OrderNumber),
			zap.Uint("product_id", evt.ProductID))
	})
	stopDispatcher := dispatcher.Start(2)

	intakeSvc := service.NewIntakeService(db, productRepo, resolver, analyticsSvc, settingsSvc, dispatcher, cfg.Intake.Timeout)

	h := handler.New(intakeSvc, analyticsSvc, settingsSvc, orderSvc, productRepo)
	router := api.NewRouter(cfg, h)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	_ = stopDispatcher(shutdownCtx)
}
