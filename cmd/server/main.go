package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perfume-admin/config"
	"perfume-admin/internal/api"
	"perfume-admin/internal/backend"
	"perfume-admin/internal/broker"
	"perfume-admin/internal/cache"
	"perfume-admin/internal/redisclient"
	"perfume-admin/internal/service"
	"perfume-admin/internal/store"
	"perfume-admin/internal/util"
	"perfume-admin/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, util.ServiceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting perfume admin")

	tp, err := util.InitTracer(cfg.Observ.TracingEnabled, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	localCache, ready, closeCache := openCache(cfg, logger)
	defer closeCache()

	writerID := uuid.New().String()
	var publisher cache.ChangePublisher = broker.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCacheEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer, writerID)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicCacheEvents))
	}
	shared := cache.NewNotifying(localCache, publisher)

	loc := cfg.Location()
	authService := service.NewAuthService(shared)
	client := backend.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, authService)

	orderService := service.NewOrderService(client, shared, loc)
	dashboardService := service.NewDashboardService(orderService, loc)
	productService := service.NewProductService(client)
	userService := service.NewUserService(client, shared)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	refreshOrders := func(ctx context.Context) error {
		_, err := orderService.Refresh(ctx)
		return err
	}
	refreshDashboard := func(ctx context.Context) error {
		dashboardService.Refresh(ctx)
		return nil
	}
	refreshUsers := func(ctx context.Context) error {
		_, err := userService.List(ctx)
		return err
	}

	ordersPoller := worker.NewPoller("orders", time.Duration(cfg.Refresh.OrdersPollSeconds)*time.Second, refreshOrders)
	go ordersPoller.Start(workerCtx)

	countdown := worker.NewCountdown(time.Duration(cfg.Refresh.DashboardRefreshSeconds)*time.Second, refreshDashboard)
	dashboardService.SetCountdown(countdown.Remaining)
	go countdown.Start(workerCtx)

	var watcher *worker.CacheWatcher
	if cfg.Kafka.Enabled {
		group := cfg.Kafka.ConsumerGroup
		if group == "" {
			group = util.ServiceName + "-" + writerID
		}
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCacheEvents, group)
		watcher = worker.NewCacheWatcher(consumer, writerID)
		watcher.Watch(cache.KeyOrders, refreshOrders)
		watcher.Watch(cache.KeyOrders, refreshDashboard)
		watcher.Watch(cache.KeyUsers, refreshUsers)
		go func() {
			if err := watcher.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Cache watcher error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Auth:      authService,
		Orders:    orderService,
		Dashboard: dashboardService,
		Products:  productService,
		Users:     userService,
		Countdown: countdown,
		Ready:     ready,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	ordersPoller.Stop()
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("Error stopping cache watcher", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openCache connects the configured cache driver and returns it with a readiness
// probe and a close func.
func openCache(cfg *config.Config, logger *zap.Logger) (cache.Store, func(context.Context) error, func()) {
	switch cfg.Cache.Driver {
	case "redis":
		client, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		logger.Info("Redis cache connected", zap.String("addr", cfg.Redis.Addr))
		return client, client.Ping, func() { client.Close() }

	case "postgres":
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		logger.Info("Postgres cache connected")
		return db, func(ctx context.Context) error { return db.GetDB().PingContext(ctx) }, func() { db.Close() }

	default:
		logger.Info("Using in-memory cache", zap.String("driver", cfg.Cache.Driver))
		return cache.NewMemoryStore(), nil, func() {}
	}
}
