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

	"marketplace-service/config"
	"marketplace-service/internal/api"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/broker"
	"marketplace-service/internal/redisclient"
	"marketplace-service/internal/service"
	"marketplace-service/internal/store"
	"marketplace-service/internal/store/memstore"
	"marketplace-service/internal/util"
	"marketplace-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting marketplace service",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Database.Driver))

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, cfg.Server.Env, cfg.Observ.TraceSampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	ctx := context.Background()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer repo.Close()

	var cache service.Cache
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, running without locks and cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		cache = redisClient
		logger.Info("Redis connected")
	}

	var publisher service.EventPublisher = service.NoopPublisher{}
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMarketplace)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicMarketplace))
	}

	commissions := service.NewCommissionService(repo, repo)
	messages := service.NewMessageService(repo, repo, repo)
	shipping := service.NewShippingService(repo, repo, repo, publisher, cfg.Shipping.Currency, cfg.Shipping.WebhookSecret)

	carriers, err := config.LoadCarriers(cfg.Shipping.CarriersFile)
	if err != nil {
		logger.Fatal("Failed to load carriers", zap.Error(err))
	}
	if err := shipping.SeedCarriers(ctx, carriers); err != nil {
		logger.Fatal("Failed to seed carriers", zap.Error(err))
	}

	services := api.Services{
		Catalog:     service.NewCatalogService(repo),
		Commissions: commissions,
		Orders:      service.NewOrderService(repo, repo, commissions, cache, publisher, cfg.Business.IdempotencyLockTTL),
		Offers:      service.NewOfferService(repo, repo, publisher),
		Ratings:     service.NewRatingService(repo, repo, repo, cache, cfg.Business.ReputationCacheTTL, publisher),
		Questions:   service.NewQuestionService(repo, repo),
		Messages:    messages,
		Shipping:    shipping,
		Wallets:     service.NewWalletService(repo),
		Payments:    service.NewPaymentService(repo, service.NewSimulatedGateway()),
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var notificationWorker *worker.NotificationWorker
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicMarketplace, cfg.Kafka.ConsumerGroup)
		notificationWorker = worker.NewNotificationWorker(consumer, service.NewNotificationService(repo, repo, messages))
		go func() {
			if err := notificationWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Notification worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, auth.NewVerifier(cfg.Auth.JWTSecret), repo)
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

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if notificationWorker != nil {
		if err := notificationWorker.Stop(); err != nil {
			logger.Error("Failed to stop notification worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openRepository picks the storage backend named by STORE_DRIVER
func openRepository(ctx context.Context, cfg *config.Config) (service.Repository, error) {
	switch cfg.Database.Driver {
	case "memory":
		util.GetLogger().Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(), nil
	case "postgres":
		db, err := store.NewStore(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		util.GetLogger().Info("Database connected")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Database.Driver)
	}
}
