package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/tropa/backend/internal/application/catalog"
	orderapp "github.com/tropa/backend/internal/application/ordering"
	"github.com/tropa/backend/internal/application/settlement"
	walletapp "github.com/tropa/backend/internal/application/wallet"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/infrastructure/auth"
	"github.com/tropa/backend/internal/infrastructure/cache"
	"github.com/tropa/backend/internal/infrastructure/config"
	"github.com/tropa/backend/internal/infrastructure/logger"
	"github.com/tropa/backend/internal/infrastructure/persistence"
	"github.com/tropa/backend/internal/infrastructure/storage"
	"github.com/tropa/backend/internal/interfaces/http/handler"
	"github.com/tropa/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting troop store backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Idempotency store for the settlement flow.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		switch cfg.Idempotency.Backend {
		case "redis":
			store, err := cache.NewRedisIdempotencyStore(cfg.Redis)
			if err != nil {
				log.Fatal("Failed to connect to redis", zap.Error(err))
			}
			idempotencyStore = store
			log.Info("Idempotency store ready", zap.String("backend", "redis"))
		default:
			idempotencyStore = cache.NewInMemoryIdempotencyStore()
			log.Info("Idempotency store ready", zap.String("backend", "memory"))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
	}

	// Product image storage; sales work fine without it.
	var imageStore catalogapp.ImageStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ImageStore(cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		imageStore = s3Store
		log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	}

	// Repositories
	users := persistence.NewGormUserRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	productLogs := persistence.NewGormProductLogRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	ledger := persistence.NewGormWalletTransactionRepository(db.DB)

	// Application services
	settlementSvc := settlement.NewService(
		persistence.NewGormTransactionScope(db.DB),
		idempotencyStore,
		cfg.Wallet.MinBalance,
		log,
	)
	catalogSvc := catalogapp.NewService(products, productLogs, imageStore, log)
	orderSvc := orderapp.NewService(orders, log)
	walletSvc := walletapp.NewService(ledger, users, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	engine, err := router.Setup(cfg, log, jwtService, router.Handlers{
		System:  handler.NewSystemHandler(db, version),
		Product: handler.NewProductHandler(catalogSvc, settlementSvc),
		Order:   handler.NewOrderHandler(orderSvc, settlementSvc),
		Wallet:  handler.NewWalletHandler(walletSvc, settlementSvc),
	})
	if err != nil {
		log.Fatal("Failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
