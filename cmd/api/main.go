package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cryptomart/internal/cache"
	"cryptomart/internal/config"
	"cryptomart/internal/db"
	"cryptomart/internal/events"
	"cryptomart/internal/httpserver"
	"cryptomart/internal/logging"
	productrepo "cryptomart/internal/repository/product"
	salerepo "cryptomart/internal/repository/sale"
	userrepo "cryptomart/internal/repository/user"
	authsvc "cryptomart/internal/service/auth"
	productsvc "cryptomart/internal/service/product"
	salesvc "cryptomart/internal/service/sale"
	usersvc "cryptomart/internal/service/user"
	"cryptomart/internal/session"
	"cryptomart/internal/tracing"
)

const serviceName = "cryptomart-api"

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(serviceName, cfg.JaegerEndpoint, logger)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var (
		productCache cache.ProductCache = cache.Nop{}
		sessions     session.Store      = session.NewMemory()
		rdb          *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		productCache = cache.NewRedis(rdb, cfg.ProductCacheTTL)
		sessions = session.NewRedis(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-process sessions and no product cache")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Fatal("init kafka producer", zap.Error(err))
		}
		publisher = events.NewKafka(producer, cfg.SalesTopic, logger)
		logger.Info("kafka producer initialized", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.SalesTopic))
	}

	sqlDB := db.SQL(dbpool)
	defer sqlDB.Close()

	userRepo := userrepo.NewPostgres(sqlDB, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	saleRepo := salerepo.NewPostgres(dbpool, productRepo, logger)

	authService := authsvc.New(userRepo, sessions, authsvc.Config{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}, logger)
	productService := productsvc.New(productRepo, productCache, logger)
	saleService := salesvc.New(productService, saleRepo, publisher, logger)
	userService := usersvc.New(userRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:     authService,
		ProductSvc:  productService,
		SaleSvc:     saleService,
		UserSvc:     userService,
		CORSOrigins: cfg.CORSOrigins,
		ServiceName: serviceName,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
	if err := publisher.Close(); err != nil {
		logger.Error("close kafka producer", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("close redis", zap.Error(err))
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("flush traces", zap.Error(err))
	}
}
