package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"cryptomart/internal/config"
	"cryptomart/internal/db"
	"cryptomart/internal/logging"
	productrepo "cryptomart/internal/repository/product"
	userrepo "cryptomart/internal/repository/user"
	"cryptomart/internal/seed"
	authsvc "cryptomart/internal/service/auth"
	productsvc "cryptomart/internal/service/product"
	"cryptomart/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New("cryptomart-seed", cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	sqlDB := db.SQL(pool)
	defer sqlDB.Close()

	users := userrepo.NewPostgres(sqlDB, logger)
	auth := authsvc.New(users, session.NewMemory(), authsvc.Config{Secret: []byte(cfg.JWTSecret)}, logger)
	products := productsvc.New(productrepo.NewPostgres(pool, logger), nil, logger)

	admin := authsvc.Credentials{
		Username: envOrDefault("SEED_ADMIN_USERNAME", "admin"),
		Email:    envOrDefault("SEED_ADMIN_EMAIL", "admin@cryptomart.local"),
		Password: envOrDefault("SEED_ADMIN_PASSWORD", "admin"),
	}
	if err := seed.Apply(ctx, auth, users, products, admin, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}
	logger.Info("seed applied", zap.String("admin", admin.Username))
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
