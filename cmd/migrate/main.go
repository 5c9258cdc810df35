package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"cryptomart/internal/config"
	"cryptomart/internal/db"
	"cryptomart/internal/logging"
	"cryptomart/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New("cryptomart-migrate", cfg.LogLevel)
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

	if *down {
		if err := migrate.Down(ctx, pool, logger); err != nil {
			logger.Fatal("roll back migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back")
		return
	}
	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}
	logger.Info("migrations applied")
}
