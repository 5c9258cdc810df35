package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"cryptomart/internal/config"
	"cryptomart/internal/db"
	"cryptomart/internal/importer"
	"cryptomart/internal/logging"
	productrepo "cryptomart/internal/repository/product"
	userrepo "cryptomart/internal/repository/user"
	productsvc "cryptomart/internal/service/product"
)

func main() {
	var (
		filePath string
		owner    string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,description,image,manufacturingDate,price,quantity)")
	flag.StringVar(&owner, "owner", "", "Username of the admin the products are created by")
	flag.Parse()

	if filePath == "" || owner == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := logging.New("cryptomart-importer", cfg.LogLevel)
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

	u, err := userrepo.NewPostgres(sqlDB, logger).GetByUsername(ctx, owner)
	if err != nil {
		logger.Fatal("look up owner", zap.String("username", owner), zap.Error(err))
	}
	if !u.IsAdmin() {
		logger.Fatal("owner must be an admin", zap.String("username", owner))
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	products := productsvc.New(productrepo.NewPostgres(pool, logger), nil, logger)
	imp := importer.NewCSVImporter(f, products, u.ID, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d products for %s in %s\n", count, owner, time.Since(start).Truncate(time.Millisecond))
}
