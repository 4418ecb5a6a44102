package main

import (
	"context"
	"delivery-manifest-service/internal/adapters/repositories"
	"delivery-manifest-service/internal/config"
	"delivery-manifest-service/internal/platform/db"
	"delivery-manifest-service/internal/platform/logging"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	sqlDB, err := db.OpenDriver(cfg.DBDriver, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := initAndSeed(context.Background(), logger, sqlDB, cfg.SeedPath); err != nil {
		logger.Fatal("init and seed", zap.Error(err))
	}
}

func initAndSeed(ctx context.Context, logger *zap.Logger, sqlDB *sqlx.DB, seedPath string) error {
	logger.Info("initializing database schema", zap.String("driver", sqlDB.DriverName()))
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		return err
	}
	logger.Info("schema ready")

	logger.Info("seeding database", zap.String("seed_path", seedPath))
	if err := repositories.SeedFromJSON(ctx, sqlDB, seedPath); err != nil {
		return err
	}
	logger.Info("seeding complete")

	return nil
}
