package main

import (
	"context"
	"errors"
	"farm-delivery-service/internal/config"
	"farm-delivery-service/internal/platform/db"
	"farm-delivery-service/internal/platform/logging"
	"log/slog"
	"os"
	"time"
)

// dbtool creates the Postgres schema used by the geocode cache.
func main() {
	config.LoadDotEnv()

	logger := logging.New(logging.Config{
		Level:       config.Get("LOG_LEVEL", "info"),
		ServiceName: "farm-delivery-dbtool",
		Environment: config.Get("ENVIRONMENT", "development"),
	})

	if err := initSchema(logger, config.Get("DATABASE_URL", "")); err != nil {
		logger.Error("schema initialization failed", "error", err)
		os.Exit(1)
	}
}

func initSchema(logger *slog.Logger, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	logger.Info("initializing database schema")
	if err := db.InitSchema(ctx, sqlDB); err != nil {
		return err
	}
	logger.Info("schema ready")
	return nil
}
