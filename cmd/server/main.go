// Package main implements the entry point for the BookTone API server,
// which generates tone recommendations for books in background batches
// and serves their status, logs and results over HTTP.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/bookdata/booktone-api/internal/config"
	"github.com/bookdata/booktone-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, status, version) and exit")
	flag.Parse()

	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd); err != nil {
			appLogger.Error("migration failed",
				slog.String("command", *migrateCmd),
				slog.String("error", err.Error()))
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	return cfg, appLogger, nil
}
