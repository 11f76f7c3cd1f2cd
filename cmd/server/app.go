package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookdata/booktone-api/internal/batch"
	"github.com/bookdata/booktone-api/internal/config"
	"github.com/bookdata/booktone-api/internal/generation"
	"github.com/bookdata/booktone-api/internal/metrics"
	"github.com/bookdata/booktone-api/internal/platform/bookdata"
	"github.com/bookdata/booktone-api/internal/platform/gemini"
	"github.com/bookdata/booktone-api/internal/platform/hardcover"
	"github.com/bookdata/booktone-api/internal/platform/postgres"
	"github.com/bookdata/booktone-api/internal/store"
)

// application holds the wired dependency graph of the server: the
// database, the stores, the batch engine and the HTTP surface.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	recStore     store.RecommendationStore
	batchService *batch.Service
	runner       *batch.Runner
}

// newApplication builds the full dependency graph from configuration.
// It connects to the database and the language model but does not start
// any background work; run does that.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	jobStore := postgres.NewPostgresBatchJobStore(db, logger)
	detailStore := postgres.NewPostgresBatchJobDetailStore(db, logger)
	auditStore := postgres.NewPostgresAuditLogStore(db, logger)
	metricStore := postgres.NewPostgresMetricStore(db, logger)
	recStore := postgres.NewPostgresRecommendationStore(db, logger)

	toneModel, err := gemini.NewToneGenerator(context.Background(), logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create tone generator: %w", err)
	}

	bookClient := bookdata.NewClient(cfg.BookData, logger)
	moodTagClient := hardcover.NewClient(cfg.Hardcover, logger)

	generator, err := generation.NewToneRecommender(bookClient, toneModel, moodTagClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create tone recommender: %w", err)
	}

	monitor := metrics.NewMonitor(metricStore, logger)
	cache := batch.NewStatusCache()
	queue := batch.NewJobQueue()

	processor := batch.NewProcessor(
		jobStore, detailStore, auditStore, recStore,
		generator, monitor, cache, logger)

	runner := batch.NewRunner(queue, processor, batch.RunnerConfig{
		PollInterval: time.Duration(cfg.Batch.PollIntervalSeconds) * time.Second,
		ErrorBackoff: time.Duration(cfg.Batch.ErrorBackoffSeconds) * time.Second,
	}, logger)

	batchService := batch.NewService(
		db, jobStore, detailStore, auditStore, metricStore,
		queue, cache, logger)

	return &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		recStore:     recStore,
		batchService: batchService,
		runner:       runner,
	}, nil
}

// run starts the batch worker and the HTTP server, then blocks until
// shutdown completes.
func (app *application) run() error {
	app.runner.Start()

	err := app.startHTTPServer(app.setupRouter())

	// The worker gets the same grace period as in-flight HTTP requests.
	stopCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(app.config.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if stopErr := app.runner.Stop(stopCtx); stopErr != nil {
		app.logger.Warn("batch worker did not stop within grace period",
			slog.String("error", stopErr.Error()))
	}

	app.cleanup()
	return err
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection",
			slog.String("error", err.Error()))
	}
}
