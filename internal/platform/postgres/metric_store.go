package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/platform/logger"
	"github.com/bookdata/booktone-api/internal/store"
)

// PostgresMetricStore implements the store.MetricStore interface using a
// PostgreSQL database as the storage backend.
type PostgresMetricStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMetricStore creates a new PostgreSQL implementation of the
// MetricStore interface.
func NewPostgresMetricStore(db store.DBTX, logger *slog.Logger) *PostgresMetricStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMetricStore{
		db:     db,
		logger: logger.With(slog.String("component", "metric_store")),
	}
}

// Ensure PostgresMetricStore implements store.MetricStore
var _ store.MetricStore = (*PostgresMetricStore)(nil)

// Insert implements store.MetricStore.Insert
func (s *PostgresMetricStore) Insert(ctx context.Context, metric *domain.ResourceMetric) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO resource_metrics
			(batch_id, book_id, cpu_usage_percent, memory_usage_bytes,
			 available_memory_bytes, memory_usage_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		metric.BatchID,
		metric.BookID,
		metric.CPUUsagePercent,
		metric.MemoryUsageBytes,
		metric.AvailableMemoryBytes,
		metric.MemoryUsagePercent,
		metric.CreatedAt,
	).Scan(&metric.ID)

	if err != nil {
		log.Error("failed to insert resource metric",
			slog.String("error", err.Error()),
			slog.String("batch_id", metric.BatchID))
		return fmt.Errorf("failed to insert resource metric: %w", err)
	}

	return nil
}

// ListByBatchID implements store.MetricStore.ListByBatchID
func (s *PostgresMetricStore) ListByBatchID(ctx context.Context, batchID string) ([]*domain.ResourceMetric, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, batch_id, book_id, cpu_usage_percent, memory_usage_bytes,
		       available_memory_bytes, memory_usage_percent, created_at
		FROM resource_metrics
		WHERE batch_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		log.Error("failed to query resource metrics",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to query resource metrics: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	metrics := make([]*domain.ResourceMetric, 0)
	for rows.Next() {
		var metric domain.ResourceMetric
		if err := rows.Scan(
			&metric.ID,
			&metric.BatchID,
			&metric.BookID,
			&metric.CPUUsagePercent,
			&metric.MemoryUsageBytes,
			&metric.AvailableMemoryBytes,
			&metric.MemoryUsagePercent,
			&metric.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource metric: %w", err)
		}
		metrics = append(metrics, &metric)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resource metrics: %w", err)
	}

	return metrics, nil
}
