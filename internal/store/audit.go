package store

import (
	"context"

	"github.com/bookdata/booktone-api/internal/domain"
)

// AuditLogStore defines the interface for the append-only processing and
// error logs. Neither log is ever updated or deleted by the application.
type AuditLogStore interface {
	// AppendProcessingLog inserts one lifecycle event row for a book
	// within a batch.
	AppendProcessingLog(ctx context.Context, entry *domain.BatchProcessingLog) error

	// ListProcessingLogs returns all processing log rows for a batch,
	// ordered by creation time.
	ListProcessingLogs(ctx context.Context, batchID string) ([]*domain.BatchProcessingLog, error)

	// AppendErrorLog inserts one item-level error record.
	AppendErrorLog(ctx context.Context, entry *domain.ErrorLog) error
}

// MetricStore defines the interface for resource metric samples.
type MetricStore interface {
	// Insert records one resource usage sample.
	Insert(ctx context.Context, metric *domain.ResourceMetric) error

	// ListByBatchID returns all samples recorded for a batch, ordered by
	// creation time.
	ListByBatchID(ctx context.Context, batchID string) ([]*domain.ResourceMetric, error)
}
