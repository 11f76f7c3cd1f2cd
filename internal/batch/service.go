package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/store"
)

// ErrEmptyBatch is returned when a batch is submitted with no book IDs.
// Rejection happens before any record is written, so an invalid
// submission leaves no orphan job.
var ErrEmptyBatch = errors.New("batch must contain at least one book ID")

// Service is the submission and query surface of the batch engine.
// Submissions persist the job and its item list, enqueue, and return
// immediately; the runner drains the queue in the background.
type Service struct {
	db      *sql.DB
	jobs    store.BatchJobStore
	details store.BatchJobDetailStore
	audit   store.AuditLogStore
	metrics store.MetricStore
	queue   *JobQueue
	cache   *StatusCache
	logger  *slog.Logger
}

// NewService creates the batch service facade.
func NewService(
	db *sql.DB,
	jobs store.BatchJobStore,
	details store.BatchJobDetailStore,
	audit store.AuditLogStore,
	metrics store.MetricStore,
	queue *JobQueue,
	cache *StatusCache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		db:      db,
		jobs:    jobs,
		details: details,
		audit:   audit,
		metrics: metrics,
		queue:   queue,
		cache:   cache,
		logger:  logger.With(slog.String("component", "batch_service")),
	}
}

// SubmitBatch persists a new batch job with its book list, enqueues it
// for background processing and returns the opaque batch ID. The call
// does not wait for processing to begin.
func (s *Service) SubmitBatch(ctx context.Context, bookIDs []int) (string, error) {
	if len(bookIDs) == 0 {
		return "", ErrEmptyBatch
	}

	job, err := domain.NewBatchJob(len(bookIDs))
	if err != nil {
		return "", fmt.Errorf("failed to create batch job: %w", err)
	}

	details := make([]*domain.BatchJobDetail, 0, len(bookIDs))
	now := time.Now().UTC()
	for _, bookID := range bookIDs {
		details = append(details, &domain.BatchJobDetail{
			BatchID:   job.BatchID,
			BookID:    bookID,
			CreatedAt: now,
		})
	}

	// Job and item list are written in one transaction: a job without
	// its details could never be executed after a restart.
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.jobs.WithTx(tx).Create(ctx, job); err != nil {
			return err
		}
		return s.details.WithTx(tx).CreateAll(ctx, details)
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist batch submission: %w", err)
	}

	s.queue.Enqueue(job)
	s.logger.InfoContext(ctx, "queued batch job",
		slog.String("batch_id", job.BatchID),
		slog.Int("book_count", len(bookIDs)))

	return job.BatchID, nil
}

// GetStatus returns the progress of a batch using the dual tracking
// system: the in-memory cache is checked first for active jobs, then the
// durable store for completed or historical jobs. A batch ID that was
// never submitted yields a NotFound status, not an error.
func (s *Service) GetStatus(ctx context.Context, batchID string) (domain.BatchProgress, error) {
	if progress, ok := s.cache.Get(batchID); ok {
		return progress, nil
	}

	job, err := s.jobs.GetByBatchID(ctx, batchID)
	if err != nil {
		if errors.Is(err, store.ErrBatchJobNotFound) {
			return domain.BatchProgress{
				BatchID: batchID,
				Status:  domain.BatchStatusNotFound,
			}, nil
		}
		return domain.BatchProgress{}, fmt.Errorf("failed to query batch status: %w", err)
	}

	// Batches that never reached Processing have no StartedAt yet; fall
	// back to CreatedAt so the snapshot always carries a start marker.
	startedAt := job.CreatedAt
	if job.StartedAt != nil {
		startedAt = *job.StartedAt
	}

	return domain.BatchProgress{
		BatchID:        job.BatchID,
		Status:         job.Status,
		TotalBooks:     job.TotalBooks,
		ProcessedBooks: job.ProcessedBooks,
		FailedBooks:    job.FailedBooks,
		StartedAt:      startedAt,
		CompletedAt:    job.CompletedAt,
		ErrorMessage:   job.ErrorMessage,
	}, nil
}

// GetLogs returns the ordered audit trail for a batch.
func (s *Service) GetLogs(ctx context.Context, batchID string) ([]*domain.BatchProcessingLog, error) {
	return s.audit.ListProcessingLogs(ctx, batchID)
}

// GetMetrics returns the resource metric samples recorded for a batch.
func (s *Service) GetMetrics(ctx context.Context, batchID string) ([]*domain.ResourceMetric, error) {
	return s.metrics.ListByBatchID(ctx, batchID)
}
