package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/generation"
	"github.com/bookdata/booktone-api/internal/store"
	"golang.org/x/sync/semaphore"
)

// errorLogSource labels engine-written error log rows.
const errorLogSource = "BatchProcessing"

// MetricsRecorder is the engine-facing contract of the resource monitor.
// Recording is best-effort and must never fail the item being processed.
type MetricsRecorder interface {
	Record(ctx context.Context, batchID string, bookID *int)
}

// Processor executes one dequeued batch to completion or failure,
// updating both the status cache and the durable batch job record. A
// single-permit gate ensures at most one batch is mid-execution at a
// time even if multiple worker loops were ever started.
type Processor struct {
	jobs      store.BatchJobStore
	details   store.BatchJobDetailStore
	audit     store.AuditLogStore
	recs      store.RecommendationStore
	generator generation.Generator
	monitor   MetricsRecorder
	cache     *StatusCache
	gate      *semaphore.Weighted
	logger    *slog.Logger
}

// NewProcessor creates a batch processor.
func NewProcessor(
	jobs store.BatchJobStore,
	details store.BatchJobDetailStore,
	audit store.AuditLogStore,
	recs store.RecommendationStore,
	generator generation.Generator,
	monitor MetricsRecorder,
	cache *StatusCache,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		jobs:      jobs,
		details:   details,
		audit:     audit,
		recs:      recs,
		generator: generator,
		monitor:   monitor,
		cache:     cache,
		gate:      semaphore.NewWeighted(1),
		logger:    logger.With(slog.String("component", "batch_processor")),
	}
}

// Process runs one dequeued batch through its full lifecycle. It returns
// an error only for conditions the worker loop should back off on; item
// failures and batches marked Failed are handled internally and return
// nil.
func (p *Processor) Process(ctx context.Context, queued *domain.BatchJob) error {
	log := p.logger.With(slog.String("batch_id", queued.BatchID))
	log.Info("starting batch job", slog.Int("total_books", queued.TotalBooks))

	startedAt := time.Now().UTC()

	// The live cache entry is created before anything else so status
	// queries see Processing immediately.
	p.cache.Set(domain.BatchProgress{
		BatchID:    queued.BatchID,
		Status:     domain.BatchStatusProcessing,
		TotalBooks: queued.TotalBooks,
		StartedAt:  startedAt,
	})

	// The gate guards all durable-store access for the batch; the cache
	// entry must be removed on every exit path once the gate is released.
	if err := p.gate.Acquire(ctx, 1); err != nil {
		p.cache.Remove(queued.BatchID)
		return nil // shutdown while waiting; the queue entry is simply dropped
	}
	defer func() {
		p.gate.Release(1)
		p.cache.Remove(queued.BatchID)
	}()

	job, err := p.jobs.GetByBatchID(ctx, queued.BatchID)
	if err != nil {
		if errors.Is(err, store.ErrBatchJobNotFound) {
			// A queue entry without a job record indicates a submission
			// bug; abandon rather than invent state to fail.
			log.Error("batch job not found in store, abandoning")
			return nil
		}
		return p.failBatch(ctx, queued.BatchID, startedAt, fmt.Errorf("failed to load batch job: %w", err))
	}

	job.Status = domain.BatchStatusProcessing
	job.StartedAt = &startedAt
	if err := p.jobs.Update(ctx, job); err != nil {
		return p.failBatch(ctx, queued.BatchID, startedAt, fmt.Errorf("failed to mark batch processing: %w", err))
	}

	// The queue entry carries only the batch ID and counts; the work
	// list is reloaded from the store so it survives process restarts.
	bookIDs, err := p.details.GetBookIDs(ctx, job.BatchID)
	if err != nil {
		return p.failBatch(ctx, job.BatchID, startedAt, fmt.Errorf("failed to load batch book IDs: %w", err))
	}

	for _, bookID := range bookIDs {
		if ctx.Err() != nil {
			// Cancellation mid-batch: stop immediately and leave the job
			// in its last persisted state. There is no resumption path;
			// a restarted process will not pick this batch up again.
			log.Warn("cancellation requested mid-batch, stopping",
				slog.Int("processed_books", job.ProcessedBooks),
				slog.Int("failed_books", job.FailedBooks))
			return nil
		}

		if err := p.processBook(ctx, job, bookID); err != nil {
			return p.failBatch(ctx, job.BatchID, startedAt, err)
		}

		log.Info("batch progress",
			slog.Int("processed_books", job.ProcessedBooks),
			slog.Int("failed_books", job.FailedBooks),
			slog.Int("total_books", job.TotalBooks))
	}

	completedAt := time.Now().UTC()
	job.Status = domain.BatchStatusCompleted
	job.CompletedAt = &completedAt
	if err := p.jobs.Update(ctx, job); err != nil {
		return p.failBatch(ctx, job.BatchID, startedAt, fmt.Errorf("failed to mark batch completed: %w", err))
	}

	// Mirror the terminal state into the cache entry before the deferred
	// removal so a concurrent status query never observes a dip.
	p.cache.Update(job.BatchID, func(progress *domain.BatchProgress) {
		progress.Status = domain.BatchStatusCompleted
		progress.ProcessedBooks = job.ProcessedBooks
		progress.FailedBooks = job.FailedBooks
		progress.CompletedAt = &completedAt
	})

	log.Info("completed batch job",
		slog.Int("processed_books", job.ProcessedBooks),
		slog.Int("failed_books", job.FailedBooks),
		slog.Int("total_books", job.TotalBooks))

	return nil
}

// failBatch handles a batch-level failure: something in the orchestration
// itself broke, as opposed to a single item failing. The job is marked
// Failed best-effort and the worker loop resumes polling.
func (p *Processor) failBatch(ctx context.Context, batchID string, startedAt time.Time, cause error) error {
	log := p.logger.With(slog.String("batch_id", batchID))
	log.Error("batch job failed", slog.String("error", cause.Error()))

	completedAt := time.Now().UTC()

	p.cache.Update(batchID, func(progress *domain.BatchProgress) {
		progress.Status = domain.BatchStatusFailed
		progress.ErrorMessage = cause.Error()
		progress.CompletedAt = &completedAt
	})

	// Best-effort persistence: the store may be the thing that is down.
	job, err := p.jobs.GetByBatchID(ctx, batchID)
	if err != nil {
		log.Error("failed to load batch job for failure update", slog.String("error", err.Error()))
		return nil
	}

	job.Status = domain.BatchStatusFailed
	job.ErrorMessage = truncate(cause.Error(), 1000)
	if job.StartedAt == nil {
		job.StartedAt = &startedAt
	}
	job.CompletedAt = &completedAt
	if err := p.jobs.Update(ctx, job); err != nil {
		log.Error("failed to persist batch failure", slog.String("error", err.Error()))
	}

	return nil
}

// processBook runs the item-level pipeline for one book. All failures of
// the book itself are contained here: they are logged, counted and never
// propagated, so one bad book never aborts the batch. The returned error
// is reserved for progress-persistence failures, which are batch-level.
func (p *Processor) processBook(ctx context.Context, job *domain.BatchJob, bookID int) error {
	log := p.logger.With(
		slog.String("batch_id", job.BatchID),
		slog.Int("book_id", bookID))

	p.monitor.Record(ctx, job.BatchID, &bookID)

	itemErr := p.generateAndRecord(ctx, job.BatchID, bookID)
	if itemErr != nil {
		job.FailedBooks++
		p.cache.Update(job.BatchID, func(progress *domain.BatchProgress) {
			progress.FailedBooks++
		})

		log.Error("failed to process book", slog.String("error", itemErr.Error()))
		p.recordItemFailure(ctx, job.BatchID, bookID, itemErr)
	} else {
		job.ProcessedBooks++
		p.cache.Update(job.BatchID, func(progress *domain.BatchProgress) {
			progress.ProcessedBooks++
		})
	}

	// Progress is persisted after every book: one book can take a long
	// time, and visibility wins over write amplification.
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist batch progress: %w", err)
	}

	p.monitor.Record(ctx, job.BatchID, &bookID)

	return nil
}

// generateAndRecord performs the audit-wrapped recommendation call for
// one book and persists its results.
func (p *Processor) generateAndRecord(ctx context.Context, batchID string, bookID int) error {
	now := time.Now().UTC()
	if err := p.audit.AppendProcessingLog(ctx, &domain.BatchProcessingLog{
		BatchID:   batchID,
		BookID:    bookID,
		Status:    domain.ProcessingLogStarted,
		Message:   "Beginning request to generate tone recommendations",
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("failed to append started log: %w", err)
	}

	tones, err := p.generator.GenerateForBook(ctx, bookID)
	if err != nil {
		return err
	}

	recs := make([]*domain.ToneRecommendation, 0, len(tones))
	for _, tone := range tones {
		rec, recErr := domain.NewToneRecommendation(bookID, tone)
		if recErr != nil {
			return fmt.Errorf("invalid generated tone %q: %w", tone, recErr)
		}
		recs = append(recs, rec)
	}
	if err := p.recs.CreateAll(ctx, recs); err != nil {
		return fmt.Errorf("failed to persist recommendations: %w", err)
	}

	completedAt := time.Now().UTC()
	if err := p.audit.AppendProcessingLog(ctx, &domain.BatchProcessingLog{
		BatchID:     batchID,
		BookID:      bookID,
		Status:      domain.ProcessingLogCompleted,
		Message:     fmt.Sprintf("Successfully generated %d recommendations", len(tones)),
		CreatedAt:   completedAt,
		CompletedAt: &completedAt,
	}); err != nil {
		return fmt.Errorf("failed to append completed log: %w", err)
	}

	return nil
}

// recordItemFailure appends the audit and error rows for a failed book.
// These writes are themselves best-effort: the failure is already counted.
func (p *Processor) recordItemFailure(ctx context.Context, batchID string, bookID int, itemErr error) {
	log := p.logger.With(
		slog.String("batch_id", batchID),
		slog.Int("book_id", bookID))

	now := time.Now().UTC()
	if err := p.audit.AppendProcessingLog(ctx, &domain.BatchProcessingLog{
		BatchID:     batchID,
		BookID:      bookID,
		Status:      domain.ProcessingLogFailed,
		Message:     truncate(itemErr.Error(), 1000),
		CreatedAt:   now,
		CompletedAt: &now,
	}); err != nil {
		log.Error("failed to append failed log", slog.String("error", err.Error()))
	}

	if err := p.audit.AppendErrorLog(ctx, &domain.ErrorLog{
		Source:       errorLogSource,
		ErrorType:    fmt.Sprintf("%T", itemErr),
		ErrorMessage: itemErr.Error(),
		BookID:       &bookID,
		CreatedAt:    now,
	}); err != nil {
		log.Error("failed to append error log", slog.String("error", err.Error()))
	}
}

// truncate bounds a message to the column width of the target field.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
