package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/platform/logger"
	"github.com/bookdata/booktone-api/internal/store"
)

// PostgresBatchJobStore implements the store.BatchJobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresBatchJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBatchJobStore creates a new PostgreSQL implementation of the
// BatchJobStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresBatchJobStore(db store.DBTX, logger *slog.Logger) *PostgresBatchJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBatchJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "batch_job_store")),
	}
}

// Ensure PostgresBatchJobStore implements store.BatchJobStore
var _ store.BatchJobStore = (*PostgresBatchJobStore)(nil)

// Create implements store.BatchJobStore.Create
func (s *PostgresBatchJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("batch job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("batch_id", job.BatchID))
		return err
	}

	query := `
		INSERT INTO batch_jobs
			(batch_id, status, total_books, processed_books, failed_books,
			 created_at, started_at, completed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		job.BatchID,
		job.Status,
		job.TotalBooks,
		job.ProcessedBooks,
		job.FailedBooks,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
		nullableString(job.ErrorMessage),
	).Scan(&job.ID)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate batch ID during batch job creation",
				slog.String("batch_id", job.BatchID))
			return fmt.Errorf("%w: batch ID %s already exists", store.ErrInvalidEntity, job.BatchID)
		}
		log.Error("failed to create batch job",
			slog.String("error", err.Error()),
			slog.String("batch_id", job.BatchID))
		return fmt.Errorf("failed to create batch job: %w", err)
	}

	return nil
}

// GetByBatchID implements store.BatchJobStore.GetByBatchID
func (s *PostgresBatchJobStore) GetByBatchID(ctx context.Context, batchID string) (*domain.BatchJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, batch_id, status, total_books, processed_books, failed_books,
		       created_at, started_at, completed_at, error_message
		FROM batch_jobs
		WHERE batch_id = $1
	`

	var job domain.BatchJob
	var errorMessage sql.NullString
	err := s.db.QueryRowContext(ctx, query, batchID).Scan(
		&job.ID,
		&job.BatchID,
		&job.Status,
		&job.TotalBooks,
		&job.ProcessedBooks,
		&job.FailedBooks,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&errorMessage,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: batch ID %s", store.ErrBatchJobNotFound, batchID)
		}
		log.Error("failed to get batch job",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to get batch job: %w", err)
	}

	job.ErrorMessage = errorMessage.String

	return &job, nil
}

// Update implements store.BatchJobStore.Update
func (s *PostgresBatchJobStore) Update(ctx context.Context, job *domain.BatchJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("batch job validation failed during update",
			slog.String("error", err.Error()),
			slog.String("batch_id", job.BatchID))
		return err
	}

	query := `
		UPDATE batch_jobs
		SET status = $1, processed_books = $2, failed_books = $3,
		    started_at = $4, completed_at = $5, error_message = $6
		WHERE batch_id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		job.Status,
		job.ProcessedBooks,
		job.FailedBooks,
		job.StartedAt,
		job.CompletedAt,
		nullableString(job.ErrorMessage),
		job.BatchID,
	)

	if err != nil {
		log.Error("failed to update batch job",
			slog.String("error", err.Error()),
			slog.String("batch_id", job.BatchID))
		return fmt.Errorf("failed to update batch job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: batch ID %s", store.ErrBatchJobNotFound, job.BatchID)
	}

	return nil
}

// WithTx implements store.BatchJobStore.WithTx
func (s *PostgresBatchJobStore) WithTx(tx *sql.Tx) store.BatchJobStore {
	return &PostgresBatchJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// nullableString converts an empty string to a NULL-able value so empty
// optional columns are stored as NULL rather than ''.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
