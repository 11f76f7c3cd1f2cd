package store

import (
	"context"
	"database/sql"

	"github.com/bookdata/booktone-api/internal/domain"
)

// BatchJobStore defines the interface for batch job persistence.
type BatchJobStore interface {
	// Create saves a new batch job to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, job *domain.BatchJob) error

	// GetByBatchID retrieves a batch job by its opaque batch handle.
	// Returns ErrBatchJobNotFound if the job does not exist.
	GetByBatchID(ctx context.Context, batchID string) (*domain.BatchJob, error)

	// Update saves changes to an existing batch job: status, counters,
	// timestamps and error message.
	// Returns ErrBatchJobNotFound if the job does not exist.
	Update(ctx context.Context, job *domain.BatchJob) error

	// WithTx returns a new BatchJobStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) BatchJobStore
}

// BatchJobDetailStore defines the interface for the immutable work-item
// lists attached to batch jobs.
type BatchJobDetailStore interface {
	// CreateAll writes the full item list for a batch in one operation.
	// The rows are never updated afterwards.
	CreateAll(ctx context.Context, details []*domain.BatchJobDetail) error

	// GetBookIDs returns the book IDs for a batch in insertion order.
	// Returns an empty slice if the batch has no detail rows.
	GetBookIDs(ctx context.Context, batchID string) ([]int, error)

	// WithTx returns a new BatchJobDetailStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) BatchJobDetailStore
}
