package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle state of a batch job.
type BatchStatus string

// Possible batch status values. Completed and Failed are terminal.
const (
	BatchStatusQueued     BatchStatus = "Queued"
	BatchStatusProcessing BatchStatus = "Processing"
	BatchStatusCompleted  BatchStatus = "Completed"
	BatchStatusFailed     BatchStatus = "Failed"

	// BatchStatusNotFound is never persisted; it is the status-query result
	// for a batch ID that was never submitted.
	BatchStatusNotFound BatchStatus = "NotFound"
)

// Common validation errors for BatchJob
var (
	ErrEmptyBatchID        = errors.New("batch ID cannot be empty")
	ErrInvalidBatchStatus  = errors.New("invalid batch status")
	ErrNoBooks             = errors.New("batch must contain at least one book")
	ErrNegativeBookCounter = errors.New("book counters cannot be negative")
	ErrCounterOverflow     = errors.New("processed and failed books cannot exceed total books")
)

// NewBatchID generates an opaque batch handle: a UUID rendered as 32 hex
// characters without hyphens.
func NewBatchID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// BatchJob is the durable record for one submitted batch of book IDs.
// It is created at submission time and thereafter mutated only by the
// batch worker.
type BatchJob struct {
	ID             int64       `json:"id"`
	BatchID        string      `json:"batch_id"`
	Status         BatchStatus `json:"status"`
	TotalBooks     int         `json:"total_books"`
	ProcessedBooks int         `json:"processed_books"`
	FailedBooks    int         `json:"failed_books"`
	CreatedAt      time.Time   `json:"created_at"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
}

// NewBatchJob creates a queued BatchJob for the given number of books.
// Returns an error if validation fails.
func NewBatchJob(totalBooks int) (*BatchJob, error) {
	job := &BatchJob{
		BatchID:    NewBatchID(),
		Status:     BatchStatusQueued,
		TotalBooks: totalBooks,
		CreatedAt:  time.Now().UTC(),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the BatchJob has valid data.
func (j *BatchJob) Validate() error {
	if j.BatchID == "" {
		return ErrEmptyBatchID
	}

	if !isValidBatchStatus(j.Status) {
		return ErrInvalidBatchStatus
	}

	if j.TotalBooks < 1 {
		return ErrNoBooks
	}

	if j.ProcessedBooks < 0 || j.FailedBooks < 0 {
		return ErrNegativeBookCounter
	}

	if j.ProcessedBooks+j.FailedBooks > j.TotalBooks {
		return ErrCounterOverflow
	}

	return nil
}

// IsTerminal reports whether the job has reached a final state.
func (j *BatchJob) IsTerminal() bool {
	return j.Status == BatchStatusCompleted || j.Status == BatchStatusFailed
}

// isValidBatchStatus checks a persistable status value. NotFound is a
// query-layer sentinel, never a stored state.
func isValidBatchStatus(s BatchStatus) bool {
	switch s {
	case BatchStatusQueued, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	default:
		return false
	}
}

// BatchJobDetail is one immutable work-item row belonging to a batch.
// The full set of rows for a batch is written once at submission and
// reloaded at dequeue time to reconstruct the work list.
type BatchJobDetail struct {
	ID        int64     `json:"id"`
	BatchID   string    `json:"batch_id"`
	BookID    int       `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchProgress is the transient status snapshot returned by status
// queries. While a batch is actively processing it mirrors the in-memory
// cache entry; afterwards it is translated from the stored BatchJob.
type BatchProgress struct {
	BatchID        string      `json:"batch_id"`
	Status         BatchStatus `json:"status"`
	TotalBooks     int         `json:"total_books"`
	ProcessedBooks int         `json:"processed_books"`
	FailedBooks    int         `json:"failed_books"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
}
