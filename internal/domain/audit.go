package domain

import "time"

// ProcessingLogStatus labels a per-item lifecycle event in the audit trail.
type ProcessingLogStatus string

const (
	ProcessingLogStarted   ProcessingLogStatus = "Started"
	ProcessingLogCompleted ProcessingLogStatus = "Completed"
	ProcessingLogFailed    ProcessingLogStatus = "Failed"
)

// BatchProcessingLog is one append-only audit row: a lifecycle event for
// one book within a batch. Rows are never mutated after insert.
type BatchProcessingLog struct {
	ID          int64               `json:"id"`
	BatchID     string              `json:"batch_id"`
	BookID      int                 `json:"book_id"`
	Status      ProcessingLogStatus `json:"status"`
	Message     string              `json:"message,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ErrorLog is an append-only record of an item-level failure, kept for
// post-hoc diagnosis. The engine writes it but never reads it back.
type ErrorLog struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	ErrorType    string    `json:"error_type"`
	ErrorMessage string    `json:"error_message"`
	StackTrace   string    `json:"stack_trace,omitempty"`
	BookID       *int      `json:"book_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResourceMetric is one point-in-time sample of process resource usage,
// recorded before and after each book is processed.
type ResourceMetric struct {
	ID                   int64     `json:"id"`
	BatchID              string    `json:"batch_id"`
	BookID               *int      `json:"book_id,omitempty"`
	CPUUsagePercent      float64   `json:"cpu_usage_percent"`
	MemoryUsageBytes     int64     `json:"memory_usage_bytes"`
	AvailableMemoryBytes int64     `json:"available_memory_bytes"`
	MemoryUsagePercent   float64   `json:"memory_usage_percent"`
	CreatedAt            time.Time `json:"created_at"`
}
