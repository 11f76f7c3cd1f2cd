package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/platform/logger"
	"github.com/bookdata/booktone-api/internal/store"
)

// PostgresBatchJobDetailStore implements the store.BatchJobDetailStore
// interface using a PostgreSQL database as the storage backend.
type PostgresBatchJobDetailStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresBatchJobDetailStore creates a new PostgreSQL implementation
// of the BatchJobDetailStore interface.
func NewPostgresBatchJobDetailStore(db store.DBTX, logger *slog.Logger) *PostgresBatchJobDetailStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBatchJobDetailStore{
		db:     db,
		logger: logger.With(slog.String("component", "batch_job_detail_store")),
	}
}

// Ensure PostgresBatchJobDetailStore implements store.BatchJobDetailStore
var _ store.BatchJobDetailStore = (*PostgresBatchJobDetailStore)(nil)

// CreateAll implements store.BatchJobDetailStore.CreateAll
func (s *PostgresBatchJobDetailStore) CreateAll(ctx context.Context, details []*domain.BatchJobDetail) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(details) == 0 {
		return nil
	}

	query := `
		INSERT INTO batch_job_details (batch_id, book_id, created_at)
		VALUES ($1, $2, $3)
	`
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch detail insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn("failed to close prepared statement",
				slog.String("error", closeErr.Error()))
		}
	}()

	for _, detail := range details {
		if _, err := stmt.ExecContext(ctx, detail.BatchID, detail.BookID, detail.CreatedAt); err != nil {
			log.Error("failed to insert batch job detail",
				slog.String("error", err.Error()),
				slog.String("batch_id", detail.BatchID),
				slog.Int("book_id", detail.BookID))
			return fmt.Errorf("failed to insert batch job detail: %w", err)
		}
	}

	return nil
}

// GetBookIDs implements store.BatchJobDetailStore.GetBookIDs
func (s *PostgresBatchJobDetailStore) GetBookIDs(ctx context.Context, batchID string) ([]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT book_id
		FROM batch_job_details
		WHERE batch_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		log.Error("failed to query batch job details",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to query batch job details: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	bookIDs := make([]int, 0)
	for rows.Next() {
		var bookID int
		if err := rows.Scan(&bookID); err != nil {
			return nil, fmt.Errorf("failed to scan book ID: %w", err)
		}
		bookIDs = append(bookIDs, bookID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch job details: %w", err)
	}

	return bookIDs, nil
}

// WithTx implements store.BatchJobDetailStore.WithTx
func (s *PostgresBatchJobDetailStore) WithTx(tx *sql.Tx) store.BatchJobDetailStore {
	return &PostgresBatchJobDetailStore{
		db:     tx,
		logger: s.logger,
	}
}
