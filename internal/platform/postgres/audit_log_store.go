package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/platform/logger"
	"github.com/bookdata/booktone-api/internal/store"
)

// PostgresAuditLogStore implements the store.AuditLogStore interface
// using a PostgreSQL database as the storage backend. Both tables it
// writes to are append-only.
type PostgresAuditLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAuditLogStore creates a new PostgreSQL implementation of the
// AuditLogStore interface.
func NewPostgresAuditLogStore(db store.DBTX, logger *slog.Logger) *PostgresAuditLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAuditLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "audit_log_store")),
	}
}

// Ensure PostgresAuditLogStore implements store.AuditLogStore
var _ store.AuditLogStore = (*PostgresAuditLogStore)(nil)

// AppendProcessingLog implements store.AuditLogStore.AppendProcessingLog
func (s *PostgresAuditLogStore) AppendProcessingLog(ctx context.Context, entry *domain.BatchProcessingLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO batch_processing_logs
			(batch_id, book_id, status, message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		entry.BatchID,
		entry.BookID,
		entry.Status,
		nullableString(entry.Message),
		entry.CreatedAt,
		entry.CompletedAt,
	).Scan(&entry.ID)

	if err != nil {
		log.Error("failed to append processing log",
			slog.String("error", err.Error()),
			slog.String("batch_id", entry.BatchID),
			slog.Int("book_id", entry.BookID))
		return fmt.Errorf("failed to append processing log: %w", err)
	}

	return nil
}

// ListProcessingLogs implements store.AuditLogStore.ListProcessingLogs
func (s *PostgresAuditLogStore) ListProcessingLogs(ctx context.Context, batchID string) ([]*domain.BatchProcessingLog, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, batch_id, book_id, status, COALESCE(message, ''), created_at, completed_at
		FROM batch_processing_logs
		WHERE batch_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		log.Error("failed to query processing logs",
			slog.String("error", err.Error()),
			slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to query processing logs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	entries := make([]*domain.BatchProcessingLog, 0)
	for rows.Next() {
		var entry domain.BatchProcessingLog
		if err := rows.Scan(
			&entry.ID,
			&entry.BatchID,
			&entry.BookID,
			&entry.Status,
			&entry.Message,
			&entry.CreatedAt,
			&entry.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan processing log: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processing logs: %w", err)
	}

	return entries, nil
}

// AppendErrorLog implements store.AuditLogStore.AppendErrorLog
func (s *PostgresAuditLogStore) AppendErrorLog(ctx context.Context, entry *domain.ErrorLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO error_logs
			(source, error_type, error_message, stack_trace, book_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		entry.Source,
		entry.ErrorType,
		entry.ErrorMessage,
		nullableString(entry.StackTrace),
		entry.BookID,
		entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		log.Error("failed to append error log",
			slog.String("error", err.Error()),
			slog.String("source", entry.Source))
		return fmt.Errorf("failed to append error log: %w", err)
	}

	return nil
}
