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

// PostgresRecommendationStore implements the store.RecommendationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresRecommendationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecommendationStore creates a new PostgreSQL implementation
// of the RecommendationStore interface.
func NewPostgresRecommendationStore(db store.DBTX, logger *slog.Logger) *PostgresRecommendationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecommendationStore{
		db:     db,
		logger: logger.With(slog.String("component", "recommendation_store")),
	}
}

// Ensure PostgresRecommendationStore implements store.RecommendationStore
var _ store.RecommendationStore = (*PostgresRecommendationStore)(nil)

// CreateAll implements store.RecommendationStore.CreateAll
func (s *PostgresRecommendationStore) CreateAll(ctx context.Context, recs []*domain.ToneRecommendation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			log.Warn("recommendation validation failed during create",
				slog.String("error", err.Error()),
				slog.Int("book_id", rec.BookID))
			return err
		}
	}

	query := `
		INSERT INTO tone_recommendations (book_id, tone, feedback, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for _, rec := range recs {
		err := s.db.QueryRowContext(
			ctx,
			query,
			rec.BookID,
			rec.Tone,
			rec.Feedback,
			rec.CreatedAt,
		).Scan(&rec.ID)
		if err != nil {
			log.Error("failed to insert tone recommendation",
				slog.String("error", err.Error()),
				slog.Int("book_id", rec.BookID),
				slog.String("tone", rec.Tone))
			return fmt.Errorf("failed to insert tone recommendation: %w", err)
		}
	}

	return nil
}

// GetByID implements store.RecommendationStore.GetByID
func (s *PostgresRecommendationStore) GetByID(ctx context.Context, id int64) (*domain.ToneRecommendation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, book_id, tone, feedback, created_at
		FROM tone_recommendations
		WHERE id = $1
	`

	var rec domain.ToneRecommendation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.BookID,
		&rec.Tone,
		&rec.Feedback,
		&rec.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", store.ErrRecommendationNotFound, id)
		}
		log.Error("failed to get tone recommendation",
			slog.String("error", err.Error()),
			slog.Int64("id", id))
		return nil, fmt.Errorf("failed to get tone recommendation: %w", err)
	}

	return &rec, nil
}

// ListByBookID implements store.RecommendationStore.ListByBookID
func (s *PostgresRecommendationStore) ListByBookID(ctx context.Context, bookID int) ([]*domain.ToneRecommendation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, book_id, tone, feedback, created_at
		FROM tone_recommendations
		WHERE book_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, bookID)
	if err != nil {
		log.Error("failed to query tone recommendations",
			slog.String("error", err.Error()),
			slog.Int("book_id", bookID))
		return nil, fmt.Errorf("failed to query tone recommendations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	recs := make([]*domain.ToneRecommendation, 0)
	for rows.Next() {
		var rec domain.ToneRecommendation
		if err := rows.Scan(&rec.ID, &rec.BookID, &rec.Tone, &rec.Feedback, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tone recommendation: %w", err)
		}
		recs = append(recs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tone recommendations: %w", err)
	}

	return recs, nil
}

// UpdateFeedback implements store.RecommendationStore.UpdateFeedback
func (s *PostgresRecommendationStore) UpdateFeedback(ctx context.Context, id int64, feedback int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if feedback < -1 || feedback > 1 {
		return domain.ErrInvalidFeedback
	}

	query := `
		UPDATE tone_recommendations
		SET feedback = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, query, feedback, id)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidFeedback
		}
		log.Error("failed to update recommendation feedback",
			slog.String("error", err.Error()),
			slog.Int64("id", id))
		return fmt.Errorf("failed to update recommendation feedback: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", store.ErrRecommendationNotFound, id)
	}

	return nil
}

// WithTx implements store.RecommendationStore.WithTx
func (s *PostgresRecommendationStore) WithTx(tx *sql.Tx) store.RecommendationStore {
	return &PostgresRecommendationStore{
		db:     tx,
		logger: s.logger,
	}
}
