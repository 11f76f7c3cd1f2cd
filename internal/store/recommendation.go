package store

import (
	"context"
	"database/sql"

	"github.com/bookdata/booktone-api/internal/domain"
)

// RecommendationStore defines the interface for tone recommendation
// persistence.
type RecommendationStore interface {
	// CreateAll saves the recommendations generated for one book.
	CreateAll(ctx context.Context, recs []*domain.ToneRecommendation) error

	// GetByID retrieves a recommendation by its row ID.
	// Returns ErrRecommendationNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.ToneRecommendation, error)

	// ListByBookID returns all recommendations stored for a book,
	// newest first.
	ListByBookID(ctx context.Context, bookID int) ([]*domain.ToneRecommendation, error)

	// UpdateFeedback sets the feedback value (-1, 0 or 1) on a
	// recommendation.
	// Returns ErrRecommendationNotFound if it does not exist.
	UpdateFeedback(ctx context.Context, id int64, feedback int) error

	// WithTx returns a new RecommendationStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) RecommendationStore
}
