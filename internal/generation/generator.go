package generation

import (
	"context"

	"github.com/bookdata/booktone-api/internal/domain"
)

// Generator defines the interface the batch engine calls to turn one book
// ID into tone recommendations. It is the boundary between the engine and
// the external AI/metadata services; from the engine's perspective it is a
// single opaque call that either returns tones or fails for that item.
type Generator interface {
	// GenerateForBook produces tone recommendations for the given book ID.
	// Returns the generated tone names, or an error if book lookup or
	// generation fails. The caller owns failure accounting; this call
	// enforces no timeout of its own beyond those of the underlying
	// collaborators.
	GenerateForBook(ctx context.Context, bookID int) ([]string, error)
}

// ToneModel is the language-model half of generation: given book metadata
// and optional reader mood tags, it produces tone names.
type ToneModel interface {
	GenerateTones(ctx context.Context, book *domain.Book, moodTags []string) ([]string, error)
}

// BookDataClient retrieves book metadata from the upstream book data API.
type BookDataClient interface {
	// GetBookByID returns the book's metadata, or ErrBookNotFound if the
	// upstream API has no such book.
	GetBookByID(ctx context.Context, bookID int) (*domain.Book, error)
}

// MoodTagClient retrieves reader mood tags for a book. Implementations are
// best-effort: an empty slice is a valid result.
type MoodTagClient interface {
	GetMoodTags(ctx context.Context, title, author string) ([]string, error)
}
