package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ToneRecommender implements Generator by composing the three external
// collaborators: book metadata lookup, reader mood tags and the language
// model. Mood tags are decorative input; their failure never fails the
// book. Book lookup and model failure do, and the batch engine counts the
// item as failed.
type ToneRecommender struct {
	books    BookDataClient
	moodTags MoodTagClient
	model    ToneModel
	logger   *slog.Logger
}

// NewToneRecommender creates a ToneRecommender. The mood tag client may be
// nil, in which case the model prompt is built without mood tags.
func NewToneRecommender(
	books BookDataClient,
	model ToneModel,
	moodTags MoodTagClient,
	logger *slog.Logger,
) (*ToneRecommender, error) {
	if books == nil {
		return nil, errors.New("book data client cannot be nil")
	}
	if model == nil {
		return nil, errors.New("tone model cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &ToneRecommender{
		books:    books,
		moodTags: moodTags,
		model:    model,
		logger:   logger.With(slog.String("component", "tone_recommender")),
	}, nil
}

// Ensure ToneRecommender implements Generator
var _ Generator = (*ToneRecommender)(nil)

// GenerateForBook implements Generator.GenerateForBook
func (r *ToneRecommender) GenerateForBook(ctx context.Context, bookID int) ([]string, error) {
	book, err := r.books.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: book lookup failed for book %d: %v",
			ErrGenerationFailed, bookID, err)
	}

	var tags []string
	if r.moodTags != nil {
		tags, err = r.moodTags.GetMoodTags(ctx, book.Title, book.Author)
		if err != nil {
			// Mood tags are best-effort; generate without them.
			r.logger.WarnContext(ctx, "mood tag lookup failed, continuing without tags",
				slog.Int("book_id", bookID),
				slog.String("error", err.Error()))
			tags = nil
		}
	}

	tones, err := r.model.GenerateTones(ctx, book, tags)
	if err != nil {
		return nil, fmt.Errorf("%w: model call failed for book %d: %v",
			ErrGenerationFailed, bookID, err)
	}

	r.logger.DebugContext(ctx, "generated tone recommendations",
		slog.Int("book_id", bookID),
		slog.Int("tone_count", len(tones)))

	return tones, nil
}
