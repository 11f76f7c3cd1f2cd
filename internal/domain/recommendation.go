package domain

import (
	"errors"
	"time"
)

// Common validation errors for ToneRecommendation
var (
	ErrEmptyTone       = errors.New("tone cannot be empty")
	ErrInvalidBookID   = errors.New("book ID must be positive")
	ErrInvalidFeedback = errors.New("feedback must be -1, 0 or 1")
)

// ToneRecommendation is one generated tone for a book, persisted when a
// batch item completes. Feedback starts neutral and can later be set to
// -1 (down) or 1 (up) through the API.
type ToneRecommendation struct {
	ID        int64     `json:"id"`
	BookID    int       `json:"book_id"`
	Tone      string    `json:"tone"`
	Feedback  int       `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// NewToneRecommendation creates a recommendation with neutral feedback.
func NewToneRecommendation(bookID int, tone string) (*ToneRecommendation, error) {
	rec := &ToneRecommendation{
		BookID:    bookID,
		Tone:      tone,
		Feedback:  0,
		CreatedAt: time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the ToneRecommendation has valid data.
func (r *ToneRecommendation) Validate() error {
	if r.BookID < 1 {
		return ErrInvalidBookID
	}

	if r.Tone == "" {
		return ErrEmptyTone
	}

	if r.Feedback < -1 || r.Feedback > 1 {
		return ErrInvalidFeedback
	}

	return nil
}

// Book holds the metadata the recommender needs to build its prompt.
type Book struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genres []string `json:"genres,omitempty"`
}
