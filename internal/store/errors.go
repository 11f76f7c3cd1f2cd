package store

import "errors"

// Common errors returned by store implementations. Callers should test
// with errors.Is since implementations wrap these with context.
var (
	// ErrBatchJobNotFound is returned when a batch job with the given
	// batch ID does not exist.
	ErrBatchJobNotFound = errors.New("batch job not found")

	// ErrRecommendationNotFound is returned when a tone recommendation
	// with the given ID does not exist.
	ErrRecommendationNotFound = errors.New("tone recommendation not found")

	// ErrInvalidEntity is returned when an entity fails a database-level
	// constraint (e.g. a foreign key violation).
	ErrInvalidEntity = errors.New("invalid entity")
)
