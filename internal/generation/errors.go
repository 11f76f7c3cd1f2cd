package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when tone generation fails for any
	// general reason
	ErrGenerationFailed = errors.New("failed to generate tone recommendations")

	// ErrBookNotFound is returned when the upstream book data API has no
	// record of the requested book
	ErrBookNotFound = errors.New("book not found in book data API")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due
	// to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry
	ErrTransientFailure = errors.New("transient error during tone generation")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
