package api

// BatchAcceptedResponse is returned when a batch submission is accepted
// for background processing.
type BatchAcceptedResponse struct {
	BatchID string `json:"batch_id"`
}

// RecommendationItem is one tone recommendation in a book's result set.
type RecommendationItem struct {
	RecommendationID int64  `json:"recommendation_id"`
	BookID           int    `json:"book_id"`
	Tone             string `json:"tone"`
}

// RecommendationsResponse is the result set for one book.
type RecommendationsResponse struct {
	Recommendations []RecommendationItem `json:"recommendations"`
}

// FeedbackRequest carries a reader's vote on a recommendation.
// Feedback is -1 (wrong), 0 (neutral) or 1 (right); a pointer so an
// absent field is distinguishable from an explicit zero.
type FeedbackRequest struct {
	Feedback *int `json:"feedback" validate:"required,min=-1,max=1"`
}
