package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bookdata/booktone-api/internal/api/shared"
	"github.com/bookdata/booktone-api/internal/batch"
	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/platform/logger"
	"github.com/bookdata/booktone-api/internal/store"
)

// BatchService is the handler-facing contract of the batch engine.
type BatchService interface {
	SubmitBatch(ctx context.Context, bookIDs []int) (string, error)
	GetStatus(ctx context.Context, batchID string) (domain.BatchProgress, error)
	GetLogs(ctx context.Context, batchID string) ([]*domain.BatchProcessingLog, error)
	GetMetrics(ctx context.Context, batchID string) ([]*domain.ResourceMetric, error)
}

// RecommendationHandler handles tone recommendation HTTP requests: batch
// submission and monitoring, plus per-book result retrieval and feedback.
type RecommendationHandler struct {
	batchService BatchService
	recs         store.RecommendationStore
	logger       *slog.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(
	batchService BatchService,
	recs store.RecommendationStore,
	logger *slog.Logger,
) *RecommendationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecommendationHandler")
	}

	return &RecommendationHandler{
		batchService: batchService,
		recs:         recs,
		logger:       logger.With(slog.String("component", "recommendation_handler")),
	}
}

// SubmitBatch handles POST /api/recommendations?bookIds=... requests.
// Book IDs are taken from repeated bookIds query parameters; each value
// may itself be a comma-separated list. An accepted submission returns
// 202 with the batch ID.
func (h *RecommendationHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	bookIDs, err := parseBookIDs(r.URL.Query()["bookIds"])
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(bookIDs) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "At least one book ID is required")
		return
	}

	batchID, err := h.batchService.SubmitBatch(r.Context(), bookIDs)
	if err != nil {
		if errors.Is(err, batch.ErrEmptyBatch) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "At least one book ID is required")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to start batch processing job", err)
		return
	}

	log.Info("started batch processing job",
		slog.String("batch_id", batchID),
		slog.Int("book_count", len(bookIDs)))

	shared.RespondWithJSON(w, r, http.StatusAccepted, BatchAcceptedResponse{BatchID: batchID})
}

// GetBatchStatus handles GET /api/recommendations/batch/{batchId}/status
// requests. An unknown batch ID returns 404.
func (h *RecommendationHandler) GetBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	progress, err := h.batchService.GetStatus(r.Context(), batchID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get batch status", err)
		return
	}
	if progress.Status == domain.BatchStatusNotFound {
		shared.RespondWithError(w, r, http.StatusNotFound, "Batch job not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// GetBatchLogs handles GET /api/recommendations/batch/{batchId}/logs
// requests. An unknown batch yields an empty list.
func (h *RecommendationHandler) GetBatchLogs(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	logs, err := h.batchService.GetLogs(r.Context(), batchID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get batch logs", err)
		return
	}
	if logs == nil {
		logs = []*domain.BatchProcessingLog{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, logs)
}

// GetBatchMetrics handles GET /api/recommendations/batch/{batchId}/metrics
// requests.
func (h *RecommendationHandler) GetBatchMetrics(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	metrics, err := h.batchService.GetMetrics(r.Context(), batchID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get batch metrics", err)
		return
	}
	if metrics == nil {
		metrics = []*domain.ResourceMetric{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, metrics)
}

// GetRecommendations handles GET /api/recommendations/{id} requests,
// where id is a book ID. It returns every tone stored for the book with
// display formatting applied, or 404 if the book has none.
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathInt(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid book ID")
		return
	}

	recs, err := h.recs.ListByBookID(r.Context(), bookID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to get recommendations", err)
		return
	}
	if len(recs) == 0 {
		shared.RespondWithError(w, r, http.StatusNotFound, "No recommendations found for book")
		return
	}

	response := RecommendationsResponse{
		Recommendations: make([]RecommendationItem, 0, len(recs)),
	}
	for _, rec := range recs {
		response.Recommendations = append(response.Recommendations, RecommendationItem{
			RecommendationID: rec.ID,
			BookID:           rec.BookID,
			Tone:             FormatTone(rec.Tone),
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// UpdateFeedback handles PUT /api/recommendations/{id} requests, where
// id is a recommendation row ID. A successful vote returns 204.
func (h *RecommendationHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid recommendation ID")
		return
	}

	var req FeedbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Feedback must be between -1 and 1")
		return
	}

	if err := h.recs.UpdateFeedback(r.Context(), int64(id), *req.Feedback); err != nil {
		if errors.Is(err, store.ErrRecommendationNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Recommendation not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidFeedback) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Feedback must be between -1 and 1")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to update feedback", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseBookIDs flattens repeated bookIds query values, each of which may
// be a comma-separated list, into a slice of ints.
func parseBookIDs(values []string) ([]int, error) {
	var ids []int
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, errors.New("Book IDs must be integers")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// pathInt extracts an integer path parameter.
func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(chi.URLParam(r, name))
}

// FormatTone normalizes a stored tone for display. A few hyphenated
// tones have fixed spellings; everything else is title-cased.
func FormatTone(tone string) string {
	normalized := strings.TrimSpace(tone)
	if normalized == "" {
		return tone
	}

	switch strings.ToLower(normalized) {
	case "gut wrenching", "gut-wrenching":
		return "Gut-wrenching"
	case "hard boiled", "hard-boiled":
		return "Hard-boiled"
	case "heart warming", "heart-warming", "heartwarming":
		return "Heartwarming"
	}

	// Caser instances are stateful and not goroutine safe, so one is
	// built per call.
	return cases.Title(language.English).String(strings.ToLower(normalized))
}
