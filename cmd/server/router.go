package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookdata/booktone-api/internal/api"
	apimiddleware "github.com/bookdata/booktone-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	handler := api.NewRecommendationHandler(app.batchService, app.recStore, app.logger)

	r.Route("/api/recommendations", func(r chi.Router) {
		r.Post("/", handler.SubmitBatch)
		r.Get("/batch/{batchId}/status", handler.GetBatchStatus)
		r.Get("/batch/{batchId}/logs", handler.GetBatchLogs)
		r.Get("/batch/{batchId}/metrics", handler.GetBatchMetrics)
		r.Get("/{id}", handler.GetRecommendations)
		r.Put("/{id}", handler.UpdateFeedback)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
