package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)
	if s.RateLimiter != nil {
		r.Use(rateLimitMiddleware(s.RateLimiter))
	}
	if s.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(s.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/learners", func(r chi.Router) {
		r.Get("/", s.handleListLearners)
		r.Post("/", s.handleCreateLearner)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLearner)
			r.Delete("/", s.handleDeleteLearner)
			r.Post("/delete", s.handleDeleteLearner)

			r.Get("/items", s.handleListItems)
			r.Post("/items", s.handleAddConcept)
			r.Post("/items/{itemID}/review", s.handleReview)
			r.Get("/items/{itemID}/history", s.handleHistory)

			r.Get("/due", s.handleDue)
			r.Post("/session", s.handleSession)
			r.Get("/metrics", s.handleMetrics)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, map[string]errorBody{
			"error": {Code: "NOT_FOUND", Message: "route not found"},
		})
	})
	return r
}
