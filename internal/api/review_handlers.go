package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/pylearn/internal/errors"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/scheduler"
)

type addConceptRequest struct {
	LessonID    int64   `json:"lessonId"`
	ConceptName string  `json:"conceptName"`
	Difficulty  float64 `json:"difficulty"`
}

type sessionRequest struct {
	AvailableMinutes *int                      `json:"availableMinutes"`
	Preferences      models.SessionPreferences `json:"preferences"`
}

type sessionResponse struct {
	Items            []models.ReviewItem `json:"items"`
	EstimatedMinutes int                 `json:"estimatedMinutes"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter := models.ReviewItemFilter{LearnerID: learnerID}
	lessonID, err := queryInt(r, "lessonId")
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter.LessonID = int64(lessonID)
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.MinMastery, err = queryFloat(r, "minMastery"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.MaxMastery, err = queryFloat(r, "maxMastery"); err != nil {
		handleError(w, r, err)
		return
	}

	items, total, err := s.ReviewService.ListItems(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (s *Server) handleAddConcept(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req addConceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	item, err := s.ReviewService.AddConcept(r.Context(), learnerID, req.LessonID, req.ConceptName, req.Difficulty)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, item)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req models.ReviewSubmission
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	item, err := s.ReviewService.RecordReview(r.Context(), learnerID, chi.URLParam(r, "itemID"), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	events, err := s.ReviewService.History(r.Context(), learnerID, chi.URLParam(r, "itemID"), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	items, err := s.ReviewService.DueItems(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req sessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, err)
			return
		}
	}
	minutes := s.DefaultSessionMinutes
	if req.AvailableMinutes != nil {
		minutes = *req.AvailableMinutes
	}

	items, err := s.ReviewService.BuildSession(r.Context(), learnerID, minutes, req.Preferences)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionResponse{
		Items:            items,
		EstimatedMinutes: len(items) * scheduler.MinutesPerItem,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	data, err := s.ReviewService.Export(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="review-data-%d.json"`, learnerID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(data))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	body, err := readBody(w, r, maxImportBodyBytes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if body == "" {
		handleError(w, r, errors.NewBadRequestError("empty import body"))
		return
	}

	n, err := s.ReviewService.Import(r.Context(), learnerID, body)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"imported": n})
}
