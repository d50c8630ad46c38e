package api

import "net/http"

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	snapshot, err := s.StatsService.GetMetrics(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snapshot)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	learnerID, err := pathID(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	recs, err := s.StatsService.GetRecommendations(r.Context(), learnerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"recommendations": recs})
}
