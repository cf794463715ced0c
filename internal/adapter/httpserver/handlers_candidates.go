package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListCandidatesHandler returns the talent pool.
func (s *Server) ListCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidates, err := s.Candidates.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]candidateDTO, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, toCandidateDTO(c))
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
	}
}

// GetCandidateHandler returns one candidate.
func (s *Server) GetCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Candidates.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toCandidateDTO(c))
	}
}

// DeleteCandidateHandler removes a candidate; files, matrix and matches
// cascade in the store.
func (s *Server) DeleteCandidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Candidates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListCandidateMatchesHandler returns the scored jobs of a candidate.
func (s *Server) ListCandidateMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Candidates.Matches(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": toMatchDTOs(matches)})
	}
}

// RerunMatchingHandler schedules a fan-out for one candidate; with
// regenerate=true the matrix is rebuilt from the newest CV first.
func (s *Server) RerunMatchingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Regenerate bool `json:"regenerate"`
		}
		// Body is optional; absent means fan-out only.
		if body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20)); err == nil && len(body) > 0 {
			_ = json.Unmarshal(body, &req)
		}
		if err := s.Candidates.RerunMatching(r.Context(), chi.URLParam(r, "id"), req.Regenerate); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
	}
}
