package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// StartBulkHandler starts a corpus-wide sweep of the given type. A second
// running sweep of the same type is rejected with 409.
func (s *Server) StartBulkHandler(jobType domain.BulkJobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OnlyMissing bool `json:"only_missing"`
		}
		// Body is optional.
		if body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20)); err == nil && len(body) > 0 {
			_ = json.Unmarshal(body, &req)
		}
		id, err := s.Bulk.Start(jobType, req.OnlyMissing)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"id":     id,
			"status": string(domain.BulkRunning),
		})
	}
}

// BulkStatusHandler returns a snapshot of a tracked bulk job.
func (s *Server) BulkStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Bulk.Status(chi.URLParam(r, "job_id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// BulkCancelHandler cancels a running bulk job. In-flight targets finish and
// are counted; no new target starts.
func (s *Server) BulkCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.Bulk.Cancel(chi.URLParam(r, "job_id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
