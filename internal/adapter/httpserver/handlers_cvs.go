package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/usecase"
)

// UploadCVsHandler accepts a multipart batch of CV PDFs under the "files"
// field plus an optional "batch_tag" and returns the ingestion summary.
// Guard rails here reject what is obviously not a PDF; everything past them
// flows through the per-file ingestion state machine, so one bad file never
// sinks the batch.
func (s *Server) UploadCVsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			writeError(w, r, fmt.Errorf("%w: at least one file is required", domain.ErrInvalidArgument), map[string]string{"field": "files"})
			return
		}

		files := make([]usecase.UploadedFile, 0, len(headers))
		for _, h := range headers {
			if !strings.HasSuffix(strings.ToLower(h.Filename), ".pdf") {
				writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "unsupported media type (extension)",
					Details: map[string]any{"filename": h.Filename},
				}})
				return
			}
			f, err := h.Open()
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidArgument, h.Filename, err), nil)
				return
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidArgument, h.Filename, err), nil)
				return
			}
			if m := mimetype.Detect(data); !m.Is("application/pdf") {
				writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "unsupported media type (content)",
					Details: map[string]any{"filename": h.Filename, "mime": m.String()},
				}})
				return
			}
			files = append(files, usecase.UploadedFile{Filename: h.Filename, Data: data})
		}

		summary := s.Ingest.IngestBatch(r.Context(), files, r.FormValue("batch_tag"))
		writeJSON(w, http.StatusOK, summary)
	}
}
