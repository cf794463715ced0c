package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hiretrack/hiretrack/internal/domain"
)

type createJobRequest struct {
	Title              string   `json:"title" validate:"required,max=200"`
	Department         string   `json:"department" validate:"max=200"`
	Company            string   `json:"company" validate:"max=200"`
	LocationType       string   `json:"location_type" validate:"required,oneof=onsite hybrid remote"`
	Country            string   `json:"country" validate:"max=2"`
	City               string   `json:"city" validate:"max=100"`
	Description        string   `json:"description" validate:"max=20000"`
	MustHaveSkills     []string `json:"must_have_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinYearsExperience int      `json:"min_years_experience" validate:"min=0"`
	SeniorityLevel     string   `json:"seniority_level" validate:"required,oneof=junior mid senior lead principal"`
	Status             string   `json:"status" validate:"omitempty,oneof=draft published closed"`
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// CreateJobHandler creates a job from explicit fields. A published job
// triggers the matrix build and match fan-out in the background.
func (s *Server) CreateJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if !decodeValid(w, r, &req) {
			return
		}
		id, err := s.Jobs.Create(r.Context(), domain.Job{
			Title:              req.Title,
			Department:         req.Department,
			Company:            req.Company,
			LocationType:       domain.LocationType(req.LocationType),
			Country:            req.Country,
			City:               req.City,
			Description:        req.Description,
			MustHaveSkills:     req.MustHaveSkills,
			NiceToHaveSkills:   req.NiceToHaveSkills,
			MinYearsExperience: req.MinYearsExperience,
			SeniorityLevel:     domain.Seniority(req.SeniorityLevel),
			Status:             domain.JobStatus(req.Status),
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// CreateJobFromURLHandler fetches a posting page and creates the job from the
// extracted fields.
func (s *Server) CreateJobFromURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL    string `json:"url" validate:"required,url"`
			Status string `json:"status" validate:"omitempty,oneof=draft published closed"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		id, err := s.Jobs.CreateFromURL(r.Context(), req.URL, domain.JobStatus(req.Status))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// CreateJobFromPDFHandler ingests a posting PDF uploaded under the "file"
// field. The file is staged to a temp path for the Tika extractor.
func (s *Server) CreateJobFromPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := s.Cfg.MaxUploadBytes()
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		f, h, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: file required", domain.ErrInvalidArgument), map[string]string{"field": "file"})
			return
		}
		defer func() { _ = f.Close() }()
		data, err := io.ReadAll(f)
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
		path := filepath.Join(os.TempDir(), uuid.New().String()+".pdf")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			writeError(w, r, fmt.Errorf("op=jobs.from_pdf_stage: %w", err), nil)
			return
		}
		defer func() { _ = os.Remove(path) }()

		id, err := s.Jobs.CreateFromPDF(r.Context(), path, domain.JobStatus(r.FormValue("status")))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// GetJobHandler returns one job.
func (s *Server) GetJobHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := s.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobDTO(j))
	}
}

// GetJobMatrixHandler returns the requirement matrix of a job.
func (s *Server) GetJobMatrixHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Jobs.GetMatrix(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobMatrixDTO(m))
	}
}

// UpdateJobMatrixHandler replaces the matrix with a manually edited one and
// recomputes matches in the background.
func (s *Server) UpdateJobMatrixHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RequiredSkills   []domain.WeightedSkill `json:"required_skills"`
			PreferredSkills  []domain.WeightedSkill `json:"preferred_skills"`
			ExperienceWeight int                    `json:"experience_weight"`
			LocationWeight   int                    `json:"location_weight"`
			DomainWeight     int                    `json:"domain_weight"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		m, err := s.Jobs.UpdateMatrix(r.Context(), chi.URLParam(r, "id"), domain.JobMatrix{
			RequiredSkills:   req.RequiredSkills,
			PreferredSkills:  req.PreferredSkills,
			ExperienceWeight: req.ExperienceWeight,
			LocationWeight:   req.LocationWeight,
			DomainWeight:     req.DomainWeight,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobMatrixDTO(m))
	}
}

// RegenerateJobMatrixHandler rebuilds the matrix from the job description.
func (s *Server) RegenerateJobMatrixHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.Jobs.RegenerateMatrix(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toJobMatrixDTO(m))
	}
}

// ListJobMatchesHandler returns the scored candidates of a job, best first.
func (s *Server) ListJobMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Jobs.ListMatches(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"matches": toMatchDTOs(matches)})
	}
}
