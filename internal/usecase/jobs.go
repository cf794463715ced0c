package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// JobService manages jobs and their requirement matrices. Publishing a job
// builds its matrix and fans matches out in the background.
type JobService struct {
	Jobs        domain.JobRepository
	JobMatrices domain.JobMatrixRepository
	Matches     domain.MatchRepository
	Matrix      MatrixService
	Fanout      FanoutService
	LLM         domain.LLMClient
	Extractor   domain.TextExtractor
	Runner      *Runner
	Log         *slog.Logger
}

func validateJob(j domain.Job) error {
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	switch j.LocationType {
	case domain.LocationOnsite, domain.LocationHybrid, domain.LocationRemote:
	default:
		return fmt.Errorf("%w: unknown location_type %q", domain.ErrInvalidArgument, j.LocationType)
	}
	switch j.SeniorityLevel {
	case domain.SeniorityJunior, domain.SeniorityMid, domain.SenioritySenior, domain.SeniorityLead, domain.SeniorityPrincipal:
	default:
		return fmt.Errorf("%w: unknown seniority_level %q", domain.ErrInvalidArgument, j.SeniorityLevel)
	}
	switch j.Status {
	case domain.JobDraft, domain.JobPublished, domain.JobClosed:
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, j.Status)
	}
	if j.MinYearsExperience < 0 {
		return fmt.Errorf("%w: min_years_experience must not be negative", domain.ErrInvalidArgument)
	}
	return nil
}

// Create persists a job. For a published job the matrix build and match
// fan-out are scheduled immediately.
func (s JobService) Create(ctx domain.Context, j domain.Job) (string, error) {
	if j.Status == "" {
		j.Status = domain.JobDraft
	}
	if err := validateJob(j); err != nil {
		return "", err
	}
	id, err := s.Jobs.Create(ctx, j)
	if err != nil {
		return "", fmt.Errorf("op=jobs.create: %w", err)
	}
	if j.Status == domain.JobPublished {
		s.scheduleMatrixAndFanOut(id)
	}
	return id, nil
}

// CreateFromURL ingests a remote posting page and creates the job from the
// extracted fields.
func (s JobService) CreateFromURL(ctx domain.Context, url string, status domain.JobStatus) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("%w: url is required", domain.ErrInvalidArgument)
	}
	text, err := s.Extractor.FetchAndExtractHTML(ctx, url)
	if err != nil {
		return "", fmt.Errorf("op=jobs.from_url: %w", err)
	}
	return s.createFromText(ctx, text, status)
}

// CreateFromPDF ingests a posting PDF already stored at path.
func (s JobService) CreateFromPDF(ctx domain.Context, path string, status domain.JobStatus) (string, error) {
	text, err := s.Extractor.ExtractPDF(ctx, path)
	if err != nil {
		return "", fmt.Errorf("op=jobs.from_pdf: %w", err)
	}
	return s.createFromText(ctx, text, status)
}

func (s JobService) createFromText(ctx domain.Context, text string, status domain.JobStatus) (string, error) {
	p, err := s.LLM.ExtractJobInfo(ctx, text)
	if err != nil {
		return "", fmt.Errorf("op=jobs.extract_info: %w", err)
	}
	if status == "" {
		status = domain.JobDraft
	}
	return s.Create(ctx, domain.Job{
		Title:              p.Title,
		Department:         p.Department,
		Company:            p.Company,
		LocationType:       domain.LocationType(p.LocationType),
		Country:            p.CountryCode,
		City:               p.City,
		Description:        p.Description,
		MustHaveSkills:     p.MustHaveSkills,
		NiceToHaveSkills:   p.NiceToHaveSkills,
		MinYearsExperience: p.MinYearsExperience,
		SeniorityLevel:     domain.Seniority(p.SeniorityLevel),
		Status:             status,
	})
}

// Get loads a job.
func (s JobService) Get(ctx domain.Context, id string) (domain.Job, error) {
	return s.Jobs.Get(ctx, id)
}

// ListMatches returns the scored candidates of a job, best first.
func (s JobService) ListMatches(ctx domain.Context, jobID string) ([]domain.Match, error) {
	if _, err := s.Jobs.Get(ctx, jobID); err != nil {
		return nil, fmt.Errorf("op=jobs.list_matches: %w", err)
	}
	return s.Matches.ListByJob(ctx, jobID)
}

// GetMatrix loads the requirement matrix of a job.
func (s JobService) GetMatrix(ctx domain.Context, jobID string) (domain.JobMatrix, error) {
	if _, err := s.Jobs.Get(ctx, jobID); err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=jobs.get_matrix: %w", err)
	}
	return s.JobMatrices.GetByJob(ctx, jobID)
}

// UpdateMatrix replaces the matrix with a manually edited one and recomputes
// matches in the background.
func (s JobService) UpdateMatrix(ctx domain.Context, jobID string, m domain.JobMatrix) (domain.JobMatrix, error) {
	if _, err := s.Jobs.Get(ctx, jobID); err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=jobs.update_matrix: %w", err)
	}
	if err := ValidateJobMatrix(m); err != nil {
		return domain.JobMatrix{}, err
	}
	m.JobID = jobID
	if _, err := s.JobMatrices.Upsert(ctx, m); err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=jobs.update_matrix: %w", err)
	}
	s.scheduleFanOut(jobID)
	return m, nil
}

// RegenerateMatrix rebuilds the matrix from the job's current description and
// fans matches out in the background.
func (s JobService) RegenerateMatrix(ctx domain.Context, jobID string) (domain.JobMatrix, error) {
	j, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=jobs.regenerate_matrix: %w", err)
	}
	m, err := s.Matrix.BuildJobMatrix(ctx, j)
	if err != nil {
		return domain.JobMatrix{}, err
	}
	s.scheduleFanOut(jobID)
	return m, nil
}

func (s JobService) scheduleMatrixAndFanOut(jobID string) {
	s.Runner.Go("job-matrix-build", func(ctx context.Context) {
		j, err := s.Jobs.Get(ctx, jobID)
		if err != nil {
			s.Log.Error("job matrix build: load failed", slog.String("job_id", jobID), slog.Any("error", err))
			return
		}
		if _, err := s.Matrix.BuildJobMatrix(ctx, j); err != nil {
			s.Log.Error("job matrix build failed", slog.String("job_id", jobID), slog.Any("error", err))
			return
		}
		if err := s.Fanout.FanOutJob(ctx, jobID); err != nil {
			s.Log.Error("job fan-out failed", slog.String("job_id", jobID), slog.Any("error", err))
		}
	})
}

func (s JobService) scheduleFanOut(jobID string) {
	s.Runner.Go("job-fanout", func(ctx context.Context) {
		if err := s.Fanout.FanOutJob(ctx, jobID); err != nil {
			s.Log.Error("job fan-out failed", slog.String("job_id", jobID), slog.Any("error", err))
		}
	})
}
