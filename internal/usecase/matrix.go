package usecase

import (
	"errors"
	"fmt"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// MatrixService builds candidate and job matrices by orchestrating text
// extraction and the model adapter. Schema violations get exactly one retry.
type MatrixService struct {
	LLM               domain.LLMClient
	Extractor         domain.TextExtractor
	CandidateMatrices domain.CandidateMatrixRepository
	JobMatrices       domain.JobMatrixRepository
	CvFiles           domain.CvFileRepository
}

func NewMatrixService(
	llm domain.LLMClient,
	ex domain.TextExtractor,
	cm domain.CandidateMatrixRepository,
	jm domain.JobMatrixRepository,
	cf domain.CvFileRepository,
) MatrixService {
	return MatrixService{LLM: llm, Extractor: ex, CandidateMatrices: cm, JobMatrices: jm, CvFiles: cf}
}

// retrySchema runs fn and retries once if the model violated the JSON schema.
func retrySchema[T any](fn func() (T, error)) (T, error) {
	out, err := fn()
	if err != nil && errors.Is(err, domain.ErrSchemaInvalid) {
		return fn()
	}
	return out, err
}

// BuildCandidateMatrix generates and persists the authoritative matrix for a
// candidate from the given CV text. Regeneration replaces the matrix row in
// place.
func (s MatrixService) BuildCandidateMatrix(ctx domain.Context, candidateID, cvFileID, cvText string) (domain.CandidateMatrix, error) {
	m, err := retrySchema(func() (domain.CandidateMatrix, error) {
		return s.LLM.GenerateCandidateMatrix(ctx, cvText)
	})
	if err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=matrix.build_candidate: %w", err)
	}
	m.CandidateID = candidateID
	m.CvFileID = cvFileID
	if _, err := s.CandidateMatrices.Upsert(ctx, m); err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=matrix.build_candidate.persist: %w", err)
	}
	return m, nil
}

// BuildCandidateMatrixFromFile re-extracts the newest CV of a candidate and
// rebuilds the matrix. Used by rerun-matching and bulk regeneration.
func (s MatrixService) BuildCandidateMatrixFromFile(ctx domain.Context, candidateID string) (domain.CandidateMatrix, error) {
	f, err := s.CvFiles.LatestByCandidate(ctx, candidateID)
	if err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=matrix.latest_file: %w", err)
	}
	text, err := s.Extractor.ExtractPDF(ctx, f.FilePath)
	if err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=matrix.extract: %w", err)
	}
	return s.BuildCandidateMatrix(ctx, candidateID, f.ID, text)
}

// BuildJobMatrix generates and persists the requirement matrix of a job.
func (s MatrixService) BuildJobMatrix(ctx domain.Context, j domain.Job) (domain.JobMatrix, error) {
	m, err := retrySchema(func() (domain.JobMatrix, error) {
		return s.LLM.GenerateJobMatrix(ctx, j.Title, j.Description, j.MustHaveSkills, j.NiceToHaveSkills)
	})
	if err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=matrix.build_job: %w", err)
	}
	m.JobID = j.ID
	if _, err := s.JobMatrices.Upsert(ctx, m); err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=matrix.build_job.persist: %w", err)
	}
	return m, nil
}

// ValidateJobMatrix checks a manually edited matrix before it replaces the
// generated one.
func ValidateJobMatrix(m domain.JobMatrix) error {
	if m.ExperienceWeight < 0 || m.LocationWeight < 0 || m.DomainWeight < 0 {
		return fmt.Errorf("%w: component weights must be non-negative", domain.ErrInvalidArgument)
	}
	if m.SkillsWeight() <= 0 {
		return fmt.Errorf("%w: component weights must sum below 100", domain.ErrInvalidArgument)
	}
	for _, s := range append(append([]domain.WeightedSkill{}, m.RequiredSkills...), m.PreferredSkills...) {
		if s.Skill == "" {
			return fmt.Errorf("%w: skill name must not be empty", domain.ErrInvalidArgument)
		}
		if s.Weight < 0 || s.Weight > 100 {
			return fmt.Errorf("%w: skill weight %d out of range", domain.ErrInvalidArgument, s.Weight)
		}
	}
	return nil
}
