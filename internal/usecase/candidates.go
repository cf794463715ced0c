package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// CandidateService exposes the candidate pool and per-candidate rematching.
type CandidateService struct {
	Candidates        domain.CandidateRepository
	CandidateMatrices domain.CandidateMatrixRepository
	MatchRepo         domain.MatchRepository
	Matrix            MatrixService
	Fanout            FanoutService
	Runner            *Runner
	Log               *slog.Logger
}

func (s CandidateService) List(ctx domain.Context) ([]domain.Candidate, error) {
	return s.Candidates.List(ctx)
}

func (s CandidateService) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	return s.Candidates.Get(ctx, id)
}

// Delete removes a candidate; CV files, matrix and matches cascade in the
// store.
func (s CandidateService) Delete(ctx domain.Context, id string) error {
	return s.Candidates.Delete(ctx, id)
}

// Matches lists the scored jobs of one candidate, best first.
func (s CandidateService) Matches(ctx domain.Context, id string) ([]domain.Match, error) {
	if _, err := s.Candidates.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("op=candidates.matches: %w", err)
	}
	return s.MatchRepo.ListByCandidate(ctx, id)
}

// RerunMatching schedules a fan-out for one candidate. With regenerate=true
// (or when no matrix exists yet) the matrix is rebuilt from the newest CV
// first; the fan-out then observes the fresh matrix.
func (s CandidateService) RerunMatching(ctx domain.Context, id string, regenerate bool) error {
	if _, err := s.Candidates.Get(ctx, id); err != nil {
		return fmt.Errorf("op=candidates.rerun_matching: %w", err)
	}
	if !regenerate {
		if _, err := s.CandidateMatrices.GetByCandidate(ctx, id); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("op=candidates.rerun_matching: %w", err)
			}
			regenerate = true
		}
	}
	rebuild := regenerate
	s.Runner.Go("candidate-rerun-matching", func(bg context.Context) {
		if rebuild {
			if _, err := s.Matrix.BuildCandidateMatrixFromFile(bg, id); err != nil {
				s.Log.Error("matrix rebuild failed", slog.String("candidate_id", id), slog.Any("error", err))
				return
			}
		}
		if err := s.Fanout.FanOutCandidate(bg, id); err != nil {
			s.Log.Error("fan-out failed", slog.String("candidate_id", id), slog.Any("error", err))
		}
	})
	return nil
}
