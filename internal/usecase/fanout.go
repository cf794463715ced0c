package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hiretrack/hiretrack/internal/adapter/observability"
	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/match"
)

// FanoutService recomputes matches when a candidate or job matrix becomes
// ready. Each (candidate, job) pair is scored independently; a failing pair is
// logged and skipped, never aborting the sweep.
type FanoutService struct {
	Candidates        domain.CandidateRepository
	CandidateMatrices domain.CandidateMatrixRepository
	Jobs              domain.JobRepository
	JobMatrices       domain.JobMatrixRepository
	Matches           domain.MatchRepository
	Concurrency       int
	Log               *slog.Logger
}

func NewFanoutService(
	c domain.CandidateRepository, cm domain.CandidateMatrixRepository,
	j domain.JobRepository, jm domain.JobMatrixRepository,
	m domain.MatchRepository, concurrency int, log *slog.Logger,
) FanoutService {
	if concurrency <= 0 {
		concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return FanoutService{
		Candidates: c, CandidateMatrices: cm, Jobs: j, JobMatrices: jm,
		Matches: m, Concurrency: concurrency, Log: log,
	}
}

func candidateProfile(c domain.Candidate, m domain.CandidateMatrix) match.CandidateProfile {
	roles := make([]string, 0, len(m.Roles)+len(c.Roles))
	roles = append(roles, m.Roles...)
	roles = append(roles, c.Roles...)
	return match.CandidateProfile{
		Matrix:   m,
		Country:  c.Country,
		Headline: c.Headline,
		Roles:    roles,
	}
}

func jobProfile(j domain.Job, m domain.JobMatrix) match.JobProfile {
	return match.JobProfile{
		Matrix:       m,
		Title:        j.Title,
		Department:   j.Department,
		Description:  j.Description,
		Country:      j.Country,
		LocationType: j.LocationType,
		MinYears:     j.MinYearsExperience,
		Seniority:    j.SeniorityLevel,
	}
}

// computePair filters, scores and upserts one pair. Filtered-out pairs leave
// no match row behind.
func (s FanoutService) computePair(ctx domain.Context, cp match.CandidateProfile, jp match.JobProfile, candidateID, jobID string) error {
	if !match.ShouldConsider(cp, jp) {
		return nil
	}
	res := match.Score(cp, jp)
	observability.MatchesComputedTotal.Inc()
	observability.MatchScoreHistogram.Observe(float64(res.Score))
	return s.Matches.Upsert(ctx, domain.Match{
		CandidateID:  candidateID,
		JobID:        jobID,
		Score:        res.Score,
		Breakdown:    res.Breakdown,
		Explanation:  res.Explanation,
		Gaps:         res.Gaps,
		CalculatedAt: time.Now().UTC(),
	})
}

// FanOutCandidate scores one candidate against every published job that has a
// matrix.
func (s FanoutService) FanOutCandidate(ctx domain.Context, candidateID string) error {
	c, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("op=fanout.candidate: %w", err)
	}
	cm, err := s.CandidateMatrices.GetByCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("op=fanout.candidate_matrix: %w", err)
	}
	jobs, err := s.Jobs.ListByStatus(ctx, domain.JobPublished)
	if err != nil {
		return fmt.Errorf("op=fanout.list_jobs: %w", err)
	}
	cp := candidateProfile(c, cm)

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup
	for _, j := range jobs {
		jm, err := s.JobMatrices.GetByJob(ctx, j.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.Log.Warn("fanout: job matrix load failed",
					slog.String("job_id", j.ID), slog.Any("error", err))
			}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(j domain.Job, jm domain.JobMatrix) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.computePair(ctx, cp, jobProfile(j, jm), candidateID, j.ID); err != nil {
				s.Log.Warn("fanout: pair failed",
					slog.String("candidate_id", candidateID),
					slog.String("job_id", j.ID), slog.Any("error", err))
			}
		}(j, jm)
	}
	wg.Wait()
	return nil
}

// FanOutJob scores every candidate with a matrix against one job.
func (s FanoutService) FanOutJob(ctx domain.Context, jobID string) error {
	j, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("op=fanout.job: %w", err)
	}
	jm, err := s.JobMatrices.GetByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("op=fanout.job_matrix: %w", err)
	}
	ids, err := s.CandidateMatrices.ListCandidateIDs(ctx)
	if err != nil {
		return fmt.Errorf("op=fanout.list_candidates: %w", err)
	}
	jp := jobProfile(j, jm)

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup
	for _, candidateID := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(candidateID string) {
			defer wg.Done()
			defer func() { <-sem }()
			c, err := s.Candidates.Get(ctx, candidateID)
			if err != nil {
				s.Log.Warn("fanout: candidate load failed",
					slog.String("candidate_id", candidateID), slog.Any("error", err))
				return
			}
			cm, err := s.CandidateMatrices.GetByCandidate(ctx, candidateID)
			if err != nil {
				s.Log.Warn("fanout: candidate matrix load failed",
					slog.String("candidate_id", candidateID), slog.Any("error", err))
				return
			}
			if err := s.computePair(ctx, candidateProfile(c, cm), jp, candidateID, jobID); err != nil {
				s.Log.Warn("fanout: pair failed",
					slog.String("candidate_id", candidateID),
					slog.String("job_id", jobID), slog.Any("error", err))
			}
		}(candidateID)
	}
	wg.Wait()
	return nil
}
