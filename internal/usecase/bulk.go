package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hiretrack/hiretrack/internal/adapter/observability"
	"github.com/hiretrack/hiretrack/internal/domain"
)

// matrixBuilder and matchFanouter are the slices of MatrixService and
// FanoutService the orchestrator needs; narrowed for test stubbing.
type matrixBuilder interface {
	BuildCandidateMatrixFromFile(ctx domain.Context, candidateID string) (domain.CandidateMatrix, error)
}

type matchFanouter interface {
	FanOutCandidate(ctx domain.Context, candidateID string) error
}

// defaultBulkRetention is how long terminal bulk jobs stay queryable.
const defaultBulkRetention = time.Hour

// BulkOrchestrator runs corpus-wide sweeps as tracked in-process jobs. One
// running job per type; terminal snapshots are retained for an hour.
type BulkOrchestrator struct {
	Candidates        domain.CandidateRepository
	CandidateMatrices domain.CandidateMatrixRepository
	Matrix            matrixBuilder
	Fanout            matchFanouter
	// MatrixConcurrency bounds LLM-heavy steps, MatchConcurrency matrix-only.
	MatrixConcurrency int
	MatchConcurrency  int
	Retention         time.Duration
	Log               *slog.Logger

	mu   sync.Mutex
	jobs map[string]*bulkJob
}

type bulkJob struct {
	mu        sync.Mutex
	snapshot  domain.BulkJob
	cancelled bool
}

func NewBulkOrchestrator(
	c domain.CandidateRepository, cm domain.CandidateMatrixRepository,
	matrix matrixBuilder, fanout matchFanouter,
	matrixConcurrency, matchConcurrency int, log *slog.Logger,
) *BulkOrchestrator {
	if matrixConcurrency <= 0 {
		matrixConcurrency = 1
	}
	if matchConcurrency <= 0 {
		matchConcurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &BulkOrchestrator{
		Candidates: c, CandidateMatrices: cm, Matrix: matrix, Fanout: fanout,
		MatrixConcurrency: matrixConcurrency, MatchConcurrency: matchConcurrency,
		Retention: defaultBulkRetention, Log: log,
		jobs: make(map[string]*bulkJob),
	}
}

// Start registers a new bulk job and returns its id immediately. A second
// running job of the same type is rejected with ErrConflict.
func (o *BulkOrchestrator) Start(jobType domain.BulkJobType, onlyMissing bool) (string, error) {
	switch jobType {
	case domain.BulkRegenerateMatrices, domain.BulkRerunMatching, domain.BulkRegenerateAndMatch:
	default:
		return "", fmt.Errorf("op=bulk.start: %w: unknown type %q", domain.ErrInvalidArgument, jobType)
	}

	o.mu.Lock()
	for _, j := range o.jobs {
		j.mu.Lock()
		running := j.snapshot.Type == jobType && j.snapshot.Status == domain.BulkRunning
		j.mu.Unlock()
		if running {
			o.mu.Unlock()
			return "", fmt.Errorf("op=bulk.start: %w: a %s job is already running", domain.ErrConflict, jobType)
		}
	}
	id := uuid.New().String()
	j := &bulkJob{snapshot: domain.BulkJob{
		ID:          id,
		Type:        jobType,
		Status:      domain.BulkRunning,
		StartedAt:   time.Now().UTC(),
		OnlyMissing: onlyMissing,
	}}
	o.jobs[id] = j
	o.mu.Unlock()

	observability.BulkJobsRunning.WithLabelValues(string(jobType)).Inc()
	go o.run(j)
	return id, nil
}

// Status returns a snapshot copy of a tracked job.
func (o *BulkOrchestrator) Status(jobID string) (domain.BulkJob, error) {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return domain.BulkJob{}, fmt.Errorf("op=bulk.status: %w", domain.ErrNotFound)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := j.snapshot
	snap.Errors = append([]domain.BulkError(nil), j.snapshot.Errors...)
	return snap, nil
}

// Cancel marks a running job cancelled. The in-flight target finishes and
// counts toward processed; no new target starts afterwards.
func (o *BulkOrchestrator) Cancel(jobID string) (domain.BulkJob, error) {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return domain.BulkJob{}, fmt.Errorf("op=bulk.cancel: %w", domain.ErrNotFound)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.snapshot.Status == domain.BulkRunning {
		j.cancelled = true
		j.snapshot.Status = domain.BulkCancelled
		now := time.Now().UTC()
		j.snapshot.CompletedAt = &now
		observability.BulkJobsRunning.WithLabelValues(string(j.snapshot.Type)).Dec()
	}
	snap := j.snapshot
	snap.Errors = append([]domain.BulkError(nil), j.snapshot.Errors...)
	return snap, nil
}

func (j *bulkJob) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// target is one unit of bulk work.
type target struct {
	id   string
	name string
}

func (o *BulkOrchestrator) run(j *bulkJob) {
	ctx := context.Background()
	j.mu.Lock()
	jobType := j.snapshot.Type
	onlyMissing := j.snapshot.OnlyMissing
	j.mu.Unlock()

	var failed bool
	switch jobType {
	case domain.BulkRegenerateMatrices:
		failed = !o.runMatrixStep(ctx, j, onlyMissing)
	case domain.BulkRerunMatching:
		failed = !o.runMatchStep(ctx, j)
	case domain.BulkRegenerateAndMatch:
		// Step 2 deliberately sweeps every candidate with a matrix, not just
		// the subset regenerated in step 1.
		failed = !o.runMatrixStep(ctx, j, onlyMissing)
		if !failed && !j.isCancelled() {
			failed = !o.runMatchStep(ctx, j)
		}
	}
	o.finish(j, failed)
}

// matrixTargets lists candidates for regeneration, optionally only those
// without a matrix.
func (o *BulkOrchestrator) matrixTargets(ctx domain.Context, onlyMissing bool) ([]target, error) {
	candidates, err := o.Candidates.List(ctx)
	if err != nil {
		return nil, err
	}
	var withMatrix map[string]struct{}
	if onlyMissing {
		ids, err := o.CandidateMatrices.ListCandidateIDs(ctx)
		if err != nil {
			return nil, err
		}
		withMatrix = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			withMatrix[id] = struct{}{}
		}
	}
	var out []target
	for _, c := range candidates {
		if onlyMissing {
			if _, ok := withMatrix[c.ID]; ok {
				continue
			}
		}
		out = append(out, target{id: c.ID, name: c.Name})
	}
	return out, nil
}

func (o *BulkOrchestrator) runMatrixStep(ctx domain.Context, j *bulkJob, onlyMissing bool) bool {
	targets, err := o.matrixTargets(ctx, onlyMissing)
	if err != nil {
		o.recordSetupFailure(j, err)
		return false
	}
	o.addTotal(j, len(targets))
	o.sweep(ctx, j, targets, o.MatrixConcurrency, func(ctx domain.Context, t target) error {
		_, err := o.Matrix.BuildCandidateMatrixFromFile(ctx, t.id)
		return err
	})
	return true
}

func (o *BulkOrchestrator) runMatchStep(ctx domain.Context, j *bulkJob) bool {
	ids, err := o.CandidateMatrices.ListCandidateIDs(ctx)
	if err != nil {
		o.recordSetupFailure(j, err)
		return false
	}
	targets := make([]target, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, target{id: id, name: id})
	}
	o.addTotal(j, len(targets))
	o.sweep(ctx, j, targets, o.MatchConcurrency, func(ctx domain.Context, t target) error {
		return o.Fanout.FanOutCandidate(ctx, t.id)
	})
	return true
}

// sweep runs fn over the targets with bounded concurrency. Cancellation is
// checked before each target starts; an in-flight target always completes and
// is counted.
func (o *BulkOrchestrator) sweep(ctx domain.Context, j *bulkJob, targets []target, concurrency int, fn func(domain.Context, target) error) {
	jobType := string(j.snapshot.Type)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, t := range targets {
		if j.isCancelled() {
			break
		}
		sem <- struct{}{}
		// A cancel may have landed while this slot was blocked behind an
		// in-flight target; re-check before the target starts.
		if j.isCancelled() {
			<-sem
			break
		}
		wg.Add(1)
		j.mu.Lock()
		j.snapshot.CurrentTarget = t.name
		j.mu.Unlock()
		go func(t target) {
			defer wg.Done()
			defer func() { <-sem }()
			err := fn(ctx, t)
			j.mu.Lock()
			j.snapshot.Processed++
			if err != nil {
				j.snapshot.Failed++
				j.snapshot.Errors = append(j.snapshot.Errors, domain.BulkError{
					TargetID: t.id, Name: t.name, Error: err.Error(),
				})
			} else {
				j.snapshot.Succeeded++
			}
			j.mu.Unlock()
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			observability.BulkTargetsTotal.WithLabelValues(jobType, outcome).Inc()
		}(t)
	}
	wg.Wait()
}

func (o *BulkOrchestrator) addTotal(j *bulkJob, n int) {
	j.mu.Lock()
	j.snapshot.Total += n
	j.mu.Unlock()
}

func (o *BulkOrchestrator) recordSetupFailure(j *bulkJob, err error) {
	o.Log.Error("bulk job setup failed", slog.Any("error", err))
	j.mu.Lock()
	j.snapshot.Errors = append(j.snapshot.Errors, domain.BulkError{Error: err.Error()})
	j.mu.Unlock()
}

func (o *BulkOrchestrator) finish(j *bulkJob, failed bool) {
	j.mu.Lock()
	if j.snapshot.Status == domain.BulkRunning {
		if failed {
			j.snapshot.Status = domain.BulkFailed
		} else {
			j.snapshot.Status = domain.BulkCompleted
		}
		now := time.Now().UTC()
		j.snapshot.CompletedAt = &now
		observability.BulkJobsRunning.WithLabelValues(string(j.snapshot.Type)).Dec()
	}
	j.snapshot.CurrentTarget = ""
	id := j.snapshot.ID
	j.mu.Unlock()

	retention := o.Retention
	if retention <= 0 {
		retention = defaultBulkRetention
	}
	time.AfterFunc(retention, func() {
		o.mu.Lock()
		delete(o.jobs, id)
		o.mu.Unlock()
	})
}
