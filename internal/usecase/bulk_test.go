package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/usecase"
)

// stubBuilder and stubFanouter stand in for the matrix and fan-out services.
type stubBuilder struct {
	matrices *fakeCandidateMatrixRepo
	delay    time.Duration
	calls    atomic.Int64
	err      error
}

func (s *stubBuilder) BuildCandidateMatrixFromFile(ctx domain.Context, candidateID string) (domain.CandidateMatrix, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return domain.CandidateMatrix{}, s.err
	}
	m := domain.CandidateMatrix{CandidateID: candidateID}
	if s.matrices != nil {
		if _, err := s.matrices.Upsert(ctx, m); err != nil {
			return domain.CandidateMatrix{}, err
		}
	}
	return m, nil
}

type stubFanouter struct {
	delay time.Duration
	calls atomic.Int64
	err   error
}

func (s *stubFanouter) FanOutCandidate(domain.Context, string) error {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.err
}

func seedCandidates(t *testing.T, repo *fakeCandidateRepo, matrices *fakeCandidateMatrixRepo, total, withMatrix int) []string {
	t.Helper()
	ids := make([]string, 0, total)
	for i := 0; i < total; i++ {
		id, err := repo.Create(context.Background(), domain.Candidate{
			Name: "c", Email: uniqueEmail(i),
		})
		require.NoError(t, err)
		ids = append(ids, id)
		if i < withMatrix {
			_, err = matrices.Upsert(context.Background(), domain.CandidateMatrix{CandidateID: id})
			require.NoError(t, err)
		}
	}
	return ids
}

func uniqueEmail(i int) string {
	return "c" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('a'+(i/676)%26)) + "@example.com"
}

func waitTerminal(t *testing.T, o *usecase.BulkOrchestrator, id string) domain.BulkJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := o.Status(id)
		require.NoError(t, err)
		if snap.Status != domain.BulkRunning {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("bulk job did not reach a terminal state")
	return domain.BulkJob{}
}

func TestBulk_RegenerateMatrices_OnlyMissing(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 10, 4)
	builder := &stubBuilder{matrices: matrices}
	o := usecase.NewBulkOrchestrator(candidates, matrices, builder, &stubFanouter{}, 2, 4, nil)

	id, err := o.Start(domain.BulkRegenerateMatrices, true)
	require.NoError(t, err)
	snap := waitTerminal(t, o, id)

	assert.Equal(t, domain.BulkCompleted, snap.Status)
	assert.Equal(t, 6, snap.Total)
	assert.Equal(t, 6, snap.Processed)
	assert.Equal(t, 6, snap.Succeeded)
	assert.Equal(t, 0, snap.Failed)
	assert.Equal(t, int64(6), builder.calls.Load())
	require.NotNil(t, snap.CompletedAt)
}

func TestBulk_FailuresAreRecordedPerTarget(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 3, 0)
	builder := &stubBuilder{err: errors.New("model exploded")}
	o := usecase.NewBulkOrchestrator(candidates, matrices, builder, &stubFanouter{}, 1, 4, nil)

	id, err := o.Start(domain.BulkRegenerateMatrices, false)
	require.NoError(t, err)
	snap := waitTerminal(t, o, id)

	assert.Equal(t, domain.BulkCompleted, snap.Status)
	assert.Equal(t, 3, snap.Failed)
	assert.Equal(t, snap.Processed, snap.Succeeded+snap.Failed)
	require.Len(t, snap.Errors, 3)
	assert.Contains(t, snap.Errors[0].Error, "model exploded")
}

func TestBulk_ConflictPerType(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 20, 20)
	fanouter := &stubFanouter{delay: 20 * time.Millisecond}
	o := usecase.NewBulkOrchestrator(candidates, matrices, &stubBuilder{}, fanouter, 1, 2, nil)

	id, err := o.Start(domain.BulkRerunMatching, false)
	require.NoError(t, err)

	_, err = o.Start(domain.BulkRerunMatching, false)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// A different type may run concurrently.
	_, err = o.Start(domain.BulkRegenerateMatrices, false)
	assert.NoError(t, err)

	waitTerminal(t, o, id)
	_, err = o.Start(domain.BulkRerunMatching, false)
	assert.NoError(t, err)
}

func TestBulk_CancelStopsNewTasks(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 200, 200)
	fanouter := &stubFanouter{delay: 5 * time.Millisecond}
	o := usecase.NewBulkOrchestrator(candidates, matrices, &stubBuilder{}, fanouter, 1, 4, nil)

	id, err := o.Start(domain.BulkRerunMatching, false)
	require.NoError(t, err)

	// Let some work happen, then cancel mid-flight.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := o.Status(id)
		require.NoError(t, err)
		if snap.Processed >= 10 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	snap, err := o.Cancel(id)
	require.NoError(t, err)
	assert.Equal(t, domain.BulkCancelled, snap.Status)
	require.NotNil(t, snap.CompletedAt)

	// In-flight tasks (at most the worker group size) may still land.
	time.Sleep(200 * time.Millisecond)
	settled, err := o.Status(id)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, settled.Processed, snap.Processed)
	assert.LessOrEqual(t, settled.Processed, snap.Processed+5)
	assert.Less(t, settled.Processed, settled.Total)

	// And then nothing moves.
	time.Sleep(300 * time.Millisecond)
	final, err := o.Status(id)
	require.NoError(t, err)
	assert.Equal(t, settled.Processed, final.Processed)
	assert.Equal(t, domain.BulkCancelled, final.Status)

	// Cancelling again is a no-op.
	again, err := o.Cancel(id)
	require.NoError(t, err)
	assert.Equal(t, final.Processed, again.Processed)
}

// gatedFanouter blocks its first call until released so a test can cancel the
// job while that target is in flight.
type gatedFanouter struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (s *gatedFanouter) FanOutCandidate(domain.Context, string) error {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
	}
	return nil
}

func TestBulk_CancelWhileTargetInFlight(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 3, 3)
	fanouter := &gatedFanouter{started: make(chan struct{}), release: make(chan struct{})}
	o := usecase.NewBulkOrchestrator(candidates, matrices, &stubBuilder{}, fanouter, 1, 1, nil)

	id, err := o.Start(domain.BulkRerunMatching, false)
	require.NoError(t, err)

	// Cancel while the first target holds the only worker slot, then let it
	// finish. The queued targets must never start.
	<-fanouter.started
	_, err = o.Cancel(id)
	require.NoError(t, err)
	close(fanouter.release)

	assert.Eventually(t, func() bool {
		snap, err := o.Status(id)
		require.NoError(t, err)
		return snap.Processed == 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	final, err := o.Status(id)
	require.NoError(t, err)
	assert.Equal(t, 1, final.Processed)
	assert.Equal(t, int64(1), fanouter.calls.Load())
	assert.Equal(t, domain.BulkCancelled, final.Status)
}

func TestBulk_RegenerateAndMatch_Step2CoversAllCandidates(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 5, 2)
	builder := &stubBuilder{matrices: matrices}
	fanouter := &stubFanouter{}
	o := usecase.NewBulkOrchestrator(candidates, matrices, builder, fanouter, 1, 4, nil)

	id, err := o.Start(domain.BulkRegenerateAndMatch, true)
	require.NoError(t, err)
	snap := waitTerminal(t, o, id)

	assert.Equal(t, domain.BulkCompleted, snap.Status)
	// Step 1 regenerates the 3 missing; step 2 rematches all 5 with a matrix.
	assert.Equal(t, int64(3), builder.calls.Load())
	assert.Equal(t, int64(5), fanouter.calls.Load())
	assert.Equal(t, 8, snap.Total)
	assert.Equal(t, 8, snap.Processed)
}

func TestBulk_UnknownTypeRejected(t *testing.T) {
	t.Parallel()
	o := usecase.NewBulkOrchestrator(newFakeCandidateRepo(), newFakeCandidateMatrixRepo(), &stubBuilder{}, &stubFanouter{}, 1, 1, nil)
	_, err := o.Start(domain.BulkJobType("defragment"), false)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestBulk_StatusUnknownJob(t *testing.T) {
	t.Parallel()
	o := usecase.NewBulkOrchestrator(newFakeCandidateRepo(), newFakeCandidateMatrixRepo(), &stubBuilder{}, &stubFanouter{}, 1, 1, nil)
	_, err := o.Status("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = o.Cancel("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBulk_TerminalJobsExpire(t *testing.T) {
	t.Parallel()
	candidates := newFakeCandidateRepo()
	matrices := newFakeCandidateMatrixRepo()
	seedCandidates(t, candidates, matrices, 2, 2)
	o := usecase.NewBulkOrchestrator(candidates, matrices, &stubBuilder{}, &stubFanouter{}, 1, 2, nil)
	o.Retention = 50 * time.Millisecond

	id, err := o.Start(domain.BulkRerunMatching, false)
	require.NoError(t, err)
	waitTerminal(t, o, id)

	assert.Eventually(t, func() bool {
		_, err := o.Status(id)
		return errors.Is(err, domain.ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}
