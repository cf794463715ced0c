package usecase_test

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// In-memory fakes for the repository and adapter ports. They mirror the store
// semantics the real implementations guarantee (email uniqueness, pair-unique
// match upserts, status preservation).

type fakeCandidateRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Candidate
	// files receives the CvFile side of CreateWithFile when wired.
	files *fakeCvFileRepo
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{byID: make(map[string]domain.Candidate)}
}

func (r *fakeCandidateRepo) insert(c domain.Candidate) (string, error) {
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, c.Email) {
			return "", fmt.Errorf("op=candidate.create: %w", domain.ErrConflict)
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()
	r.byID[c.ID] = c
	return c.ID, nil
}

func (r *fakeCandidateRepo) Create(_ domain.Context, c domain.Candidate) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(c)
}

func (r *fakeCandidateRepo) CreateWithFile(ctx domain.Context, c domain.Candidate, f domain.CvFile) (string, string, error) {
	r.mu.Lock()
	id, err := r.insert(c)
	r.mu.Unlock()
	if err != nil {
		return "", "", err
	}
	f.CandidateID = id
	fileID := uuid.New().String()
	if r.files != nil {
		f.ID = fileID
		fileID, err = r.files.Create(ctx, f)
		if err != nil {
			return "", "", err
		}
	}
	return id, fileID, nil
}

func (r *fakeCandidateRepo) Get(_ domain.Context, id string) (domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (r *fakeCandidateRepo) FindByEmail(_ domain.Context, email string) (domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return domain.Candidate{}, fmt.Errorf("op=candidate.find_by_email: %w", domain.ErrNotFound)
}

func (r *fakeCandidateRepo) List(_ domain.Context) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Candidate, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCandidateRepo) Delete(_ domain.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("op=candidate.delete: %w", domain.ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

type fakeCvFileRepo struct {
	mu   sync.Mutex
	byID map[string]domain.CvFile
}

func newFakeCvFileRepo() *fakeCvFileRepo { return &fakeCvFileRepo{byID: make(map[string]domain.CvFile)} }

func (r *fakeCvFileRepo) Create(_ domain.Context, f domain.CvFile) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.UploadedAt = time.Now().UTC()
	r.byID[f.ID] = f
	return f.ID, nil
}

func (r *fakeCvFileRepo) Get(_ domain.Context, id string) (domain.CvFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return domain.CvFile{}, fmt.Errorf("op=cv_file.get: %w", domain.ErrNotFound)
	}
	return f, nil
}

func (r *fakeCvFileRepo) UpdateStatus(_ domain.Context, id string, status domain.CvFileStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("op=cv_file.update_status: %w", domain.ErrNotFound)
	}
	f.Status = status
	r.byID[id] = f
	return nil
}

func (r *fakeCvFileRepo) LatestByCandidate(_ domain.Context, candidateID string) (domain.CvFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest domain.CvFile
	found := false
	for _, f := range r.byID {
		if f.CandidateID != candidateID {
			continue
		}
		if !found || f.UploadedAt.After(latest.UploadedAt) {
			latest, found = f, true
		}
	}
	if !found {
		return domain.CvFile{}, fmt.Errorf("op=cv_file.latest: %w", domain.ErrNotFound)
	}
	return latest, nil
}

type fakeCandidateMatrixRepo struct {
	mu          sync.Mutex
	byCandidate map[string]domain.CandidateMatrix
	upserts     atomic.Int64
}

func newFakeCandidateMatrixRepo() *fakeCandidateMatrixRepo {
	return &fakeCandidateMatrixRepo{byCandidate: make(map[string]domain.CandidateMatrix)}
}

func (r *fakeCandidateMatrixRepo) Upsert(_ domain.Context, m domain.CandidateMatrix) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts.Add(1)
	if existing, ok := r.byCandidate[m.CandidateID]; ok {
		m.ID = existing.ID
	} else if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.byCandidate[m.CandidateID] = m
	return m.ID, nil
}

func (r *fakeCandidateMatrixRepo) GetByCandidate(_ domain.Context, candidateID string) (domain.CandidateMatrix, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byCandidate[candidateID]
	if !ok {
		return domain.CandidateMatrix{}, fmt.Errorf("op=candidate_matrix.get: %w", domain.ErrNotFound)
	}
	return m, nil
}

func (r *fakeCandidateMatrixRepo) ListCandidateIDs(_ domain.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.byCandidate))
	for id := range r.byCandidate {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeJobRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Job
}

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{byID: make(map[string]domain.Job)} }

func (r *fakeJobRepo) Create(_ domain.Context, j domain.Job) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	j.CreatedAt = time.Now().UTC()
	r.byID[j.ID] = j
	return j.ID, nil
}

func (r *fakeJobRepo) Get(_ domain.Context, id string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
	}
	return j, nil
}

func (r *fakeJobRepo) Update(_ domain.Context, j domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[j.ID]; !ok {
		return fmt.Errorf("op=job.update: %w", domain.ErrNotFound)
	}
	r.byID[j.ID] = j
	return nil
}

func (r *fakeJobRepo) ListByStatus(_ domain.Context, status domain.JobStatus) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Job
	for _, j := range r.byID {
		if j.Status == status {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeJobMatrixRepo struct {
	mu    sync.Mutex
	byJob map[string]domain.JobMatrix
}

func newFakeJobMatrixRepo() *fakeJobMatrixRepo {
	return &fakeJobMatrixRepo{byJob: make(map[string]domain.JobMatrix)}
}

func (r *fakeJobMatrixRepo) Upsert(_ domain.Context, m domain.JobMatrix) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byJob[m.JobID]; ok {
		m.ID = existing.ID
	} else if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.byJob[m.JobID] = m
	return m.ID, nil
}

func (r *fakeJobMatrixRepo) GetByJob(_ domain.Context, jobID string) (domain.JobMatrix, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byJob[jobID]
	if !ok {
		return domain.JobMatrix{}, fmt.Errorf("op=job_matrix.get: %w", domain.ErrNotFound)
	}
	return m, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	byPair  map[string]domain.Match
	upserts atomic.Int64
}

func newFakeMatchRepo() *fakeMatchRepo { return &fakeMatchRepo{byPair: make(map[string]domain.Match)} }

func pairKey(candidateID, jobID string) string { return candidateID + "|" + jobID }

func (r *fakeMatchRepo) Upsert(_ domain.Context, m domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts.Add(1)
	key := pairKey(m.CandidateID, m.JobID)
	if existing, ok := r.byPair[key]; ok {
		// Human triage survives recomputation.
		m.ID = existing.ID
		m.Status = existing.Status
	} else {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.Status == "" {
			m.Status = domain.MatchPending
		}
	}
	r.byPair[key] = m
	return nil
}

func (r *fakeMatchRepo) ListByJob(_ domain.Context, jobID string) ([]domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Match
	for _, m := range r.byPair {
		if m.JobID == jobID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (r *fakeMatchRepo) ListByCandidate(_ domain.Context, candidateID string) ([]domain.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Match
	for _, m := range r.byPair {
		if m.CandidateID == candidateID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// setStatus emulates a recruiter triaging a match.
func (r *fakeMatchRepo) setStatus(candidateID, jobID string, status domain.MatchStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byPair[pairKey(candidateID, jobID)]
	m.Status = status
	r.byPair[pairKey(candidateID, jobID)] = m
}

func (r *fakeMatchRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPair)
}

// fakeLLM answers with canned values; individual calls are overridable.
type fakeLLM struct {
	infoFn      func(cvText string) (domain.CandidateInfo, error)
	matrixFn    func(cvText string) (domain.CandidateMatrix, error)
	jobMatrixFn func(title string) (domain.JobMatrix, error)
	jobInfoFn   func(text string) (domain.JobPosting, error)

	infoCalls      atomic.Int64
	matrixCalls    atomic.Int64
	jobMatrixCalls atomic.Int64
}

func (f *fakeLLM) ExtractCandidateInfo(_ domain.Context, cvText string) (domain.CandidateInfo, error) {
	f.infoCalls.Add(1)
	if f.infoFn != nil {
		return f.infoFn(cvText)
	}
	return domain.CandidateInfo{Name: "Jane Doe", Email: "jane@example.com"}, nil
}

func (f *fakeLLM) GenerateCandidateMatrix(_ domain.Context, cvText string) (domain.CandidateMatrix, error) {
	f.matrixCalls.Add(1)
	if f.matrixFn != nil {
		return f.matrixFn(cvText)
	}
	return domain.CandidateMatrix{
		Skills:               []domain.CandidateSkill{{Name: "Python", Level: domain.LevelAdvanced, YearsOfExperience: 4}},
		TotalYearsExperience: 4,
		Confidence:           0.9,
		GeneratedAt:          time.Now().UTC(),
		ModelVersion:         "fake-model",
	}, nil
}

func (f *fakeLLM) GenerateJobMatrix(_ domain.Context, title, _ string, _, _ []string) (domain.JobMatrix, error) {
	f.jobMatrixCalls.Add(1)
	if f.jobMatrixFn != nil {
		return f.jobMatrixFn(title)
	}
	return domain.JobMatrix{
		RequiredSkills:   []domain.WeightedSkill{{Skill: "Python", Weight: 80}},
		ExperienceWeight: 30, LocationWeight: 10, DomainWeight: 10,
		GeneratedAt:  time.Now().UTC(),
		ModelVersion: "fake-model",
	}, nil
}

func (f *fakeLLM) ExtractJobInfo(_ domain.Context, text string) (domain.JobPosting, error) {
	if f.jobInfoFn != nil {
		return f.jobInfoFn(text)
	}
	return domain.JobPosting{
		Title: "Backend Engineer", LocationType: "remote", CountryCode: "DE",
		Description: "Build services.", MustHaveSkills: []string{"Python"},
		MinYearsExperience: 3, SeniorityLevel: "mid",
	}, nil
}

func (f *fakeLLM) ModelVersion() string { return "fake-model" }

type fakeExtractor struct {
	pdfFn  func(path string) (string, error)
	htmlFn func(url string) (string, error)
}

func (f *fakeExtractor) ExtractPDF(_ domain.Context, path string) (string, error) {
	if f.pdfFn != nil {
		return f.pdfFn(path)
	}
	return "Jane Doe\njane@example.com\nPython developer with four years of experience.", nil
}

func (f *fakeExtractor) FetchAndExtractHTML(_ domain.Context, url string) (string, error) {
	if f.htmlFn != nil {
		return f.htmlFn(url)
	}
	return "Backend Engineer position. Python required.", nil
}
