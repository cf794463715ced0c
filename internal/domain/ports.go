package domain

// Repositories (ports). Implementations live in internal/adapter/repo.

// CandidateRepository persists candidates. Email uniqueness is enforced
// case-insensitively by the store; violations surface as ErrConflict.
type CandidateRepository interface {
	Create(ctx Context, c Candidate) (string, error)
	// CreateWithFile persists the candidate and its CV file inside a single
	// transaction so a uniqueness race cannot leave an orphan file row.
	CreateWithFile(ctx Context, c Candidate, f CvFile) (candidateID, cvFileID string, err error)
	Get(ctx Context, id string) (Candidate, error)
	FindByEmail(ctx Context, email string) (Candidate, error)
	List(ctx Context) ([]Candidate, error)
	Delete(ctx Context, id string) error
}

// CvFileRepository persists uploaded CV files.
type CvFileRepository interface {
	Create(ctx Context, f CvFile) (string, error)
	Get(ctx Context, id string) (CvFile, error)
	UpdateStatus(ctx Context, id string, status CvFileStatus) error
	LatestByCandidate(ctx Context, candidateID string) (CvFile, error)
}

// CandidateMatrixRepository keeps one authoritative matrix per candidate.
type CandidateMatrixRepository interface {
	// Upsert replaces the candidate's matrix in place, refreshing GeneratedAt.
	Upsert(ctx Context, m CandidateMatrix) (string, error)
	GetByCandidate(ctx Context, candidateID string) (CandidateMatrix, error)
	// ListCandidateIDs returns ids of candidates that have a matrix.
	ListCandidateIDs(ctx Context) ([]string, error)
}

// JobRepository persists jobs.
type JobRepository interface {
	Create(ctx Context, j Job) (string, error)
	Get(ctx Context, id string) (Job, error)
	Update(ctx Context, j Job) error
	ListByStatus(ctx Context, status JobStatus) ([]Job, error)
}

// JobMatrixRepository keeps the 1:1 requirement matrix of each job.
type JobMatrixRepository interface {
	Upsert(ctx Context, m JobMatrix) (string, error)
	GetByJob(ctx Context, jobID string) (JobMatrix, error)
}

// MatchRepository persists match results, unique per (candidate, job).
type MatchRepository interface {
	// Upsert writes score, breakdown, explanation, gaps and calculated_at.
	// The human Status of an existing row is left untouched.
	Upsert(ctx Context, m Match) error
	ListByJob(ctx Context, jobID string) ([]Match, error)
	ListByCandidate(ctx Context, candidateID string) ([]Match, error)
}

// CandidateInfo is the header-level extraction from a CV.
type CandidateInfo struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Headline    string `json:"headline,omitempty"`
}

// JobPosting is the structured extraction of a free-text job posting.
type JobPosting struct {
	Title              string   `json:"title"`
	Department         string   `json:"department,omitempty"`
	Company            string   `json:"company,omitempty"`
	LocationType       string   `json:"location_type"`
	CountryCode        string   `json:"country_code"`
	City               string   `json:"city"`
	Description        string   `json:"description"`
	MustHaveSkills     []string `json:"must_have_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinYearsExperience int      `json:"min_years_experience"`
	SeniorityLevel     string   `json:"seniority_level"`
}

// LLMClient is the port for the language-model provider (port, one method per
// logical task). Implementations enforce the JSON schema of each call and
// re-ask once before failing with ErrSchemaInvalid. All methods are safe for
// concurrent use and bounded by a global outbound concurrency cap.
type LLMClient interface {
	ExtractCandidateInfo(ctx Context, cvText string) (CandidateInfo, error)
	GenerateCandidateMatrix(ctx Context, cvText string) (CandidateMatrix, error)
	GenerateJobMatrix(ctx Context, title, description string, mustHave, niceToHave []string) (JobMatrix, error)
	ExtractJobInfo(ctx Context, postingText string) (JobPosting, error)
	// ModelVersion stamps every produced matrix.
	ModelVersion() string
}

// TextExtractor is the port for turning a PDF path or a URL into plain text.
type TextExtractor interface {
	ExtractPDF(ctx Context, path string) (string, error)
	FetchAndExtractHTML(ctx Context, url string) (string, error)
}
