// Package domain holds the core entities, error taxonomy and ports of the
// matching platform. Adapters and usecases depend on this package; it depends
// on nothing but the standard library.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrPdfInvalid          = errors.New("pdf invalid")
	ErrFetchFailed         = errors.New("fetch failed")
	ErrInsufficientContent = errors.New("insufficient content")
	ErrSchemaInvalid       = errors.New("llm schema invalid")
	ErrUpstreamUnavailable = errors.New("llm unavailable")
	ErrNameUnrecoverable   = errors.New("name unrecoverable")
	ErrInternal            = errors.New("internal error")
)

// Context is an alias so ports read cleanly without re-importing std context.
type Context = context.Context

// Candidate is a person in the talent pool. Email is unique case-insensitively.
type Candidate struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Country   string
	Headline  string
	Roles     []string
	CreatedAt time.Time
}

// CvFileStatus enumerates the lifecycle of an uploaded CV file.
type CvFileStatus string

const (
	CvUploaded    CvFileStatus = "uploaded"
	CvParsing     CvFileStatus = "parsing"
	CvMatrixReady CvFileStatus = "matrix_ready"
	CvNeedsReview CvFileStatus = "needs_review"
	CvFailed      CvFileStatus = "failed"
)

// CvFile is one uploaded résumé PDF. FileSize is always > 0.
type CvFile struct {
	ID          string
	CandidateID string
	Filename    string
	FilePath    string
	FileSize    int64
	Status      CvFileStatus
	BatchTag    string
	UploadedAt  time.Time
	ProcessedAt *time.Time
}

// SkillLevel is the inferred proficiency of a candidate skill.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// CandidateSkill is one entry of a candidate matrix skill list.
type CandidateSkill struct {
	Name              string     `json:"name"`
	Level             SkillLevel `json:"level"`
	YearsOfExperience float64    `json:"years_of_experience"`
}

// Education is one degree entry of a candidate matrix.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field,omitempty"`
	Year        int    `json:"year,omitempty"`
}

// LocationSignals captures where a candidate is and where they would go.
type LocationSignals struct {
	CurrentCountry     string   `json:"current_country,omitempty"`
	WillingToRelocate  bool     `json:"willing_to_relocate"`
	PreferredLocations []string `json:"preferred_locations,omitempty"`
}

// Evidence ties a matrix field back to the CV snippet it was derived from.
type Evidence struct {
	Field      string `json:"field"`
	Snippet    string `json:"snippet"`
	SourcePage int    `json:"source_page,omitempty"`
}

// CandidateMatrix is the structured capability profile extracted from a CV.
// Exactly one matrix per candidate is authoritative for matching.
type CandidateMatrix struct {
	ID                   string
	CandidateID          string
	CvFileID             string
	Skills               []CandidateSkill
	Roles                []string
	TotalYearsExperience float64
	Domains              []string
	Education            []Education
	Languages            []string
	Location             LocationSignals
	Confidence           float64
	Evidence             []Evidence
	GeneratedAt          time.Time
	ModelVersion         string
}

// LocationType enumerates how a job expects people to show up.
type LocationType string

const (
	LocationOnsite LocationType = "onsite"
	LocationHybrid LocationType = "hybrid"
	LocationRemote LocationType = "remote"
)

// Seniority enumerates job seniority levels.
type Seniority string

const (
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityLead      Seniority = "lead"
	SeniorityPrincipal Seniority = "principal"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobDraft     JobStatus = "draft"
	JobPublished JobStatus = "published"
	JobClosed    JobStatus = "closed"
)

// Job is an open position. Only published jobs participate in matching.
type Job struct {
	ID                 string
	CompanyID          string
	Title              string
	Department         string
	Company            string
	LocationType       LocationType
	Country            string
	City               string
	Description        string
	MustHaveSkills     []string
	NiceToHaveSkills   []string
	MinYearsExperience int
	SeniorityLevel     Seniority
	Status             JobStatus
	Deadline           *time.Time
	CreatedAt          time.Time
}

// WeightedSkill is one requirement of a job matrix, weight in [0,100].
type WeightedSkill struct {
	Skill  string `json:"skill"`
	Weight int    `json:"weight"`
}

// JobMatrix is the weighted requirement profile of a job (1:1 with Job).
// SkillsWeight() must stay positive.
type JobMatrix struct {
	ID               string
	JobID            string
	RequiredSkills   []WeightedSkill
	PreferredSkills  []WeightedSkill
	ExperienceWeight int
	LocationWeight   int
	DomainWeight     int
	GeneratedAt      time.Time
	ModelVersion     string
}

// SkillsWeight derives the implicit skills weight from the explicit three.
func (m JobMatrix) SkillsWeight() int {
	return 100 - m.ExperienceWeight - m.LocationWeight - m.DomainWeight
}

// GapSeverity grades how much a gap matters.
type GapSeverity string

const (
	GapMinor    GapSeverity = "minor"
	GapModerate GapSeverity = "moderate"
	GapMajor    GapSeverity = "major"
	GapCritical GapSeverity = "critical"
)

// Gap is one shortfall of a candidate against a job.
type Gap struct {
	Severity    GapSeverity `json:"severity"`
	Description string      `json:"description"`
}

// Breakdown carries the four sub-scores of a match, each in [0,100].
type Breakdown struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
	Domain     int `json:"domain"`
	Location   int `json:"location"`
}

// MatchStatus is the human pipeline state of a match. It survives rescoring.
type MatchStatus string

const (
	MatchPending     MatchStatus = "pending"
	MatchShortlisted MatchStatus = "shortlisted"
	MatchRejected    MatchStatus = "rejected"
)

// Match is the scored comparison of one (candidate, job) pair. The pair is
// unique; reruns update score fields in place.
type Match struct {
	ID           string
	CandidateID  string
	JobID        string
	Score        int
	Breakdown    Breakdown
	Explanation  string
	Gaps         []Gap
	Status       MatchStatus
	CalculatedAt time.Time
}

// BulkJobType enumerates the corpus-wide sweeps the orchestrator runs.
type BulkJobType string

const (
	BulkRegenerateMatrices BulkJobType = "regenerate-matrices"
	BulkRerunMatching      BulkJobType = "rerun-matching"
	BulkRegenerateAndMatch BulkJobType = "regenerate-and-match"
)

// BulkJobStatus enumerates bulk job lifecycle states.
type BulkJobStatus string

const (
	BulkRunning   BulkJobStatus = "running"
	BulkCompleted BulkJobStatus = "completed"
	BulkFailed    BulkJobStatus = "failed"
	BulkCancelled BulkJobStatus = "cancelled"
)

// BulkError records one failed target inside a bulk job.
type BulkError struct {
	TargetID string `json:"target_id"`
	Name     string `json:"name"`
	Error    string `json:"error"`
}

// BulkJob is a snapshot of a tracked background sweep.
// Invariant: Processed = Succeeded + Failed on terminal states.
type BulkJob struct {
	ID            string        `json:"id"`
	Type          BulkJobType   `json:"type"`
	Status        BulkJobStatus `json:"status"`
	Total         int           `json:"total"`
	Processed     int           `json:"processed"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Errors        []BulkError   `json:"errors"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CurrentTarget string        `json:"current_target,omitempty"`
	OnlyMissing   bool          `json:"only_missing"`
}
