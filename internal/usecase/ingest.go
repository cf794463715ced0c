package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hiretrack/hiretrack/internal/adapter/observability"
	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/pkg/textx"
)

// FailureStep labels the ingestion transition where a file failed. Kept as a
// small enum so operators can aggregate, never free-form text.
type FailureStep string

const (
	StepDiskWrite      FailureStep = "Disk Write"
	StepPdfExtraction  FailureStep = "PDF Extraction"
	StepLlmExtraction  FailureStep = "LLM Extraction"
	StepNameValidation FailureStep = "Name Validation"
	StepDeduplication  FailureStep = "Deduplication"
	StepPersistence    FailureStep = "Persistence"
)

// File statuses in the upload response.
const (
	FileSuccess   = "success"
	FileDuplicate = "duplicate"
	FileFailed    = "failed"
)

// UploadedFile is one incoming CV in a batch.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// FileResult is the per-file record of an ingestion batch.
type FileResult struct {
	Filename    string      `json:"filename"`
	Status      string      `json:"status"`
	CandidateID string      `json:"candidate_id,omitempty"`
	CvFileID    string      `json:"cv_file_id,omitempty"`
	Error       string      `json:"error,omitempty"`
	FailureStep FailureStep `json:"failure_step,omitempty"`
}

// BatchSummary is the upload response. Successful+Duplicates+Failed always
// equals the number of submitted files.
type BatchSummary struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Duplicates int          `json:"duplicates"`
	Files      []FileResult `json:"files"`
}

// IngestService runs the CV ingestion pipeline.
type IngestService struct {
	Candidates domain.CandidateRepository
	CvFiles    domain.CvFileRepository
	LLM        domain.LLMClient
	Extractor  domain.TextExtractor
	Matrix     MatrixService
	Fanout     FanoutService
	Runner     *Runner
	UploadDir  string
	// Concurrency bounds how many files of a batch run at once.
	Concurrency int
	Log         *slog.Logger
}

// needsReviewConfidence is the matrix confidence floor below which a CV file
// is parked for human review instead of being marked ready.
const needsReviewConfidence = 0.5

// IngestBatch processes the files in waves of at most Concurrency, isolating
// each file's failure. The returned summary carries one record per file.
func (s IngestService) IngestBatch(ctx domain.Context, files []UploadedFile, batchTag string) BatchSummary {
	k := s.Concurrency
	if k <= 0 {
		k = 10
	}
	results := make([]FileResult, len(files))
	for start := 0; start < len(files); start += k {
		end := min(start+k, len(files))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.processFile(ctx, files[i], batchTag)
			}(i)
		}
		wg.Wait()
	}

	var summary BatchSummary
	summary.Files = results
	for _, r := range results {
		switch r.Status {
		case FileSuccess:
			summary.Successful++
		case FileDuplicate:
			summary.Duplicates++
		default:
			summary.Failed++
		}
		observability.IngestedFilesTotal.WithLabelValues(r.Status).Inc()
	}
	s.logFailureSummary(results)
	return summary
}

func failure(f UploadedFile, step FailureStep, err error) FileResult {
	return FileResult{Filename: f.Filename, Status: FileFailed, Error: err.Error(), FailureStep: step}
}

func (s IngestService) processFile(ctx domain.Context, f UploadedFile, batchTag string) FileResult {
	// 1. Persist to disk.
	if len(f.Data) == 0 {
		return failure(f, StepDiskWrite, errors.New("file is empty"))
	}
	path := filepath.Join(s.UploadDir, uuid.New().String()+".pdf")
	if err := os.WriteFile(path, f.Data, 0o600); err != nil {
		return failure(f, StepDiskWrite, err)
	}
	if st, err := os.Stat(path); err != nil || st.Size() == 0 {
		return failure(f, StepDiskWrite, errors.New("file did not persist"))
	}

	// 2. Extract text.
	text, err := s.Extractor.ExtractPDF(ctx, path)
	if err != nil {
		return failure(f, StepPdfExtraction, err)
	}

	// 3. Model extraction of the contact header.
	info, err := s.LLM.ExtractCandidateInfo(ctx, text)
	if err != nil {
		return failure(f, StepLlmExtraction, err)
	}

	// 4. Name validity, with direct header fallback.
	name := strings.TrimSpace(info.Name)
	if !validName(name) {
		name = nameFromHeader(text)
		if !validName(name) {
			return failure(f, StepNameValidation, domain.ErrNameUnrecoverable)
		}
	}

	// 5. Dedupe by email; synthesize one when the CV carries none.
	// Emails compare case-insensitively, so store them lowercased.
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email != "" {
		if _, err := s.Candidates.FindByEmail(ctx, email); err == nil {
			return FileResult{Filename: f.Filename, Status: FileDuplicate}
		} else if !errors.Is(err, domain.ErrNotFound) {
			return failure(f, StepDeduplication, err)
		}
	} else {
		email = textx.Slugify(name) + "@example.com"
	}

	// 6. Candidate + CvFile in one transaction. The unique index catches
	// concurrent uploads of the same person.
	candidateID, fileID, err := s.Candidates.CreateWithFile(ctx,
		domain.Candidate{
			Name:     name,
			Email:    email,
			Phone:    info.Phone,
			Country:  firstNonEmpty(info.CountryCode, info.Country),
			Headline: info.Headline,
		},
		domain.CvFile{
			Filename: f.Filename,
			FilePath: path,
			FileSize: int64(len(f.Data)),
			Status:   domain.CvUploaded,
			BatchTag: batchTag,
		})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return FileResult{Filename: f.Filename, Status: FileDuplicate}
		}
		return failure(f, StepPersistence, err)
	}

	// 7. Matrix build and fan-out run detached; their failure lands on the
	// CvFile status, never on this response.
	s.Runner.Go("matrix-build", func(bg context.Context) {
		s.buildAndFanOut(bg, candidateID, fileID, text)
	})
	return FileResult{Filename: f.Filename, Status: FileSuccess, CandidateID: candidateID, CvFileID: fileID}
}

// buildAndFanOut generates the candidate matrix and, once it is persisted,
// recomputes matches. Matrix write strictly precedes fan-out so the sweep
// always observes the fresh matrix.
func (s IngestService) buildAndFanOut(ctx domain.Context, candidateID, fileID, cvText string) {
	if err := s.CvFiles.UpdateStatus(ctx, fileID, domain.CvParsing); err != nil {
		s.Log.Warn("cv status update failed", slog.String("cv_file_id", fileID), slog.Any("error", err))
	}
	m, err := s.Matrix.BuildCandidateMatrix(ctx, candidateID, fileID, cvText)
	if err != nil {
		s.Log.Error("matrix build failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
		if err := s.CvFiles.UpdateStatus(ctx, fileID, domain.CvFailed); err != nil {
			s.Log.Warn("cv status update failed", slog.String("cv_file_id", fileID), slog.Any("error", err))
		}
		return
	}
	status := domain.CvMatrixReady
	if m.Confidence < needsReviewConfidence {
		status = domain.CvNeedsReview
	}
	if err := s.CvFiles.UpdateStatus(ctx, fileID, status); err != nil {
		s.Log.Warn("cv status update failed", slog.String("cv_file_id", fileID), slog.Any("error", err))
	}
	if err := s.Fanout.FanOutCandidate(ctx, candidateID); err != nil {
		s.Log.Error("fan-out failed",
			slog.String("candidate_id", candidateID), slog.Any("error", err))
	}
}

// logFailureSummary groups failed files by identical error text so operators
// see one line per distinct cause plus the individual files.
func (s IngestService) logFailureSummary(results []FileResult) {
	groups := make(map[string][]string)
	for _, r := range results {
		if r.Status == FileFailed {
			groups[r.Error] = append(groups[r.Error], r.Filename)
		}
	}
	if len(groups) == 0 {
		return
	}
	msgs := make([]string, 0, len(groups))
	for msg := range groups {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	for _, msg := range msgs {
		s.Log.Warn("ingestion failures",
			slog.String("error", msg),
			slog.Int("count", len(groups[msg])),
			slog.Any("files", groups[msg]))
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
