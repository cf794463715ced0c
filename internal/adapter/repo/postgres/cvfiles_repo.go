package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// CvFileRepo persists uploaded CV files.
type CvFileRepo struct{ Pool PgxPool }

func NewCvFileRepo(p PgxPool) *CvFileRepo { return &CvFileRepo{Pool: p} }

const cvFileCols = `id, candidate_id, filename, file_path, file_size, status, batch_tag, uploaded_at, processed_at`

func scanCvFile(row pgx.Row) (domain.CvFile, error) {
	var f domain.CvFile
	err := row.Scan(&f.ID, &f.CandidateID, &f.Filename, &f.FilePath, &f.FileSize, &f.Status, &f.BatchTag, &f.UploadedAt, &f.ProcessedAt)
	return f, err
}

// Create stores a new CV file row and returns its id.
func (r *CvFileRepo) Create(ctx domain.Context, f domain.CvFile) (string, error) {
	tracer := otel.Tracer("repo.cv_files")
	ctx, span := tracer.Start(ctx, "cv_files.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "cv_files"),
	)
	id := f.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO cv_files (id, candidate_id, filename, file_path, file_size, status, batch_tag, uploaded_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, q, id, f.CandidateID, f.Filename, f.FilePath, f.FileSize, f.Status, f.BatchTag, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=cv_file.create: %w", mapErr(err))
	}
	return id, nil
}

// Get loads a CV file by id.
func (r *CvFileRepo) Get(ctx domain.Context, id string) (domain.CvFile, error) {
	tracer := otel.Tracer("repo.cv_files")
	ctx, span := tracer.Start(ctx, "cv_files.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "cv_files"),
	)
	q := `SELECT ` + cvFileCols + ` FROM cv_files WHERE id=$1`
	f, err := scanCvFile(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.CvFile{}, fmt.Errorf("op=cv_file.get: %w", mapErr(err))
	}
	return f, nil
}

// UpdateStatus moves a CV file through its lifecycle. Terminal states also
// stamp processed_at.
func (r *CvFileRepo) UpdateStatus(ctx domain.Context, id string, status domain.CvFileStatus) error {
	tracer := otel.Tracer("repo.cv_files")
	ctx, span := tracer.Start(ctx, "cv_files.UpdateStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "cv_files"),
	)
	var q string
	switch status {
	case domain.CvMatrixReady, domain.CvNeedsReview, domain.CvFailed:
		q = `UPDATE cv_files SET status=$2, processed_at=NOW() WHERE id=$1`
	default:
		q = `UPDATE cv_files SET status=$2 WHERE id=$1`
	}
	tag, err := r.Pool.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("op=cv_file.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=cv_file.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// LatestByCandidate returns the most recently uploaded CV file of a candidate.
func (r *CvFileRepo) LatestByCandidate(ctx domain.Context, candidateID string) (domain.CvFile, error) {
	tracer := otel.Tracer("repo.cv_files")
	ctx, span := tracer.Start(ctx, "cv_files.LatestByCandidate")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "cv_files"),
	)
	q := `SELECT ` + cvFileCols + ` FROM cv_files WHERE candidate_id=$1 ORDER BY uploaded_at DESC LIMIT 1`
	f, err := scanCvFile(r.Pool.QueryRow(ctx, q, candidateID))
	if err != nil {
		return domain.CvFile{}, fmt.Errorf("op=cv_file.latest_by_candidate: %w", mapErr(err))
	}
	return f, nil
}
