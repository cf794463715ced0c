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

// CandidateRepo persists candidates using a minimal pgx pool.
type CandidateRepo struct{ Pool PgxPool }

func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

const candidateCols = `id, name, email, phone, country, headline, roles, created_at`

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Country, &c.Headline, &c.Roles, &c.CreatedAt)
	return c, err
}

// Create stores a new candidate and returns its id (generates one if empty).
// A duplicate email surfaces as ErrConflict.
func (r *CandidateRepo) Create(ctx domain.Context, c domain.Candidate) (string, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "candidates"),
	)
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO candidates (id, name, email, phone, country, headline, roles, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.Pool.Exec(ctx, q, id, c.Name, c.Email, c.Phone, c.Country, c.Headline, c.Roles, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=candidate.create: %w", mapErr(err))
	}
	return id, nil
}

// CreateWithFile persists the candidate and its CV file in one transaction so
// an email uniqueness race cannot leave an orphan file row behind.
func (r *CandidateRepo) CreateWithFile(ctx domain.Context, c domain.Candidate, f domain.CvFile) (string, string, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.CreateWithFile")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "candidates"),
	)

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", "", fmt.Errorf("op=candidate.create_with_file.begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	candidateID := c.ID
	if candidateID == "" {
		candidateID = uuid.New().String()
	}
	fileID := f.ID
	if fileID == "" {
		fileID = uuid.New().String()
	}
	now := time.Now().UTC()

	q := `INSERT INTO candidates (id, name, email, phone, country, headline, roles, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := tx.Exec(ctx, q, candidateID, c.Name, c.Email, c.Phone, c.Country, c.Headline, c.Roles, now); err != nil {
		return "", "", fmt.Errorf("op=candidate.create_with_file.candidate: %w", mapErr(err))
	}
	q = `INSERT INTO cv_files (id, candidate_id, filename, file_path, file_size, status, batch_tag, uploaded_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	if _, err := tx.Exec(ctx, q, fileID, candidateID, f.Filename, f.FilePath, f.FileSize, f.Status, f.BatchTag, now); err != nil {
		return "", "", fmt.Errorf("op=candidate.create_with_file.cv_file: %w", mapErr(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return "", "", fmt.Errorf("op=candidate.create_with_file.commit: %w", err)
	}
	return candidateID, fileID, nil
}

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT ` + candidateCols + ` FROM candidates WHERE id=$1`
	c, err := scanCandidate(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", mapErr(err))
	}
	return c, nil
}

// FindByEmail looks up a candidate by email, case-insensitively.
func (r *CandidateRepo) FindByEmail(ctx domain.Context, email string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.FindByEmail")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT ` + candidateCols + ` FROM candidates WHERE LOWER(email)=LOWER($1)`
	c, err := scanCandidate(r.Pool.QueryRow(ctx, q, email))
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("op=candidate.find_by_email: %w", mapErr(err))
	}
	return c, nil
}

// List returns all candidates, newest first.
func (r *CandidateRepo) List(ctx domain.Context) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.List")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidates"),
	)
	q := `SELECT ` + candidateCols + ` FROM candidates ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("op=candidate.list.scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidate.list.rows: %w", err)
	}
	return out, nil
}

// Delete removes a candidate; dependent rows cascade in the schema.
func (r *CandidateRepo) Delete(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "candidates"),
	)
	tag, err := r.Pool.Exec(ctx, `DELETE FROM candidates WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=candidate.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=candidate.delete: %w", domain.ErrNotFound)
	}
	return nil
}
