package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// JobMatrixRepo keeps the 1:1 requirement matrix of each job.
type JobMatrixRepo struct{ Pool PgxPool }

func NewJobMatrixRepo(p PgxPool) *JobMatrixRepo { return &JobMatrixRepo{Pool: p} }

// Upsert replaces the job's matrix in place and returns the row id.
func (r *JobMatrixRepo) Upsert(ctx domain.Context, m domain.JobMatrix) (string, error) {
	tracer := otel.Tracer("repo.job_matrices")
	ctx, span := tracer.Start(ctx, "job_matrices.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "job_matrices"),
	)
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	required, err := json.Marshal(m.RequiredSkills)
	if err != nil {
		return "", fmt.Errorf("op=job_matrix.upsert.marshal: %w", err)
	}
	preferred, err := json.Marshal(m.PreferredSkills)
	if err != nil {
		return "", fmt.Errorf("op=job_matrix.upsert.marshal: %w", err)
	}
	generatedAt := m.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	q := `INSERT INTO job_matrices
	        (id, job_id, required_skills, preferred_skills, experience_weight,
	         location_weight, domain_weight, generated_at, model_version)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	      ON CONFLICT (job_id) DO UPDATE SET
	        required_skills=EXCLUDED.required_skills, preferred_skills=EXCLUDED.preferred_skills,
	        experience_weight=EXCLUDED.experience_weight, location_weight=EXCLUDED.location_weight,
	        domain_weight=EXCLUDED.domain_weight, generated_at=EXCLUDED.generated_at,
	        model_version=EXCLUDED.model_version
	      RETURNING id`
	row := r.Pool.QueryRow(ctx, q, id, m.JobID, required, preferred,
		m.ExperienceWeight, m.LocationWeight, m.DomainWeight, generatedAt, m.ModelVersion)
	var outID string
	if err := row.Scan(&outID); err != nil {
		return "", fmt.Errorf("op=job_matrix.upsert: %w", mapErr(err))
	}
	return outID, nil
}

// GetByJob loads the matrix of a job.
func (r *JobMatrixRepo) GetByJob(ctx domain.Context, jobID string) (domain.JobMatrix, error) {
	tracer := otel.Tracer("repo.job_matrices")
	ctx, span := tracer.Start(ctx, "job_matrices.GetByJob")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "job_matrices"),
	)
	q := `SELECT id, job_id, required_skills, preferred_skills, experience_weight,
	             location_weight, domain_weight, generated_at, model_version
	      FROM job_matrices WHERE job_id=$1`
	row := r.Pool.QueryRow(ctx, q, jobID)

	var m domain.JobMatrix
	var required, preferred []byte
	err := row.Scan(&m.ID, &m.JobID, &required, &preferred, &m.ExperienceWeight,
		&m.LocationWeight, &m.DomainWeight, &m.GeneratedAt, &m.ModelVersion)
	if err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=job_matrix.get: %w", mapErr(err))
	}
	if len(required) > 0 {
		if err := json.Unmarshal(required, &m.RequiredSkills); err != nil {
			return domain.JobMatrix{}, fmt.Errorf("op=job_matrix.get.unmarshal: %w", err)
		}
	}
	if len(preferred) > 0 {
		if err := json.Unmarshal(preferred, &m.PreferredSkills); err != nil {
			return domain.JobMatrix{}, fmt.Errorf("op=job_matrix.get.unmarshal: %w", err)
		}
	}
	return m, nil
}
