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

// JobRepo persists jobs.
type JobRepo struct{ Pool PgxPool }

func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

const jobCols = `id, company_id, title, department, company, location_type, country, city,
	description, must_have_skills, nice_to_have_skills, min_years_experience,
	seniority_level, status, deadline, created_at`

func scanJob(row pgx.Row) (domain.Job, error) {
	var j domain.Job
	err := row.Scan(&j.ID, &j.CompanyID, &j.Title, &j.Department, &j.Company, &j.LocationType,
		&j.Country, &j.City, &j.Description, &j.MustHaveSkills, &j.NiceToHaveSkills,
		&j.MinYearsExperience, &j.SeniorityLevel, &j.Status, &j.Deadline, &j.CreatedAt)
	return j, err
}

// Create stores a new job and returns its id.
func (r *JobRepo) Create(ctx domain.Context, j domain.Job) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "jobs"),
	)
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO jobs (id, company_id, title, department, company, location_type, country, city,
	        description, must_have_skills, nice_to_have_skills, min_years_experience,
	        seniority_level, status, deadline, created_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.Pool.Exec(ctx, q, id, j.CompanyID, j.Title, j.Department, j.Company, j.LocationType,
		j.Country, j.City, j.Description, j.MustHaveSkills, j.NiceToHaveSkills,
		j.MinYearsExperience, j.SeniorityLevel, j.Status, j.Deadline, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=job.create: %w", mapErr(err))
	}
	return id, nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT ` + jobCols + ` FROM jobs WHERE id=$1`
	j, err := scanJob(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Job{}, fmt.Errorf("op=job.get: %w", mapErr(err))
	}
	return j, nil
}

// Update rewrites all mutable job fields.
func (r *JobRepo) Update(ctx domain.Context, j domain.Job) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Update")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `UPDATE jobs SET company_id=$2, title=$3, department=$4, company=$5, location_type=$6,
	        country=$7, city=$8, description=$9, must_have_skills=$10, nice_to_have_skills=$11,
	        min_years_experience=$12, seniority_level=$13, status=$14, deadline=$15
	      WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, j.ID, j.CompanyID, j.Title, j.Department, j.Company,
		j.LocationType, j.Country, j.City, j.Description, j.MustHaveSkills, j.NiceToHaveSkills,
		j.MinYearsExperience, j.SeniorityLevel, j.Status, j.Deadline)
	if err != nil {
		return fmt.Errorf("op=job.update: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=job.update: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByStatus returns jobs in the given lifecycle state, newest first.
func (r *JobRepo) ListByStatus(ctx domain.Context, status domain.JobStatus) ([]domain.Job, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.ListByStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "jobs"),
	)
	q := `SELECT ` + jobCols + ` FROM jobs WHERE status=$1 ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("op=job.list_by_status: %w", err)
	}
	defer rows.Close()
	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("op=job.list_by_status.scan: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=job.list_by_status.rows: %w", err)
	}
	return out, nil
}
