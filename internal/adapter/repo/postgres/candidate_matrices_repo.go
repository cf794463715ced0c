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

// CandidateMatrixRepo keeps one authoritative matrix per candidate. The
// structured lists ride in jsonb columns.
type CandidateMatrixRepo struct{ Pool PgxPool }

func NewCandidateMatrixRepo(p PgxPool) *CandidateMatrixRepo { return &CandidateMatrixRepo{Pool: p} }

// Upsert replaces the candidate's matrix in place, refreshing generated_at
// and model_version. Returns the row id.
func (r *CandidateMatrixRepo) Upsert(ctx domain.Context, m domain.CandidateMatrix) (string, error) {
	tracer := otel.Tracer("repo.candidate_matrices")
	ctx, span := tracer.Start(ctx, "candidate_matrices.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "candidate_matrices"),
	)
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	skills, err := json.Marshal(m.Skills)
	if err != nil {
		return "", fmt.Errorf("op=candidate_matrix.upsert.marshal: %w", err)
	}
	education, err := json.Marshal(m.Education)
	if err != nil {
		return "", fmt.Errorf("op=candidate_matrix.upsert.marshal: %w", err)
	}
	location, err := json.Marshal(m.Location)
	if err != nil {
		return "", fmt.Errorf("op=candidate_matrix.upsert.marshal: %w", err)
	}
	evidence, err := json.Marshal(m.Evidence)
	if err != nil {
		return "", fmt.Errorf("op=candidate_matrix.upsert.marshal: %w", err)
	}
	generatedAt := m.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	q := `INSERT INTO candidate_matrices
	        (id, candidate_id, cv_file_id, skills, roles, total_years_experience, domains,
	         education, languages, location, confidence, evidence, generated_at, model_version)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	      ON CONFLICT (candidate_id) DO UPDATE SET
	        cv_file_id=EXCLUDED.cv_file_id, skills=EXCLUDED.skills, roles=EXCLUDED.roles,
	        total_years_experience=EXCLUDED.total_years_experience, domains=EXCLUDED.domains,
	        education=EXCLUDED.education, languages=EXCLUDED.languages, location=EXCLUDED.location,
	        confidence=EXCLUDED.confidence, evidence=EXCLUDED.evidence,
	        generated_at=EXCLUDED.generated_at, model_version=EXCLUDED.model_version
	      RETURNING id`
	row := r.Pool.QueryRow(ctx, q, id, m.CandidateID, m.CvFileID, skills, m.Roles,
		m.TotalYearsExperience, m.Domains, education, m.Languages, location,
		m.Confidence, evidence, generatedAt, m.ModelVersion)
	var outID string
	if err := row.Scan(&outID); err != nil {
		return "", fmt.Errorf("op=candidate_matrix.upsert: %w", mapErr(err))
	}
	return outID, nil
}

// GetByCandidate loads the matrix of a candidate.
func (r *CandidateMatrixRepo) GetByCandidate(ctx domain.Context, candidateID string) (domain.CandidateMatrix, error) {
	tracer := otel.Tracer("repo.candidate_matrices")
	ctx, span := tracer.Start(ctx, "candidate_matrices.GetByCandidate")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidate_matrices"),
	)
	q := `SELECT id, candidate_id, cv_file_id, skills, roles, total_years_experience, domains,
	             education, languages, location, confidence, evidence, generated_at, model_version
	      FROM candidate_matrices WHERE candidate_id=$1`
	row := r.Pool.QueryRow(ctx, q, candidateID)

	var m domain.CandidateMatrix
	var skills, education, location, evidence []byte
	err := row.Scan(&m.ID, &m.CandidateID, &m.CvFileID, &skills, &m.Roles, &m.TotalYearsExperience,
		&m.Domains, &education, &m.Languages, &location, &m.Confidence, &evidence,
		&m.GeneratedAt, &m.ModelVersion)
	if err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=candidate_matrix.get: %w", mapErr(err))
	}
	for _, pair := range []struct {
		raw []byte
		dst any
	}{
		{skills, &m.Skills},
		{education, &m.Education},
		{location, &m.Location},
		{evidence, &m.Evidence},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return domain.CandidateMatrix{}, fmt.Errorf("op=candidate_matrix.get.unmarshal: %w", err)
		}
	}
	return m, nil
}

// ListCandidateIDs returns the ids of all candidates that have a matrix.
func (r *CandidateMatrixRepo) ListCandidateIDs(ctx domain.Context) ([]string, error) {
	tracer := otel.Tracer("repo.candidate_matrices")
	ctx, span := tracer.Start(ctx, "candidate_matrices.ListCandidateIDs")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "candidate_matrices"),
	)
	rows, err := r.Pool.Query(ctx, `SELECT candidate_id FROM candidate_matrices ORDER BY generated_at`)
	if err != nil {
		return nil, fmt.Errorf("op=candidate_matrix.list_ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("op=candidate_matrix.list_ids.scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidate_matrix.list_ids.rows: %w", err)
	}
	return ids, nil
}
