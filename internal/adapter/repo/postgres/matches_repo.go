package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// MatchRepo persists match results, unique per (candidate, job).
type MatchRepo struct{ Pool PgxPool }

func NewMatchRepo(p PgxPool) *MatchRepo { return &MatchRepo{Pool: p} }

// Upsert writes the computed fields of a match. A rerun updates score,
// breakdown, explanation, gaps and calculated_at; the human status column is
// deliberately absent from the update list so triage survives rescoring.
func (r *MatchRepo) Upsert(ctx domain.Context, m domain.Match) error {
	tracer := otel.Tracer("repo.matches")
	ctx, span := tracer.Start(ctx, "matches.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "matches"),
	)
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	breakdown, err := json.Marshal(m.Breakdown)
	if err != nil {
		return fmt.Errorf("op=match.upsert.marshal: %w", err)
	}
	gaps, err := json.Marshal(m.Gaps)
	if err != nil {
		return fmt.Errorf("op=match.upsert.marshal: %w", err)
	}
	status := m.Status
	if status == "" {
		status = domain.MatchPending
	}
	calculatedAt := m.CalculatedAt
	if calculatedAt.IsZero() {
		calculatedAt = time.Now().UTC()
	}

	q := `INSERT INTO matches
	        (id, candidate_id, job_id, score, breakdown, explanation, gaps, status, calculated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	      ON CONFLICT (candidate_id, job_id) DO UPDATE SET
	        score=EXCLUDED.score, breakdown=EXCLUDED.breakdown,
	        explanation=EXCLUDED.explanation, gaps=EXCLUDED.gaps,
	        calculated_at=EXCLUDED.calculated_at`
	_, err = r.Pool.Exec(ctx, q, id, m.CandidateID, m.JobID, m.Score, breakdown,
		m.Explanation, gaps, status, calculatedAt)
	if err != nil {
		return fmt.Errorf("op=match.upsert: %w", mapErr(err))
	}
	return nil
}

const matchCols = `id, candidate_id, job_id, score, breakdown, explanation, gaps, status, calculated_at`

func scanMatch(row pgx.Row) (domain.Match, error) {
	var m domain.Match
	var breakdown, gaps []byte
	err := row.Scan(&m.ID, &m.CandidateID, &m.JobID, &m.Score, &breakdown,
		&m.Explanation, &gaps, &m.Status, &m.CalculatedAt)
	if err != nil {
		return domain.Match{}, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &m.Breakdown); err != nil {
			return domain.Match{}, err
		}
	}
	if len(gaps) > 0 {
		if err := json.Unmarshal(gaps, &m.Gaps); err != nil {
			return domain.Match{}, err
		}
	}
	return m, nil
}

func (r *MatchRepo) list(ctx domain.Context, span string, q string, arg string) ([]domain.Match, error) {
	tracer := otel.Tracer("repo.matches")
	ctx, sp := tracer.Start(ctx, span)
	defer sp.End()
	sp.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "matches"),
	)
	rows, err := r.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("op=match.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("op=match.list.scan: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=match.list.rows: %w", err)
	}
	return out, nil
}

// ListByJob returns the matches of a job, best score first.
func (r *MatchRepo) ListByJob(ctx domain.Context, jobID string) ([]domain.Match, error) {
	q := `SELECT ` + matchCols + ` FROM matches WHERE job_id=$1 ORDER BY score DESC, calculated_at DESC`
	return r.list(ctx, "matches.ListByJob", q, jobID)
}

// ListByCandidate returns the matches of a candidate, best score first.
func (r *MatchRepo) ListByCandidate(ctx domain.Context, candidateID string) ([]domain.Match, error) {
	q := `SELECT ` + matchCols + ` FROM matches WHERE candidate_id=$1 ORDER BY score DESC, calculated_at DESC`
	return r.list(ctx, "matches.ListByCandidate", q, candidateID)
}
