package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hiretrack/hiretrack/internal/config"
	"github.com/hiretrack/hiretrack/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Ingest     usecase.IngestService
	Candidates usecase.CandidateService
	Jobs       usecase.JobService
	Bulk       *usecase.BulkOrchestrator
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	TikaCheck  func(ctx context.Context) error
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// ReadyzHandler probes the DB, Redis and Tika with a short deadline.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probe := func(ctx context.Context, name string, fn func(context.Context) error, checks []check) []check {
		if fn == nil {
			return checks
		}
		if err := fn(ctx); err != nil {
			return append(checks, check{Name: name, OK: false, Details: err.Error()})
		}
		return append(checks, check{Name: name, OK: true})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		checks = probe(ctx, "db", s.DBCheck, checks)
		checks = probe(ctx, "redis", s.RedisCheck, checks)
		checks = probe(ctx, "tika", s.TikaCheck, checks)
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
