// Command server starts the recruitment matching HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hiretrack/hiretrack/internal/adapter/extract"
	"github.com/hiretrack/hiretrack/internal/adapter/httpserver"
	"github.com/hiretrack/hiretrack/internal/adapter/llm"
	"github.com/hiretrack/hiretrack/internal/adapter/observability"
	"github.com/hiretrack/hiretrack/internal/adapter/repo/postgres"
	"github.com/hiretrack/hiretrack/internal/app"
	"github.com/hiretrack/hiretrack/internal/config"
	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/usecase"
)

const (
	exitConfig = 64
	exitStore  = 70
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(exitConfig)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(exitStore)
	}
	if err := pool.Ping(ctx); err != nil {
		slog.Error("db ping failed", slog.Any("error", err))
		os.Exit(exitStore)
	}
	defer pool.Close()

	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		slog.Error("upload dir unavailable", slog.String("dir", cfg.UploadDir), slog.Any("error", err))
		os.Exit(exitStore)
	}

	// Repositories
	candidateRepo := postgres.NewCandidateRepo(pool)
	cvFileRepo := postgres.NewCvFileRepo(pool)
	candidateMatrixRepo := postgres.NewCandidateMatrixRepo(pool)
	jobRepo := postgres.NewJobRepo(pool)
	jobMatrixRepo := postgres.NewJobMatrixRepo(pool)
	matchRepo := postgres.NewMatchRepo(pool)

	// Adapters
	extractor := extract.New(cfg.TikaURL, &http.Client{Timeout: cfg.FetchTimeout}, cfg.FetchMaxBytes)

	llmClient, err := llm.New(llm.Options{
		BaseURL:        cfg.LLMBaseURL,
		APIKey:         cfg.LLMAPIKey,
		Model:          cfg.LLMModelVersion,
		Timeout:        cfg.LLMTimeout(),
		MaxConcurrency: cfg.LLMMaxConcurrency,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "llm:", err)
		os.Exit(exitConfig)
	}

	var model domain.LLMClient = llmClient
	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "redis url:", err)
			os.Exit(exitConfig)
		}
		rdb = redis.NewClient(opts)
		model = llm.NewCaching(model, rdb, cfg.LLMCacheTTL, logger)
		slog.Info("llm response cache enabled", slog.Duration("ttl", cfg.LLMCacheTTL))
	}

	// Usecases
	runner := usecase.NewRunner(logger)
	matrixSvc := usecase.NewMatrixService(model, extractor, candidateMatrixRepo, jobMatrixRepo, cvFileRepo)
	fanoutSvc := usecase.NewFanoutService(candidateRepo, candidateMatrixRepo, jobRepo, jobMatrixRepo, matchRepo, cfg.FanoutConcurrency, logger)
	ingestSvc := usecase.IngestService{
		Candidates:  candidateRepo,
		CvFiles:     cvFileRepo,
		LLM:         model,
		Extractor:   extractor,
		Matrix:      matrixSvc,
		Fanout:      fanoutSvc,
		Runner:      runner,
		UploadDir:   cfg.UploadDir,
		Concurrency: cfg.UploadConcurrency,
		Log:         logger,
	}
	bulk := usecase.NewBulkOrchestrator(candidateRepo, candidateMatrixRepo, matrixSvc, fanoutSvc,
		cfg.BulkMatrixConcurrency, cfg.BulkMatchConcurrency, logger)
	jobSvc := usecase.JobService{
		Jobs:        jobRepo,
		JobMatrices: jobMatrixRepo,
		Matches:     matchRepo,
		Matrix:      matrixSvc,
		Fanout:      fanoutSvc,
		LLM:         model,
		Extractor:   extractor,
		Runner:      runner,
		Log:         logger,
	}
	candidateSvc := usecase.CandidateService{
		Candidates:        candidateRepo,
		CandidateMatrices: candidateMatrixRepo,
		MatchRepo:         matchRepo,
		Matrix:            matrixSvc,
		Fanout:            fanoutSvc,
		Runner:            runner,
		Log:               logger,
	}

	dbCheck, redisCheck, tikaCheck := app.BuildReadinessChecks(cfg, pool, rdb)

	srv := &httpserver.Server{
		Cfg:        cfg,
		Ingest:     ingestSvc,
		Candidates: candidateSvc,
		Jobs:       jobSvc,
		Bulk:       bulk,
		DBCheck:    dbCheck,
		RedisCheck: redisCheck,
		TikaCheck:  tikaCheck,
	}

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
	// Let scheduled matrix builds and fan-outs land before the process exits.
	if err := runner.Shutdown(shutdownCtx); err != nil {
		slog.Warn("background tasks did not drain in time", slog.Any("error", err))
	}
}
