package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Runner executes detached background tasks. Panics are contained and logged;
// Shutdown waits for in-flight tasks up to the context deadline.
type Runner struct {
	Log *slog.Logger

	wg sync.WaitGroup
}

func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{Log: log}
}

// Go starts fn on its own goroutine with a fresh background context, so the
// task outlives the HTTP request that scheduled it.
func (r *Runner) Go(name string, fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.Log.Error("background task panicked",
					slog.String("task", name), slog.Any("panic", rec))
			}
		}()
		start := time.Now()
		fn(context.Background())
		r.Log.Debug("background task finished",
			slog.String("task", name), slog.Duration("took", time.Since(start)))
	}()
}

// Shutdown blocks until all tasks finish or ctx expires.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
