// Package workers runs the client's background workers (connectivity probe,
// sync job) in a unified way from cmd/client.
package workers

import (
	"context"

	"github.com/adb3502/liims-sub002/internal/logger"
)

// Worker is implemented by any background worker. Run must return promptly,
// spawning goroutines internally; the worker stops when ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}

// Workers aggregates background workers and starts them in registration
// order. Startup is best-effort: a panicking worker is logged and skipped so
// the remaining workers (and the foreground triggers) still run.
type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// New creates an aggregate over the given workers.
func New(log *logger.Logger, ws ...Worker) *Workers {
	return &Workers{workers: ws, logger: log}
}

// Run starts every registered worker.
func (w *Workers) Run(ctx context.Context) {
	for i, worker := range w.workers {
		w.start(ctx, i, worker)
	}
}

func (w *Workers) start(ctx context.Context, i int, worker Worker) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Str("func", "Workers.start").
				Int("worker", i).
				Any("panic", r).
				Msg("background worker failed to start")
		}
	}()

	worker.Run(ctx)
}
