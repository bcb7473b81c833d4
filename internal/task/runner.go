package task

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner executes a task's work off the request path and guarantees the store
// reaches a terminal state exactly once, no matter how the work exits. There
// is no retry and no cancellation surface; a caller that loses interest simply
// stops watching.
type Runner struct {
	store  *Store
	logger *slog.Logger
}

// NewRunner creates a runner committing outcomes to the given store.
func NewRunner(store *Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, logger: logger}
}

// Go launches work as a detached goroutine and returns immediately. The work
// function updates progress through the store; a nil return commits the
// completed state with progress 100, a non-nil error commits the error state
// with the message preserved verbatim and progress frozen at its last value.
// Panics are recovered and recorded as task failures, never crash the process.
func (r *Runner) Go(id string, work func(ctx context.Context) error) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("task panicked", "task_id", id, "panic", rec)
				r.fail(id, fmt.Errorf("internal panic: %v", rec))
			}
		}()

		ctx := context.Background()
		if err := work(ctx); err != nil {
			r.logger.Error("task failed", "task_id", id, "error", err)
			r.fail(id, err)
			return
		}
		r.complete(id)
		r.logger.Info("task completed", "task_id", id)
	}()
}

func (r *Runner) complete(id string) {
	r.store.Mutate(id, func(t *Task) {
		if t.Status.Terminal() {
			return
		}
		t.Status = StatusCompleted
		t.Progress = 100
	})
}

func (r *Runner) fail(id string, err error) {
	r.store.Mutate(id, func(t *Task) {
		if t.Status.Terminal() {
			return
		}
		t.Status = StatusError
		t.Error = err.Error()
	})
}
