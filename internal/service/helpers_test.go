package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"videonote/internal/task"
	"videonote/internal/worker"
)

type fixture struct {
	store  *task.Store
	runner *task.Runner
	pool   *worker.Pool
	logger *slog.Logger
}

func newFixture() fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := task.NewStore()
	return fixture{
		store:  store,
		runner: task.NewRunner(store, logger),
		pool:   worker.NewPool(2),
		logger: logger,
	}
}

func waitTerminal(t *testing.T, store *task.Store, id string) task.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, ok := store.Get(id)
		if !ok {
			t.Fatalf("task %q disappeared", id)
		}
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q never reached a terminal state", id)
	return task.Snapshot{}
}
