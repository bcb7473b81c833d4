package task

import (
	"context"
	"fmt"
	"time"
)

// Default poll intervals. Note streams poll faster because they carry text
// fragments rather than a coarse percentage.
const (
	DefaultInterval     = 500 * time.Millisecond
	DefaultNoteInterval = 200 * time.Millisecond
)

// ProgressEvent is one observed state of a numeric-progress task.
type ProgressEvent struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// NoteEvent is one observed step of a note-generation stream. Content carries
// the markdown produced since the subscriber's previous event.
type NoteEvent struct {
	Status  string `json:"status"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// Watcher turns task state into finite, single-use event sequences by polling
// the store at a fixed interval. Any number of watchers may observe the same
// task; they share nothing but the underlying record and never write to it.
type Watcher struct {
	store        *Store
	interval     time.Duration
	noteInterval time.Duration
}

// NewWatcher creates a watcher polling at the given intervals. Non-positive
// values fall back to the defaults.
func NewWatcher(store *Store, interval, noteInterval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if noteInterval <= 0 {
		noteInterval = DefaultNoteInterval
	}
	return &Watcher{store: store, interval: interval, noteInterval: noteInterval}
}

// Watch returns a channel of progress events for the task. An unknown id
// yields exactly one error event. The channel closes after the first terminal
// event, or when ctx is done.
func (w *Watcher) Watch(ctx context.Context, id string) <-chan ProgressEvent {
	out := make(chan ProgressEvent)

	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			snap, ok := w.store.Get(id)
			if !ok {
				send(ctx, out, ProgressEvent{Status: StatusError, Progress: 0, Message: "task not found"})
				return
			}

			ev := ProgressEvent{
				Status:   snap.Status,
				Progress: snap.Progress,
				Message:  progressMessage(snap),
			}
			if !send(ctx, out, ev) {
				return
			}
			if snap.Status.Terminal() {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// WatchNote returns a channel of incremental note fragments for the task.
// Each subscription keeps its own cursor into the task's fragment list, so
// subscribers attaching at different times each see the full fragment history
// exactly once, in emission order. The final event is status "completed" or
// "error"; an unknown id yields one error event.
func (w *Watcher) WatchNote(ctx context.Context, id string) <-chan NoteEvent {
	out := make(chan NoteEvent)

	go func() {
		defer close(out)
		ticker := time.NewTicker(w.noteInterval)
		defer ticker.Stop()

		cursor := 0
		for {
			snap, ok := w.store.Get(id)
			if !ok {
				send(ctx, out, NoteEvent{Status: "error", Message: "task not found"})
				return
			}

			// The snapshot pairs fragments with status atomically: a terminal
			// snapshot already contains every fragment, so flushing before the
			// terminal event below leaves no gap.
			if cursor < len(snap.Fragments) {
				var content string
				for _, f := range snap.Fragments[cursor:] {
					content += f
				}
				cursor = len(snap.Fragments)
				if !send(ctx, out, NoteEvent{Status: "streaming", Content: content}) {
					return
				}
			}

			switch snap.Status {
			case StatusCompleted:
				send(ctx, out, NoteEvent{Status: "completed"})
				return
			case StatusError:
				send(ctx, out, NoteEvent{Status: "error", Message: snap.Error})
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func send[T any](ctx context.Context, out chan<- T, ev T) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// progressMessage derives a short human-readable phase description from the
// task's kind and progress.
func progressMessage(snap Snapshot) string {
	if snap.Status == StatusError {
		return snap.Error
	}
	switch snap.Kind {
	case KindTranscribe:
		switch {
		case snap.Progress >= 100:
			return "transcription finished"
		case snap.Progress < 10:
			return "downloading audio..."
		default:
			return fmt.Sprintf("transcribing... %d%%", snap.Progress)
		}
	case KindNote:
		if snap.Progress >= 100 {
			return "note ready"
		}
		if snap.Progress < 60 {
			return "summarizing transcript..."
		}
		return "writing note..."
	default:
		if snap.Progress >= 100 {
			return "download finished"
		}
		return fmt.Sprintf("downloading... %d%%", snap.Progress)
	}
}
