package task

import (
	"context"
	"strings"
	"testing"
	"time"
)

func testWatcher(store *Store) *Watcher {
	return NewWatcher(store, 5*time.Millisecond, 5*time.Millisecond)
}

func TestWatchUnknownTask(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var events []ProgressEvent
	for ev := range w.Watch(ctx, "missing") {
		events = append(events, ev)
	}

	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Status != StatusError {
		t.Errorf("expected error status, got %q", events[0].Status)
	}
	if events[0].Message != "task not found" {
		t.Errorf("unexpected message %q", events[0].Message)
	}
}

func TestWatchProgressMonotoneAndTerminal(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)
	id := store.Create(KindDownload, nil)

	go func() {
		for _, p := range []int{20, 50, 80} {
			store.Mutate(id, func(task *Task) { task.SetProgress(p) })
			time.Sleep(10 * time.Millisecond)
		}
		store.Mutate(id, func(task *Task) {
			task.Status = StatusCompleted
			task.Progress = 100
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var events []ProgressEvent
	for ev := range w.Watch(ctx, id) {
		events = append(events, ev)
	}

	if len(events) == 0 {
		t.Fatal("expected at least one event")
	}
	prev := -1
	for _, ev := range events {
		if ev.Progress < prev {
			t.Errorf("progress went backwards: %d after %d", ev.Progress, prev)
		}
		prev = ev.Progress
	}
	last := events[len(events)-1]
	if last.Status != StatusCompleted || last.Progress != 100 {
		t.Errorf("expected terminal event completed/100, got %q/%d", last.Status, last.Progress)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Progress == 100 {
			t.Error("progress 100 reported before the terminal event")
		}
	}
}

func TestWatchErrorFinalEvent(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)
	id := store.Create(KindTranscribe, nil)

	store.Mutate(id, func(task *Task) {
		task.SetProgress(30)
		task.Status = StatusError
		task.Error = "audio extraction failed"
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var last ProgressEvent
	for ev := range w.Watch(ctx, id) {
		last = ev
	}

	if last.Status != StatusError {
		t.Errorf("expected error status, got %q", last.Status)
	}
	if last.Progress != 30 {
		t.Errorf("expected progress frozen at 30, got %d", last.Progress)
	}
	if last.Message != "audio extraction failed" {
		t.Errorf("expected the task error as message, got %q", last.Message)
	}
}

func TestWatchNoteUnknownTask(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var events []NoteEvent
	for ev := range w.WatchNote(ctx, "missing") {
		events = append(events, ev)
	}

	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].Status != "error" || events[0].Message != "task not found" {
		t.Errorf("unexpected event %+v", events[0])
	}
}

// Two subscribers attach at different times while fragments stream in; each
// must reconstruct the full text from its own events with nothing missing or
// repeated.
func TestWatchNoteSubscribersSeeFullStream(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)
	id := store.Create(KindNote, nil)

	fragments := []string{"# Title\n", "## Key points\n", "- one\n", "- two\n", "## Summary\n", "done.\n"}
	want := strings.Join(fragments, "")

	collect := func(ctx context.Context, out chan<- string) {
		var b strings.Builder
		for ev := range w.WatchNote(ctx, id) {
			b.WriteString(ev.Content)
		}
		out <- b.String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	early := make(chan string, 1)
	go collect(ctx, early)

	go func() {
		for i, f := range fragments {
			store.Mutate(id, func(task *Task) { task.AppendFragment(f) })
			if i == len(fragments)/2 {
				// Give the late subscriber a reason to exist.
				time.Sleep(20 * time.Millisecond)
			}
		}
		store.Mutate(id, func(task *Task) {
			task.Status = StatusCompleted
			task.Progress = 100
		})
	}()

	time.Sleep(10 * time.Millisecond)
	late := make(chan string, 1)
	go collect(ctx, late)

	if got := <-early; got != want {
		t.Errorf("early subscriber got %q, want %q", got, want)
	}
	if got := <-late; got != want {
		t.Errorf("late subscriber got %q, want %q", got, want)
	}
}

func TestWatchNoteTerminalEvent(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)
	id := store.Create(KindNote, nil)

	store.Mutate(id, func(task *Task) {
		task.AppendFragment("hello")
		task.Status = StatusCompleted
		task.Progress = 100
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var events []NoteEvent
	for ev := range w.WatchNote(ctx, id) {
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("expected a content event followed by a terminal event, got %d events", len(events))
	}
	if events[0].Status != "streaming" || events[0].Content != "hello" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Status != "completed" {
		t.Errorf("unexpected terminal event %+v", events[1])
	}
}

func TestWatchContextCancel(t *testing.T) {
	store := NewStore()
	w := testWatcher(store)
	id := store.Create(KindDownload, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := w.Watch(ctx, id)

	<-ch // first event
	cancel()

	select {
	case _, open := <-ch:
		if open {
			// One buffered tick may still arrive; the channel must close after.
			if _, open := <-ch; open {
				t.Error("channel still open after context cancel")
			}
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after context cancel")
	}
}
