package task

import (
	"fmt"
	"sync"
	"testing"
)

func TestCreateInitialState(t *testing.T) {
	store := NewStore()

	id := store.Create(KindDownload, func(task *Task) {
		task.SourceURL = "https://example.com/v"
	})
	if id == "" {
		t.Fatal("expected a non-empty task id")
	}
	if len(id) != 8 {
		t.Errorf("expected 8-char id, got %q", id)
	}

	snap, ok := store.Get(id)
	if !ok {
		t.Fatal("task not found after create")
	}
	if snap.Status != StatusProcessing {
		t.Errorf("expected status %q, got %q", StatusProcessing, snap.Status)
	}
	if snap.Progress != 0 {
		t.Errorf("expected progress 0, got %d", snap.Progress)
	}
	if snap.SourceURL != "https://example.com/v" {
		t.Errorf("init func not applied, got %q", snap.SourceURL)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestCreateUniqueIDs(t *testing.T) {
	store := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := store.Create(KindNote, nil)
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if store.Len() != 200 {
		t.Errorf("expected 200 tasks, got %d", store.Len())
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get("nope"); ok {
		t.Error("expected not found for unknown id")
	}
}

func TestMutateUnknown(t *testing.T) {
	store := NewStore()
	if store.Mutate("nope", func(task *Task) {}) {
		t.Error("expected Mutate to report false for unknown id")
	}
}

func TestSetProgressMonotone(t *testing.T) {
	store := NewStore()
	id := store.Create(KindTranscribe, nil)

	for _, p := range []int{10, 40, 25, 40, 90} {
		store.Mutate(id, func(task *Task) { task.SetProgress(p) })
	}

	snap, _ := store.Get(id)
	if snap.Progress != 90 {
		t.Errorf("expected progress 90, got %d", snap.Progress)
	}
}

func TestSetProgressCapsAt99(t *testing.T) {
	store := NewStore()
	id := store.Create(KindDownload, nil)

	store.Mutate(id, func(task *Task) { task.SetProgress(100) })

	snap, _ := store.Get(id)
	if snap.Progress != 99 {
		t.Errorf("expected progress capped at 99, got %d", snap.Progress)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	id := store.Create(KindNote, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			store.Mutate(id, func(task *Task) {
				task.AppendFragment(fmt.Sprintf("f%d", n))
			})
		}(i)
		go func() {
			defer wg.Done()
			store.Get(id)
		}()
	}
	wg.Wait()

	snap, _ := store.Get(id)
	if len(snap.Fragments) != 10 {
		t.Errorf("expected 10 fragments, got %d", len(snap.Fragments))
	}
}
