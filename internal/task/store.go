package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the process-lifetime registry of tasks. It is constructed
// explicitly and injected into the orchestrators; records are never evicted,
// they live until the process exits.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewStore creates an empty task registry.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*Task)}
}

// Create inserts a new processing task and returns its identifier. The
// optional init callback fills in kind-specific input fields before the task
// becomes visible to readers.
func (s *Store) Create(kind Kind, init func(*Task)) string {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Short ids for convenience; re-roll on the unlikely collision with a
	// live task so an id never aliases two tasks.
	var id string
	for {
		id = uuid.New().String()[:8]
		if _, exists := s.tasks[id]; !exists {
			break
		}
	}

	t := &Task{
		ID:        id,
		Kind:      kind,
		Status:    StatusProcessing,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if init != nil {
		init(t)
	}
	s.tasks[id] = t
	return id
}

// Get returns a point-in-time snapshot of the task, or false if the id is
// unknown. Never blocks on in-flight mutations beyond the snapshot copy.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot(), true
}

// Mutate applies fn to the task under its write lock, so concurrent readers
// observe either the state before or after the whole update, never a partial
// one. Returns false if the id is unknown.
func (s *Store) Mutate(id string, fn func(*Task)) bool {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t)
	t.UpdatedAt = time.Now()
	return true
}

// Len returns the number of registered tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
