// Package task implements the asynchronous task registry: an in-memory store
// of long-running operations, a runner that executes them off the request path,
// and watchers that turn task state into live progress streams.
package task

import (
	"sync"
	"time"

	"videonote/internal/models"
)

// Kind identifies which orchestrator created a task.
type Kind string

const (
	KindDownload   Kind = "download"
	KindTranscribe Kind = "transcribe"
	KindNote       Kind = "note"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is the mutable record for one background operation. All access goes
// through the Store; the background activity that owns the task is the only
// writer, everyone else reads snapshots.
type Task struct {
	mu sync.RWMutex

	ID       string
	Kind     Kind
	Status   Status
	Progress int
	Error    string

	// Kind-specific inputs.
	SourceURL string
	Format    string
	Quality   string

	// Kind-specific results, populated only on completion.
	FilePath      string
	Transcription *models.TranscriptionResult
	Note          *models.NoteResult

	// Fragments accumulates streamed note output. Append-only while the task
	// is processing, so watchers may share the backing array.
	Fragments []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetProgress raises progress to p, ignoring values that would move it
// backwards or past 99. 100 is reserved for the completion transition.
// Caller must hold the task's write lock (i.e. be inside Store.Mutate).
func (t *Task) SetProgress(p int) {
	if p > 99 {
		p = 99
	}
	if p > t.Progress {
		t.Progress = p
	}
}

// AppendFragment adds one streamed output fragment.
// Caller must hold the task's write lock.
func (t *Task) AppendFragment(s string) {
	t.Fragments = append(t.Fragments, s)
}

// Snapshot is an immutable copy of a task's state at one instant. Fragments
// shares its backing array with the task; the prefix visible through the
// snapshot is never mutated.
type Snapshot struct {
	ID       string
	Kind     Kind
	Status   Status
	Progress int
	Error    string

	SourceURL string
	Format    string
	Quality   string

	FilePath      string
	Transcription *models.TranscriptionResult
	Note          *models.NoteResult
	Fragments     []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Task) snapshot() Snapshot {
	return Snapshot{
		ID:            t.ID,
		Kind:          t.Kind,
		Status:        t.Status,
		Progress:      t.Progress,
		Error:         t.Error,
		SourceURL:     t.SourceURL,
		Format:        t.Format,
		Quality:       t.Quality,
		FilePath:      t.FilePath,
		Transcription: t.Transcription,
		Note:          t.Note,
		Fragments:     t.Fragments,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
