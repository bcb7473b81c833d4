package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"videonote/internal/metrics"
	"videonote/internal/models"
	"videonote/internal/task"
	"videonote/internal/text"
)

// ErrEmptyText is returned when note generation is requested without input.
var ErrEmptyText = errors.New("transcription text is required")

const noteSystemPrompt = `You are a professional video note-taking assistant. Turn the video transcript into structured Markdown notes.

Requirements:
1. Extract the core points and summarize them concisely
2. Use a clear heading hierarchy (title, sections, lists)
3. Preserve key figures, quotes and important details
4. Close with a short summary

Output format:
# Video title (inferred from the content)

## Key points
- point 1
- point 2
...

## Details
### Topic 1
...

### Topic 2
...

## Summary
...`

const chunkSummaryPrompt = "Summarize the core content of this video transcript segment concisely, preserving key information:"

// defaultNoteTitle is used when the generated markdown has no second-level
// headings to derive a title from.
const defaultNoteTitle = "Video Notes"

// NoteModel is the slice of the LLM client the note service needs.
type NoteModel interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithSystemStream(ctx context.Context, systemPrompt, userPrompt string, onToken func(token string) error) (string, error)
}

// NoteService orchestrates note-generation tasks. Long transcripts go through
// two phases: per-chunk summaries weighted 0–60, then a streamed final
// generation weighted 60–100 whose output accumulates on the task as
// fragments for live subscribers.
type NoteService struct {
	store        *task.Store
	runner       *task.Runner
	model        NoteModel
	chunkSize    int
	chunkOverlap int
	stats        *metrics.Collector
	logger       *slog.Logger
}

// NewNoteService creates a note-generation orchestrator. Non-positive chunk
// parameters fall back to 8000/200.
func NewNoteService(store *task.Store, runner *task.Runner, model NoteModel, chunkSize, chunkOverlap int, stats *metrics.Collector, logger *slog.Logger) *NoteService {
	if chunkSize <= 0 {
		chunkSize = 8000
	}
	if chunkOverlap <= 0 {
		chunkOverlap = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{
		store:        store,
		runner:       runner,
		model:        model,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		stats:        stats,
		logger:       logger,
	}
}

// Start validates the input, registers a task, and launches generation in the
// background.
func (s *NoteService) Start(transcript, language string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyText
	}

	id := s.store.Create(task.KindNote, nil)

	s.runner.Go(id, func(ctx context.Context) error {
		start := time.Now()
		err := s.run(ctx, id, transcript, language)
		if s.stats != nil {
			s.stats.Record(metrics.OpNote, time.Since(start), err)
		}
		return err
	})

	s.logger.Info("note task created", "task_id", id, "transcript_len", len(transcript))
	return id, nil
}

func (s *NoteService) run(ctx context.Context, id, transcript, language string) error {
	chunks := text.Chunk(transcript, s.chunkSize, s.chunkOverlap)

	// Phase 1: condense long transcripts chunk by chunk. A single chunk is the
	// original text and skips straight to phase 2.
	content := chunks[0]
	if len(chunks) > 1 {
		summaries := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			progress := i * 60 / len(chunks)
			s.store.Mutate(id, func(t *task.Task) {
				t.SetProgress(progress)
			})

			genStart := time.Now()
			summary, err := s.model.GenerateWithSystem(ctx, chunkSummaryPrompt, chunk)
			if s.stats != nil {
				s.stats.Record(metrics.OpLLMGenerate, time.Since(genStart), err)
			}
			if err != nil {
				return fmt.Errorf("summarize chunk %d/%d: %w", i+1, len(chunks), err)
			}
			summaries = append(summaries, summary)
		}
		content = strings.Join(summaries, "\n\n")
	}

	// Phase 2: generate the final note, streaming fragments onto the task as
	// they arrive.
	s.store.Mutate(id, func(t *task.Task) { t.SetProgress(70) })

	userPrompt := fmt.Sprintf("Generate notes from the following video content:\n\n%s", content)
	if language != "" {
		userPrompt += fmt.Sprintf("\n\nWrite the notes in %q.", language)
	}

	markdown, err := s.model.GenerateWithSystemStream(ctx, noteSystemPrompt, userPrompt, func(token string) error {
		s.store.Mutate(id, func(t *task.Task) {
			t.AppendFragment(token)
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("generate note: %w", err)
	}

	outline := text.Outline(markdown)
	title := defaultNoteTitle
	if len(outline) > 0 {
		title = outline[0]
	}

	s.store.Mutate(id, func(t *task.Task) {
		t.Note = &models.NoteResult{
			Markdown: markdown,
			Title:    title,
			Outline:  outline,
		}
	})
	s.logger.Info("note generated", "task_id", id, "sections", len(outline))
	return nil
}

// Result returns the note of a completed task. Unknown ids and tasks that
// have not completed are indistinguishable to the caller.
func (s *NoteService) Result(id string) (*models.NoteResult, bool) {
	snap, ok := s.store.Get(id)
	if !ok || snap.Status != task.StatusCompleted || snap.Note == nil {
		return nil, false
	}
	return snap.Note, true
}
