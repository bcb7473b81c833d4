package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"videonote/internal/metrics"
	"videonote/internal/models"
	"videonote/internal/task"
	"videonote/internal/whisper"
	"videonote/internal/worker"
	"videonote/internal/ytdlp"
)

// ErrNoSource is returned when neither a URL nor a local path is provided.
var ErrNoSource = errors.New("a video URL or local file path is required")

// AudioExtractor is the slice of the yt-dlp client the transcription service
// needs.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, url, outputDir string, cb ytdlp.ProgressFunc) (string, error)
}

// Transcriber converts an audio file into a transcription result.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, cb whisper.ProgressFunc) (models.TranscriptionResult, error)
}

// TranscribeService orchestrates transcription tasks. Audio acquisition maps
// to progress 0–10; the transcription itself maps elapsed media time onto
// 10–90; the remainder is the completion transition.
type TranscribeService struct {
	store       *task.Store
	runner      *task.Runner
	pool        *worker.Pool
	audio       AudioExtractor
	transcriber Transcriber
	tempDir     string
	stats       *metrics.Collector
	logger      *slog.Logger
}

// NewTranscribeService creates a transcription orchestrator.
func NewTranscribeService(store *task.Store, runner *task.Runner, pool *worker.Pool, audio AudioExtractor, transcriber Transcriber, tempDir string, stats *metrics.Collector, logger *slog.Logger) *TranscribeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscribeService{
		store:       store,
		runner:      runner,
		pool:        pool,
		audio:       audio,
		transcriber: transcriber,
		tempDir:     tempDir,
		stats:       stats,
		logger:      logger,
	}
}

// Start validates the request synchronously — no task is created when both
// sources are missing — then registers a task and launches the work.
func (s *TranscribeService) Start(url, localPath string) (string, error) {
	if url == "" && localPath == "" {
		return "", ErrNoSource
	}

	source := url
	if source == "" {
		source = localPath
	}
	id := s.store.Create(task.KindTranscribe, func(t *task.Task) {
		t.SourceURL = source
	})

	s.runner.Go(id, func(ctx context.Context) error {
		start := time.Now()
		err := s.run(ctx, id, url, localPath)
		if s.stats != nil {
			s.stats.Record(metrics.OpTranscribe, time.Since(start), err)
		}
		return err
	})

	s.logger.Info("transcription task created", "task_id", id, "source", source)
	return id, nil
}

func (s *TranscribeService) run(ctx context.Context, id, url, localPath string) error {
	if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
		return fmt.Errorf("prepare temp dir: %w", err)
	}
	tmpDir, err := os.MkdirTemp(s.tempDir, "transcribe-*")
	if err != nil {
		return fmt.Errorf("prepare temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath, err := s.acquireAudio(ctx, id, url, localPath, tmpDir)
	if err != nil {
		return err
	}
	s.store.Mutate(id, func(t *task.Task) { t.SetProgress(10) })

	var result models.TranscriptionResult
	err = s.pool.Do(ctx, func() error {
		r, trErr := s.transcriber.Transcribe(ctx, audioPath, func(ratio float64) {
			p := 10 + int(ratio*80)
			if p > 90 {
				p = 90
			}
			s.store.Mutate(id, func(t *task.Task) {
				t.SetProgress(p)
			})
		})
		result = r
		return trErr
	})
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}

	s.store.Mutate(id, func(t *task.Task) {
		t.Transcription = &result
	})
	s.logger.Info("transcription finished", "task_id", id, "duration", result.Duration, "language", result.Language)
	return nil
}

// acquireAudio resolves the audio input: an existing local file is used as-is,
// otherwise the URL's audio track is extracted on the worker pool.
func (s *TranscribeService) acquireAudio(ctx context.Context, id, url, localPath, tmpDir string) (string, error) {
	if localPath != "" {
		if _, err := os.Stat(localPath); err != nil {
			return "", fmt.Errorf("local file not accessible: %w", err)
		}
		return localPath, nil
	}

	s.store.Mutate(id, func(t *task.Task) { t.SetProgress(2) })

	var audioPath string
	err := s.pool.Do(ctx, func() error {
		p, exErr := s.audio.ExtractAudio(ctx, url, tmpDir, nil)
		audioPath = p
		return exErr
	})
	if err != nil {
		return "", fmt.Errorf("audio extraction: %w", err)
	}
	return audioPath, nil
}

// Result returns the transcription of a completed task. Unknown ids and tasks
// that have not completed are indistinguishable to the caller.
func (s *TranscribeService) Result(id string) (*models.TranscriptionResult, bool) {
	snap, ok := s.store.Get(id)
	if !ok || snap.Status != task.StatusCompleted || snap.Transcription == nil {
		return nil, false
	}
	return snap.Transcription, true
}
