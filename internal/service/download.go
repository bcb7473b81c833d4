// Package service contains the orchestrators: kind-specific assemblies of the
// task store, job runner, worker pool, and external collaborators.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"videonote/internal/metrics"
	"videonote/internal/task"
	"videonote/internal/worker"
	"videonote/internal/ytdlp"
)

// ErrNoURL is returned when a download is requested without a source URL.
var ErrNoURL = errors.New("video URL is required")

// Downloader is the slice of the yt-dlp client the download service needs.
type Downloader interface {
	Download(ctx context.Context, req ytdlp.DownloadRequest, cb ytdlp.ProgressFunc) (string, error)
}

// DownloadService orchestrates video download tasks. Progress is the byte
// ratio reported by the downloader, weighted to 0–95; the last 5 points cover
// locating the artifact and the completion transition.
type DownloadService struct {
	store  *task.Store
	runner *task.Runner
	pool   *worker.Pool
	dl     Downloader
	dir    string
	stats  *metrics.Collector
	logger *slog.Logger
}

// NewDownloadService creates a download orchestrator writing artifacts under
// dir.
func NewDownloadService(store *task.Store, runner *task.Runner, pool *worker.Pool, dl Downloader, dir string, stats *metrics.Collector, logger *slog.Logger) *DownloadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadService{
		store:  store,
		runner: runner,
		pool:   pool,
		dl:     dl,
		dir:    dir,
		stats:  stats,
		logger: logger,
	}
}

// Start validates the request, registers a task, and launches the download in
// the background. Returns the task id immediately.
func (s *DownloadService) Start(url, format, quality string) (string, error) {
	if url == "" {
		return "", ErrNoURL
	}
	if format == "" {
		format = "mp4"
	}
	if quality == "" {
		quality = "best"
	}

	id := s.store.Create(task.KindDownload, func(t *task.Task) {
		t.SourceURL = url
		t.Format = format
		t.Quality = quality
	})

	s.runner.Go(id, func(ctx context.Context) error {
		start := time.Now()
		err := s.run(ctx, id, url, format, quality)
		if s.stats != nil {
			s.stats.Record(metrics.OpDownload, time.Since(start), err)
		}
		return err
	})

	s.logger.Info("download task created", "task_id", id, "format", format, "quality", quality)
	return id, nil
}

func (s *DownloadService) run(ctx context.Context, id, url, format, quality string) error {
	req := ytdlp.DownloadRequest{
		URL:       url,
		Format:    format,
		Quality:   quality,
		OutputDir: filepath.Join(s.dir, "downloads"),
		ID:        id,
	}

	var path string
	err := s.pool.Do(ctx, func() error {
		p, dlErr := s.dl.Download(ctx, req, func(percent int) {
			scaled := percent * 95 / 100
			s.store.Mutate(id, func(t *task.Task) {
				t.SetProgress(scaled)
			})
		})
		path = p
		return dlErr
	})
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	s.store.Mutate(id, func(t *task.Task) {
		t.FilePath = path
		t.SetProgress(95)
	})
	return nil
}

// FilePath returns the artifact path for a completed task. Unknown ids and
// tasks that have not completed are indistinguishable to the caller.
func (s *DownloadService) FilePath(id string) (string, bool) {
	snap, ok := s.store.Get(id)
	if !ok || snap.Status != task.StatusCompleted {
		return "", false
	}
	return snap.FilePath, true
}
