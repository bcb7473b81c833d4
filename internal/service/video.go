package service

import (
	"context"
	"log/slog"
	"time"

	"videonote/internal/metrics"
	"videonote/internal/models"
	"videonote/internal/worker"
	"videonote/internal/ytdlp"
)

// InfoExtractor is the slice of the yt-dlp client the preview service needs.
type InfoExtractor interface {
	ExtractInfo(ctx context.Context, url string) (ytdlp.VideoMetadata, error)
}

// VideoService resolves video metadata previews. Extraction is a blocking
// external process, so it runs on the worker pool, but the request itself is
// synchronous: no task record is involved.
type VideoService struct {
	info   InfoExtractor
	pool   *worker.Pool
	stats  *metrics.Collector
	logger *slog.Logger
}

// NewVideoService creates a preview service.
func NewVideoService(info InfoExtractor, pool *worker.Pool, stats *metrics.Collector, logger *slog.Logger) *VideoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoService{info: info, pool: pool, stats: stats, logger: logger}
}

// Preview fetches title, thumbnail, duration, and platform for a video URL.
func (s *VideoService) Preview(ctx context.Context, url string) (models.VideoInfo, error) {
	platform := ytdlp.Platform(url)
	s.logger.Info("video preview requested", "url", url, "platform", platform)

	start := time.Now()
	var meta ytdlp.VideoMetadata
	err := s.pool.Do(ctx, func() error {
		m, exErr := s.info.ExtractInfo(ctx, url)
		meta = m
		return exErr
	})
	if s.stats != nil {
		s.stats.Record(metrics.OpPreview, time.Since(start), err)
	}
	if err != nil {
		return models.VideoInfo{}, err
	}

	title := meta.Title
	if title == "" {
		title = "Unknown title"
	}
	return models.VideoInfo{
		Title:     title,
		Thumbnail: meta.Thumbnail,
		Duration:  int(meta.Duration),
		Platform:  platform,
		URL:       url,
	}, nil
}
