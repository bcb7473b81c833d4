package service

import (
	"context"
	"errors"
	"testing"

	"videonote/internal/task"
	"videonote/internal/ytdlp"
)

type fakeDownloader struct {
	percents []int
	path     string
	err      error
	gotReq   ytdlp.DownloadRequest
}

func (f *fakeDownloader) Download(ctx context.Context, req ytdlp.DownloadRequest, cb ytdlp.ProgressFunc) (string, error) {
	f.gotReq = req
	for _, p := range f.percents {
		cb(p)
	}
	return f.path, f.err
}

func TestDownloadStartValidation(t *testing.T) {
	fx := newFixture()
	svc := NewDownloadService(fx.store, fx.runner, fx.pool, &fakeDownloader{}, t.TempDir(), nil, fx.logger)

	if _, err := svc.Start("", "mp4", "best"); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
	if fx.store.Len() != 0 {
		t.Error("no task should be created for an invalid request")
	}
}

func TestDownloadCompletes(t *testing.T) {
	fx := newFixture()
	dl := &fakeDownloader{percents: []int{10, 50, 100}, path: "/tmp/out/video.mp4"}
	svc := NewDownloadService(fx.store, fx.runner, fx.pool, dl, t.TempDir(), nil, fx.logger)

	id, err := svc.Start("https://www.youtube.com/watch?v=abc", "", "")
	if err != nil {
		t.Fatal(err)
	}

	snap := waitTerminal(t, fx.store, id)
	if snap.Status != task.StatusCompleted {
		t.Fatalf("expected completed, got %q (%s)", snap.Status, snap.Error)
	}
	if snap.Progress != 100 {
		t.Errorf("expected progress 100, got %d", snap.Progress)
	}
	if snap.FilePath != "/tmp/out/video.mp4" {
		t.Errorf("file path not recorded, got %q", snap.FilePath)
	}
	if dl.gotReq.Format != "mp4" || dl.gotReq.Quality != "best" {
		t.Errorf("defaults not applied: %+v", dl.gotReq)
	}
	if dl.gotReq.ID != id {
		t.Errorf("request id %q should match task id %q", dl.gotReq.ID, id)
	}

	path, ok := svc.FilePath(id)
	if !ok || path != "/tmp/out/video.mp4" {
		t.Errorf("FilePath = (%q, %v)", path, ok)
	}
}

func TestDownloadProgressStaysBelow100UntilDone(t *testing.T) {
	fx := newFixture()
	dl := &fakeDownloader{percents: []int{100}, path: "/tmp/x.mp4"}
	svc := NewDownloadService(fx.store, fx.runner, fx.pool, dl, t.TempDir(), nil, fx.logger)

	// Raw 100% from the downloader scales to 95; only completion sets 100.
	id, _ := svc.Start("https://example.com/v", "mp4", "best")
	snap := waitTerminal(t, fx.store, id)
	if snap.Status != task.StatusCompleted || snap.Progress != 100 {
		t.Errorf("got %q/%d", snap.Status, snap.Progress)
	}
}

func TestDownloadFailure(t *testing.T) {
	fx := newFixture()
	dl := &fakeDownloader{percents: []int{30}, err: errors.New("yt-dlp failed: HTTP Error 403")}
	svc := NewDownloadService(fx.store, fx.runner, fx.pool, dl, t.TempDir(), nil, fx.logger)

	id, _ := svc.Start("https://example.com/v", "mp4", "best")
	snap := waitTerminal(t, fx.store, id)

	if snap.Status != task.StatusError {
		t.Fatalf("expected error status, got %q", snap.Status)
	}
	if snap.Progress >= 100 {
		t.Errorf("failed task must not reach 100, got %d", snap.Progress)
	}
	if snap.Error == "" {
		t.Error("expected the failure message on the task")
	}

	if _, ok := svc.FilePath(id); ok {
		t.Error("FilePath must not resolve for a failed task")
	}
}

func TestDownloadFilePathUnknownID(t *testing.T) {
	fx := newFixture()
	svc := NewDownloadService(fx.store, fx.runner, fx.pool, &fakeDownloader{}, t.TempDir(), nil, fx.logger)

	if _, ok := svc.FilePath("missing"); ok {
		t.Error("expected not found for unknown id")
	}
}
