package server

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"videonote/internal/models"
	"videonote/internal/service"
)

type previewRequest struct {
	URL string `json:"url"`
}

func (a *App) videoPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		a.respondError(w, http.StatusBadRequest, "video URL is required")
		return
	}

	info, err := a.video.Preview(r.Context(), req.URL)
	if err != nil {
		a.logger.Warn("video preview failed", "url", req.URL, "error", err)
		a.respondError(w, http.StatusBadGateway, "failed to fetch video info: "+err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, info)
}

type downloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

func (a *App) startDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := a.download.Start(req.URL, req.Format, req.Quality)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, models.TaskResponse{
		TaskID:  id,
		Status:  "processing",
		Message: "download started",
	})
}

func (a *App) downloadProgress(w http.ResponseWriter, r *http.Request) {
	a.streamProgress(w, r, chi.URLParam(r, "taskID"))
}

func (a *App) downloadFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	path, ok := a.download.FilePath(id)
	if !ok {
		a.respondError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

type transcribeRequest struct {
	URL       string `json:"url"`
	LocalPath string `json:"local_path"`
}

func (a *App) startTranscription(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := a.transcribe.Start(req.URL, req.LocalPath)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, models.TaskResponse{
		TaskID:  id,
		Status:  "processing",
		Message: "transcription started",
	})
}

func (a *App) transcriptionProgress(w http.ResponseWriter, r *http.Request) {
	a.streamProgress(w, r, chi.URLParam(r, "taskID"))
}

func (a *App) transcriptionResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	// An unknown id and a still-running task are indistinguishable here on
	// purpose: the result simply does not exist yet.
	result, ok := a.transcribe.Result(id)
	if !ok {
		a.respondError(w, http.StatusNotFound, "transcription result not found")
		return
	}

	a.respondJSON(w, http.StatusOK, result)
}

type noteRequest struct {
	TranscriptionText string `json:"transcription_text"`
	Language          string `json:"language"`
}

func (a *App) generateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := a.note.Start(req.TranscriptionText, req.Language)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			a.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, models.TaskResponse{
		TaskID:  id,
		Status:  "processing",
		Message: "note generation started",
	})
}

func (a *App) noteStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	sse, ok := newSSEWriter(w)
	if !ok {
		a.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	for ev := range a.watcher.WatchNote(r.Context(), id) {
		if err := sse.send(ev); err != nil {
			return
		}
	}
}

func (a *App) noteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	result, ok := a.note.Result(id)
	if !ok {
		a.respondError(w, http.StatusNotFound, "note result not found")
		return
	}

	a.respondJSON(w, http.StatusOK, result)
}

// streamProgress serves the shared SSE progress stream for download and
// transcription tasks.
func (a *App) streamProgress(w http.ResponseWriter, r *http.Request, id string) {
	sse, ok := newSSEWriter(w)
	if !ok {
		a.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	for ev := range a.watcher.Watch(r.Context(), id) {
		if err := sse.send(ev); err != nil {
			return
		}
	}
}
