// Package server exposes the HTTP surface: task creation, progress streams,
// result fetches, and the synchronous call-through endpoints.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"videonote/internal/config"
	"videonote/internal/llm"
	"videonote/internal/metrics"
	"videonote/internal/service"
	"videonote/internal/speech"
	"videonote/internal/task"
)

// SpeechClient is the slice of the speech client the server needs.
type SpeechClient interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
	Reconfigure(cfg speech.Config)
}

// ModelAdmin reconfigures the chat model after a settings update.
type ModelAdmin interface {
	Reconfigure(cfg llm.Config) error
}

// Deps bundles the collaborators the server routes to.
type Deps struct {
	Video      *service.VideoService
	Download   *service.DownloadService
	Transcribe *service.TranscribeService
	Note       *service.NoteService
	QA         *service.QAService

	Speech SpeechClient
	Model  ModelAdmin

	Watcher *task.Watcher
	Stats   *metrics.Collector
	Logger  *slog.Logger
}

// App wires the router to the services.
type App struct {
	logger *slog.Logger
	router *chi.Mux

	video      *service.VideoService
	download   *service.DownloadService
	transcribe *service.TranscribeService
	note       *service.NoteService
	qa         *service.QAService

	speech SpeechClient
	model  ModelAdmin

	watcher *task.Watcher
	stats   *metrics.Collector

	upgrader websocket.Upgrader

	settingsMu sync.Mutex
	cfg        config.Config
}

// NewApp creates the HTTP application.
func NewApp(cfg config.Config, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		logger:     logger,
		router:     chi.NewRouter(),
		video:      deps.Video,
		download:   deps.Download,
		transcribe: deps.Transcribe,
		note:       deps.Note,
		qa:         deps.QA,
		speech:     deps.Speech,
		model:      deps.Model,
		watcher:    deps.Watcher,
		stats:      deps.Stats,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg: cfg,
	}

	a.registerRoutes()
	return a
}

// Router returns the HTTP handler.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) registerRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)
	a.router.Use(a.corsMiddleware)
	a.router.Use(a.requestLogger)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/health", a.health)

		r.Post("/video/preview", a.videoPreview)

		r.Route("/download", func(r chi.Router) {
			r.Post("/start", a.startDownload)
			r.Get("/progress/{taskID}", a.downloadProgress)
			r.Get("/file/{taskID}", a.downloadFile)
		})

		r.Route("/transcribe", func(r chi.Router) {
			r.Post("/start", a.startTranscription)
			r.Get("/progress/{taskID}", a.transcriptionProgress)
			r.Get("/result/{taskID}", a.transcriptionResult)
		})

		r.Route("/note", func(r chi.Router) {
			r.Post("/generate", a.generateNote)
			r.Get("/stream/{taskID}", a.noteStream)
			r.Get("/result/{taskID}", a.noteResult)
		})

		r.Post("/qa/ask", a.qaAsk)
		r.Post("/stt/transcribe", a.sttTranscribe)
		r.Post("/tts/speak", a.ttsSpeak)

		r.Get("/settings", a.getSettings)
		r.Put("/settings", a.updateSettings)
		r.Get("/stats", a.statsSnapshot)
	})

	a.router.Get("/ws/{taskID}", a.taskWS)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "videonote-backend",
	})
}

func (a *App) statsSnapshot(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.stats.Snapshot())
}

func (a *App) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to encode response", "error", err)
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, msg string) {
	a.respondJSON(w, status, map[string]string{"detail": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 16<<20))
	return dec.Decode(v)
}

// Server wraps http.Server with timeouts suited for long streams.
func (a *App) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: progress and note streams stay open until the
		// task is terminal.
	}
}
