package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videonote/internal/config"
	"videonote/internal/llm"
	"videonote/internal/metrics"
	"videonote/internal/server"
	"videonote/internal/service"
	"videonote/internal/speech"
	"videonote/internal/task"
	"videonote/internal/whisper"
	"videonote/internal/worker"
	"videonote/internal/ytdlp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg := config.Load()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	store := task.NewStore()
	runner := task.NewRunner(store, logger)
	watcher := task.NewWatcher(store, cfg.PollInterval, cfg.NotePollInterval)
	pool := worker.NewPool(cfg.Workers)
	stats := metrics.NewCollector()

	dl := ytdlp.NewClient(ytdlp.Options{
		Bin:                cfg.YTDLPBin,
		CookiesFile:        cfg.CookiesFile,
		CookiesFromBrowser: cfg.CookiesFromBrowser,
	}, logger)
	transcriber := whisper.NewTranscriber(cfg.WhisperBin, cfg.WhisperModel, logger)

	model, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		return fmt.Errorf("create llm model: %w", err)
	}
	speechClient := speech.New(speech.Config{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		STTModel: cfg.STTModel,
		TTSModel: cfg.TTSModel,
		TTSVoice: cfg.TTSVoice,
		TTSSpeed: cfg.TTSSpeed,
	})

	app := server.NewApp(cfg, server.Deps{
		Video:      service.NewVideoService(dl, pool, stats, logger),
		Download:   service.NewDownloadService(store, runner, pool, dl, cfg.TempDir, stats, logger),
		Transcribe: service.NewTranscribeService(store, runner, pool, dl, transcriber, cfg.TempDir, stats, logger),
		Note:       service.NewNoteService(store, runner, model, cfg.ChunkSize, cfg.ChunkOverlap, stats, logger),
		QA:         service.NewQAService(model, stats, logger),
		Speech:     speechClient,
		Model:      model,
		Watcher:    watcher,
		Stats:      stats,
		Logger:     logger,
	})

	srv := app.Server(cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
