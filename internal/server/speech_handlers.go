package server

import (
	"net/http"
	"strconv"
	"time"

	"videonote/internal/metrics"
)

type qaRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
	VideoURL string `json:"video_url"`
}

func (a *App) qaAsk(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		a.respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	sse, ok := newSSEWriter(w)
	if !ok {
		a.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	err := a.qa.Ask(r.Context(), req.Question, req.Context, req.VideoURL, func(token string) error {
		return sse.send(map[string]string{"status": "streaming", "content": token})
	})
	if err != nil {
		a.logger.Warn("qa answer failed", "error", err)
		sse.send(map[string]string{"status": "error", "message": err.Error()})
		return
	}

	sse.send(map[string]string{"status": "completed"})
}

func (a *App) sttTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	start := time.Now()
	text, err := a.speech.Transcribe(r.Context(), header.Filename, file)
	if a.stats != nil {
		a.stats.Record(metrics.OpSTT, time.Since(start), err)
	}
	if err != nil {
		a.logger.Warn("speech transcription failed", "file", header.Filename, "error", err)
		a.respondError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

type ttsRequest struct {
	Text  string   `json:"text"`
	Speed *float64 `json:"speed"`
}

func (a *App) ttsSpeak(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		a.respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	a.settingsMu.Lock()
	speed := a.cfg.TTSSpeed
	a.settingsMu.Unlock()
	if req.Speed != nil {
		speed = *req.Speed
	}

	start := time.Now()
	audio, err := a.speech.Synthesize(r.Context(), req.Text, speed)
	if a.stats != nil {
		a.stats.Record(metrics.OpTTS, time.Since(start), err)
	}
	if err != nil {
		a.logger.Warn("speech synthesis failed", "error", err)
		a.respondError(w, http.StatusBadGateway, "synthesis failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.Write(audio)
}
