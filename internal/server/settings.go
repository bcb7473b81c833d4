package server

import (
	"net/http"

	"videonote/internal/llm"
	"videonote/internal/speech"
)

type settingsPayload struct {
	OpenAIAPIKey  *string  `json:"openai_api_key,omitempty"`
	OpenAIBaseURL *string  `json:"openai_base_url,omitempty"`
	OpenAIModel   *string  `json:"openai_model,omitempty"`
	TTSModel      *string  `json:"tts_model,omitempty"`
	TTSVoice      *string  `json:"tts_voice,omitempty"`
	TTSSpeed      *float64 `json:"tts_speed,omitempty"`
	STTModel      *string  `json:"stt_model,omitempty"`
	WhisperModel  *string  `json:"whisper_model,omitempty"`
}

func (a *App) getSettings(w http.ResponseWriter, r *http.Request) {
	a.settingsMu.Lock()
	cfg := a.cfg
	a.settingsMu.Unlock()

	a.respondJSON(w, http.StatusOK, map[string]any{
		"openai_api_key":  maskKey(cfg.OpenAIAPIKey),
		"openai_base_url": cfg.OpenAIBaseURL,
		"openai_model":    cfg.OpenAIModel,
		"tts_model":       cfg.TTSModel,
		"tts_voice":       cfg.TTSVoice,
		"tts_speed":       cfg.TTSSpeed,
		"stt_model":       cfg.STTModel,
		"whisper_model":   cfg.WhisperModel,
	})
}

func (a *App) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPayload
	if err := decodeJSON(r, &req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a.settingsMu.Lock()
	if req.OpenAIAPIKey != nil {
		a.cfg.OpenAIAPIKey = *req.OpenAIAPIKey
	}
	if req.OpenAIBaseURL != nil {
		a.cfg.OpenAIBaseURL = *req.OpenAIBaseURL
	}
	if req.OpenAIModel != nil {
		a.cfg.OpenAIModel = *req.OpenAIModel
	}
	if req.TTSModel != nil {
		a.cfg.TTSModel = *req.TTSModel
	}
	if req.TTSVoice != nil {
		a.cfg.TTSVoice = *req.TTSVoice
	}
	if req.TTSSpeed != nil {
		a.cfg.TTSSpeed = *req.TTSSpeed
	}
	if req.STTModel != nil {
		a.cfg.STTModel = *req.STTModel
	}
	if req.WhisperModel != nil {
		a.cfg.WhisperModel = *req.WhisperModel
	}
	cfg := a.cfg
	a.settingsMu.Unlock()

	// Reconfigure the clients so the next call uses the new credentials.
	if err := a.model.Reconfigure(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}); err != nil {
		a.logger.Warn("model reconfigure failed", "error", err)
	}
	a.speech.Reconfigure(speech.Config{
		APIKey:   cfg.OpenAIAPIKey,
		BaseURL:  cfg.OpenAIBaseURL,
		STTModel: cfg.STTModel,
		TTSModel: cfg.TTSModel,
		TTSVoice: cfg.TTSVoice,
		TTSSpeed: cfg.TTSSpeed,
	})

	a.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// maskKey hides all but the edges of an API key.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
