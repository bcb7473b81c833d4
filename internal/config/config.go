// Package config loads application configuration from the environment with an
// optional YAML file overlay, and wires up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Server
	Addr    string
	TempDir string

	// OpenAI-compatible endpoint used for notes, Q&A, remote STT and TTS.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Speech
	TTSModel string
	TTSSpeed float64
	TTSVoice string
	STTModel string

	// Local whisper transcription
	WhisperBin   string
	WhisperModel string

	// yt-dlp
	YTDLPBin           string
	CookiesFile        string
	CookiesFromBrowser string

	// Task orchestration
	Workers          int
	PollInterval     time.Duration
	NotePollInterval time.Duration
	ChunkSize        int
	ChunkOverlap     int

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables with defaults matching
// the development setup.
func Load() Config {
	return Config{
		Addr:    getEnv("VIDEONOTE_ADDR", ":8000"),
		TempDir: getEnv("VIDEONOTE_TEMP_DIR", "./temp"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),

		TTSModel: getEnv("VIDEONOTE_TTS_MODEL", "ChatTTS"),
		TTSSpeed: getEnvFloat("VIDEONOTE_TTS_SPEED", 1.0),
		TTSVoice: getEnv("VIDEONOTE_TTS_VOICE", "alloy"),
		STTModel: getEnv("VIDEONOTE_STT_MODEL", "SenseVoice"),

		WhisperBin:   getEnv("VIDEONOTE_WHISPER_BIN", "whisper-cli"),
		WhisperModel: getEnv("VIDEONOTE_WHISPER_MODEL", "base"),

		YTDLPBin:           getEnv("VIDEONOTE_YTDLP_BIN", "yt-dlp"),
		CookiesFile:        getEnv("VIDEONOTE_COOKIES_FILE", ""),
		CookiesFromBrowser: getEnv("VIDEONOTE_COOKIES_FROM_BROWSER", "chrome"),

		Workers:          getEnvInt("VIDEONOTE_WORKERS", 2),
		PollInterval:     getEnvDuration("VIDEONOTE_POLL_INTERVAL", 500*time.Millisecond),
		NotePollInterval: getEnvDuration("VIDEONOTE_NOTE_POLL_INTERVAL", 200*time.Millisecond),
		ChunkSize:        getEnvInt("VIDEONOTE_CHUNK_SIZE", 8000),
		ChunkOverlap:     getEnvInt("VIDEONOTE_CHUNK_OVERLAP", 200),

		LogFile:  getEnv("VIDEONOTE_LOG_FILE", ""),
		LogLevel: ParseLogLevel(getEnv("VIDEONOTE_LOG_LEVEL", "INFO")),
	}
}

// fileConfig mirrors Config for the YAML overlay; zero values leave the
// environment-derived value in place.
type fileConfig struct {
	Addr    string `yaml:"addr"`
	TempDir string `yaml:"temp_dir"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	TTSModel string  `yaml:"tts_model"`
	TTSSpeed float64 `yaml:"tts_speed"`
	TTSVoice string  `yaml:"tts_voice"`
	STTModel string  `yaml:"stt_model"`

	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`

	YTDLPBin           string `yaml:"ytdlp_bin"`
	CookiesFile        string `yaml:"cookies_file"`
	CookiesFromBrowser string `yaml:"cookies_from_browser"`

	Workers          int           `yaml:"workers"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	NotePollInterval time.Duration `yaml:"note_poll_interval"`
	ChunkSize        int           `yaml:"chunk_size"`
	ChunkOverlap     int           `yaml:"chunk_overlap"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// LoadFile returns Load() with values from the YAML file at path layered on
// top. Only keys present in the file override the environment.
func LoadFile(path string) (Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	overlayString(&cfg.Addr, fc.Addr)
	overlayString(&cfg.TempDir, fc.TempDir)
	overlayString(&cfg.OpenAIAPIKey, fc.OpenAIAPIKey)
	overlayString(&cfg.OpenAIBaseURL, fc.OpenAIBaseURL)
	overlayString(&cfg.OpenAIModel, fc.OpenAIModel)
	overlayString(&cfg.TTSModel, fc.TTSModel)
	overlayString(&cfg.TTSVoice, fc.TTSVoice)
	overlayString(&cfg.STTModel, fc.STTModel)
	overlayString(&cfg.WhisperBin, fc.WhisperBin)
	overlayString(&cfg.WhisperModel, fc.WhisperModel)
	overlayString(&cfg.YTDLPBin, fc.YTDLPBin)
	overlayString(&cfg.CookiesFile, fc.CookiesFile)
	overlayString(&cfg.CookiesFromBrowser, fc.CookiesFromBrowser)
	overlayString(&cfg.LogFile, fc.LogFile)

	if fc.TTSSpeed > 0 {
		cfg.TTSSpeed = fc.TTSSpeed
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.PollInterval > 0 {
		cfg.PollInterval = fc.PollInterval
	}
	if fc.NotePollInterval > 0 {
		cfg.NotePollInterval = fc.NotePollInterval
	}
	if fc.ChunkSize > 0 {
		cfg.ChunkSize = fc.ChunkSize
	}
	if fc.ChunkOverlap > 0 {
		cfg.ChunkOverlap = fc.ChunkOverlap
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = ParseLogLevel(fc.LogLevel)
	}

	return cfg, nil
}

func overlayString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// ParseLogLevel maps a level name to slog.Level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
