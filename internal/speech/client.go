// Package speech holds the remote speech clients: upload speech-to-text and
// text-to-speech through an OpenAI-compatible audio API.
package speech

import (
	"context"
	"fmt"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Config identifies the audio endpoint and models.
type Config struct {
	APIKey   string
	BaseURL  string
	STTModel string
	TTSModel string
	TTSVoice string
	TTSSpeed float64
}

// Client is a long-lived, reconfigurable handle on the audio API.
type Client struct {
	mu  sync.RWMutex
	cli *openai.Client
	cfg Config
}

// New creates a speech client.
func New(cfg Config) *Client {
	return &Client{cli: build(cfg), cfg: cfg}
}

// Reconfigure replaces the underlying client after a settings update.
func (c *Client) Reconfigure(cfg Config) {
	c.mu.Lock()
	c.cli = build(cfg)
	c.cfg = cfg
	c.mu.Unlock()
}

func build(cfg Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (c *Client) snapshot() (*openai.Client, Config) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cli, c.cfg
}

// Transcribe converts uploaded audio to text. The filename is only used to
// hint the container format to the API.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	cli, cfg := c.snapshot()

	resp, err := cli.CreateTranscription(ctx, openai.AudioRequest{
		Model:    cfg.STTModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		return "", fmt.Errorf("speech transcription failed: %w", err)
	}
	return resp.Text, nil
}

// Synthesize converts text to mp3 audio. A non-positive speed falls back to
// the configured default.
func (c *Client) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	cli, cfg := c.snapshot()
	if speed <= 0 {
		speed = cfg.TTSSpeed
	}

	resp, err := cli.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(cfg.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(cfg.TTSVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, nil
}
