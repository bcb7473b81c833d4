// Package llm wraps the langchaingo chat model used for note generation and
// video Q&A against an OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Config identifies the endpoint and model to talk to.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Message is one prior conversation turn for multi-turn generation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Model is a long-lived, reconfigurable handle on the chat model. It is
// constructed once and injected into the services that need it.
type Model struct {
	mu        sync.RWMutex
	llm       llms.Model
	modelName string
}

// ErrNotConfigured is returned by generation calls until an API key has been
// supplied, either at startup or through a later Reconfigure.
var ErrNotConfigured = errors.New("llm not configured: set an API key first")

// New creates a model client from configuration. An empty API key yields an
// unconfigured model; generation calls fail until Reconfigure provides one.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return &Model{modelName: cfg.Model}, nil
	}
	client, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return &Model{llm: client, modelName: cfg.Model}, nil
}

// Reconfigure replaces the underlying client, e.g. after a settings update.
// In-flight generations keep using the client they started with.
func (m *Model) Reconfigure(cfg Config) error {
	client, err := build(cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.llm = client
	m.modelName = cfg.Model
	m.mu.Unlock()
	return nil
}

func build(cfg Config) (llms.Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return client, nil
}

func (m *Model) client() (llms.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.llm == nil {
		return nil, ErrNotConfigured
	}
	return m.llm, nil
}

// ModelName returns the configured chat model name.
func (m *Model) ModelName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modelName
}

// Generate generates text from a single prompt.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, client, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return response, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	response, err := client.GenerateContent(ctx, messages, llms.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// GenerateWithSystemStream generates text with a system prompt, delivering
// output incrementally through onToken, and returns the full text at the end.
func (m *Model) GenerateWithSystemStream(ctx context.Context, systemPrompt, userPrompt string, onToken func(token string) error) (string, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	response, err := client.GenerateContent(ctx, messages,
		llms.WithTemperature(0.3),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onToken(string(chunk))
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate stream: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// StreamConversation streams a reply to the final user turn of a multi-turn
// conversation.
func (m *Model) StreamConversation(ctx context.Context, systemPrompt string, history []Message, onToken func(token string) error) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
	}
	for _, msg := range history {
		role := schema.ChatMessageTypeHuman
		if msg.Role == "assistant" {
			role = schema.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, msg.Content))
	}

	_, err = client.GenerateContent(ctx, messages,
		llms.WithTemperature(0.5),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onToken(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("stream conversation: %w", err)
	}
	return nil
}
