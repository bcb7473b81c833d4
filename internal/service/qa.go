package service

import (
	"context"
	"log/slog"
	"time"

	"videonote/internal/llm"
	"videonote/internal/metrics"
)

const qaSystemPrompt = `You are a video content Q&A assistant. The user provides the video's transcript as context and asks questions about it.

Requirements:
1. Answer only from the provided video content, never invent information
2. If the video content has no relevant information, say so explicitly
3. Keep answers concise and accurate, quoting the video where helpful`

// ConversationModel is the slice of the LLM client the Q&A service needs.
type ConversationModel interface {
	StreamConversation(ctx context.Context, systemPrompt string, history []llm.Message, onToken func(token string) error) error
}

// QAService answers questions about video content. Answers stream token by
// token straight to the caller; there is no task record, the call-through to
// the model is the whole operation.
type QAService struct {
	model  ConversationModel
	stats  *metrics.Collector
	logger *slog.Logger
}

// NewQAService creates a Q&A service.
func NewQAService(model ConversationModel, stats *metrics.Collector, logger *slog.Logger) *QAService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QAService{model: model, stats: stats, logger: logger}
}

// Ask streams the answer to a question about the video through onToken. The
// transcript context, when present, is injected as a prior conversation turn.
func (s *QAService) Ask(ctx context.Context, question, transcript, videoURL string, onToken func(token string) error) error {
	s.logger.Info("qa request", "question", question, "video", videoURL)

	var history []llm.Message
	if transcript != "" {
		history = append(history,
			llm.Message{Role: "user", Content: "Here is the transcript of the video:\n\n" + transcript},
			llm.Message{Role: "assistant", Content: "I have read the video content. What would you like to know?"},
		)
	}
	history = append(history, llm.Message{Role: "user", Content: question})

	start := time.Now()
	err := s.model.StreamConversation(ctx, qaSystemPrompt, history, onToken)
	if s.stats != nil {
		s.stats.Record(metrics.OpLLMStream, time.Since(start), err)
	}
	return err
}
