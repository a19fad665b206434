package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"ai-sitechat-be/internal/dto"
	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/pkg/llm"
	"ai-sitechat-be/pkg/prompt"
	"ai-sitechat-be/pkg/retrieval"
	"ai-sitechat-be/pkg/stream"
)

// MaxQuestionLength caps the latest user message; longer submissions are
// rejected before any retrieval work happens.
const MaxQuestionLength = 1000

var (
	ErrNoUserMessage   = errors.New("conversation has no user message to answer")
	ErrEmptyQuestion   = errors.New("question must not be empty")
	ErrQuestionTooLong = fmt.Errorf("question exceeds %d characters", MaxQuestionLength)
)

type IChatService interface {
	// StreamChat validates the latest user turn, retrieves context and writes
	// the full server-push stream to w. A non-nil error means nothing was
	// written yet and the caller can still send a normal error response.
	StreamChat(ctx context.Context, w *bufio.Writer, req *dto.ChatRequest) error
	// Validate runs only the request checks, without touching the writer.
	Validate(req *dto.ChatRequest) error
}

type chatService struct {
	assembler   *retrieval.Assembler
	encoder     *stream.Encoder
	logger      logger.ILogger
	modelName   string
	chatOptions []llm.Option
}

func NewChatService(
	assembler *retrieval.Assembler,
	encoder *stream.Encoder,
	log logger.ILogger,
	modelName string,
) IChatService {
	return &chatService{
		assembler: assembler,
		encoder:   encoder,
		logger:    log,
		modelName: modelName,
		chatOptions: []llm.Option{
			llm.WithModel(modelName),
			llm.WithTemperature(0.2),
		},
	}
}

func (s *chatService) Validate(req *dto.ChatRequest) error {
	question, err := latestUserMessage(req)
	if err != nil {
		return err
	}
	if len([]rune(question)) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}

func (s *chatService) StreamChat(ctx context.Context, w *bufio.Writer, req *dto.ChatRequest) error {
	if err := s.Validate(req); err != nil {
		return err
	}
	question, _ := latestUserMessage(req)

	s.logger.Info("chat", "chat stream started", map[string]interface{}{
		"user_id":         req.UserId,
		"question_length": len(question),
	})

	result := s.assembler.Assemble(ctx, question)

	sources := make([]string, 0, len(result.Passages))
	seen := map[string]bool{}
	for _, p := range result.Passages {
		if p.SourceURL == "" || seen[p.SourceURL] {
			continue
		}
		seen[p.SourceURL] = true
		sources = append(sources, p.SourceURL)
	}

	fullPrompt := prompt.NewContextBuilder(result.Context, question, time.Now()).Build()

	s.encoder.Stream(ctx, w, fullPrompt, sources, s.chatOptions...)
	return nil
}

// latestUserMessage walks the history backwards; assistant and system turns
// are skipped so a trailing assistant echo does not mask the real question.
func latestUserMessage(req *dto.ChatRequest) (string, error) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		if req.Messages[i].Content == "" {
			return "", ErrEmptyQuestion
		}
		return req.Messages[i].Content, nil
	}
	return "", ErrNoUserMessage
}
