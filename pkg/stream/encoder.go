package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/pkg/llm"

	"github.com/google/uuid"
)

const (
	RoleAssistant = "assistant"

	// DoneSentinel terminates every stream, on success and on failure.
	DoneSentinel = "[DONE]"

	// eosMarker is stripped from the tail of the accumulated content if the
	// model leaks its stop sequence into the output.
	eosMarker = "<|endoftext|>"

	apologyMessage = "Sorry, something went wrong while generating the answer. Please try again."
)

// ServerEvent is one server-push frame payload. Each event carries the full
// accumulated assistant message, not a diff; the client replaces its
// in-progress message with every event it receives.
type ServerEvent struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sources   []string  `json:"sources,omitempty"`
}

// Encoder drives the LLM gateway and serializes each intermediate state of
// the assistant message as a server-push event.
type Encoder struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger

	// Injectable so tests can pin ids and timestamps.
	newId func() string
	now   func() time.Time
}

func NewEncoder(llmProvider llm.LLMProvider, log logger.ILogger) *Encoder {
	return &Encoder{
		llmProvider: llmProvider,
		logger:      log,
		newId:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
}

// Stream runs the full encode cycle for one prompt:
//
//  1. seed event with an empty assistant message, so the client can show a
//     pending bubble before any model output exists
//  2. one event per increment, carrying the full accumulated content under a
//     fresh id
//  3. on graceful exhaustion, the terminal sentinel
//  4. on any failure, a single apology event, then the terminal sentinel
//
// The terminal sentinel is written exactly once on every exit path.
func (e *Encoder) Stream(ctx context.Context, w *bufio.Writer, prompt string, sources []string, opts ...llm.Option) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer e.writeDone(w)

	if err := e.writeEvent(w, e.newEvent("", sources)); err != nil {
		e.logger.Error("stream", "seed event write failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	increments, err := e.llmProvider.ChatStream(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
	if err != nil {
		e.logger.Error("stream", "llm gateway invocation failed", map[string]interface{}{
			"error": err.Error(),
		})
		e.writeApology(w, sources)
		return
	}

	var accumulated strings.Builder
	for chunk := range increments {
		if chunk.Err != nil {
			e.logger.Error("stream", "llm stream failed mid-generation", map[string]interface{}{
				"error": chunk.Err.Error(),
			})
			e.writeApology(w, sources)
			return
		}

		accumulated.WriteString(chunk.Content)
		content := strings.TrimSuffix(accumulated.String(), eosMarker)

		if err := e.writeEvent(w, e.newEvent(content, sources)); err != nil {
			// Client is gone; stop pulling increments. cancel() unblocks the producer.
			e.logger.Warn("stream", "event write failed, abandoning stream", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
	}
}

func (e *Encoder) newEvent(content string, sources []string) ServerEvent {
	return ServerEvent{
		Id:        e.newId(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: e.now(),
		Sources:   sources,
	}
}

func (e *Encoder) writeEvent(w *bufio.Writer, event ServerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func (e *Encoder) writeApology(w *bufio.Writer, sources []string) {
	if err := e.writeEvent(w, e.newEvent(apologyMessage, sources)); err != nil {
		e.logger.Error("stream", "apology event write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (e *Encoder) writeDone(w *bufio.Writer) {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", DoneSentinel); err != nil {
		e.logger.Error("stream", "terminal sentinel write failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := w.Flush(); err != nil {
		e.logger.Error("stream", "terminal sentinel flush failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
