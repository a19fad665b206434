package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxInputLength caps one user submission, matching the server-side limit.
	MaxInputLength = 1000

	defaultTimeout = 30 * time.Second
	doneSentinel   = "[DONE]"

	apologyMessage = "Sorry, something went wrong. Please try again."
)

var (
	ErrEmptyInput   = errors.New("input must not be empty")
	ErrInputTooLong = fmt.Errorf("input exceeds %d characters", MaxInputLength)
	// ErrBusy means a previous submission has not finished yet.
	ErrBusy = errors.New("a request is already in flight")
)

// Message is one conversation turn as held by the client.
type Message struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type serverEvent struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sources   []string  `json:"sources,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) { s.client = client }
}

// WithUpdateHook registers a callback fired after every state change, with a
// snapshot of the message list. UIs use it to re-render mid-stream.
func WithUpdateHook(hook func([]Message)) Option {
	return func(s *Session) { s.onUpdate = hook }
}

// WithLogf replaces the diagnostic logger, log.Printf by default.
func WithLogf(logf func(format string, v ...interface{})) Option {
	return func(s *Session) { s.logf = logf }
}

// Session owns one conversation against the chat endpoint. All methods are
// safe for concurrent use; only one submission may be in flight at a time.
type Session struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	onUpdate func([]Message)
	logf     func(format string, v ...interface{})

	mu       sync.Mutex
	messages []Message
	loading  bool
}

func NewSession(endpoint string, opts ...Option) *Session {
	s := &Session{
		endpoint: endpoint,
		client:   &http.Client{},
		timeout:  defaultTimeout,
		logf:     log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Loading reports whether a submission is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Submit validates input, appends it as a user turn and blocks until the
// server stream finishes or the timeout fires. Validation problems are
// returned before any state changes; transport failures degrade to an apology
// message appended to the conversation.
func (s *Session) Submit(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}
	if len([]rune(input)) > MaxInputLength {
		return ErrInputTooLong
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.messages = append(s.messages, Message{
		Id:        uuid.New().String(),
		Role:      "user",
		Content:   input,
		CreatedAt: time.Now(),
	})
	payload, err := json.Marshal(chatRequest{Messages: s.snapshotLocked()})
	s.mu.Unlock()
	s.notify()

	if err == nil {
		err = s.exchange(payload)
	}

	s.mu.Lock()
	if err != nil {
		s.messages = append(s.messages, Message{
			Id:        uuid.New().String(),
			Role:      "assistant",
			Content:   apologyMessage,
			CreatedAt: time.Now(),
		})
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()
	return err
}

func (s *Session) exchange(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == doneSentinel {
			return nil
		}

		var event serverEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Malformed frames are dropped, the stream continues.
			s.logf("chatclient: dropping malformed event: %v", err)
			continue
		}
		s.applyServerEvent(event)
	}
	return scanner.Err()
}

// applyServerEvent folds one server event into the conversation. Events carry
// the full accumulated assistant content, so a streaming event replaces the
// trailing assistant message rather than appending a new turn.
func (s *Session) applyServerEvent(event serverEvent) {
	if event.Role != "assistant" {
		return
	}

	s.mu.Lock()
	msg := Message{
		Id:        event.Id,
		Role:      event.Role,
		Content:   event.Content,
		CreatedAt: event.CreatedAt,
	}
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == "assistant" {
		s.messages[n-1] = msg
	} else {
		s.messages = append(s.messages, msg)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) snapshotLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) notify() {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(s.Messages())
}
