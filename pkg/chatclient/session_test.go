package chatclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
}

func eventFrame(id, content string) string {
	payload, _ := json.Marshal(serverEvent{
		Id:        id,
		Role:      "assistant",
		Content:   content,
		CreatedAt: time.Now(),
	})
	return string(payload)
}

func TestSubmitCollapsesStreamIntoSingleAssistantTurn(t *testing.T) {
	srv := sseServer(t,
		eventFrame("e1", ""),
		eventFrame("e2", "Max"),
		eventFrame("e3", "Max Verstappen"),
		eventFrame("e4", "Max Verstappen."),
		"[DONE]",
	)
	defer srv.Close()

	session := NewSession(srv.URL)
	require.NoError(t, session.Submit("who won?"))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "who won?", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "Max Verstappen.", messages[1].Content)
	assert.False(t, session.Loading())
}

func TestSubmitValidation(t *testing.T) {
	session := NewSession("http://unused")

	assert.ErrorIs(t, session.Submit(""), ErrEmptyInput)
	assert.ErrorIs(t, session.Submit("   "), ErrEmptyInput)
	assert.ErrorIs(t, session.Submit(strings.Repeat("a", MaxInputLength+1)), ErrInputTooLong)
	// Validation failures leave the conversation untouched.
	assert.Empty(t, session.Messages())
}

func TestSubmitAcceptsInputAtTheLimit(t *testing.T) {
	srv := sseServer(t, eventFrame("e1", "ok"), "[DONE]")
	defer srv.Close()

	session := NewSession(srv.URL)
	require.NoError(t, session.Submit(strings.Repeat("a", MaxInputLength)))
	require.Len(t, session.Messages(), 2)
}

func TestSubmitSkipsMalformedFrames(t *testing.T) {
	srv := sseServer(t,
		eventFrame("e1", "partial"),
		"{not json",
		eventFrame("e2", "full answer"),
		"[DONE]",
	)
	defer srv.Close()

	var logged []string
	session := NewSession(srv.URL, WithLogf(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	}))
	require.NoError(t, session.Submit("q"))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "full answer", messages[1].Content)

	// The dropped frame is observable in the log.
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "malformed event")
}

func TestSubmitAppendsApologyOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	session := NewSession(srv.URL)
	err := session.Submit("q")
	assert.Error(t, err)

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, apologyMessage, messages[1].Content)
	assert.False(t, session.Loading())
}

func TestSubmitAppendsApologyOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	session := NewSession(srv.URL, WithTimeout(50*time.Millisecond))
	err := session.Submit("q")
	assert.Error(t, err)

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, apologyMessage, messages[1].Content)
	assert.False(t, session.Loading())
}

func TestSubmitRejectsConcurrentCalls(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	session := NewSession(srv.URL)

	done := make(chan error, 1)
	go func() { done <- session.Submit("first") }()

	<-entered
	assert.ErrorIs(t, session.Submit("second"), ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestUpdateHookFiresPerEvent(t *testing.T) {
	srv := sseServer(t,
		eventFrame("e1", "a"),
		eventFrame("e2", "ab"),
		"[DONE]",
	)
	defer srv.Close()

	var updates int
	session := NewSession(srv.URL, WithUpdateHook(func([]Message) { updates++ }))
	require.NoError(t, session.Submit("q"))

	// user append + two events + final loading flip
	assert.GreaterOrEqual(t, updates, 4)
}
