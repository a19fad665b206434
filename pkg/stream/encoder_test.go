package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	chunks     []llm.StreamChunk
	invokeErr  error
	seenPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamChunk, error) {
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	if len(history) > 0 {
		f.seenPrompt = history[len(history)-1].Content
	}
	out := make(chan llm.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func pinnedEncoder(provider llm.LLMProvider) *Encoder {
	e := NewEncoder(provider, logger.NewNopLogger())
	var seq int
	e.newId = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	e.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func collectFrames(t *testing.T, raw string) []string {
	t.Helper()
	var frames []string
	for _, block := range strings.Split(raw, "\n\n") {
		if block == "" {
			continue
		}
		require.True(t, strings.HasPrefix(block, "data: "), "frame %q lacks data prefix", block)
		frames = append(frames, strings.TrimPrefix(block, "data: "))
	}
	return frames
}

func decodeEvent(t *testing.T, frame string) ServerEvent {
	t.Helper()
	var event ServerEvent
	require.NoError(t, json.Unmarshal([]byte(frame), &event))
	return event
}

func TestStreamAccumulatesIncrements(t *testing.T) {
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "Max"},
		{Content: " Verstappen"},
		{Content: "."},
	}}
	encoder := pinnedEncoder(provider)

	var buf bytes.Buffer
	encoder.Stream(context.Background(), bufio.NewWriter(&buf), "who won?", []string{"https://example.com/f1"})

	frames := collectFrames(t, buf.String())
	require.Len(t, frames, 5)

	seed := decodeEvent(t, frames[0])
	assert.Equal(t, RoleAssistant, seed.Role)
	assert.Equal(t, "", seed.Content)
	assert.Equal(t, []string{"https://example.com/f1"}, seed.Sources)

	wantContents := []string{"Max", "Max Verstappen", "Max Verstappen."}
	ids := map[string]bool{seed.Id: true}
	for i, want := range wantContents {
		event := decodeEvent(t, frames[i+1])
		assert.Equal(t, want, event.Content)
		assert.Equal(t, RoleAssistant, event.Role)
		assert.False(t, ids[event.Id], "event ids must be fresh per event")
		ids[event.Id] = true
	}

	assert.Equal(t, DoneSentinel, frames[4])
	assert.Equal(t, "who won?", provider.seenPrompt)
}

func TestStreamStripsTrailingStopSequence(t *testing.T) {
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "done"},
		{Content: "<|endoftext|>"},
	}}
	encoder := pinnedEncoder(provider)

	var buf bytes.Buffer
	encoder.Stream(context.Background(), bufio.NewWriter(&buf), "q", nil)

	frames := collectFrames(t, buf.String())
	require.Len(t, frames, 4)
	assert.Equal(t, "done", decodeEvent(t, frames[1]).Content)
	assert.Equal(t, "done", decodeEvent(t, frames[2]).Content)
	assert.Equal(t, DoneSentinel, frames[3])
}

func TestStreamEmitsApologyOnMidStreamFailure(t *testing.T) {
	provider := &fakeLLM{chunks: []llm.StreamChunk{
		{Content: "partial"},
		{Err: errors.New("connection reset")},
	}}
	encoder := pinnedEncoder(provider)

	var buf bytes.Buffer
	encoder.Stream(context.Background(), bufio.NewWriter(&buf), "q", nil)

	frames := collectFrames(t, buf.String())
	require.Len(t, frames, 4)
	assert.Equal(t, "partial", decodeEvent(t, frames[1]).Content)
	assert.Equal(t, apologyMessage, decodeEvent(t, frames[2]).Content)
	assert.Equal(t, DoneSentinel, frames[3])
}

func TestStreamEmitsApologyWhenGatewayInvocationFails(t *testing.T) {
	provider := &fakeLLM{invokeErr: errors.New("model not found")}
	encoder := pinnedEncoder(provider)

	var buf bytes.Buffer
	encoder.Stream(context.Background(), bufio.NewWriter(&buf), "q", nil)

	frames := collectFrames(t, buf.String())
	require.Len(t, frames, 3)
	assert.Equal(t, "", decodeEvent(t, frames[0]).Content)
	assert.Equal(t, apologyMessage, decodeEvent(t, frames[1]).Content)
	assert.Equal(t, DoneSentinel, frames[2])
}

func TestStreamIsDeterministicWithPinnedClockAndIds(t *testing.T) {
	run := func() string {
		provider := &fakeLLM{chunks: []llm.StreamChunk{{Content: "hello"}}}
		encoder := pinnedEncoder(provider)
		var buf bytes.Buffer
		encoder.Stream(context.Background(), bufio.NewWriter(&buf), "q", []string{"https://a"})
		return buf.String()
	}

	assert.Equal(t, run(), run())
}
