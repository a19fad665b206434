package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildIsDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := NewContextBuilder("some context", "some question", now).Build()
	b := NewContextBuilder("some context", "some question", now).Build()

	assert.Equal(t, a, b)
}

func TestBuildContainsAllSections(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got := NewContextBuilder("The sky is blue.", "What color is the sky?", now).Build()

	assert.Contains(t, got, "The sky is blue.")
	assert.Contains(t, got, "What color is the sky?")
	assert.Contains(t, got, now.Format(time.RFC1123))
	assert.Contains(t, got, "<rules>")
	assert.Contains(t, got, "<reference_context>")
	assert.Contains(t, got, "<user_question>")
}

func TestBuildNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	local := time.Date(2025, 3, 1, 19, 0, 0, 0, loc)

	got := NewContextBuilder("ctx", "q", local).Build()

	assert.Contains(t, got, local.UTC().Format(time.RFC1123))
}

func TestBuildPassesSentinelThrough(t *testing.T) {
	got := NewContextBuilder("no relevant documents found", "q", time.Now()).Build()
	assert.Contains(t, got, "no relevant documents found")
}
