package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInputIsSingleChunk(t *testing.T) {
	chunks := SplitText("short text", 100, 20)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitTextEmptyInput(t *testing.T) {
	assert.Nil(t, SplitText("   ", 100, 20))
}

func TestSplitTextOverlapCarriesAcrossBoundaries(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	require.True(t, len(chunks) > 1)
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-10:]
		assert.True(t, strings.HasPrefix(chunks[i], prevTail),
			"chunk %d should start with the last 10 chars of chunk %d", i, i-1)
	}
}

func TestSplitTextMultibyteSafety(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	chunks := SplitText(text, 50, 10)

	var rejoined strings.Builder
	for _, c := range chunks {
		assert.True(t, len([]rune(c)) <= 50)
		rejoined.WriteString(c)
	}
	// Every rune of the input must appear intact in some chunk.
	for _, c := range chunks {
		assert.NotContains(t, c, "�")
	}
}

func TestSplitTextOverlapLargerThanChunkFallsBack(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := SplitText(text, 30, 30)

	require.Len(t, chunks, 4)
	assert.Equal(t, 30, len(chunks[0]))
	assert.Equal(t, 10, len(chunks[3]))
}
