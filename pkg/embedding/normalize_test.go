package embedding

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureFlatVector(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []float32
		wantErr error
	}{
		{
			name:    "flat array",
			payload: `[0.1, 0.2, 0.3]`,
			want:    []float32{0.1, 0.2, 0.3},
		},
		{
			name:    "nested single-row array",
			payload: `[[0.1, 0.2, 0.3]]`,
			want:    []float32{0.1, 0.2, 0.3},
		},
		{
			name:    "object wrapping a data array",
			payload: `{"data": [0.1, 0.2, 0.3]}`,
			want:    []float32{0.1, 0.2, 0.3},
		},
		{
			name:    "gemini embedContent envelope",
			payload: `{"embedding": {"values": [0.5, 0.5]}}`,
			want:    []float32{0.5, 0.5},
		},
		{
			name:    "ollama nested embeddings field",
			payload: `{"embeddings": [[1, 2]]}`,
			want:    []float32{1, 2},
		},
		{
			name:    "string payload is rejected",
			payload: `"not a vector"`,
			wantErr: ErrMalformedEmbedding,
		},
		{
			name:    "object without a known key is rejected",
			payload: `{"vector": [1, 2]}`,
			wantErr: ErrMalformedEmbedding,
		},
		{
			name:    "empty array is rejected",
			payload: `[]`,
			wantErr: ErrMalformedEmbedding,
		},
		{
			name:    "empty nested array is rejected",
			payload: `[[]]`,
			wantErr: ErrMalformedEmbedding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnsureFlatVector(json.RawMessage(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckDimensions(t *testing.T) {
	vec := []float32{1, 2, 3}

	assert.NoError(t, CheckDimensions(vec, 3))
	assert.NoError(t, CheckDimensions(vec, 0)) // disabled
	assert.ErrorIs(t, CheckDimensions(vec, 1024), ErrDimensionMismatch)
}

func TestNormalizeVector(t *testing.T) {
	normalized := normalizeVector([]float32{3, 4})

	var magnitude float64
	for _, v := range normalized {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)

	// Zero vector stays untouched instead of dividing by zero
	assert.Equal(t, []float32{0, 0}, normalizeVector([]float32{0, 0}))
}
