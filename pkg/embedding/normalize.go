package embedding

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedEmbedding is returned when a provider response is neither a
	// flat numeric array, a nested single-row array, nor an object wrapping one.
	ErrMalformedEmbedding = errors.New("malformed embedding response")

	// ErrDimensionMismatch is returned when a vector's length does not match
	// the store's configured dimensionality. Never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")
)

// vectorEnvelope covers the object shapes providers wrap vectors in:
// Gemini uses {"embedding": {"values": [...]}}, OpenAI-compatible APIs use
// {"data": [...]}, Ollama uses {"embedding": [...]} or {"embeddings": [[...]]}.
type vectorEnvelope struct {
	Values     json.RawMessage `json:"values"`
	Data       json.RawMessage `json:"data"`
	Embedding  json.RawMessage `json:"embedding"`
	Embeddings json.RawMessage `json:"embeddings"`
}

// EnsureFlatVector normalizes any of the accepted provider response shapes
// into a flat numeric vector. Accepted shapes: a flat array of numbers, a
// nested array whose first row is the vector, or an object wrapping either
// under a known key. Anything else fails with ErrMalformedEmbedding.
func EnsureFlatVector(raw json.RawMessage) ([]float32, error) {
	return ensureFlatVector(raw, 0)
}

func ensureFlatVector(raw json.RawMessage, depth int) ([]float32, error) {
	if depth > 2 {
		return nil, fmt.Errorf("%w: envelope nesting too deep", ErrMalformedEmbedding)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEmbedding)
	}

	// 1. Flat numeric array
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("%w: empty vector", ErrMalformedEmbedding)
		}
		return flat, nil
	}

	// 2. Nested single-row array
	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, fmt.Errorf("%w: empty nested vector", ErrMalformedEmbedding)
		}
		return nested[0], nil
	}

	// 3. Object wrapping a vector under a known key
	var env vectorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		for _, inner := range []json.RawMessage{env.Values, env.Data, env.Embedding, env.Embeddings} {
			if len(inner) > 0 {
				return ensureFlatVector(inner, depth+1)
			}
		}
	}

	return nil, fmt.Errorf("%w: unrecognized shape", ErrMalformedEmbedding)
}

// CheckDimensions verifies the vector's length against the store's configured
// dimensionality. A want of 0 disables the check.
func CheckDimensions(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}

// normalizeVector normalizes a vector to unit length (magnitude = 1).
// Cosine distance in pgvector requires normalized vectors.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
