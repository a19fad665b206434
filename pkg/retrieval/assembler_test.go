package retrieval

import (
	"context"
	"errors"
	"testing"

	"ai-sitechat-be/internal/entity"
	"ai-sitechat-be/internal/pkg/logger"
	"ai-sitechat-be/internal/repository/contract"
	"ai-sitechat-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type fakePassageRepo struct {
	contract.PassageEmbeddingRepository

	scored []*contract.ScoredPassageEmbedding
	err    error
}

func (f *fakePassageRepo) SearchSimilarWithScore(ctx context.Context, vec []float32, limit int, threshold float64) ([]*contract.ScoredPassageEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

func scoredPassage(content string, similarity float64) *contract.ScoredPassageEmbedding {
	return &contract.ScoredPassageEmbedding{
		Embedding: &entity.PassageEmbedding{
			Id:       uuid.New(),
			Document: content,
		},
		Similarity: similarity,
	}
}

func TestAssembleFiltersBySimilarityFloor(t *testing.T) {
	// Two passages at 0.82 and 0.65 with a 0.7 floor: only the first survives
	repo := &fakePassageRepo{scored: []*contract.ScoredPassageEmbedding{
		scoredPassage("Max Verstappen won the 2024 championship.", 0.82),
		scoredPassage("The 2023 season had 22 races.", 0.65),
	}}
	assembler := NewAssembler(&fakeEmbedder{}, repo, logger.NewNopLogger(), DefaultConfig())

	result := assembler.Assemble(context.Background(), "Who won the 2024 championship?")

	assert.Len(t, result.Passages, 1)
	assert.Equal(t, "Max Verstappen won the 2024 championship.", result.Passages[0].Content)
	assert.Equal(t, 1, result.Passages[0].Rank)
	assert.Equal(t, "Max Verstappen won the 2024 championship.", result.Context)
}

func TestAssembleFloorIsStrict(t *testing.T) {
	repo := &fakePassageRepo{scored: []*contract.ScoredPassageEmbedding{
		scoredPassage("exactly at the floor", 0.7),
	}}
	assembler := NewAssembler(&fakeEmbedder{}, repo, logger.NewNopLogger(), DefaultConfig())

	result := assembler.Assemble(context.Background(), "anything")

	assert.Empty(t, result.Passages)
	assert.Equal(t, NoContextSentinel, result.Context)
}

func TestAssembleJoinsAndRanks(t *testing.T) {
	repo := &fakePassageRepo{scored: []*contract.ScoredPassageEmbedding{
		scoredPassage("first", 0.95),
		scoredPassage("second", 0.80),
		scoredPassage("third", 0.75),
	}}
	assembler := NewAssembler(&fakeEmbedder{}, repo, logger.NewNopLogger(), DefaultConfig())

	result := assembler.Assemble(context.Background(), "q")

	assert.Equal(t, "first\n\nsecond\n\nthird", result.Context)
	for i, p := range result.Passages {
		assert.Equal(t, i+1, p.Rank)
	}
}

func TestAssemblerDefaultsOnlyZeroConfigFields(t *testing.T) {
	// A caller-set floor survives when TopK is left zero.
	repo := &fakePassageRepo{scored: []*contract.ScoredPassageEmbedding{
		scoredPassage("strong match", 0.95),
		scoredPassage("decent match", 0.85),
	}}
	assembler := NewAssembler(&fakeEmbedder{}, repo, logger.NewNopLogger(), Config{
		SimilarityFloor: 0.9,
	})

	assert.Equal(t, DefaultConfig().TopK, assembler.config.TopK)
	assert.Equal(t, 0.9, assembler.config.SimilarityFloor)

	result := assembler.Assemble(context.Background(), "q")
	assert.Len(t, result.Passages, 1)
	assert.Equal(t, "strong match", result.Passages[0].Content)
}

func TestAssembleNeverFails(t *testing.T) {
	tests := []struct {
		name      string
		assembler *Assembler
	}{
		{
			name: "embedding gateway unreachable",
			assembler: NewAssembler(
				&fakeEmbedder{err: errors.New("connection refused")},
				&fakePassageRepo{},
				logger.NewNopLogger(),
				DefaultConfig(),
			),
		},
		{
			name: "vector search fails",
			assembler: NewAssembler(
				&fakeEmbedder{},
				&fakePassageRepo{err: errors.New("db gone")},
				logger.NewNopLogger(),
				DefaultConfig(),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.assembler.Assemble(context.Background(), "query")
			assert.Equal(t, NoContextSentinel, result.Context)
			assert.Empty(t, result.Passages)
		})
	}
}
