package contract

import (
	"context"

	"ai-sitechat-be/internal/entity"

	"github.com/google/uuid"
)

// ScoredPassageEmbedding wraps PassageEmbedding with its similarity score
type ScoredPassageEmbedding struct {
	Embedding  *entity.PassageEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type PassageEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.PassageEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.PassageEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySourceURL(ctx context.Context, sourceURL string) error
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Count(ctx context.Context) (int64, error)

	// SearchSimilarWithScore returns the top-K nearest passages with cosine
	// similarity, descending, filtered by threshold at the database level.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*ScoredPassageEmbedding, error)
}
