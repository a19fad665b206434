package implementation

import (
	"context"

	"ai-sitechat-be/internal/entity"
	"ai-sitechat-be/internal/mapper"
	"ai-sitechat-be/internal/model"
	"ai-sitechat-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PassageEmbeddingMapper
}

func NewPassageEmbeddingRepository(db *gorm.DB) contract.PassageEmbeddingRepository {
	return &PassageEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewPassageEmbeddingMapper(),
	}
}

func (r *PassageEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.PassageEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *PassageEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.PassageEmbedding) error {
	models := make([]*model.PassageEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *PassageEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.PassageEmbedding{}, id).Error
}

func (r *PassageEmbeddingRepositoryImpl) DeleteBySourceURL(ctx context.Context, sourceURL string) error {
	return r.db.WithContext(ctx).Where("source_url = ?", sourceURL).Delete(&model.PassageEmbedding{}).Error
}

func (r *PassageEmbeddingRepositoryImpl) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PassageEmbedding{}).
		Where("source_url = ?", sourceURL).
		Count(&count).Error
	return count > 0, err
}

func (r *PassageEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PassageEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns passages with similarity scores, filtered by threshold.
// Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) to get the similarity back.
func (r *PassageEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredPassageEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.PassageEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("passage_embeddings").
		Select("passage_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("passage_embeddings.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPassageEmbedding, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPassageEmbedding{
			Embedding:  r.mapper.ToEntity(&res.PassageEmbedding),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
