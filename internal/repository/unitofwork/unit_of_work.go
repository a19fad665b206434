package unitofwork

import (
	"context"

	"ai-sitechat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PassageEmbeddingRepository() contract.PassageEmbeddingRepository
}
