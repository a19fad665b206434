package entity

import (
	"time"

	"github.com/google/uuid"
)

// PassageEmbedding is one embedded text chunk scraped from a web page.
type PassageEmbedding struct {
	Id             uuid.UUID
	Document       string
	EmbeddingValue []float32
	SourceURL      string
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
