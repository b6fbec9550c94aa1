package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Chunk is a stored text chunk with its embedding
type Chunk struct {
	ID         uuid.UUID
	Collection string
	Source     string
	Page       int
	ChunkIndex int
	Content    string
	Embedding  *pgvector.Vector
	CreatedAt  time.Time
}
