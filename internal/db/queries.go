package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const insertChunkSQL = `INSERT INTO chunks (id, collection, source, page, chunk_index, content, embedding)
 VALUES ($1, $2, $3, $4, $5, $6, $7)`

// InsertChunks inserts all chunks in a single transaction. Either every row is
// written or none is.
func (db *DB) InsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		if chunk.ID == uuid.Nil {
			chunk.ID = uuid.New()
		}
		batch.Queue(insertChunkSQL,
			chunk.ID, chunk.Collection, chunk.Source, chunk.Page,
			chunk.ChunkIndex, chunk.Content, chunk.Embedding,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range chunks {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// SourceExists reports whether any chunk of the collection came from source
func (db *DB) SourceExists(ctx context.Context, collection, source string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chunks WHERE collection = $1 AND source = $2)`,
		collection, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check source: %w", err)
	}
	return exists, nil
}

// SearchSimilarChunks finds the chunks of a collection nearest to embedding by cosine distance
func (db *DB) SearchSimilarChunks(ctx context.Context, collection string, embedding pgvector.Vector, limit int) ([]*Chunk, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, collection, source, page, chunk_index, content, created_at
		 FROM chunks
		 WHERE collection = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		collection, embedding, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(
			&chunk.ID, &chunk.Collection, &chunk.Source, &chunk.Page,
			&chunk.ChunkIndex, &chunk.Content, &chunk.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// CountChunks returns the number of chunks stored for a collection
func (db *DB) CountChunks(ctx context.Context, collection string) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
