package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dream-ai/ragchat/internal/db"
	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/dream-ai/ragchat/internal/embeddings"
	"github.com/dream-ai/ragchat/internal/metrics"
	"github.com/pgvector/pgvector-go"
)

// DefaultTopK is the number of chunks retrieved when the caller does not say
const DefaultTopK = 3

// ChunkStore persists chunks and answers nearest-neighbour queries
type ChunkStore interface {
	InsertChunks(ctx context.Context, chunks []*db.Chunk) error
	SourceExists(ctx context.Context, collection, source string) (bool, error)
	SearchSimilarChunks(ctx context.Context, collection string, embedding pgvector.Vector, limit int) ([]*db.Chunk, error)
}

var _ documents.Index = (*Index)(nil)

// Index is a named collection of embedded chunks
type Index struct {
	store      ChunkStore
	embedder   embeddings.Embedder
	collection string
	topK       int
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// IndexOption configures an Index
type IndexOption func(*Index)

// WithTopK sets the default number of search results
func WithTopK(k int) IndexOption {
	return func(i *Index) {
		if k > 0 {
			i.topK = k
		}
	}
}

// WithMetrics records retrieval failures
func WithMetrics(m *metrics.Metrics) IndexOption {
	return func(i *Index) { i.metrics = m }
}

// WithLogger replaces the default logger
func WithLogger(l *log.Logger) IndexOption {
	return func(i *Index) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewIndex creates an index over one collection
func NewIndex(store ChunkStore, embedder embeddings.Embedder, collection string, opts ...IndexOption) *Index {
	idx := &Index{
		store:      store,
		embedder:   embedder,
		collection: collection,
		topK:       DefaultTopK,
		logger:     log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Collection returns the collection name
func (i *Index) Collection() string {
	return i.collection
}

// Add embeds and stores chunks as one batch. Nothing is stored if any chunk fails.
func (i *Index) Add(ctx context.Context, chunks []documents.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Text
	}
	vectors, err := i.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("failed to embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	rows := make([]*db.Chunk, len(chunks))
	for n, c := range chunks {
		vec := pgvector.NewVector(vectors[n])
		rows[n] = &db.Chunk{
			Collection: i.collection,
			Source:     c.Metadata.Source,
			Page:       c.Metadata.Page,
			ChunkIndex: n,
			Content:    c.Text,
			Embedding:  &vec,
		}
	}
	if err := i.store.InsertChunks(ctx, rows); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// IsPresent reports whether chunks from source are already indexed.
// Lookup failures are logged and reported as not present.
func (i *Index) IsPresent(ctx context.Context, source string) bool {
	ok, err := i.store.SourceExists(ctx, i.collection, source)
	if err != nil {
		i.logger.Printf("presence check for %s failed: %v", source, err)
		return false
	}
	return ok
}

// Search returns up to k chunks nearest to query, nearest first. A blank query or
// any failure yields no results; failures are logged and counted, never returned.
func (i *Index) Search(ctx context.Context, query string, k int) []documents.Chunk {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if k <= 0 {
		k = i.topK
	}

	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		i.logger.Printf("query embedding failed: %v", err)
		i.metrics.RetrievalFailed()
		return nil
	}

	rows, err := i.store.SearchSimilarChunks(ctx, i.collection, pgvector.NewVector(vec), k)
	if err != nil {
		i.logger.Printf("similarity search failed: %v", err)
		i.metrics.RetrievalFailed()
		return nil
	}

	results := make([]documents.Chunk, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Content) == "" {
			continue
		}
		results = append(results, documents.Chunk{
			Text:     row.Content,
			Metadata: documents.Metadata{Source: row.Source, Page: row.Page},
		})
		if len(results) == k {
			break
		}
	}
	return results
}
