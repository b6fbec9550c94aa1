package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dream-ai/ragchat/config"
	"github.com/dream-ai/ragchat/internal/chat"
	"github.com/dream-ai/ragchat/internal/conversation"
	"github.com/dream-ai/ragchat/internal/db"
	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/dream-ai/ragchat/internal/embeddings"
	"github.com/dream-ai/ragchat/internal/llm"
	"github.com/dream-ai/ragchat/internal/metrics"
	"github.com/dream-ai/ragchat/internal/rag"
)

// Subsystem names
const (
	VectorDB = "vector_db"
	Database = "database"
	Chatbot  = "chatbot"
)

const startupTimeout = 15 * time.Second

// Services holds every subsystem the handlers need
type Services struct {
	Index     Subsystem[*rag.Index]
	History   Subsystem[*conversation.Store]
	Generator Subsystem[*rag.Generator]

	Loader       documents.Loader
	Splitter     *documents.Splitter
	Metrics      *metrics.Metrics
	UserID       string
	TopK         int
	HistoryLimit int

	ingestOnce sync.Once
	ingestor   *documents.Ingestor

	closers []func()
}

// Build constructs each subsystem independently. A failing subsystem is recorded
// as unavailable and never prevents the others from starting.
func Build(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *log.Logger) *Services {
	if logger == nil {
		logger = log.New(log.Writer(), "[APP] ", log.LstdFlags)
	}
	s := &Services{
		Loader:       documents.NewPDFLoader(),
		Splitter:     documents.NewSplitter(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap),
		Metrics:      m,
		UserID:       cfg.Conversation.UserID,
		TopK:         cfg.VectorIndex.TopK,
		HistoryLimit: cfg.Conversation.HistoryLimit,
	}

	if idx, err := s.buildIndex(ctx, cfg, m); err != nil {
		logger.Printf("vector index unavailable: %v", err)
		s.Index = Unavailable[*rag.Index](VectorDB, err)
	} else {
		s.Index = Available(VectorDB, idx)
	}

	if store, err := s.buildHistory(ctx, cfg); err != nil {
		logger.Printf("conversation store unavailable: %v", err)
		s.History = Unavailable[*conversation.Store](Database, err)
	} else {
		s.History = Available(Database, store)
	}

	if gen, err := buildGenerator(ctx, cfg, m); err != nil {
		logger.Printf("response generator unavailable: %v", err)
		s.Generator = Unavailable[*rag.Generator](Chatbot, err)
	} else {
		s.Generator = Available(Chatbot, gen)
	}

	return s
}

func (s *Services) buildIndex(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*rag.Index, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	emb, err := embeddings.New(embeddings.Config{
		Provider: cfg.Embeddings.Provider,
		BaseURL:  cfg.Embeddings.BaseURL,
		Model:    cfg.Embeddings.Model,
		APIKey:   cfg.Embeddings.APIKey,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cfg.Database.ConnectionString, "up", 0); err != nil {
		return nil, err
	}
	database, err := db.New(ctx, cfg.Database.ConnectionString, poolOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	s.AddCloser(database.Close)

	return rag.NewIndex(database, emb, cfg.VectorIndex.Collection,
		rag.WithTopK(cfg.VectorIndex.TopK),
		rag.WithMetrics(m),
	), nil
}

func poolOptions(cfg *config.Config) []db.Option {
	return []db.Option{
		db.WithMaxConns(cfg.Database.MaxConns),
		db.WithConnLifetime(cfg.Database.MaxConnLifetime, cfg.Database.MaxConnIdleTime),
	}
}

func (s *Services) buildHistory(ctx context.Context, cfg *config.Config) (*conversation.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	backend, err := conversation.Open(ctx, conversation.Config{
		URI:        cfg.Conversation.URI,
		Database:   cfg.Conversation.Database,
		Collection: cfg.Conversation.Collection,
		Pool:       poolOptions(cfg),
	})
	if err != nil {
		return nil, err
	}
	store := conversation.NewStore(backend)
	s.AddCloser(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	})
	return store, nil
}

func buildGenerator(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*rag.Generator, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	model, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return rag.NewGenerator(model, cfg.LLM.Persona, cfg.LLM.Temperature, m, nil), nil
}

// Ingestor returns the shared document ingestor, or an error if the index is unavailable.
// Every caller gets the same ingestor so concurrent ingestions of one file are serialized.
func (s *Services) Ingestor() (*documents.Ingestor, error) {
	idx, err := s.Index.Get()
	if err != nil {
		return nil, err
	}
	s.ingestOnce.Do(func() {
		s.ingestor = documents.NewIngestor(idx, s.Loader, s.Splitter, nil)
	})
	return s.ingestor, nil
}

// Chat returns the chat service, or an error naming the first unavailable subsystem
func (s *Services) Chat() (*chat.Service, error) {
	idx, err := s.Index.Get()
	if err != nil {
		return nil, err
	}
	store, err := s.History.Get()
	if err != nil {
		return nil, err
	}
	gen, err := s.Generator.Get()
	if err != nil {
		return nil, err
	}
	return chat.NewService(idx, store, gen, s.TopK, s.HistoryLimit), nil
}

// Ingest runs one ingestion and records its outcome
func (s *Services) Ingest(ctx context.Context, path string) (*documents.Result, error) {
	ing, err := s.Ingestor()
	if err != nil {
		return nil, err
	}
	res, err := ing.Ingest(ctx, path)
	if err != nil {
		s.Metrics.DocumentIngested("error", 0)
		return nil, fmt.Errorf("failed to ingest %s: %w", path, err)
	}
	s.Metrics.DocumentIngested(string(res.Status), res.Chunks)
	return res, nil
}

// AddCloser registers a function run by Close
func (s *Services) AddCloser(f func()) {
	s.closers = append(s.closers, f)
}

// Close releases every subsystem in reverse construction order
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
