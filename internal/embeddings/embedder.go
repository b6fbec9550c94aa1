package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns text into dense vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Config selects and configures an embedding provider
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
}

// New creates the embedder for the configured provider
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.Provider)
	}
}
