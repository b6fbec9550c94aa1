package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config selects and configures a chat provider
type Config struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// New creates the chat model for the configured provider. For Ollama the model is
// resolved against the installed models, which also verifies the server is reachable.
func New(ctx context.Context, cfg Config) (ChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "ollama":
		client := NewOllama(cfg.BaseURL, cfg.Model, cfg.Timeout)
		model, err := NewModelSelector(client).Resolve(ctx, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to select ollama model: %w", err)
		}
		client.SetModel(model)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
