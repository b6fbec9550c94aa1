package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// ErrNoModels is returned when Ollama has no chat-capable model installed
var ErrNoModels = errors.New("no chat models installed")

// ModelInfo describes one model installed in Ollama
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

// ModelSelector resolves which installed Ollama model answers questions
type ModelSelector struct {
	client *Ollama
}

// NewModelSelector creates a selector that queries client's server
func NewModelSelector(client *Ollama) *ModelSelector {
	return &ModelSelector{client: client}
}

// preferredFamilies are tried in order before falling back to the largest model
var preferredFamilies = []string{"llama3.2", "llama3.1", "qwen2.5", "mistral", "llama3", "llama2"}

// embeddingOnly marks model families that cannot chat
var embeddingOnly = []string{"embed", "minilm", "bge-"}

// ListModels returns the models reported by /api/tags
func (ms *ModelSelector) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ms.client.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := ms.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("failed to list models: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tags struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return tags.Models, nil
}

// Resolve returns preferred when it is installed, otherwise the best installed chat model
func (ms *ModelSelector) Resolve(ctx context.Context, preferred string) (string, error) {
	models, err := ms.ListModels(ctx)
	if err != nil {
		return "", err
	}
	return pickModel(models, preferred)
}

func pickModel(models []ModelInfo, preferred string) (string, error) {
	var chat []ModelInfo
	for _, m := range models {
		if preferred != "" && m.Name == preferred {
			return m.Name, nil
		}
		if !isEmbeddingModel(m.Name) {
			chat = append(chat, m)
		}
	}
	if len(chat) == 0 {
		return "", ErrNoModels
	}

	for _, family := range preferredFamilies {
		for _, m := range chat {
			if strings.Contains(strings.ToLower(m.Name), family) {
				return m.Name, nil
			}
		}
	}

	sort.SliceStable(chat, func(i, j int) bool { return chat[i].Size > chat[j].Size })
	return chat[0].Name, nil
}

func isEmbeddingModel(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range embeddingOnly {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
