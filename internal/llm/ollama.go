package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var _ ChatModel = (*Ollama)(nil)

// Ollama wraps the Ollama chat API
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama creates a new Ollama chat client
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []Message              `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// ModelName returns the model used for chat
func (c *Ollama) ModelName() string {
	return c.model
}

// SetModel changes the model used for chat
func (c *Ollama) SetModel(model string) {
	c.model = model
}

// Chat generates a reply using /api/chat. Streamed lines are concatenated.
func (c *Ollama) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	req := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Options:  map[string]interface{}{"temperature": opts.Temperature},
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{Kind: KindOther, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &Error{
			Kind:       classify(resp.StatusCode, ""),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var result strings.Builder
	decoder := json.NewDecoder(resp.Body)
	for {
		var chatResp ollamaChatResponse
		if err := decoder.Decode(&chatResp); err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if chatResp.Error != "" {
			return "", &Error{Kind: KindOther, Message: chatResp.Error}
		}
		result.WriteString(chatResp.Message.Content)
		if chatResp.Done {
			break
		}
	}
	return result.String(), nil
}
