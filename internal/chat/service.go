// Package chat runs one conversational turn end to end.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/dream-ai/ragchat/internal/conversation"
	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/dream-ai/ragchat/internal/rag"
)

// ErrEmptyMessage is returned for a blank user message
var ErrEmptyMessage = errors.New("message cannot be empty")

// Retriever finds chunks relevant to a query
type Retriever interface {
	Search(ctx context.Context, query string, k int) []documents.Chunk
}

// History reads and writes the conversation log
type History interface {
	Append(ctx context.Context, userID, text string, sender conversation.Sender) (conversation.Message, error)
	RecentHistory(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
	Clear(ctx context.Context, userID string) error
}

// Responder produces the bot reply
type Responder interface {
	Generate(ctx context.Context, retrieved, prompt string, history []conversation.Message) string
}

// Service answers user messages using retrieval and conversation history
type Service struct {
	retriever    Retriever
	history      History
	responder    Responder
	topK         int
	historyLimit int
}

// NewService creates a chat service. Non-positive topK and historyLimit use 3 and 10.
func NewService(retriever Retriever, history History, responder Responder, topK, historyLimit int) *Service {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Service{
		retriever:    retriever,
		history:      history,
		responder:    responder,
		topK:         topK,
		historyLimit: historyLimit,
	}
}

// Reply records the user message, answers it and records the answer. History is
// read before the new message is stored, so the prompt is not repeated in it.
func (s *Service) Reply(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	history, err := s.history.RecentHistory(ctx, userID, s.historyLimit)
	if err != nil {
		return "", err
	}
	if _, err := s.history.Append(ctx, userID, message, conversation.SenderUser); err != nil {
		return "", err
	}

	retrieved := rag.FormatContext(s.retriever.Search(ctx, message, s.topK))
	reply := s.responder.Generate(ctx, retrieved, message, history)

	if _, err := s.history.Append(ctx, userID, reply, conversation.SenderBot); err != nil {
		return "", err
	}
	return reply, nil
}

// Clear deletes the conversation of a user
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.history.Clear(ctx, userID)
}
