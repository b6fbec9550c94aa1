// Package llm provides chat-completion clients with classified failures.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion
type Options struct {
	Temperature float64
	MaxTokens   int
}

// ChatModel produces a reply for a list of messages
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	ModelName() string
}

// Kind classifies a model failure
type Kind int

const (
	KindOther Kind = iota
	KindAuth
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "other"
	}
}

// Error is a failed model call
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("llm %s error: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("llm %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("llm %s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a model failure; errors that are not *Error are KindOther
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// classify maps an HTTP status and provider error code to a Kind
func classify(status int, code string) Kind {
	switch {
	case status == 401 || status == 403 || code == "invalid_api_key":
		return KindAuth
	case status == 429 || code == "rate_limit_exceeded" || code == "insufficient_quota":
		return KindRateLimit
	default:
		return KindOther
	}
}
