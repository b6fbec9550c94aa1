// Package conversation persists chat turns per user and serves the recent window.
package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one stored chat turn
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"message"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a backend holding messages. Latest returns the newest messages first;
// messages with equal timestamps come back in reverse insertion order.
type Log interface {
	Insert(ctx context.Context, msg Message) error
	Latest(ctx context.Context, userID string, limit int) ([]Message, error)
	DeleteUser(ctx context.Context, userID string) error
	Close(ctx context.Context) error
}

// Store is an append-and-window log of chat messages
type Store struct {
	log Log
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock replaces the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over a backend
func NewStore(l Log, opts ...StoreOption) *Store {
	s := &Store{log: l, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current UTC time, never earlier than the previous one issued
func (s *Store) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UTC()
	if ts.Before(s.last) {
		ts = s.last
	}
	s.last = ts
	return ts
}

// Append stores one message for a user
func (s *Store) Append(ctx context.Context, userID, text string, sender Sender) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Sender:    sender,
		Timestamp: s.timestamp(),
	}
	if err := s.log.Insert(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	return msg, nil
}

// RecentHistory returns up to limit most recent messages of a user, oldest first
func (s *Store) RecentHistory(ctx context.Context, userID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return []Message{}, nil
	}
	msgs, err := s.log.Latest(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Clear deletes every message of a user
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.log.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close releases the backend
func (s *Store) Close(ctx context.Context) error {
	return s.log.Close(ctx)
}
