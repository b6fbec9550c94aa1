package conversation

import (
	"context"
	"sync"
)

var _ Log = (*MemoryLog)(nil)

// MemoryLog keeps messages in process memory
type MemoryLog struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemoryLog creates an empty in-memory log
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Insert(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Latest scans backwards, so insertion order breaks timestamp ties
func (m *MemoryLog) Latest(_ context.Context, userID string, limit int) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Message{}
	for i := len(m.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m.messages[i].UserID == userID {
			out = append(out, m.messages[i])
		}
	}
	return out, nil
}

func (m *MemoryLog) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.UserID != userID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *MemoryLog) Close(context.Context) error { return nil }
