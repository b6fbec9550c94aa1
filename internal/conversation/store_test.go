package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock returns the queued times in order, then repeats the last one
type steppingClock struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *steppingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

func texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestStore_AppendAssignsUTCTimestampAndID(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	clock := &steppingClock{times: []time.Time{time.Date(2024, 5, 1, 10, 0, 0, 0, loc)}}
	s := NewStore(NewMemoryLog(), WithClock(clock.now))

	msg, err := s.Append(context.Background(), "u1", "hello", SenderUser)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.Equal(t, 5, msg.Timestamp.Hour())
}

func TestStore_TimestampsNeverGoBackwards(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := &steppingClock{times: []time.Time{base, base.Add(-time.Minute), base.Add(time.Second)}}
	s := NewStore(NewMemoryLog(), WithClock(clock.now))
	ctx := context.Background()

	first, err := s.Append(ctx, "u1", "a", SenderUser)
	require.NoError(t, err)
	second, err := s.Append(ctx, "u1", "b", SenderBot)
	require.NoError(t, err)
	third, err := s.Append(ctx, "u1", "c", SenderUser)
	require.NoError(t, err)

	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.True(t, third.Timestamp.After(second.Timestamp))
}

func TestStore_RecentHistory(t *testing.T) {
	s := NewStore(NewMemoryLog())
	ctx := context.Background()
	for _, text := range []string{"m1", "m2", "m3", "m4", "m5"} {
		_, err := s.Append(ctx, "u1", text, SenderUser)
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, "u2", "other", SenderUser)
	require.NoError(t, err)

	got, err := s.RecentHistory(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m4", "m5"}, texts(got))

	got, err = s.RecentHistory(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, texts(got))

	got, err = s.RecentHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.RecentHistory(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(NewMemoryLog())
	ctx := context.Background()
	_, err := s.Append(ctx, "u1", "hi", SenderUser)
	require.NoError(t, err)
	_, err = s.Append(ctx, "u2", "keep", SenderUser)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, "u1"))

	got, err := s.RecentHistory(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.RecentHistory(ctx, "u2", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, texts(got))
}

type failingLog struct{ MemoryLog }

func (f *failingLog) Insert(context.Context, Message) error { return errors.New("disk full") }

func (f *failingLog) Latest(context.Context, string, int) ([]Message, error) {
	return nil, errors.New("timeout")
}

func TestStore_PropagatesBackendErrors(t *testing.T) {
	s := NewStore(&failingLog{})
	_, err := s.Append(context.Background(), "u1", "x", SenderUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = s.RecentHistory(context.Background(), "u1", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

// exerciseLog checks the Log contract against a real backend
func exerciseLog(t *testing.T, l Log) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	// the same instant twice checks that ties keep insertion order
	clock := &steppingClock{times: []time.Time{base, base, base.Add(time.Second), base.Add(2 * time.Second)}}
	s := NewStore(l, WithClock(clock.now))

	for i, text := range []string{"q1", "a1", "q2", "a2"} {
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderBot
		}
		_, err := s.Append(ctx, "alice", text, sender)
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, "bob", "unrelated", SenderUser)
	require.NoError(t, err)

	got, err := s.RecentHistory(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, texts(got))
	assert.Equal(t, SenderBot, got[1].Sender)
	assert.Equal(t, "alice", got[0].UserID)
	assert.Equal(t, time.UTC, got[0].Timestamp.Location())

	got, err = s.RecentHistory(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"q2", "a2"}, texts(got))

	require.NoError(t, s.Clear(ctx, "alice"))
	got, err = s.RecentHistory(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.RecentHistory(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, s.Close(ctx))
}

func TestMemoryLog(t *testing.T) {
	exerciseLog(t, NewMemoryLog())
}

func TestSQLiteLog(t *testing.T) {
	l, err := NewSQLiteLog(context.Background(), filepath.Join(t.TempDir(), "history", "chat.db"))
	require.NoError(t, err)
	exerciseLog(t, l)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	l, err := Open(ctx, Config{URI: "memory://"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryLog{}, l)

	l, err = Open(ctx, Config{URI: "sqlite://" + filepath.Join(t.TempDir(), "chat.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteLog{}, l)
	require.NoError(t, l.Close(ctx))

	_, err = Open(ctx, Config{URI: "sqlite://"})
	require.Error(t, err)

	_, err = Open(ctx, Config{URI: "cassandra://localhost"})
	require.Error(t, err)
}
