package app

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/dream-ai/ragchat/config"
	"github.com/dream-ai/ragchat/internal/conversation"
	"github.com/dream-ai/ragchat/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsystem(t *testing.T) {
	ok := Available("database", 42)
	v, err := ok.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, ok.Ready())
	assert.Equal(t, "database", ok.Name())

	bad := Unavailable[int]("chatbot", errors.New("OPENAI_API_KEY missing"))
	v, err = bad.Get()
	require.Error(t, err)
	assert.Zero(t, v)
	assert.False(t, bad.Ready())
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "chatbot")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY missing")

	var zero Subsystem[string]
	_, err = zero.Get()
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestBuild_FailuresAreIndependent(t *testing.T) {
	cfg := config.Default()
	cfg.Database.ConnectionString = "postgres://postgres@127.0.0.1:1/none?sslmode=disable&connect_timeout=2"
	cfg.Conversation.URI = "memory://"
	cfg.LLM.APIKey = ""

	s := Build(context.Background(), cfg, nil, log.New(io.Discard, "", 0))
	defer s.Close()

	assert.False(t, s.Index.Ready())
	assert.True(t, s.History.Ready())
	assert.False(t, s.Generator.Ready())

	_, err := s.Chat()
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = s.Ingestor()
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = s.Ingest(context.Background(), "anything.pdf")
	assert.True(t, errors.Is(err, ErrUnavailable))

	store, err := s.History.Get()
	require.NoError(t, err)
	_, err = store.Append(context.Background(), s.UserID, "still works", conversation.SenderUser)
	require.NoError(t, err)
}

func TestClose_ReverseOrder(t *testing.T) {
	var order []int
	s := &Services{}
	s.AddCloser(func() { order = append(order, 1) })
	s.AddCloser(func() { order = append(order, 2) })
	s.Close()
	s.Close()
	assert.Equal(t, []int{2, 1}, order)
}

func TestIngestor_IsShared(t *testing.T) {
	s := &Services{Index: Available(VectorDB, rag.NewIndex(nil, nil, "handbook"))}

	first, err := s.Ingestor()
	require.NoError(t, err)
	second, err := s.Ingestor()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
