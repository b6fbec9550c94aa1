package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req["model"])
		assert.Equal(t, "fees", req["prompt"])
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	vec, err := NewOllamaEmbedder(srv.URL, "").Embed(context.Background(), "  fees ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "missing")
	_, err := e.Embed(context.Background(), "   ")
	require.Error(t, err)

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenAIEmbedder_EmbedBatchOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[2,2]},{"index":0,"embedding":[1,1]}]}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "", "sk-test")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, vecs)
}

// numberedEmbeddings answers each input "tN" with the vector [N], rejecting oversized
// requests the way the hosted endpoint does
func numberedEmbeddings(t *testing.T, failOnRequest int) (*httptest.Server, *[]int) {
	t.Helper()
	var (
		mu    sync.Mutex
		sizes []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		mu.Lock()
		sizes = append(sizes, len(req.Input))
		n := len(sizes)
		mu.Unlock()

		if len(req.Input) > MaxOpenAIBatch || n == failOnRequest {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"too many inputs"}}`))
			return
		}
		parts := make([]string, len(req.Input))
		for i, in := range req.Input {
			parts[i] = fmt.Sprintf(`{"index":%d,"embedding":[%s]}`, i, strings.TrimPrefix(in, "t"))
		}
		_, _ = w.Write([]byte(`{"data":[` + strings.Join(parts, ",") + `]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &sizes
}

func numberedTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "t" + strconv.Itoa(i)
	}
	return texts
}

func TestOpenAIEmbedder_EmbedBatchSplitsLargeInput(t *testing.T) {
	srv, sizes := numberedEmbeddings(t, 0)
	e, err := NewOpenAIEmbedder(srv.URL, "", "sk-test")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), numberedTexts(3000))
	require.NoError(t, err)

	assert.Equal(t, []int{MaxOpenAIBatch, 3000 - MaxOpenAIBatch}, *sizes)
	require.Len(t, vecs, 3000)
	for _, i := range []int{0, 1, 2047, 2048, 2999} {
		assert.Equal(t, []float32{float32(i)}, vecs[i], "vector %d", i)
	}
}

func TestOpenAIEmbedder_EmbedBatchFailsWhenAnyRequestFails(t *testing.T) {
	srv, sizes := numberedEmbeddings(t, 2)
	e, err := NewOpenAIEmbedder(srv.URL, "", "sk-test")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), numberedTexts(2500))
	require.Error(t, err)
	assert.Nil(t, vecs)
	assert.Contains(t, err.Error(), "inputs 2048-2499")
	assert.Len(t, *sizes, 2)
}

func TestOpenAIEmbedder_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(srv.URL, "", "sk-bad")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNew(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "all-minilm", e.ModelName())

	_, err = New(Config{Provider: "openai"})
	require.Error(t, err)

	_, err = New(Config{Provider: "cohere"})
	require.Error(t, err)
}
