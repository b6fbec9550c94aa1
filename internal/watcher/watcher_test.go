package watcher

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIngester struct {
	mu    sync.Mutex
	paths []string
	fail  string
}

func (r *recordingIngester) Ingest(_ context.Context, path string) (*documents.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	if filepath.Base(path) == r.fail {
		return nil, errors.New("broken pdf")
	}
	return &documents.Result{Source: filepath.Base(path), Status: documents.StatusSuccess, Chunks: 1}, nil
}

func (r *recordingIngester) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_IngestsExistingAndNewPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("%PDF"), 0o644))

	ing := &recordingIngester{fail: "broken.pdf"}
	w := New(ing, dir, 40*time.Millisecond, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(ing.seen()) == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		for _, p := range ing.seen() {
			if p == "new.pdf" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NotContains(t, ing.seen(), "notes.txt")
	assert.ElementsMatch(t, []string{"broken.pdf", "existing.pdf"}, ing.seen()[:2])
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(&recordingIngester{}, filepath.Join(t.TempDir(), "absent"), 0, log.New(io.Discard, "", 0))
	require.Error(t, w.Run(context.Background()))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF("/a/b/Prospectus.PDF"))
	assert.False(t, isPDF("notes.txt"))
}
