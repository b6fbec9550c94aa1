package documents

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	present map[string]bool
	added   []Chunk
	addErr  error
	adds    int
}

func (f *fakeIndex) IsPresent(_ context.Context, source string) bool {
	return f.present[source]
}

func (f *fakeIndex) Add(_ context.Context, chunks []Chunk) error {
	f.adds++
	if f.addErr != nil {
		return f.addErr
	}
	if f.present == nil {
		f.present = map[string]bool{}
	}
	for _, c := range chunks {
		f.present[c.Metadata.Source] = true
	}
	f.added = append(f.added, chunks...)
	return nil
}

type fakeLoader struct {
	pages []string
	err   error
	loads int
}

func (f *fakeLoader) Load(string) ([]string, error) {
	f.loads++
	return f.pages, f.err
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestIngestor_Ingest(t *testing.T) {
	index := &fakeIndex{}
	loader := &fakeLoader{pages: []string{"Admission criteria.", "Fee structure."}}
	ing := NewIngestor(index, loader, NewSplitter(1000, 100), quietLogger())

	path := writeFile(t, "prospectus.pdf")
	res, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "prospectus.pdf", res.Source)
	assert.Equal(t, 2, res.Chunks)
	require.Len(t, index.added, 2)
	assert.Equal(t, "prospectus.pdf", index.added[0].Metadata.Source)
	assert.Equal(t, 2, index.added[1].Metadata.Page)
}

func TestIngestor_SecondIngestIsNoop(t *testing.T) {
	index := &fakeIndex{}
	loader := &fakeLoader{pages: []string{"Admission criteria."}}
	ing := NewIngestor(index, loader, nil, quietLogger())
	path := writeFile(t, "prospectus.pdf")

	_, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)

	res, err := ing.Ingest(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, 1, loader.loads)
	assert.Equal(t, 1, index.adds)
}

// slowIndex is safe for concurrent use and holds Add open long enough for racing callers to overlap
type slowIndex struct {
	mu      sync.Mutex
	present map[string]bool
	adds    int
}

func (s *slowIndex) IsPresent(_ context.Context, source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.present[source]
}

func (s *slowIndex) Add(_ context.Context, chunks []Chunk) error {
	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds++
	for _, c := range chunks {
		s.present[c.Metadata.Source] = true
	}
	return nil
}

type staticLoader []string

func (l staticLoader) Load(string) ([]string, error) { return l, nil }

func TestIngestor_ConcurrentIngestsOfSameSourceIndexOnce(t *testing.T) {
	idx := &slowIndex{present: map[string]bool{}}
	ing := NewIngestor(idx, staticLoader{"Admission fees are due in August."}, nil, quietLogger())
	path := writeFile(t, "prospectus.pdf")

	const callers = 8
	statuses := make([]Status, callers)
	var wg sync.WaitGroup
	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := ing.Ingest(context.Background(), path)
			if assert.NoError(t, err) {
				statuses[n] = res.Status
			}
		}(n)
	}
	wg.Wait()

	assert.Equal(t, 1, idx.adds)
	var success, skipped int
	for _, st := range statuses {
		switch st {
		case StatusSuccess:
			success++
		case StatusSkipped:
			skipped++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, callers-1, skipped)
	assert.Empty(t, ing.sources)
}

func TestIngestor_DifferentSourcesDoNotWait(t *testing.T) {
	idx := &slowIndex{present: map[string]bool{}}
	ing := NewIngestor(idx, staticLoader{"text"}, nil, quietLogger())

	var wg sync.WaitGroup
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		path := writeFile(t, name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ing.Ingest(context.Background(), path)
			if assert.NoError(t, err) {
				assert.Equal(t, StatusSuccess, res.Status)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, idx.adds)
}

func TestIngestor_MissingFile(t *testing.T) {
	index := &fakeIndex{}
	ing := NewIngestor(index, &fakeLoader{}, nil, quietLogger())

	_, err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
	assert.Zero(t, index.adds)
}

func TestIngestor_LoadFailure(t *testing.T) {
	index := &fakeIndex{}
	ing := NewIngestor(index, &fakeLoader{err: errors.New("corrupt xref")}, nil, quietLogger())

	_, err := ing.Ingest(context.Background(), writeFile(t, "broken.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt xref")
	assert.Zero(t, index.adds)
}

func TestIngestor_IndexFailurePropagates(t *testing.T) {
	index := &fakeIndex{addErr: errors.New("embedding service down")}
	ing := NewIngestor(index, &fakeLoader{pages: []string{"text"}}, nil, quietLogger())

	_, err := ing.Ingest(context.Background(), writeFile(t, "a.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to index document")
	assert.False(t, errors.Is(err, ErrDocumentNotFound))
}

func TestPDFLoader_RejectsOtherExtensions(t *testing.T) {
	_, err := NewPDFLoader().Load(writeFile(t, "notes.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
