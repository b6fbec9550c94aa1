package documents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// ErrDocumentNotFound is returned when the file to ingest does not exist
var ErrDocumentNotFound = errors.New("document not found")

// Status is the outcome of an ingestion request
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
)

// Result describes a finished ingestion
type Result struct {
	Source string
	Status Status
	Chunks int
}

// Index is the part of the vector index the ingestor needs
type Index interface {
	IsPresent(ctx context.Context, source string) bool
	Add(ctx context.Context, chunks []Chunk) error
}

// Ingestor loads, splits and indexes documents once per source name
type Ingestor struct {
	index    Index
	loader   Loader
	splitter *Splitter
	logger   *log.Logger

	mu      sync.Mutex
	sources map[string]*sourceLock
}

// sourceLock serializes ingestions of one source name
type sourceLock struct {
	sync.Mutex
	waiters int
}

// NewIngestor creates a new document ingestor
func NewIngestor(index Index, loader Loader, splitter *Splitter, logger *log.Logger) *Ingestor {
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{
		index:    index,
		loader:   loader,
		splitter: splitter,
		logger:   logger,
		sources:  make(map[string]*sourceLock),
	}
}

// lock blocks until no other ingestion of source is running and returns the unlock func
func (i *Ingestor) lock(source string) func() {
	i.mu.Lock()
	l, ok := i.sources[source]
	if !ok {
		l = &sourceLock{}
		i.sources[source] = l
	}
	l.waiters++
	i.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		i.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(i.sources, source)
		}
		i.mu.Unlock()
	}
}

// Ingest indexes the document at filePath unless a document with the same file name
// is already in the index. Concurrent calls for the same file name run one at a time,
// so only the first one indexes it.
func (i *Ingestor) Ingest(ctx context.Context, filePath string) (*Result, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	source := filepath.Base(filePath)
	unlock := i.lock(source)
	defer unlock()

	if i.index.IsPresent(ctx, source) {
		i.logger.Printf("%s already indexed, skipping", source)
		return &Result{Source: source, Status: StatusSkipped}, nil
	}

	pages, err := i.loader.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	chunks := i.splitter.SplitPages(source, pages)
	if err := i.index.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index document: %w", err)
	}

	i.logger.Printf("indexed %s: %d pages, %d chunks", source, len(pages), len(chunks))
	return &Result{Source: source, Status: StatusSuccess, Chunks: len(chunks)}, nil
}
