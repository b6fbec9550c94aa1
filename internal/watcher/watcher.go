// Package watcher ingests PDF files dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dream-ai/ragchat/internal/documents"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay unchanged before it is ingested
const DefaultSettle = time.Second

// Ingester indexes one document
type Ingester interface {
	Ingest(ctx context.Context, path string) (*documents.Result, error)
}

// Watcher feeds new and modified PDFs of a directory to an Ingester, one at a time
type Watcher struct {
	ingester Ingester
	dir      string
	settle   time.Duration
	logger   *log.Logger
}

// New creates a watcher for dir. A non-positive settle uses DefaultSettle.
func New(ingester Ingester, dir string, settle time.Duration, logger *log.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[WATCH] ", log.LstdFlags)
	}
	return &Watcher{ingester: ingester, dir: dir, settle: settle, logger: logger}
}

// Run ingests the PDFs already in the directory, then watches it until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Printf("watching %s for PDF files", w.dir)

	if err := w.scan(ctx); err != nil {
		return err
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isPDF(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[event.Name] = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch error: %v", err)
		case now := <-ticker.C:
			var ready []string
			for path, seen := range pending {
				if now.Sub(seen) >= w.settle {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				delete(pending, path)
				w.ingest(ctx, path)
			}
		}
	}
}

// scan ingests PDFs that were present before watching started
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isPDF(entry.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ingester.Ingest(ctx, path)
	if err != nil {
		w.logger.Printf("ingest %s failed: %v", path, err)
		return
	}
	w.logger.Printf("%s: %s (%d chunks)", res.Source, res.Status, res.Chunks)
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
