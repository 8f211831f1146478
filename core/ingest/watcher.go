package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/siherrmann/finrag/model"
)

// Watcher indexes JSONL files dropped into a directory.
type Watcher struct {
	indexer   ArticleIndexer
	indexName string
	logger    *slog.Logger
	total     model.IndexReport

	// onIndexed is called after each file, mostly for tests.
	onIndexed func(path string, report model.IndexReport)
}

// NewWatcher creates a watcher that indexes JSONL article files into indexName.
func NewWatcher(indexer ArticleIndexer, indexName string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{indexer: indexer, indexName: indexName, logger: logger}
}

// Watch blocks until ctx is done. Every *.jsonl file created or written in dir
// is loaded and upserted; bad files are logged and skipped.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("Watching directory", "dir", dir, "index", w.indexName)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopped watching", "dir", dir, "indexed", w.total.Indexed, "failed", w.total.Failed)
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".jsonl" {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.indexFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) indexFile(ctx context.Context, path string) {
	articles, err := LoadJSONL(path)
	if err != nil {
		w.logger.Warn("Error loading file", "path", path, "error", err.Error())
		return
	}
	if len(articles) == 0 {
		return
	}

	report := w.indexer.UpsertArticles(ctx, w.indexName, articles)
	w.total.Add(report)
	w.logger.Info("Indexed file", "path", path, "indexed", report.Indexed, "failed", report.Failed)
	if w.onIndexed != nil {
		w.onIndexed(path, report)
	}
}
