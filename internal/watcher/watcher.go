// Package watcher re-runs incremental indexing when source files change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driving"
	"github.com/openclinic/ragindex/internal/logger"
)

// DefaultDebounce coalesces bursts of filesystem events (editors often
// write several times per save) into a single indexing run.
const DefaultDebounce = 2 * time.Second

// RunCallback is called after each watcher-driven indexing run.
type RunCallback func(report *domain.IndexReport)

// Watcher triggers incremental index runs on source changes.
type Watcher struct {
	indexer  driving.Indexer
	opts     domain.IndexOptions
	debounce time.Duration
	cb       RunCallback
}

// New creates a watcher. cb may be nil.
func New(indexer driving.Indexer, opts domain.IndexOptions, cb RunCallback) *Watcher {
	// Watching with --force would re-embed everything on every save.
	opts.Force = false
	return &Watcher{
		indexer:  indexer,
		opts:     opts,
		debounce: DefaultDebounce,
		cb:       cb,
	}
}

// Watch runs an initial indexing pass, then watches the configured source
// directories until ctx is cancelled. Events are debounced; each trigger
// runs the indexer, which itself skips documents that are still fresh.
//
// Directories created at runtime under a watched root are added to the
// watch list. Renames and removals are picked up on the next run through
// the staleness check rather than handled per-event.
func (w *Watcher) Watch(ctx context.Context) error {
	if _, err := w.indexer.Run(ctx, w.opts); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range []string{w.opts.NotesDir, w.opts.SlidesDir} {
		if root == "" {
			continue
		}
		if err := addDirsRecursive(fsw, root); err != nil {
			return err
		}
		logger.Info("Watching %s", root)
	}

	var timer *time.Timer
	var trigger <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			trigger = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("Watcher stopped")
			return nil

		case <-trigger:
			report, runErr := w.indexer.Run(ctx, w.opts)
			if runErr != nil {
				logger.Warn("Watch-triggered index run failed: %v", runErr)
				continue
			}
			logger.Info("Re-indexed: %d updated, %d fresh, %d failed",
				report.Indexed, report.Skipped, report.Failed)
			if w.cb != nil {
				w.cb(report)
			}

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fsw, ev.Name); addErr != nil {
						logger.Warn("Could not watch new directory %s: %v", ev.Name, addErr)
					}
					schedule()
					continue
				}
			}
			if !isSourceFile(ev.Name) {
				continue
			}
			logger.Debug("Source change: %s (%s)", ev.Name, ev.Op)
			schedule()

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", watchErr)
		}
	}
}

func isSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt", ".pdf":
		return true
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
