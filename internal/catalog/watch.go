package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before a batch of changes is handled.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports product files that were created or modified under a root.
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   *IgnoreMatcher
	logger   zerolog.Logger
}

// NewWatcher creates a Watcher. debounce <= 0 uses DefaultDebounce.
func NewWatcher(root string, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     abs,
		debounce: debounce,
		ignore:   NewIgnoreMatcher(abs),
		logger:   logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// Watch blocks until ctx is done, calling fn with the sorted absolute paths
// of product files changed in each debounced batch. Removed files are not
// reported.
func (w *Watcher) Watch(ctx context.Context, fn func(paths []string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addDir(fw, w.root); err != nil {
		return fmt.Errorf("catalog: add watch directories: %w", err)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil || rel == "." || w.ignore.ignored(rel) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDir(fw, event.Name); err != nil {
						w.logger.Warn().Err(err).Str("dir", rel).Msg("could not watch new directory")
					}
					continue
				}
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if filepath.Base(rel) == IgnoreFile || !Supported(rel) {
				continue
			}

			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				if _, err := os.Stat(p); err == nil {
					batch = append(batch, p)
				}
			}
			pending = make(map[string]bool)
			if len(batch) == 0 {
				continue
			}
			sort.Strings(batch)
			w.logger.Debug().Int("files", len(batch)).Msg("catalog changed")
			fn(batch)
		}
	}
}

// addDir recursively adds dir and its subdirectories, skipping ignored ones.
func (w *Watcher) addDir(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(w.root, path)
		if rel != "." && w.ignore.ignored(rel) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
