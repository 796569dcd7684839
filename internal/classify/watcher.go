package classify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the latest successfully loaded rule table for a file and
// reloads it when the file changes. A broken edit keeps the previous table.
type Watcher struct {
	path     string
	current  atomic.Pointer[Evaluator]
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher loads path once and starts watching its directory (editors often
// replace files by rename, which a file-level watch would miss).
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create rules watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch rules directory: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		logger:   logger.With("component", "rules_watcher"),
		debounce: 100 * time.Millisecond,
	}
	w.current.Store(NewEvaluator(rules))
	return w, nil
}

// Current returns the active rule snapshot.
func (w *Watcher) Current() *Evaluator {
	return w.current.Load()
}

// Close stops watching. It is safe to call more than once and after Run returned.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Let the writer finish.
			time.Sleep(w.debounce)
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("rules watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		w.logger.Warn("rules reload failed, keeping previous table", "path", w.path, "err", err)
		return
	}
	w.current.Store(NewEvaluator(rules))
	w.logger.Info("rules reloaded", "path", w.path, "severity_rules", len(rules.Severity), "category_rules", len(rules.Categories))
}
