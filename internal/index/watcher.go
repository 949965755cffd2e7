package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/tether/internal/storage"
)

// ChangeKind describes a watcher-driven index mutation.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
)

// ChangeFunc is called after each watcher-driven index change.
type ChangeFunc func(kind ChangeKind, path string)

// DefaultDebounce is the delay before a rename reconciliation pass.
const DefaultDebounce = 200 * time.Millisecond

// Watcher keeps the index in step with the vault directory.
type Watcher struct {
	db       *DB
	store    storage.Provider
	root     string
	logger   *slog.Logger
	debounce time.Duration
	onChange ChangeFunc
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the rename reconciliation delay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnChange registers a callback invoked after every index change.
func WithOnChange(fn ChangeFunc) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// NewWatcher creates a watcher for the vault rooted at root.
func NewWatcher(db *DB, store storage.Provider, root string, logger *slog.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		db:       db,
		store:    store,
		root:     root,
		logger:   logger,
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run processes file change events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass, since fsnotify reports
// only the old path.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(w.debounce)
			reconcileCh = reconcileTimer.C
			return
		}
		reconcileTimer.Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, scheduleReconcile)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	absPath := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(absPath); err == nil && info.IsDir() {
			if hidden(filepath.Base(absPath)) {
				return
			}
			if err := addDirsRecursive(fw, absPath); err != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", err.Error()))
			}
			w.indexDir(absPath)
			return
		}
	}

	if !storage.IsNote(filepath.Base(absPath)) {
		return
	}
	rel, ok := w.rel(absPath)
	if !ok {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := Updated
		if ev.Op&fsnotify.Create != 0 {
			kind = Created
		}
		w.index(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)

	case ev.Op&fsnotify.Rename != 0:
		w.remove(rel)
		scheduleReconcile()
	}
}

func (w *Watcher) index(rel string, kind ChangeKind) bool {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	if cs, _ := w.db.GetChecksum(rel); cs == storage.Checksum(data) {
		return false
	}
	if err := w.db.IndexFile(rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return false
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", string(kind)))
	w.notify(kind, rel)
	return true
}

func (w *Watcher) remove(rel string) {
	if cs, _ := w.db.GetChecksum(rel); cs == "" {
		return
	}
	if err := w.db.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.notify(Deleted, rel)
}

// reconcile removes index entries without a file on disk and indexes files
// the index has not seen.
func (w *Watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, cs := range disk {
		if checksums[p] != cs {
			w.index(p, Created)
		}
	}
}

func (w *Watcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !storage.IsNote(d.Name()) {
			return nil
		}
		if rel, ok := w.rel(path); ok {
			w.index(rel, Created)
		}
		return nil
	})
}

func (w *Watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if hidden(part) {
			return "", false
		}
	}
	return rel, true
}

func (w *Watcher) notify(kind ChangeKind, rel string) {
	if w.onChange != nil {
		w.onChange(kind, rel)
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
