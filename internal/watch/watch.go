// Package watch re-reads a file whenever it changes on disk.
package watch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long to wait for more writes before reading.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the file content after each settled change.
type Handler func(ctx context.Context, content []byte)

// FileWatcher watches one file. The parent directory is watched so that
// editors which replace the file on save are still followed.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	lastHash [sha256.Size]byte
	seen     bool
}

// New creates a watcher for path.
func New(path string, debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWatcher{path: abs, debounce: debounce, logger: logger, watcher: fsw}, nil
}

// Run calls fn with the current content, then again after every change
// that alters it. Empty content is skipped. Blocks until ctx is done.
func (w *FileWatcher) Run(ctx context.Context, fn Handler) error {
	defer w.watcher.Close()

	w.emit(ctx, fn)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("File change detected", "path", w.path, "op", event.Op.String())
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)

		case <-timer.C:
			w.emit(ctx, fn)
		}
	}
}

func (w *FileWatcher) emit(ctx context.Context, fn Handler) {
	content, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("Failed to read watched file", "path", w.path, "error", err)
		return
	}
	if len(bytes.TrimSpace(content)) == 0 {
		w.logger.Debug("Watched file is empty", "path", w.path)
		return
	}

	sum := sha256.Sum256(content)
	if w.seen && sum == w.lastHash {
		return
	}
	w.lastHash, w.seen = sum, true
	fn(ctx, content)
}
