package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marco/multiclass/internal/logging"
)

// FileHandler is called when a new file is detected and ready for processing
type FileHandler func(ctx context.Context, file FileInfo) error

// Watcher monitors directories for new video files
type Watcher struct {
	scanner       *Scanner
	directories   []string
	debounceDelay time.Duration
	recursive     bool
	handler       FileHandler
	watcher       *fsnotify.Watcher
	logger        *slog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	doneChan      chan struct{}
	stopOnce      sync.Once

	// Debouncing state
	mu            sync.Mutex
	pendingTimers map[string]pendingTimer
	timerSeq      uint64
	inflight      sync.WaitGroup
}

// pendingTimer is a debounce timer tagged with the sequence number it was
// scheduled under. A firing timer only clears its own entry.
type pendingTimer struct {
	timer *time.Timer
	seq   uint64
}

// WatcherConfig holds configuration for the file watcher
type WatcherConfig struct {
	Directories   []string
	Extensions    []string
	ExcludeDirs   []string
	DebounceDelay time.Duration // How long to wait after last event before processing
	Recursive     bool          // Watch subdirectories
	Logger        *slog.Logger
}

// NewWatcher creates a new directory watcher
func NewWatcher(cfg WatcherConfig, handler FileHandler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	logger := logging.Component(cfg.Logger, "watcher")
	return &Watcher{
		scanner:       New(cfg.Extensions, cfg.ExcludeDirs, cfg.Logger),
		directories:   cfg.Directories,
		debounceDelay: cfg.DebounceDelay,
		recursive:     cfg.Recursive,
		handler:       handler,
		watcher:       fsWatcher,
		logger:        logger,
		doneChan:      make(chan struct{}),
		pendingTimers: make(map[string]pendingTimer),
	}, nil
}

// Start begins watching directories for changes. Handlers run with a
// context derived from ctx; Stop cancels it.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	watched := 0
	for _, dir := range w.directories {
		if err := w.addDirectory(dir); err != nil {
			w.logger.Warn("failed to watch directory", "path", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 && len(w.directories) > 0 {
		w.cancel()
		_ = w.watcher.Close()
		close(w.doneChan)
		return fmt.Errorf("none of %d source directories could be watched", len(w.directories))
	}

	// Start event processing goroutine
	go w.processEvents()

	w.logger.Info("file watcher started",
		"directories", watched,
		"debounce_seconds", w.debounceDelay.Seconds(),
		"recursive", w.recursive,
	)

	return nil
}

// Stop stops watching directories and waits for in-flight handlers.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		<-w.doneChan // Wait for event loop to finish

		// Cancel any pending timers
		w.mu.Lock()
		for path, pending := range w.pendingTimers {
			if pending.timer.Stop() {
				w.inflight.Done()
			}
			delete(w.pendingTimers, path)
		}
		w.mu.Unlock()

		w.inflight.Wait()
		err = w.watcher.Close()
	})
	return err
}

// Wait blocks until the watcher is stopped
func (w *Watcher) Wait() {
	<-w.doneChan
}

// addDirectory adds a directory (and optionally subdirectories) to watch
func (w *Watcher) addDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}

	if w.recursive {
		// Walk directory tree and add all subdirectories
		return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // Skip directories we can't access
			}
			if !d.IsDir() {
				return nil
			}
			if p != path && (isHiddenName(d.Name()) || w.scanner.IsExcludedDir(p)) {
				w.logger.Debug("skipping excluded directory", "path", p)
				return filepath.SkipDir
			}
			if err := w.watcher.Add(p); err != nil {
				w.logger.Warn("failed to add directory to watch", "path", p, "error", err)
			} else {
				w.logger.Debug("watching directory", "path", p)
			}
			return nil
		})
	}

	// Non-recursive: just watch the top-level directory
	if err := w.watcher.Add(path); err != nil {
		return fmt.Errorf("failed to add directory to watch: %w", err)
	}
	w.logger.Debug("watching directory", "path", path)
	return nil
}

// processEvents handles fsnotify events
func (w *Watcher) processEvents() {
	defer close(w.doneChan)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// handleEvent processes a single fsnotify event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	// Handle directory creation (for recursive watching)
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive && !isHiddenName(info.Name()) && !w.scanner.IsExcludedDir(path) {
				if err := w.addDirectory(path); err != nil {
					w.logger.Warn("failed to add new directory to watch", "path", path, "error", err)
				} else {
					w.logger.Info("new directory detected, now watching", "path", path)
				}
			}
			return
		}
	}

	// Only process visible files with matching extensions
	filename := filepath.Base(path)
	if isHiddenName(filename) || !w.scanner.IsMediaFile(filename) {
		return
	}

	// Handle file creation and write events (new files or file modifications)
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		w.logger.Debug("file event detected",
			"event", event.Op.String(),
			"file", filename,
		)
		w.scheduleProcessing(path)
	}
}

// scheduleProcessing schedules a file for processing after debounce delay
func (w *Watcher) scheduleProcessing(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	// Restart the debounce window if a timer is already pending
	if pending, exists := w.pendingTimers[path]; exists {
		if pending.timer.Stop() {
			w.inflight.Done()
		}
	}

	w.timerSeq++
	seq := w.timerSeq
	w.inflight.Add(1)
	w.pendingTimers[path] = pendingTimer{
		seq: seq,
		timer: time.AfterFunc(w.debounceDelay, func() {
			defer w.inflight.Done()
			w.processFile(path, seq)
		}),
	}
}

// releaseTimer drops the pending entry for path if it still belongs to seq.
func (w *Watcher) releaseTimer(path string, seq uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pending, exists := w.pendingTimers[path]; exists && pending.seq == seq {
		delete(w.pendingTimers, path)
	}
}

// processFile processes a single file after debounce period
func (w *Watcher) processFile(path string, seq uint64) {
	w.releaseTimer(path, seq)

	if w.ctx.Err() != nil {
		return
	}

	// Verify file still exists (might have been moved/deleted)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("file no longer exists, skipping", "path", path)
			return
		}
		w.logger.Error("failed to stat file", "path", path, "error", err)
		return
	}
	if info.IsDir() {
		return
	}

	fileInfo := newFileInfo(w.sourceDirFor(path), path, info.Size())
	w.logger.Info("processing new file", "file", fileInfo.FileName, "title", fileInfo.Title, "year", fileInfo.Year)

	if err := w.handler(w.ctx, fileInfo); err != nil {
		w.logger.Error("failed to process file", "file", fileInfo.FileName, "error", err)
	}
}

// sourceDirFor returns the configured directory containing path.
func (w *Watcher) sourceDirFor(path string) string {
	best := ""
	for _, dir := range w.directories {
		dir = filepath.Clean(dir)
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
			continue
		}
		if len(dir) > len(best) {
			best = dir
		}
	}
	if best == "" {
		return filepath.Dir(path)
	}
	return best
}

// IsValidMediaFile checks if a path is a valid media file for the configured extensions
func (w *Watcher) IsValidMediaFile(path string) bool {
	return w.scanner.IsMediaFile(filepath.Base(path))
}
