package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jellyzam/internal/config"
	"jellyzam/internal/identification"
	"jellyzam/internal/library"
	"jellyzam/internal/logging"
)

// KindWatch labels runs started by the watcher in history.
const KindWatch = "watch"

const minDebounce = 50 * time.Millisecond

// Importer catalogues a single audio file.
type Importer interface {
	ImportFile(ctx context.Context, path string) (*library.Track, bool, error)
}

// BatchRunner identifies a group of tracks.
type BatchRunner interface {
	RunBatch(ctx context.Context, tracks []*library.Track, opts ...identification.BatchOption) identification.BatchResult
}

// Watcher turns filesystem events into identification batches.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	isAudio  func(path string) bool
	importer Importer
	runner   BatchRunner
	logger   *slog.Logger

	pending map[string]time.Time
	ready   chan struct{}
	once    sync.Once
}

// New builds a watcher for dirs. An empty isAudio accepts every file.
func New(dirs []string, debounce time.Duration, isAudio func(string) bool, importer Importer, runner BatchRunner, logger *slog.Logger) *Watcher {
	if debounce < minDebounce {
		debounce = minDebounce
	}
	return &Watcher{
		dirs:     append([]string(nil), dirs...),
		debounce: debounce,
		isAudio:  isAudio,
		importer: importer,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "watch"),
		pending:  make(map[string]time.Time),
		ready:    make(chan struct{}),
	}
}

// NewFromConfig builds a watcher over scan.watch_dirs, or over dirs when given.
func NewFromConfig(cfg *config.Config, dirs []string, importer Importer, runner BatchRunner, logger *slog.Logger) *Watcher {
	if len(dirs) == 0 {
		dirs = cfg.Scan.WatchDirs
	}
	return New(dirs, time.Duration(cfg.Scan.WatchDebounceMS)*time.Millisecond, cfg.IsAudioFile, importer, runner, logger)
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled. Settled files are processed on the
// watcher goroutine; events arriving meanwhile queue in the kernel buffer.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return errors.New("no watch directories configured")
	}
	if w.importer == nil || w.runner == nil {
		return errors.New("watcher requires an importer and a batch runner")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := w.addTree(fsw, dir); err != nil {
			return err
		}
	}
	w.once.Do(func() { close(w.ready) })
	w.logger.Info("watching for new audio files",
		logging.Int("directories", len(w.dirs)),
		logging.Duration("debounce", w.debounce))

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped", logging.Int("pending", len(w.pending)))
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed; run jellyzam scan to catch up"),
			)
		case now := <-ticker.C:
			if settled := w.settled(now); len(settled) > 0 {
				w.process(ctx, settled)
			}
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	path := event.Name
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(w.pending, path)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) {
				if err := w.addTree(fsw, path); err != nil {
					w.logger.Warn("failed to watch new directory", logging.String("dir", path), logging.Error(err))
				}
			}
			return
		}
		if info.Mode().IsRegular() && w.accepts(path) {
			w.pending[path] = time.Now()
		}
	}
}

// addTree watches root and every directory below it. Files already present in
// a newly created directory (a copied album folder) are queued too.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if entry.IsDir() {
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if isReady(w.ready) && entry.Type().IsRegular() && w.accepts(path) {
			w.pending[path] = time.Now()
		}
		return nil
	})
}

func (w *Watcher) accepts(path string) bool {
	return w.isAudio == nil || w.isAudio(path)
}

// settled removes and returns the paths quiet for at least the debounce interval.
func (w *Watcher) settled(now time.Time) []string {
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) process(ctx context.Context, paths []string) {
	tracks := make([]*library.Track, 0, len(paths))
	for _, path := range paths {
		track, added, err := w.importer.ImportFile(ctx, path)
		if err != nil {
			logging.WarnWithContext(w.logger, "import of watched file failed", "watch_import_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is not identified until the next scan"),
			)
			continue
		}
		if !added && identification.HasCompleteMetadata(track) {
			w.logger.Debug("watched file already catalogued", logging.String("path", path))
			continue
		}
		tracks = append(tracks, track)
	}
	if len(tracks) == 0 || ctx.Err() != nil {
		return
	}
	result := w.runner.RunBatch(ctx, tracks, identification.WithKind(KindWatch))
	w.logger.Info("watched files processed",
		logging.Int("tracks", len(tracks)),
		logging.Int("identified", result.Stats.Identified),
		logging.Int("errored", result.Stats.Errored))
}

func isReady(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
