package organizer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jellyzam/internal/logging"
)

// CleanupReport summarizes an empty-directory sweep.
type CleanupReport struct {
	Scanned int
	Removed []string
	Failed  int
}

// CleanupEmptyDirectories deletes every empty directory below basePath,
// deepest first so parents emptied by the sweep are removed in the same pass.
// basePath itself is never removed. Individual failures are logged and
// counted; a missing basePath is a no-op.
func (e *Engine) CleanupEmptyDirectories(ctx context.Context, basePath string) CleanupReport {
	logger := logging.WithContext(ctx, e.logger)
	var report CleanupReport

	root := filepath.Clean(strings.TrimSpace(basePath))
	if strings.TrimSpace(basePath) == "" {
		return report
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		logger.Debug("cleanup skipped; base path unavailable", logging.String("base_path", root))
		return report
	}

	var dirs []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			report.Failed++
			logger.Debug("cleanup could not read directory", logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if walkErr != nil {
		logging.WarnWithContext(logger, "cleanup could not list base path", "cleanup_list_failed",
			logging.String("base_path", root),
			logging.Error(walkErr),
			logging.String(logging.FieldImpact, "no directories removed"),
		)
		return report
	}
	sortDeepestFirst(dirs)
	report.Scanned = len(dirs)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				report.Failed++
				logger.Debug("cleanup could not read directory", logging.String("path", dir), logging.Error(err))
			}
			continue
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			report.Failed++
			logging.WarnWithContext(logger, "failed to remove empty directory", "cleanup_remove_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "empty directory left in place"),
			)
			continue
		}
		report.Removed = append(report.Removed, dir)
	}

	logger.Info("empty directory cleanup completed",
		logging.String("base_path", root),
		logging.Int("scanned", report.Scanned),
		logging.Int("removed", len(report.Removed)),
		logging.Int("failed", report.Failed))
	return report
}

// sortDeepestFirst orders by path segment count descending, then by path
// length descending, then lexically, so every child precedes its parent.
func sortDeepestFirst(dirs []string) {
	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		if len(dirs[i]) != len(dirs[j]) {
			return len(dirs[i]) > len(dirs[j])
		}
		return dirs[i] < dirs[j]
	})
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(path)), "/")
}
