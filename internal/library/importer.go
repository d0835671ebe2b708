package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"jellyzam/internal/logging"
)

// ImportReport summarizes a directory import.
type ImportReport struct {
	Scanned  int `json:"scanned"`
	Added    int `json:"added"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

// Importer walks music directories and catalogues audio files.
type Importer struct {
	store   *Store
	isAudio func(path string) bool
	logger  *slog.Logger
}

// NewImporter constructs an importer. isAudio selects which files are catalogued.
func NewImporter(store *Store, isAudio func(path string) bool, logger *slog.Logger) *Importer {
	return &Importer{
		store:   store,
		isAudio: isAudio,
		logger:  logging.NewComponentLogger(logger, "import"),
	}
}

// ImportDir catalogues every audio file below dir. Unreadable tags do not stop
// the walk; the file is added with the metadata that could be read.
func (i *Importer) ImportDir(ctx context.Context, dir string) (ImportReport, error) {
	var report ImportReport
	root, err := filepath.Abs(dir)
	if err != nil {
		return report, fmt.Errorf("resolve %s: %w", dir, err)
	}

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			report.Failed++
			logging.WarnWithContext(i.logger, "skipping unreadable path", "import_walk_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files below this path were not catalogued"),
			)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if i.isAudio != nil && !i.isAudio(path) {
			return nil
		}
		report.Scanned++
		_, added, importErr := i.ImportFile(ctx, path)
		switch {
		case importErr != nil:
			report.Failed++
			logging.WarnWithContext(i.logger, "import failed", "import_failed",
				logging.String("path", path),
				logging.Error(importErr),
			)
		case added:
			report.Added++
		default:
			report.Existing++
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	i.logger.Info("import complete",
		logging.String("dir", root),
		logging.Int("scanned", report.Scanned),
		logging.Int("added", report.Added),
		logging.Int("existing", report.Existing),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

// ImportFile catalogues a single file and returns the catalogue entry. The
// boolean reports whether the track was newly added.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Track, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", path, err)
	}
	if existing, err := i.store.FindByPath(ctx, abs); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	track := &Track{Path: abs, ModifiedAt: time.Now().UTC()}
	tags, tagErr := ReadTags(abs)
	if tagErr != nil && !errors.Is(tagErr, fs.ErrNotExist) {
		i.logger.Debug("tags unreadable; cataloguing without metadata",
			logging.String("path", abs),
			logging.Error(tagErr),
		)
	}
	track.Title = tags.Title
	track.Album = tags.Album
	if tags.Artist != "" {
		track.Artists = []string{tags.Artist}
	}
	return i.store.Add(ctx, track)
}
