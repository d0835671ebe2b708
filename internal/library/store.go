package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"jellyzam/internal/config"
)

// ErrTrackNotFound is returned when an update targets a track the catalog does not know.
var ErrTrackNotFound = errors.New("track not found")

const trackColumns = "id, path, title, artists_json, album, modified_at"

const dsnPragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Store is the local track catalog backed by SQLite. It implements Source and
// Persister and keeps batch run history and scan state.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.CatalogPath())
}

// OpenPath initializes or connects to the catalog database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}
	// Pragmas ride on the DSN so every pooled connection gets them, not just
	// the first one.
	db, err := sql.Open("sqlite", dbPath+"?"+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection queues concurrent batch
	// workers in database/sql instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Add inserts a track, assigning an identifier when none is set. Adding a path
// that is already catalogued returns the existing track and false.
func (s *Store) Add(ctx context.Context, track *Track) (*Track, bool, error) {
	if track == nil {
		return nil, false, errors.New("track is nil")
	}
	path := strings.TrimSpace(track.Path)
	if path == "" {
		return nil, false, errors.New("track path is required")
	}
	if existing, err := s.FindByPath(ctx, path); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, false, nil
	}

	stored := track.Clone()
	stored.Path = path
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.ModifiedAt.IsZero() {
		stored.ModifiedAt = time.Now().UTC()
	}
	artists, err := encodeArtists(stored.Artists)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracks (id, path, title, artists_json, album, created_at, modified_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stored.ID,
		stored.Path,
		nullableString(stored.Title),
		artists,
		nullableString(stored.Album),
		now,
		stored.ModifiedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert track: %w", err)
	}
	return stored, true, nil
}

// Get fetches a track by identifier. A missing track yields nil, nil.
func (s *Store) Get(ctx context.Context, id string) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// FindByPath fetches a track by its file path. A missing track yields nil, nil.
func (s *Store) FindByPath(ctx context.Context, path string) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE path = ?`, path)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find track by path: %w", err)
	}
	return track, nil
}

// Tracks returns every catalogued track ordered by path.
func (s *Store) Tracks(ctx context.Context) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// Count returns the number of catalogued tracks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// UpdateMetadata persists title, artists, album and modification time.
func (s *Store) UpdateMetadata(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	artists, err := encodeArtists(track.Artists)
	if err != nil {
		return err
	}
	modified := track.ModifiedAt
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracks SET title = ?, artists_json = ?, album = ?, modified_at = ? WHERE id = ?`,
		nullableString(track.Title),
		artists,
		nullableString(track.Album),
		modified.UTC().Format(time.RFC3339Nano),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track metadata: %w", err)
	}
	return requireRow(res, track.ID)
}

// UpdatePath records a new file location for the track. The borrowed track is
// not modified; callers update it after a successful call.
func (s *Store) UpdatePath(ctx context.Context, track *Track, newPath string) error {
	if track == nil {
		return errors.New("track is nil")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracks SET path = ?, modified_at = ? WHERE id = ?`,
		newPath,
		time.Now().UTC().Format(time.RFC3339Nano),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track path: %w", err)
	}
	return requireRow(res, track.ID)
}

// Remove deletes a track from the catalog. Removing an unknown track is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove track: %w", err)
	}
	return nil
}

// PruneMissing removes catalogued tracks whose files no longer exist and
// returns how many were removed.
func (s *Store) PruneMissing(ctx context.Context) (int, error) {
	tracks, err := s.Tracks(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, track := range tracks {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if _, statErr := os.Stat(track.Path); !errors.Is(statErr, os.ErrNotExist) {
			continue
		}
		if err := s.Remove(ctx, track.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	return nil
}
