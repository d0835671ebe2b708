package library

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Track is a single audio file known to the library.
type Track struct {
	ID         string
	Title      string
	Artists    []string
	Album      string
	Path       string
	ModifiedAt time.Time
}

// Source enumerates tracks. The returned slice is materialized; callers may
// iterate it while other tracks are persisted.
type Source interface {
	Tracks(ctx context.Context) ([]*Track, error)
}

// Persister stores metadata and path changes for a track.
type Persister interface {
	UpdateMetadata(ctx context.Context, track *Track) error
	UpdatePath(ctx context.Context, track *Track, newPath string) error
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Artists != nil {
		clone.Artists = append([]string(nil), t.Artists...)
	}
	return &clone
}

// PrimaryArtist returns the first non-blank artist.
func (t *Track) PrimaryArtist() string {
	if t == nil {
		return ""
	}
	for _, artist := range t.Artists {
		if trimmed := strings.TrimSpace(artist); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// DisplayName returns a short label for logs and tables.
func (t *Track) DisplayName() string {
	if t == nil {
		return ""
	}
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = filepath.Base(t.Path)
	}
	if artist := t.PrimaryArtist(); artist != "" {
		return artist + " - " + title
	}
	return title
}
