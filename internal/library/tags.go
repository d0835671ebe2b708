package library

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"

	"jellyzam/internal/logging"
)

// TagInfo is the subset of embedded tags jellyzam reads.
type TagInfo struct {
	Title  string
	Artist string
	Album  string
}

// SupportsTags reports whether embedded tags can be read and written for path.
func SupportsTags(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// ReadTags returns the ID3 title, artist and album of an mp3 file. Other
// formats yield an empty TagInfo.
func ReadTags(path string) (TagInfo, error) {
	if !SupportsTags(path) {
		return TagInfo{}, nil
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return TagInfo{}, fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	return TagInfo{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}, nil
}

// WriteTags writes the track's title, primary artist and album into the mp3
// file's ID3 tag. Unsupported formats are left untouched.
func WriteTags(track *Track) error {
	if track == nil || !SupportsTags(track.Path) {
		return nil
	}
	tag, err := id3v2.Open(track.Path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if title := strings.TrimSpace(track.Title); title != "" {
		tag.SetTitle(title)
	}
	if artist := track.PrimaryArtist(); artist != "" {
		tag.SetArtist(artist)
	}
	if album := strings.TrimSpace(track.Album); album != "" {
		tag.SetAlbum(album)
	}
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}

// TaggingPersister mirrors metadata updates into embedded file tags after the
// wrapped persister succeeds. Tag failures are logged, not returned: the
// catalog stays authoritative.
type TaggingPersister struct {
	next   Persister
	logger *slog.Logger
}

// NewTaggingPersister wraps next with ID3 write-back.
func NewTaggingPersister(next Persister, logger *slog.Logger) *TaggingPersister {
	return &TaggingPersister{next: next, logger: logging.NewComponentLogger(logger, "tags")}
}

// UpdateMetadata persists through the wrapped persister, then writes tags.
func (p *TaggingPersister) UpdateMetadata(ctx context.Context, track *Track) error {
	if err := p.next.UpdateMetadata(ctx, track); err != nil {
		return err
	}
	if err := WriteTags(track); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "tag write-back failed", "tag_write_failed",
			logging.String("path", track.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file is writable and a valid mp3"),
			logging.String(logging.FieldImpact, "catalog updated but embedded tags are stale"),
		)
	}
	return nil
}

// UpdatePath delegates to the wrapped persister.
func (p *TaggingPersister) UpdatePath(ctx context.Context, track *Track, newPath string) error {
	return p.next.UpdatePath(ctx, track, newPath)
}
