package identification

import (
	"context"
	"errors"
	"strings"
	"time"

	"jellyzam/internal/library"
	"jellyzam/internal/recognition"
	"jellyzam/internal/services"
)

// ReconcileOutcome reports what Reconcile did to a track.
type ReconcileOutcome struct {
	AlreadyComplete bool
	Changed         bool
	Fields          []string
}

// HasCompleteMetadata reports whether the track has a title, an album and at
// least one artist, all non-blank.
func HasCompleteMetadata(track *library.Track) bool {
	if track == nil {
		return false
	}
	return strings.TrimSpace(track.Title) != "" &&
		strings.TrimSpace(track.Album) != "" &&
		track.PrimaryArtist() != ""
}

// Reconcile merges matched into track. A field is replaced only when the
// matched value is non-blank and differs (exact comparison for title and
// album, set comparison for artists). Changes are applied to a copy and
// persisted through persister first; the borrowed track is updated only after
// the write succeeded, so a failed persist leaves it untouched. With
// overwrite=false a track with complete metadata is skipped entirely.
func Reconcile(ctx context.Context, track *library.Track, matched recognition.TrackDescriptor, overwrite bool, persister library.Persister) (ReconcileOutcome, error) {
	if track == nil {
		return ReconcileOutcome{}, services.Wrap(services.ErrValidation, "reconciling", "reconcile", "track is nil", nil)
	}
	if !overwrite && HasCompleteMetadata(track) {
		return ReconcileOutcome{AlreadyComplete: true}, nil
	}

	working := track.Clone()
	var fields []string
	if title := strings.TrimSpace(matched.Title); title != "" && title != working.Title {
		working.Title = title
		fields = append(fields, "title")
	}
	if artist := matched.ArtistName(); artist != "" && !sameArtistSet(working.Artists, []string{artist}) {
		working.Artists = []string{artist}
		fields = append(fields, "artists")
	}
	if album := strings.TrimSpace(matched.Album); album != "" && album != working.Album {
		working.Album = album
		fields = append(fields, "album")
	}
	if len(fields) == 0 {
		return ReconcileOutcome{}, nil
	}
	if err := ctx.Err(); err != nil {
		return ReconcileOutcome{}, err
	}
	if persister == nil {
		return ReconcileOutcome{}, services.Wrap(services.ErrMetadataPersist, "reconciling", "persist metadata", "no persister configured", nil)
	}

	working.ModifiedAt = time.Now().UTC()
	if err := persister.UpdateMetadata(ctx, working); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ReconcileOutcome{}, err
		}
		return ReconcileOutcome{}, services.Wrap(services.ErrMetadataPersist, "reconciling", "persist metadata", track.Path, err)
	}

	track.Title = working.Title
	track.Artists = working.Artists
	track.Album = working.Album
	track.ModifiedAt = working.ModifiedAt
	return ReconcileOutcome{Changed: true, Fields: fields}, nil
}

// sameArtistSet compares artist lists as sets of trimmed, non-blank names.
func sameArtistSet(a, b []string) bool {
	left := artistSet(a)
	right := artistSet(b)
	if len(left) != len(right) {
		return false
	}
	for name := range left {
		if _, ok := right[name]; !ok {
			return false
		}
	}
	return true
}

func artistSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
