package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"jellyzam/internal/fileutil"
	"jellyzam/internal/library"
	"jellyzam/internal/textutil"
)

// Status describes the outcome of an organization plan.
type Status string

const (
	StatusMoved                 Status = "moved"
	StatusSkippedAlreadyCorrect Status = "skipped_already_correct"
	StatusSkippedFailed         Status = "skipped_failed"
)

// Plan records where a track should live and what happened to it.
type Plan struct {
	Source string
	Target string
	Status Status
	Err    error
}

// Final returns the path the track occupies after the plan ran: the target
// when the file moved, the source otherwise.
func (p Plan) Final() string {
	if p.Status == StatusMoved {
		return p.Target
	}
	return p.Source
}

// Planner derives canonical artist/album/title paths for tracks.
type Planner struct {
	// exists is swapped in tests to simulate probing failures.
	exists func(string) (bool, error)
}

// NewPlanner returns a planner backed by the real filesystem.
func NewPlanner() Planner {
	return Planner{exists: fileutil.Exists}
}

// Plan computes the destination for track under basePath. The returned plan
// is either skipped_already_correct (target equals the source ignoring case),
// skipped_failed (probing the filesystem failed, target = source) or a pending
// move whose Target is the first free name. Plan itself never mutates the
// filesystem.
func (p Planner) Plan(track *library.Track, basePath string) Plan {
	if track == nil || strings.TrimSpace(track.Path) == "" {
		return Plan{Status: StatusSkippedFailed, Err: fmt.Errorf("track has no path")}
	}
	source := filepath.Clean(track.Path)
	target := CanonicalPath(track, basePath)
	if strings.EqualFold(target, source) {
		return Plan{Source: source, Target: source, Status: StatusSkippedAlreadyCorrect}
	}
	resolved, err := p.resolveCollision(target, source)
	if err != nil {
		return Plan{Source: source, Target: source, Status: StatusSkippedFailed, Err: err}
	}
	if strings.EqualFold(resolved, source) {
		return Plan{Source: source, Target: source, Status: StatusSkippedAlreadyCorrect}
	}
	return Plan{Source: source, Target: resolved}
}

// CanonicalPath composes basePath/artist/album/title.ext for track without
// collision handling. An empty basePath resolves to the track's directory.
func CanonicalPath(track *library.Track, basePath string) string {
	source := filepath.Clean(track.Path)
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		basePath = filepath.Dir(source)
	}
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)

	title := strings.TrimSpace(track.Title)
	if title == "" {
		title = stem
	}
	artist := textutil.SanitizeSegment(defaultString(track.PrimaryArtist(), textutil.FallbackArtist), textutil.FallbackArtist)
	album := textutil.SanitizeSegment(defaultString(track.Album, textutil.FallbackAlbum), textutil.FallbackAlbum)
	name := textutil.SanitizeSegment(title, textutil.FallbackTitle)

	return filepath.Join(filepath.Clean(basePath), artist, album, name+ext)
}

// resolveCollision probes target, target (1), target (2), ... and returns the
// first name that does not exist. Reaching the source itself stops the probe
// so a track parked on a suffixed name keeps it.
func (p Planner) resolveCollision(target, source string) (string, error) {
	exists := p.exists
	if exists == nil {
		exists = fileutil.Exists
	}
	dir := filepath.Dir(target)
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(filepath.Base(target), ext)

	candidate := target
	for counter := 1; ; counter++ {
		if strings.EqualFold(candidate, source) {
			return candidate, nil
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, counter, ext))
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
