package library_test

import (
	"context"
	"errors"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jellyzam/internal/library"
	"jellyzam/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if store.Path() != cfg.CatalogPath() {
		t.Fatalf("unexpected catalog path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
}

func TestAddAndLookupTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := filepath.Join(testsupport.BaseDir(cfg), "music", "song.mp3")
	track := testsupport.AddTrack(t, store, path, "Back in Black", "Back in Black", "AC/DC")
	if track.ID == "" {
		t.Fatal("expected identifier to be assigned")
	}

	fetched, err := store.Get(ctx, track.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.Title != "Back in Black" || fetched.PrimaryArtist() != "AC/DC" {
		t.Fatalf("unexpected track: %#v", fetched)
	}

	again, added, err := store.Add(ctx, &library.Track{Path: path, Title: "Other"})
	if err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if added || again.ID != track.ID {
		t.Fatalf("expected existing track for duplicate path, got added=%v id=%s", added, again.ID)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing track, got %#v err=%v", missing, err)
	}
}

func TestUpdateMetadataAndPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	track := testsupport.AddTrack(t, store, filepath.Join(testsupport.BaseDir(cfg), "a.flac"), "", "")
	track.Title = "Hells Bells"
	track.Album = "Back in Black"
	track.Artists = []string{"AC/DC"}
	track.ModifiedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := store.UpdateMetadata(ctx, track); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	newPath := filepath.Join(testsupport.BaseDir(cfg), "b.flac")
	if err := store.UpdatePath(ctx, track, newPath); err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}

	fetched, err := store.Get(ctx, track.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched.Title != "Hells Bells" || fetched.Album != "Back in Black" || fetched.Path != newPath {
		t.Fatalf("unexpected stored track: %#v", fetched)
	}
	if len(fetched.Artists) != 1 || fetched.Artists[0] != "AC/DC" {
		t.Fatalf("unexpected artists: %v", fetched.Artists)
	}

	ghost := &library.Track{ID: "ghost"}
	if err := store.UpdateMetadata(ctx, ghost); !errors.Is(err, library.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestConcurrentMetadataUpdates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tracks := make([]*library.Track, 16)
	for i := range tracks {
		path := filepath.Join(testsupport.BaseDir(cfg), "music", fmt.Sprintf("track-%02d.mp3", i))
		tracks[i] = testsupport.AddTrack(t, store, path, "", "")
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(tracks))
	for i, track := range tracks {
		wg.Add(1)
		go func(i int, track *library.Track) {
			defer wg.Done()
			update := *track
			update.Title = fmt.Sprintf("Song %d", i)
			update.Album = "Record"
			update.Artists = []string{"Band"}
			errs <- store.UpdateMetadata(ctx, &update)
		}(i, track)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent UpdateMetadata: %v", err)
		}
	}

	for i, track := range tracks {
		fetched, err := store.Get(ctx, track.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if want := fmt.Sprintf("Song %d", i); fetched.Title != want || fetched.Album != "Record" {
			t.Fatalf("unexpected metadata for %s: %+v", track.ID, fetched)
		}
	}
}

func TestTracksOrderedByPathAndPruneMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	base := testsupport.BaseDir(cfg)

	testsupport.AddTrack(t, store, filepath.Join(base, "b.mp3"), "B", "")
	gone := testsupport.AddTrack(t, store, filepath.Join(base, "a.mp3"), "A", "")

	tracks, err := store.Tracks(ctx)
	if err != nil {
		t.Fatalf("Tracks: %v", err)
	}
	if len(tracks) != 2 || tracks[0].Title != "A" || tracks[1].Title != "B" {
		t.Fatalf("unexpected order: %#v", tracks)
	}

	if err := os.Remove(gone.Path); err != nil {
		t.Fatal(err)
	}
	removed, err := store.PruneMissing(ctx)
	if err != nil {
		t.Fatalf("PruneMissing: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned track, got %d", removed)
	}
	if count, _ := store.Count(ctx); count != 1 {
		t.Fatalf("expected 1 remaining track, got %d", count)
	}
}

func TestRunsAndInitialScanState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, kind := range []string{"initial", "unknown"} {
		run := library.RunRecord{
			Kind:       kind,
			Success:    true,
			Total:      3,
			Processed:  3,
			Identified: i + 1,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			Duration:   time.Minute,
		}
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	runs, err := store.Runs(ctx, 1)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Kind != "unknown" || runs[0].Duration != time.Minute || runs[0].ID == "" {
		t.Fatalf("unexpected runs: %#v", runs)
	}

	done, err := store.InitialScanCompleted(ctx)
	if err != nil || done {
		t.Fatalf("expected initial scan pending, got %v err=%v", done, err)
	}
	if err := store.MarkInitialScanCompleted(ctx); err != nil {
		t.Fatalf("MarkInitialScanCompleted: %v", err)
	}
	if err := store.MarkInitialScanCompleted(ctx); err != nil {
		t.Fatalf("MarkInitialScanCompleted twice: %v", err)
	}
	if done, _ := store.InitialScanCompleted(ctx); !done {
		t.Fatal("expected initial scan completed")
	}
	if err := store.ResetInitialScan(ctx); err != nil {
		t.Fatalf("ResetInitialScan: %v", err)
	}
	if done, _ := store.InitialScanCompleted(ctx); done {
		t.Fatal("expected flag cleared")
	}
}
