package identification_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"jellyzam/internal/identification"
	"jellyzam/internal/library"
	"jellyzam/internal/recognition"
	"jellyzam/internal/services"
)

type recordingPersister struct {
	updates []library.Track
	moves   []string
	err     error
}

func (p *recordingPersister) UpdateMetadata(_ context.Context, track *library.Track) error {
	if p.err != nil {
		return p.err
	}
	p.updates = append(p.updates, *track.Clone())
	return nil
}

func (p *recordingPersister) UpdatePath(_ context.Context, track *library.Track, newPath string) error {
	p.moves = append(p.moves, newPath)
	return nil
}

func TestReconcileFillsMissingFields(t *testing.T) {
	track := &library.Track{ID: "t1", Path: "/music/unknown.mp3"}
	persister := &recordingPersister{}

	outcome, err := identification.Reconcile(context.Background(), track, recognition.TrackDescriptor{
		Title:    " Thunderstruck ",
		Subtitle: "AC/DC",
		Album:    "The Razors Edge",
	}, false, persister)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !outcome.Changed || !reflect.DeepEqual(outcome.Fields, []string{"title", "artists", "album"}) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if track.Title != "Thunderstruck" || track.Album != "The Razors Edge" || !reflect.DeepEqual(track.Artists, []string{"AC/DC"}) {
		t.Fatalf("track not updated: %+v", track)
	}
	if track.ModifiedAt.IsZero() {
		t.Fatal("expected modification time to be stamped")
	}
	if len(persister.updates) != 1 || persister.updates[0].Title != "Thunderstruck" {
		t.Fatalf("expected one persisted update, got %+v", persister.updates)
	}
}

func TestReconcileSkipsCompleteTrackWithoutOverwrite(t *testing.T) {
	track := &library.Track{Title: "A", Album: "B", Artists: []string{"C"}}
	persister := &recordingPersister{}

	outcome, err := identification.Reconcile(context.Background(), track, recognition.TrackDescriptor{Title: "X", Artist: "Y", Album: "Z"}, false, persister)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !outcome.AlreadyComplete || outcome.Changed || len(persister.updates) != 0 {
		t.Fatalf("expected untouched complete track, got %+v", outcome)
	}
	if track.Title != "A" {
		t.Fatalf("track modified: %+v", track)
	}
}

func TestReconcileOverwriteKeepsIdenticalAndBlankFields(t *testing.T) {
	track := &library.Track{Title: "Song", Album: "Old Album", Artists: []string{" Band ", ""}}
	persister := &recordingPersister{}

	outcome, err := identification.Reconcile(context.Background(), track, recognition.TrackDescriptor{Title: "Song", Artist: "Band", Album: "  "}, true, persister)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if outcome.Changed || len(persister.updates) != 0 {
		t.Fatalf("expected no change, got %+v", outcome)
	}
	if track.Album != "Old Album" {
		t.Fatalf("blank matched album must not erase existing value, got %q", track.Album)
	}
}

func TestReconcilePersistFailureLeavesTrackUntouched(t *testing.T) {
	track := &library.Track{Title: "", Path: "/music/a.mp3"}
	persister := &recordingPersister{err: errors.New("disk full")}

	_, err := identification.Reconcile(context.Background(), track, recognition.TrackDescriptor{Title: "New"}, false, persister)
	if !errors.Is(err, services.ErrMetadataPersist) {
		t.Fatalf("expected ErrMetadataPersist, got %v", err)
	}
	if track.Title != "" || !track.ModifiedAt.IsZero() {
		t.Fatalf("track mutated despite failure: %+v", track)
	}
}

func TestReconcileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	track := &library.Track{}
	persister := &recordingPersister{}

	_, err := identification.Reconcile(ctx, track, recognition.TrackDescriptor{Title: "New"}, false, persister)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(persister.updates) != 0 {
		t.Fatal("persister called after cancellation")
	}
}

func TestHasCompleteMetadata(t *testing.T) {
	tests := []struct {
		name  string
		track *library.Track
		want  bool
	}{
		{"nil", nil, false},
		{"complete", &library.Track{Title: "a", Album: "b", Artists: []string{"c"}}, true},
		{"blank title", &library.Track{Title: " ", Album: "b", Artists: []string{"c"}}, false},
		{"no artists", &library.Track{Title: "a", Album: "b"}, false},
		{"blank artist", &library.Track{Title: "a", Album: "b", Artists: []string{" "}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := identification.HasCompleteMetadata(tt.track); got != tt.want {
				t.Fatalf("HasCompleteMetadata = %v, want %v", got, tt.want)
			}
		})
	}
}
