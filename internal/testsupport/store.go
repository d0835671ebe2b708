package testsupport

import (
	"context"
	"testing"

	"jellyzam/internal/config"
	"jellyzam/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddTrack writes an audio placeholder at path and catalogues it with the
// given metadata.
func AddTrack(t testing.TB, store *library.Store, path, title, album string, artists ...string) *library.Track {
	t.Helper()

	WriteFile(t, path, 4096)
	track, _, err := store.Add(context.Background(), &library.Track{
		Path:    path,
		Title:   title,
		Album:   album,
		Artists: artists,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return track
}
