package organizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jellyzam/internal/library"
)

func TestOrganizeReprobesWhenTargetAppears(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(t.TempDir(), "in.mp3")
	if err := os.WriteFile(source, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewEngine()
	racer := filepath.Join(base, "Band", "Album", "Song.mp3")
	raced := false
	engine.move = func(src, dst string) error {
		if !raced {
			raced = true
			if err := os.MkdirAll(filepath.Dir(racer), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(racer, []byte("other"), 0o644); err != nil {
				return err
			}
		}
		return moveNoClobber(src, dst)
	}

	track := &library.Track{Path: source, Title: "Song", Album: "Album", Artists: []string{"Band"}}
	plan := engine.Organize(context.Background(), track, base)
	want := filepath.Join(base, "Band", "Album", "Song (1).mp3")
	if plan.Status != StatusMoved || plan.Target != want {
		t.Fatalf("expected re-probed move to %s, got %#v", want, plan)
	}
	data, err := os.ReadFile(racer)
	if err != nil || string(data) != "other" {
		t.Fatalf("racing file clobbered: %q err=%v", data, err)
	}
}

func TestMoveNoClobberRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	if err := os.WriteFile(src, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := moveNoClobber(src, dst); err != errTargetTaken {
		t.Fatalf("expected errTargetTaken, got %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source removed: %v", err)
	}
}

func TestSortDeepestFirstUsesSegmentCount(t *testing.T) {
	dirs := []string{
		"/m/a-really-long-directory-name-at-depth-two",
		"/m/a/b/c",
		"/m/a/b",
		"/m/x/y",
	}
	sortDeepestFirst(dirs)
	want := []string{"/m/a/b/c", "/m/a/b", "/m/x/y", "/m/a-really-long-directory-name-at-depth-two"}
	for i := range want {
		if dirs[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (%v)", i, want[i], dirs[i], dirs)
		}
	}
}

func TestLockFileNameIsReadableAndKeyedOnPath(t *testing.T) {
	if got := lockFileName("  "); got != "organize-in-place.lock" {
		t.Fatalf("unexpected in-place lock name %q", got)
	}
	a := lockFileName("/srv/Music Library")
	if !strings.HasPrefix(a, "organize-music_library-") || !strings.HasSuffix(a, ".lock") {
		t.Fatalf("unexpected lock name %q", a)
	}
	if b := lockFileName("/srv/Music Library/"); b != a {
		t.Fatalf("expected trailing slash to share lock, got %q and %q", a, b)
	}
	if c := lockFileName("/mnt/Music Library"); c == a {
		t.Fatalf("expected distinct paths with the same base name to differ, both %q", c)
	}
}
