package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"jellyzam/internal/textutil"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback string
		want     string
	}{
		{"plain", "Back in Black", "Unknown", "Back in Black"},
		{"slash", "AC/DC", "Unknown Artist", "AC_DC"},
		{"lone underscore kept", "snake_case", "Unknown", "snake_case"},
		{"illegal run collapses", `What?: "Now" <live>`, "Unknown", "What Now live_"},
		{"underscores collapse", "lo__fi   beats_", "Unknown", "lo fi beats_"},
		{"mixed run collapses", "a _ b", "Unknown", "a b"},
		{"control characters", "bad\x00name\ttab", "Unknown", "bad_name tab"},
		{"single illegal", "/", "Unknown", "Unknown"},
		{"only illegal", `<>:"/\|?*`, "Unknown Album", "Unknown Album"},
		{"blank", "   ", "Unknown Artist", "Unknown Artist"},
		{"dots only", "..", "Unknown", "Unknown"},
		{"dots inside kept", "Mr. Brightside...", "Unknown", "Mr. Brightside..."},
		{"nfc", "Beyoncé", "Unknown", "Beyoncé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.SanitizeSegment(tt.value, tt.fallback); got != tt.want {
				t.Fatalf("SanitizeSegment(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestSanitizeSegmentCapsLength(t *testing.T) {
	long := strings.Repeat("a", 99) + " " + strings.Repeat("b", 50)
	got := textutil.SanitizeSegment(long, "Unknown")
	if n := utf8.RuneCountInString(got); n > textutil.MaxSegmentRunes {
		t.Fatalf("expected at most %d runes, got %d", textutil.MaxSegmentRunes, n)
	}
	if strings.HasSuffix(got, " ") {
		t.Fatalf("expected trailing space trimmed after cap, got %q", got)
	}
	if got != strings.Repeat("a", 99) {
		t.Fatalf("unexpected capped value %q", got)
	}
}

func TestSanitizeSegmentInvariants(t *testing.T) {
	inputs := []string{
		"", " ", "AC/DC", "a\\b", "x|y", "q?", "*star*", "été", strings.Repeat("é", 300),
		"tab\tsep", "new\nline", "__", "...", ". .", "mixed _ - _ names",
	}
	for _, in := range inputs {
		got := textutil.SanitizeSegment(in, "Unknown")
		if got == "" {
			t.Fatalf("empty result for %q", in)
		}
		if strings.ContainsAny(got, `<>:"/\|?*`) {
			t.Fatalf("illegal character survived for %q: %q", in, got)
		}
		if strings.TrimSpace(got) != got {
			t.Fatalf("untrimmed result for %q: %q", in, got)
		}
		for _, run := range []string{"  ", "__", " _", "_ "} {
			if strings.Contains(got, run) {
				t.Fatalf("separator run %q in result for %q: %q", run, in, got)
			}
		}
		if utf8.RuneCountInString(got) > textutil.MaxSegmentRunes {
			t.Fatalf("result too long for %q", in)
		}
		if strings.Trim(got, ".") == "" {
			t.Fatalf("dot-only segment for %q: %q", in, got)
		}
		if again := textutil.SanitizeSegment(got, "Unknown"); again != got {
			t.Fatalf("sanitize not idempotent for %q: %q then %q", in, got, again)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := textutil.SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
	if got := textutil.SanitizeToken("/Music/Library"); got != "music_library" {
		t.Fatalf("unexpected token %q", got)
	}
}
