package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Catalog", statusOK, "ready", false)
	if got != "  Catalog:           [OK] ready" {
		t.Fatalf("unexpected line %q", got)
	}
	if got := renderStatusLine("Jellyfin", statusWarn, "", false); !strings.HasSuffix(got, "[WARN]") {
		t.Fatalf("expected bare badge, got %q", got)
	}
	colored := renderStatusLine("Jellyfin", statusError, "down", true)
	if !strings.Contains(colored, "[ERROR] down") {
		t.Fatalf("expected colored error line, got %q", colored)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"Path", "Count"}, [][]string{{"a.mp3"}, {"b.mp3", "3"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Path", "Count", "a.mp3", "b.mp3", "3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "PATH") || strings.Index(out, "Path") > strings.Index(out, "a.mp3") {
		t.Fatalf("expected mixed-case header above rows:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestShouldColorizeRejectsBuffers(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}
