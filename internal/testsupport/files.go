package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// FillByte is the byte WriteFile repeats; samplers see it as the first byte
// of any fake audio file.
const FillByte = 0x42

// WriteFile creates path, and any missing parents, holding size copies of
// FillByte. A non-positive size writes one byte so the file is never empty.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{FillByte}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
